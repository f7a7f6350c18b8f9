package ranger

import (
	"context"
	"log/slog"
)

// Tee sends each measurement to Primary and then to every mirror.  Only the
// primary exchange decides the result; mirror failures are logged.
type Tee struct {
	Primary Reporter
	Mirrors []Reporter
	Log     *slog.Logger
}

func (t *Tee) Report(ctx context.Context, m Measurement) error {
	err := t.Primary.Report(ctx, m)
	for _, mirror := range t.Mirrors {
		if merr := mirror.Report(ctx, m); merr != nil {
			t.logger().Warn("Mirror report failed", "err", merr)
		}
	}
	return err
}

func (t *Tee) logger() *slog.Logger {
	if t.Log != nil {
		return t.Log
	}
	return slog.Default()
}
