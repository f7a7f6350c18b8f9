//go:build !tinygo

package deepsleep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
)

// SecondsPlaceholder in a sleep command is replaced by the sleep duration in
// whole seconds
const SecondsPlaceholder = "{seconds}"

// Command sleeps by running an external command such as
// "rtcwake -m mem -s {seconds}", which returns once the host wakes again.  If
// the command fails the node still sleeps, in-process.
type Command struct {
	args []string
	Log  *slog.Logger
}

func NewCommand(cmdline string) (*Command, error) {
	args, err := shlex.Split(cmdline)
	if err != nil {
		return nil, fmt.Errorf("sleep command %q: %w", cmdline, err)
	}
	if len(args) == 0 {
		return nil, errors.New("sleep command is empty")
	}
	return &Command{args: args}, nil
}

// Args returns the command line for a sleep of d
func (c *Command) Args(d time.Duration) []string {
	secs := strconv.FormatInt(int64(d.Round(time.Second)/time.Second), 10)
	args := make([]string, len(c.args))
	for i, a := range c.args {
		args[i] = strings.ReplaceAll(a, SecondsPlaceholder, secs)
	}
	return args
}

func (c *Command) Sleep(ctx context.Context, d time.Duration) error {
	args := c.Args(d)
	out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	err = fmt.Errorf("sleep command %q: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	c.logger().Error("Sleep command failed, sleeping in-process", "err", err)
	if terr := (Timer{}).Sleep(ctx, d); terr != nil {
		return terr
	}
	return err
}

func (c *Command) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}
