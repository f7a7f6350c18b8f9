//go:build !tinygo

package tinynet

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/merliot/ranger"
)

// DefaultInterval is the pause between reachability checks
const DefaultInterval = time.Second

// Probe implements ranger.Link for hosts.  Associate dials the collector
// every Interval until a connection opens or Timeout passes.
type Probe struct {
	Addr     string
	Timeout  time.Duration
	Interval time.Duration
	Log      *slog.Logger
	dial     func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewProbe(collectorURL string, timeout time.Duration) (*Probe, error) {
	addr, err := collectorAddr(collectorURL)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	return &Probe{
		Addr:     addr,
		Timeout:  timeout,
		Interval: DefaultInterval,
		dial:     d.DialContext,
	}, nil
}

func (p *Probe) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

func (p *Probe) Associate(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	attempts := 0
	op := func() error {
		attempts++
		dctx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		conn, err := p.dial(dctx, "tcp", p.Addr)
		if err != nil {
			p.logger().Debug("Collector not reachable yet", "addr", p.Addr, "err", err)
			return err
		}
		return conn.Close()
	}

	retries := uint64(p.Timeout / interval)
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), retries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return &ranger.Error{Kind: ranger.KindAssociation, Err: err}
	}
	p.logger().Info("Network up", "collector", p.Addr, "attempts", attempts)
	return nil
}
