package tinynet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tinygo.org/x/drivers/netlink"

	"github.com/merliot/ranger"
)

const (
	DefaultRetries     = 3
	DefaultJoinTimeout = 30 * time.Second
)

var errNoChip = errors.New("no network chip found")

// WiFi implements ranger.Link by joining an access point through whatever
// network chip the board has.  The join makes at most Retries attempts
// sharing Timeout between them; a driver that does not give up in time is
// abandoned.
type WiFi struct {
	Ssid       string
	Passphrase string
	Retries    int
	Timeout    time.Duration
	Log        *slog.Logger
	link       netlink.Netlinker
	probe      func() netlink.Netlinker
}

func NewWiFi(ssid, pass string, timeout time.Duration) *WiFi {
	return &WiFi{
		Ssid:       ssid,
		Passphrase: pass,
		Retries:    DefaultRetries,
		Timeout:    timeout,
		probe:      probeLink,
	}
}

func (w *WiFi) logger() *slog.Logger {
	if w.Log != nil {
		return w.Log
	}
	return slog.Default()
}

// params never leaves Retries at zero, which netlink drivers take as
// retry forever
func (w *WiFi) params() *netlink.ConnectParams {
	retries := w.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultJoinTimeout
	}
	return &netlink.ConnectParams{
		Ssid:           w.Ssid,
		Passphrase:     w.Passphrase,
		Retries:        retries,
		ConnectTimeout: timeout / time.Duration(retries),
	}
}

func (w *WiFi) Associate(ctx context.Context) error {
	if w.link == nil && w.probe != nil {
		w.link = w.probe()
	}
	if w.link == nil {
		return &ranger.Error{Kind: ranger.KindAssociation, Err: errNoChip}
	}

	params := w.params()
	limit := time.Duration(params.Retries+1) * params.ConnectTimeout

	done := make(chan error, 1)
	go func() { done <- w.link.NetConnect(params) }()

	guard := time.NewTimer(limit)
	defer guard.Stop()

	var err error
	select {
	case err = <-done:
	case <-guard.C:
		err = fmt.Errorf("join %q: no connection after %s", w.Ssid, limit)
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		return &ranger.Error{Kind: ranger.KindAssociation, Err: err}
	}

	log := w.logger()
	mac, err := w.link.GetHardwareAddr()
	if err != nil {
		log.Warn("Connected to Wi-Fi, MAC unknown", "ssid", w.Ssid, "err", err)
		return nil
	}
	log.Info("Connected to Wi-Fi", "ssid", w.Ssid, "mac", mac.String())
	return nil
}
