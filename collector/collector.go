// Package collector talks to the remote collector: one exchange to register
// the node, one per wake to report a measurement.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/merliot/ranger"
)

const (
	DefaultRegisterPath = "/iot/"
	DefaultMeasurePath  = "/measurement/"
	DefaultTimeout      = 10 * time.Second
)

type Options struct {
	BaseURL      string
	RegisterPath string
	MeasurePath  string
	// Timeout bounds each exchange, connect to last byte
	Timeout time.Duration
	Log     *slog.Logger
}

// Client implements ranger.Registrar and ranger.Reporter.  Every exchange is
// a single attempt on its own connection, closed when the exchange ends.
type Client struct {
	http         *resty.Client
	registerPath string
	measurePath  string
	log          *slog.Logger
}

func New(opts Options) *Client {
	if opts.RegisterPath == "" {
		opts.RegisterPath = DefaultRegisterPath
	}
	if opts.MeasurePath == "" {
		opts.MeasurePath = DefaultMeasurePath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
			SetTimeout(opts.Timeout).
			SetRetryCount(0).
			SetCloseConnection(true).
			SetHeader("Content-Type", "application/json"),
		registerPath: opts.RegisterPath,
		measurePath:  opts.MeasurePath,
		log:          opts.Log,
	}
}

type registration struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

type registered struct {
	ID *string `json:"_id"`
}

// Name and key only need to be unique enough; collisions are the
// collector's problem
func newRegistration() registration {
	return registration{
		Name: fmt.Sprintf("Device%d", rand.Intn(1000)),
		Key:  "Key" + uuid.NewString(),
	}
}

// Register asks the collector for a new identity.  Only a 200 carrying a
// valid "_id" string counts as success.
func (c *Client) Register(ctx context.Context) (ranger.Identity, error) {
	req := newRegistration()
	c.log.Info("Registering", "name", req.Name)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.registerPath)
	if err != nil {
		return "", &ranger.Error{Kind: ranger.KindRegistration, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return "", &ranger.Error{Kind: ranger.KindRegistration, Code: resp.StatusCode(),
			Err: fmt.Errorf("collector answered %s", resp.Status())}
	}
	c.log.Debug("Registration response", "body", resp.String())

	var body registered
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", &ranger.Error{Kind: ranger.KindRegistration,
			Err: fmt.Errorf("%w: %v", ranger.ErrMalformedResponse, err)}
	}
	if body.ID == nil || !ranger.ValidIdentity(*body.ID) {
		return "", &ranger.Error{Kind: ranger.KindRegistration,
			Err: fmt.Errorf("%w: no usable _id", ranger.ErrMalformedResponse)}
	}
	return ranger.Identity(*body.ID), nil
}

// Report submits one measurement.  Anything but a 200 is an error.
func (c *Client) Report(ctx context.Context, m ranger.Measurement) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(m).
		Post(c.measurePath)
	if err != nil {
		return &ranger.Error{Kind: ranger.KindReport, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return &ranger.Error{Kind: ranger.KindReport, Code: resp.StatusCode(),
			Err: fmt.Errorf("collector answered %s", resp.Status())}
	}
	return nil
}
