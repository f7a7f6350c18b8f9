//go:build !tinygo

// Package mqttpub mirrors measurements to an MQTT broker
package mqttpub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/merliot/ranger"
)

const (
	DefaultTopic   = "ranger/measurement"
	DefaultTimeout = 10 * time.Second
	qos            = 1
)

// Publisher implements ranger.Reporter.  Each Report connects, publishes the
// measurement JSON and disconnects, so no connection outlives the exchange.
type Publisher struct {
	broker    string
	topic     string
	timeout   time.Duration
	opts      *mqtt.ClientOptions
	newClient func(*mqtt.ClientOptions) mqtt.Client
}

func New(broker, topic string, timeout time.Duration) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("ranger-" + uuid.NewString()[:8]).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(timeout)
	return &Publisher{
		broker:    broker,
		topic:     topic,
		timeout:   timeout,
		opts:      opts,
		newClient: mqtt.NewClient,
	}
}

func (p *Publisher) Report(ctx context.Context, m ranger.Measurement) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}

	// Disconnect also stops a connect still in flight
	client := p.newClient(p.opts)
	defer client.Disconnect(250)
	if err := p.wait(ctx, client.Connect()); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", p.broker, err)
	}

	if err := p.wait(ctx, client.Publish(p.topic, qos, false, payload)); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", p.topic, err)
	}
	return nil
}

func (p *Publisher) wait(ctx context.Context, tok mqtt.Token) error {
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-tok.Done():
		return tok.Error()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", p.timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
