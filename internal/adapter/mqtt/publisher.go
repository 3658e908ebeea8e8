// Package mqtt mirrors canonical modules onto an MQTT broker, one retained
// message per module under <prefix>/<station id>/<module id>.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
)

const qos byte = 1

// Publisher implements domain.Sink and pipeline.BatchLoader over a paho client.
type Publisher struct {
	client pahomqtt.Client
	prefix string
	logger *slog.Logger
}

// Options configures a broker connection.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
}

// Connect dials the broker and returns a Publisher once the first connection
// succeeds or ctx is done.
func Connect(ctx context.Context, opts Options, logger *slog.Logger) (*Publisher, error) {
	co := pahomqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	co.SetCleanSession(true)
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectRetryInterval(5 * time.Second)
	co.SetMaxReconnectInterval(time.Minute)
	co.SetKeepAlive(30 * time.Second)
	co.SetOnConnectHandler(func(_ pahomqtt.Client) {
		logger.Info("mqtt connected", "broker", opts.Broker)
	})
	co.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	client := pahomqtt.NewClient(co)
	if err := wait(ctx, client.Connect()); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return NewPublisher(client, opts.TopicPrefix, logger), nil
}

// NewPublisher wraps an already configured client.
func NewPublisher(client pahomqtt.Client, prefix string, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, prefix: strings.TrimSuffix(prefix, "/"), logger: logger}
}

// Topic returns the topic a module is published under.
func (p *Publisher) Topic(m domain.Module) string {
	return p.prefix + "/" + m.StationID + "/" + m.ModuleID
}

// WriteModule publishes m as a retained JSON message.
func (p *Publisher) WriteModule(ctx context.Context, m domain.Module) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("serialize module: %w", err)
	}
	if err := wait(ctx, p.client.Publish(p.Topic(m), qos, true, data)); err != nil {
		return fmt.Errorf("publish %s: %w", p.Topic(m), err)
	}
	return nil
}

// LoadBatch publishes every module, continuing past failures.
func (p *Publisher) LoadBatch(ctx context.Context, modules []domain.Module) error {
	var errs []error
	for i := range modules {
		if err := p.WriteModule(ctx, modules[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

func wait(ctx context.Context, tok pahomqtt.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
