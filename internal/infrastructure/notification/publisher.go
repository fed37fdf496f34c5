package notification

import (
	"context"
	"fmt"

	"rx-logistics/internal/config"
	"rx-logistics/internal/logger"
	pkgmqtt "rx-logistics/pkg/mqtt"

	"go.uber.org/zap"
)

type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close()
}

type brokerClient interface {
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error
	Disconnect()
}

// MQTTPublisher publishes events at QoS 1 so the broker acknowledges them.
type MQTTPublisher struct {
	client brokerClient
	qos    byte
}

func NewMQTTPublisher(cfg config.MQTTConfig) (*MQTTPublisher, error) {
	client := pkgmqtt.NewClient(pkgmqtt.DefaultConfig(cfg.Broker, cfg.ClientID, cfg.Username, cfg.Password))
	if err := client.Connect(); err != nil {
		return nil, err
	}

	return &MQTTPublisher{client: client, qos: 1}, nil
}

func (p *MQTTPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := p.client.Publish(ctx, topic, p.qos, false, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect()
}

// NoopPublisher stands in when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	logger.Debug("MQTT not configured, event skipped",
		zap.String("event", "publish_skipped"),
		zap.String("topic", topic),
	)
	return nil
}

func (NoopPublisher) Close() {}
