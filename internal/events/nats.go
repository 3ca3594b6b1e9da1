package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"rwa-registry-go/internal/models"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const defaultSubjectPrefix = "rwa.events"

// jetStreamPublisher is the subset of jetstream.JetStream the publisher needs
type jetStreamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSPublisher publishes registry events to NATS JetStream
type NATSPublisher struct {
	nc     *nats.Conn
	js     jetStreamPublisher
	prefix string
}

// NewNATSPublisher connects to NATS and makes sure a stream captures the
// event subjects.
func NewNATSPublisher(ctx context.Context, cfg models.EventsConfig) (*NATSPublisher, error) {
	if cfg.NatsURL == "" {
		return nil, fmt.Errorf("nats url cannot be empty")
	}
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}

	opts := []nats.Option{
		nats.Name(cfg.NatsConnectName),
		nats.MaxReconnects(cfg.NatsReconnectMax),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				zap.L().Error("Disconnected from NATS", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			zap.L().Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			zap.L().Info("NATS connection closed")
		}),
	}

	zap.L().Info("Connecting to NATS", zap.String("url", cfg.NatsURL), zap.String("subject_prefix", prefix))
	nc, err := nats.Connect(cfg.NatsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName(prefix),
		Subjects: []string{prefix + ".>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	return &NATSPublisher{nc: nc, js: js, prefix: prefix}, nil
}

func (p *NATSPublisher) Name() string { return "nats" }

// Handle publishes the event as JSON. The event id is the JetStream message
// id, so retried deliveries are de-duplicated by the server.
func (p *NATSPublisher) Handle(ctx context.Context, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := buildSubject(p.prefix, event.Type)
	ack, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.Id))
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	zap.L().Debug("Event published to NATS",
		zap.String("subject", subject),
		zap.String("event_id", event.Id),
		zap.Uint64("sequence", ack.Sequence),
		zap.Bool("duplicate", ack.Duplicate))
	return nil
}

// Close closes the NATS connection
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}

// buildSubject constructs the subject for an event type.
// Format: {prefix}.{snake_event_type}, e.g. rwa.events.distribution_claimed
func buildSubject(prefix string, eventType models.EventType) string {
	return prefix + "." + lo.SnakeCase(string(eventType))
}

// streamName derives a valid stream name from the subject prefix
func streamName(prefix string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "*", "", ">", "").Replace(prefix))
}
