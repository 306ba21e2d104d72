package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/omribarmats/pricegit/internal/logger"
)

// Config holds the configuration for the NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

// ApprovedPriceEvent is published whenever an observation becomes approved,
// for downstream consumers (extension push, notifications).
type ApprovedPriceEvent struct {
	ObservationID string    `json:"observation_id"`
	ProductID     string    `json:"product_id"`
	Price         float64   `json:"price"`
	Currency      string    `json:"currency"`
	Country       string    `json:"country"`
	City          *string   `json:"city,omitempty"`
	Fulfillment   string    `json:"fulfillment"`
	Condition     string    `json:"condition"`
	ApprovedAt    time.Time `json:"approved_at"`
}

// Publisher defines the interface for publishing approved-price events
type Publisher interface {
	// PublishApproved publishes an approved-price event
	PublishApproved(ctx context.Context, event *ApprovedPriceEvent) error
	// Close closes the underlying connection
	Close()
}

type jetStreamPublisher struct {
	nc         *nats.Conn
	js         jetstream.JetStream
	streamName string
}

// NewJetStreamPublisher creates a new NATS JetStream publisher
func NewJetStreamPublisher(cfg Config) (Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &jetStreamPublisher{
		nc:         nc,
		js:         js,
		streamName: cfg.StreamName,
	}, nil
}

// PublishApproved publishes an approved-price event to NATS JetStream
func (p *jetStreamPublisher) PublishApproved(ctx context.Context, event *ApprovedPriceEvent) error {
	logger.DebugCtx(ctx, "Publishing approved-price event", zap.Any("event", event))

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, eventSubject(event.Country), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Close closes the NATS connection
func (p *jetStreamPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

// eventSubject builds the per-country subject so consumers can subscribe to
// prices.approved.<country> or prices.approved.>
func eventSubject(country string) string {
	return fmt.Sprintf("prices.approved.%s", strings.ToLower(country))
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops all events. Used when no
// NATS URL is configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishApproved(_ context.Context, _ *ApprovedPriceEvent) error {
	return nil
}

func (noopPublisher) Close() {}
