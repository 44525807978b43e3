package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"hmadashboard/pkg/logger"
)

// FallbackPublisher publishes directly and parks the event in the outbox
// when the broker rejects it, so the Dispatcher can deliver it later.
type FallbackPublisher struct {
	primary EventPublisher
	store   Store
	logger  *zap.Logger
}

func NewFallbackPublisher(primary EventPublisher, store Store, logger *zap.Logger) *FallbackPublisher {
	return &FallbackPublisher{primary: primary, store: store, logger: logger}
}

// Publish returns an error only when both the broker and the outbox fail.
func (p *FallbackPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	pubErr := p.primary.Publish(ctx, routingKey, payload)
	if pubErr == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("publish %s: %w (encode: %v)", routingKey, pubErr, err)
	}
	if err := p.store.Insert(ctx, routingKey, raw); err != nil {
		return fmt.Errorf("publish %s: %w (outbox: %v)", routingKey, pubErr, err)
	}

	logger.WithTrace(ctx, p.logger).Warn("Event parked in outbox",
		zap.String("routing_key", routingKey),
		zap.Error(pubErr),
	)
	return nil
}
