package events

import (
	"context"

	"go.uber.org/zap"
)

// NoopPublisher logs events instead of delivering them. It is used when no
// broker is configured, so the service wiring never needs a nil check at
// publish time.
type NoopPublisher struct {
	logger *zap.Logger
}

// NewNoopPublisher creates a NoopPublisher.
func NewNoopPublisher(logger *zap.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

// PublishRootUpdated implements Publisher. It logs the event and succeeds.
func (n *NoopPublisher) PublishRootUpdated(_ context.Context, ev RootUpdated) error {
	n.logger.Info("event publish skipped (no broker configured)",
		zap.String("type", ev.Type),
		zap.String("owner", ev.Owner),
		zap.Uint16("edge_count", ev.EdgeCount),
	)
	return nil
}

// Close implements Publisher.
func (n *NoopPublisher) Close() error { return nil }
