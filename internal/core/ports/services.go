package ports

import (
	"context"

	"github.com/samirrijal/gateflow/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishFlowComputed(ctx context.Context, event *domain.FlowEvent) error
	PublishBatchIngested(ctx context.Context, event *domain.BatchIngested) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeBatchIngested(ctx context.Context, handler func(ctx context.Context, event *domain.BatchIngested) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
