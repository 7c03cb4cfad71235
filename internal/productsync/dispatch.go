package productsync

import (
	"context"

	"storesync/internal/events"
	"storesync/internal/models"
	"storesync/internal/reconciler"
)

// Dispatcher starts the sync that follows a local catalog change. Inline
// dispatch returns the result; queued dispatch returns nil once the request
// is on the topic.
type Dispatcher interface {
	Dispatch(ctx context.Context, action models.SyncAction, p *models.Product) (*reconciler.SyncResult, error)
}

type InlineDispatcher struct {
	service *Service
}

func NewInlineDispatcher(service *Service) *InlineDispatcher {
	return &InlineDispatcher{service: service}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, action models.SyncAction, p *models.Product) (*reconciler.SyncResult, error) {
	result, err := d.service.Sync(ctx, action, p)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type QueueDispatcher struct {
	publisher events.Publisher
}

func NewQueueDispatcher(publisher events.Publisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, action models.SyncAction, p *models.Product) (*reconciler.SyncResult, error) {
	return nil, d.publisher.Publish(ctx, events.NewProductEvent(action, p))
}
