package processors

import (
	"context"
	"errors"

	"storesync/internal/events"
	"storesync/internal/logger"
	"storesync/internal/metrics"
	"storesync/internal/models"
	"storesync/internal/reconciler"
	"storesync/internal/store"
)

type Syncer interface {
	Sync(ctx context.Context, action models.SyncAction, p *models.Product) (reconciler.SyncResult, error)
	SyncByID(ctx context.Context, action models.SyncAction, id string) (reconciler.SyncResult, error)
}

type EventProcessor struct {
	syncer Syncer
	logger *logger.Logger
}

func NewEventProcessor(syncer Syncer, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		syncer: syncer,
		logger: logger,
	}
}

// Process runs the sync an event asks for. Gateway failures are recorded on
// the product and are not errors here; an error means the outcome could not
// be recorded.
func (ep *EventProcessor) Process(ctx context.Context, event events.Event) error {
	action, ok := event.Action()
	if !ok {
		ep.logger.Warn("Skipping event %s of unknown type %q", event.ID, event.Type)
		metrics.ObserveWorkerMessage(string(event.Type), "skipped")
		return nil
	}

	var (
		result reconciler.SyncResult
		err    error
	)
	if action == models.SyncActionDelete {
		result, err = ep.syncer.Sync(ctx, action, event.DeletedProduct())
	} else {
		result, err = ep.syncer.SyncByID(ctx, action, event.ProductID)
	}

	if errors.Is(err, store.ErrProductNotFound) {
		ep.logger.Info("Product %s is gone, skipping %s", event.ProductID, event.Type)
		metrics.ObserveWorkerMessage(string(event.Type), "skipped")
		return nil
	}
	if err != nil {
		metrics.ObserveWorkerMessage(string(event.Type), "error")
		return err
	}

	status := "synced"
	if !result.Success {
		status = "sync_failed"
		ep.logger.Warn("Product %s %s sync failed: %s", event.ProductID, action, result.Error)
	}
	metrics.ObserveWorkerMessage(string(event.Type), status)
	return nil
}
