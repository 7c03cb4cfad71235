// Package productsync runs one product reconciliation at a time per product
// and records its outcome.
package productsync

import (
	"context"
	"fmt"

	"storesync/internal/lock"
	"storesync/internal/logger"
	"storesync/internal/models"
	"storesync/internal/reconciler"
)

type Reconciler interface {
	Sync(ctx context.Context, action models.SyncAction, p *models.Product) reconciler.SyncResult
}

type ProductRepository interface {
	Get(ctx context.Context, id string) (*models.Product, error)
	RecordSync(ctx context.Context, productID string, action models.SyncAction, result reconciler.SyncResult) error
}

type Service struct {
	reconciler Reconciler
	products   ProductRepository
	locker     lock.Locker
	logger     *logger.Logger
}

func NewService(r Reconciler, products ProductRepository, locker lock.Locker, logger *logger.Logger) *Service {
	return &Service{
		reconciler: r,
		products:   products,
		locker:     locker,
		logger:     logger,
	}
}

// Sync reconciles p and records the result while holding p's lock. The
// returned error is about locking or recording only; a gateway failure is
// reported in the SyncResult.
func (s *Service) Sync(ctx context.Context, action models.SyncAction, p *models.Product) (reconciler.SyncResult, error) {
	unlock, err := s.locker.Lock(ctx, lockKey(p.ID))
	if err != nil {
		return reconciler.SyncResult{}, fmt.Errorf("lock product %s: %w", p.ID, err)
	}
	defer unlock()

	return s.run(ctx, action, p)
}

// SyncByID reloads the product under its lock before reconciling, so queued
// requests always push the latest local state and the latest linkage.
func (s *Service) SyncByID(ctx context.Context, action models.SyncAction, id string) (reconciler.SyncResult, error) {
	unlock, err := s.locker.Lock(ctx, lockKey(id))
	if err != nil {
		return reconciler.SyncResult{}, fmt.Errorf("lock product %s: %w", id, err)
	}
	defer unlock()

	p, err := s.products.Get(ctx, id)
	if err != nil {
		return reconciler.SyncResult{}, err
	}
	return s.run(ctx, action, p)
}

func (s *Service) run(ctx context.Context, action models.SyncAction, p *models.Product) (reconciler.SyncResult, error) {
	result := s.reconciler.Sync(ctx, action, p)
	if result.Success {
		s.logger.Info("Product %s %s synced (product=%s offer=%s %s)", p.ID, action, result.RemoteProductID, result.RemoteOfferID, result.Message)
	}

	if err := s.products.RecordSync(ctx, p.ID, action, result); err != nil {
		s.logger.Error("Failed to record %s sync of product %s: %v", action, p.ID, err)
		return result, fmt.Errorf("record sync: %w", err)
	}
	return result, nil
}

func lockKey(productID string) string {
	return "product:" + productID
}
