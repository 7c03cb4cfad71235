// Package store holds the gorm repositories for products, orders and sync
// history.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storesync/internal/models"
	"storesync/internal/reconciler"

	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	// ErrIncompleteSync rejects a successful create or update result that
	// does not carry both gateway ids.
	ErrIncompleteSync = errors.New("successful sync result without both remote ids")
)

// catalogColumns are the fields an admin edit may change. The gateway
// linkage is written only by RecordSync.
var catalogColumns = []string{"name", "description", "price", "image_url", "category", "stock", "sizes", "colors", "active"}

type ProductStore struct {
	db *gorm.DB
}

func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{db: db}
}

type ProductFilter struct {
	Page   int
	Limit  int
	Search string
	Active *bool
}

func (s *ProductStore) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})

	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(category) LIKE ?", pattern, pattern)
	}
	if f.Active != nil {
		query = query.Where("active = ?", *f.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	var products []models.Product
	limit, offset := paginate(f.Page, f.Limit)
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

func (s *ProductStore) Get(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &product, nil
}

func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// Update saves the catalog fields of p. Linkage fields on p are ignored.
func (s *ProductStore) Update(ctx context.Context, p *models.Product) error {
	res := s.db.WithContext(ctx).Model(p).Select(catalogColumns).Updates(p)
	if res.Error != nil {
		return fmt.Errorf("update product %s: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete removes the product and returns it as it was.
func (s *ProductStore) Delete(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("delete product %s: %w", id, err)
	}
	return &product, nil
}

func (s *ProductStore) SetActive(ctx context.Context, id string, active bool) (*models.Product, error) {
	res := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return nil, fmt.Errorf("set product %s active: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrProductNotFound
	}
	return s.Get(ctx, id)
}

// RecordSync stores the outcome of one reconciliation: the product's linkage
// fields and a SyncEvent, in one transaction. For deletes the product row is
// already gone and only the event is written.
func (s *ProductStore) RecordSync(ctx context.Context, productID string, action models.SyncAction, result reconciler.SyncResult) error {
	if result.Success && action != models.SyncActionDelete &&
		(result.RemoteProductID == "" || result.RemoteOfferID == "") {
		return ErrIncompleteSync
	}

	status := models.SyncStatusSuccess
	if !result.Success {
		status = models.SyncStatusError
	}

	event := &models.SyncEvent{
		ProductID:       productID,
		Action:          action,
		Status:          status,
		RemoteProductID: optional(firstNonEmpty(result.RemoteProductID, result.DeletionCandidate)),
		RemoteOfferID:   optional(result.RemoteOfferID),
		Error:           optional(result.Error),
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if action != models.SyncActionDelete {
			updates := map[string]interface{}{
				"ironpay_last_sync_at":     time.Now().UTC(),
				"ironpay_last_sync_status": status,
				"ironpay_last_sync_error":  optional(result.Error),
			}
			if result.Success {
				updates["ironpay_product_hash"] = result.RemoteProductID
				updates["ironpay_offer_hash"] = result.RemoteOfferID
			}

			res := tx.Model(&models.Product{}).Where("id = ?", productID).UpdateColumns(updates)
			if res.Error != nil {
				return fmt.Errorf("record sync of product %s: %w", productID, res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrProductNotFound
			}
		}

		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("insert sync event: %w", err)
		}
		return nil
	})
}

// ListSyncEvents returns the newest events for a product first.
func (s *ProductStore) ListSyncEvents(ctx context.Context, productID string, limit int) ([]models.SyncEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var events []models.SyncEvent
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list sync events: %w", err)
	}
	return events, nil
}

func paginate(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return limit, (page - 1) * limit
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
