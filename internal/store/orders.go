package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storesync/internal/models"

	"gorm.io/gorm"
)

type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

type OrderFilter struct {
	Page   int
	Limit  int
	Status string
}

func (s *OrderStore) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	var orders []models.Order
	limit, offset := paginate(f.Page, f.Limit)
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return &order, nil
}

func (s *OrderStore) Create(ctx context.Context, order *models.Order) error {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// UpdateStatus is the admin status change (shipped, delivered, ...).
func (s *OrderStore) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid order status %q", status)
	}

	res := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, fmt.Errorf("update order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrOrderNotFound
	}
	return s.Get(ctx, id)
}

// ApplyPaymentUpdate stores a gateway payment notification on the order with
// the given transaction hash. A "paid" status also confirms the order.
func (s *OrderStore) ApplyPaymentUpdate(ctx context.Context, transactionHash, paymentStatus string, raw map[string]interface{}) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ironpay_transaction_hash = ?", transactionHash).First(&order).Error; err != nil {
			return err
		}

		columns := []string{"PaymentStatus", "Raw"}
		order.PaymentStatus = optional(paymentStatus)
		order.Raw = raw

		if paymentStatus == models.PaymentStatusPaid {
			now := time.Now().UTC()
			order.Status = models.OrderStatusPaid
			order.PaymentConfirmedAt = &now
			columns = append(columns, "Status", "PaymentConfirmedAt")
		}

		return tx.Model(&order).Select(columns).Updates(&order).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("apply payment update to %s: %w", transactionHash, err)
	}
	return &order, nil
}
