package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SyncEvent is one recorded reconciliation attempt for a product.
type SyncEvent struct {
	ID              string     `json:"id" gorm:"type:uuid;primary_key"`
	ProductID       string     `json:"product_id" gorm:"not null;index"`
	Action          SyncAction `json:"action" gorm:"not null"`
	Status          SyncStatus `json:"status" gorm:"not null"`
	RemoteProductID *string    `json:"ironpay_product_hash"`
	RemoteOfferID   *string    `json:"ironpay_offer_hash"`
	Error           *string    `json:"error"`
	CreatedAt       time.Time  `json:"created_at"`
}

type SyncAction string

const (
	SyncActionCreate SyncAction = "create"
	SyncActionUpdate SyncAction = "update"
	SyncActionDelete SyncAction = "delete"
)

func (a SyncAction) Valid() bool {
	return a == SyncActionCreate || a == SyncActionUpdate || a == SyncActionDelete
}

func (e *SyncEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
