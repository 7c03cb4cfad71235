package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          string   `json:"id" gorm:"type:uuid;primary_key"`
	Name        string   `json:"name" gorm:"not null"`
	Description *string  `json:"description"`
	Price       float64  `json:"price" gorm:"type:decimal(10,2);not null"`
	ImageURL    string   `json:"image_url"`
	Category    string   `json:"category"`
	Stock       int      `json:"stock"`
	Sizes       []string `json:"sizes" gorm:"serializer:json"`
	Colors      []string `json:"colors" gorm:"serializer:json"`
	Active      bool     `json:"active"`

	// Gateway linkage. Only the sync recorder writes these.
	RemoteProductID *string    `json:"ironpay_product_hash" gorm:"column:ironpay_product_hash"`
	RemoteOfferID   *string    `json:"ironpay_offer_hash" gorm:"column:ironpay_offer_hash"`
	LastSyncAt      *time.Time `json:"ironpay_last_sync_at" gorm:"column:ironpay_last_sync_at"`
	LastSyncStatus  SyncStatus `json:"ironpay_last_sync_status" gorm:"column:ironpay_last_sync_status;default:never"`
	LastSyncError   *string    `json:"ironpay_last_sync_error" gorm:"column:ironpay_last_sync_error"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SyncStatus string

const (
	SyncStatusNever   SyncStatus = "never"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusError   SyncStatus = "error"
)

// CachedRemoteProductID returns the linked gateway product hash, or "".
func (p *Product) CachedRemoteProductID() string {
	if p.RemoteProductID == nil {
		return ""
	}
	return *p.RemoteProductID
}

// CachedRemoteOfferID returns the linked gateway offer hash, or "".
func (p *Product) CachedRemoteOfferID() string {
	if p.RemoteOfferID == nil {
		return ""
	}
	return *p.RemoteOfferID
}

// IsSynced reports whether the last reconciliation linked both remote ids.
func (p *Product) IsSynced() bool {
	return p.LastSyncStatus == SyncStatusSuccess && p.CachedRemoteProductID() != "" && p.CachedRemoteOfferID() != ""
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.LastSyncStatus == "" {
		p.LastSyncStatus = SyncStatusNever
	}
	return nil
}
