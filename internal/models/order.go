package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Order struct {
	ID                 string                 `json:"id" gorm:"type:uuid;primary_key"`
	CustomerName       string                 `json:"customer_name" gorm:"not null"`
	CustomerEmail      string                 `json:"customer_email" gorm:"not null"`
	CustomerPhone      string                 `json:"customer_phone"`
	CustomerAddress    string                 `json:"customer_address"`
	Items              []OrderItem            `json:"items" gorm:"serializer:json"`
	Total              float64                `json:"total" gorm:"type:decimal(10,2)"`
	PixCode            *string                `json:"pix_code"`
	TransactionHash    *string                `json:"ironpay_transaction_hash" gorm:"column:ironpay_transaction_hash;index"`
	PaymentMethod      *string                `json:"ironpay_payment_method" gorm:"column:ironpay_payment_method"`
	PaymentStatus      *string                `json:"ironpay_payment_status" gorm:"column:ironpay_payment_status"`
	ExpiresAt          *string                `json:"ironpay_expires_at" gorm:"column:ironpay_expires_at"`
	Raw                map[string]interface{} `json:"ironpay_raw" gorm:"column:ironpay_raw;serializer:json"`
	Status             OrderStatus            `json:"status" gorm:"default:pending"`
	PaymentConfirmedAt *time.Time             `json:"payment_confirmed_at"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// OrderItem is a denormalised copy of a cart line at checkout time.
type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Size     string  `json:"size"`
	Color    string  `json:"color"`
	Quantity int     `json:"quantity"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatusPaid is the gateway status that confirms an order.
const PaymentStatusPaid = "paid"

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	return nil
}
