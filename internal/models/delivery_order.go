package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryOrderStatus string

const (
	DeliveryOrderStatusPending   DeliveryOrderStatus = "pending"
	DeliveryOrderStatusShipped   DeliveryOrderStatus = "shipped"
	DeliveryOrderStatusDelivered DeliveryOrderStatus = "delivered"
	DeliveryOrderStatusCancelled DeliveryOrderStatus = "cancelled"
)

var deliveryOrderTransitions = map[DeliveryOrderStatus][]DeliveryOrderStatus{
	DeliveryOrderStatusPending: {DeliveryOrderStatusShipped, DeliveryOrderStatusCancelled},
	DeliveryOrderStatusShipped: {DeliveryOrderStatusDelivered},
}

func (s DeliveryOrderStatus) CanTransition(next DeliveryOrderStatus) bool {
	return allowed(deliveryOrderTransitions, s, next)
}

type DeliveryOrder struct {
	Base
	OrderID     string              `gorm:"type:varchar(36);not null;index" json:"order_id"`
	Number      string              `gorm:"type:varchar(50);not null;uniqueIndex" json:"number"`
	Status      DeliveryOrderStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ShippedAt   *time.Time          `json:"shipped_at"`
	DeliveredAt *time.Time          `json:"delivered_at"`

	// Relations
	Order *Order              `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Items []DeliveryOrderItem `gorm:"foreignKey:DeliveryOrderID" json:"items,omitempty"`
}

// DeliveryOrderItem snapshots the product name at the time the delivery order is created.
type DeliveryOrderItem struct {
	Base
	DeliveryOrderID string          `gorm:"type:varchar(36);not null;index" json:"delivery_order_id"`
	ProductID       string          `gorm:"type:varchar(36);not null;index" json:"product_id"`
	ProductName     string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity        decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity"`
	Unit            string          `gorm:"type:varchar(20)" json:"unit"`

	// Relations
	DeliveryOrder *DeliveryOrder `gorm:"foreignKey:DeliveryOrderID" json:"-"`
	Product       *Product       `gorm:"foreignKey:ProductID" json:"-"`
}
