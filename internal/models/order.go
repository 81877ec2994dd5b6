package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusDraft        OrderStatus = "draft"
	OrderStatusConfirmed    OrderStatus = "confirmed"
	OrderStatusInProduction OrderStatus = "in_production"
	OrderStatusReady        OrderStatus = "ready"
	OrderStatusDelivered    OrderStatus = "delivered"
	OrderStatusCancelled    OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:        {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:    {OrderStatusInProduction, OrderStatusCancelled},
	OrderStatusInProduction: {OrderStatusReady},
	OrderStatusReady:        {OrderStatusDelivered},
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	return allowed(orderTransitions, s, next)
}

type Order struct {
	Base
	CustomerName    string      `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerPhone   string      `gorm:"type:varchar(50)" json:"customer_phone"`
	CustomerEmail   string      `gorm:"type:varchar(255)" json:"customer_email"`
	CustomerAddress string      `gorm:"type:text" json:"customer_address"`
	Finishing       string      `gorm:"type:varchar(100)" json:"finishing"`
	Thickness       string      `gorm:"type:varchar(50)" json:"thickness"`
	Notes           string      `gorm:"type:text" json:"notes"`
	Status          OrderStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	ConfirmDate     *time.Time  `json:"confirm_date"`

	// Relations
	Items         []OrderItem        `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Usages        []RawMaterialUsage `gorm:"foreignKey:OrderID" json:"usages,omitempty"`
	WorkOrder     *WorkOrder         `gorm:"foreignKey:OrderID" json:"work_order,omitempty"`
	DeliveryOrder *DeliveryOrder     `gorm:"foreignKey:OrderID" json:"delivery_order,omitempty"`
}

type OrderItem struct {
	Base
	OrderID   string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	ProductID string          `gorm:"type:varchar(36);not null;index" json:"product_id"`
	Quantity  decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity"`

	// Relations
	Order   *Order   `gorm:"foreignKey:OrderID" json:"-"`
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

type Product struct {
	Base
	Name string `gorm:"type:varchar(255);not null" json:"name"`
	Unit string `gorm:"type:varchar(20)" json:"unit"`
}

func allowed[S comparable](table map[S][]S, from, to S) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}
