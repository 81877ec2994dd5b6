package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type WorkOrderStatus string

const (
	WorkOrderStatusPending    WorkOrderStatus = "pending"
	WorkOrderStatusInProgress WorkOrderStatus = "in_progress"
	WorkOrderStatusCompleted  WorkOrderStatus = "completed"
	WorkOrderStatusCancelled  WorkOrderStatus = "cancelled"
)

var workOrderTransitions = map[WorkOrderStatus][]WorkOrderStatus{
	WorkOrderStatusPending:    {WorkOrderStatusInProgress, WorkOrderStatusCancelled},
	WorkOrderStatusInProgress: {WorkOrderStatusCompleted},
}

func (s WorkOrderStatus) CanTransition(next WorkOrderStatus) bool {
	return allowed(workOrderTransitions, s, next)
}

type WorkOrder struct {
	Base
	OrderID     string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	Number      string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"number"`
	Description string          `gorm:"type:text" json:"description"`
	Status      WorkOrderStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	// Relations
	Order         *Order         `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	FinishedGoods []FinishedGood `gorm:"foreignKey:WorkOrderID" json:"finished_goods,omitempty"`
}

type FinishedGood struct {
	Base
	WorkOrderID string          `gorm:"type:varchar(36);not null;index" json:"work_order_id"`
	ProductID   string          `gorm:"type:varchar(36);not null;index" json:"product_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity"`
	ProducedAt  time.Time       `gorm:"not null" json:"produced_at"`

	// Relations
	WorkOrder *WorkOrder `gorm:"foreignKey:WorkOrderID" json:"-"`
	Product   *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}
