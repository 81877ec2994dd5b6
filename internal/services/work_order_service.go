package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/metrics"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/numbering"
	"github.com/yukikurage/manufacturing-backoffice/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrWorkOrderNotFound   = errors.New("work order not found")
	ErrWorkOrderExists     = errors.New("order already has a work order")
	ErrOrderNotConfirmed   = errors.New("order must be confirmed")
	ErrWorkOrderNotRunning = errors.New("work order is not in progress")
	ErrDocumentInProgress  = errors.New("only pending or cancelled documents can be deleted")
)

// WorkOrderService provides business logic for production work orders.
type WorkOrderService struct {
	repos     *repository.Repositories
	generator *numbering.Generator
	scheme    numbering.Scheme
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewWorkOrderService creates a new WorkOrderService numbering documents with prefix.
func NewWorkOrderService(repos *repository.Repositories, generator *numbering.Generator, prefix string, mt *metrics.Metrics, logger *zap.Logger) *WorkOrderService {
	return &WorkOrderService{
		repos:     repos,
		generator: generator,
		scheme:    numbering.WorkOrderScheme(prefix),
		metrics:   mt,
		logger:    logger,
	}
}

// ListWorkOrdersInput represents filters for listing work orders
type ListWorkOrdersInput struct {
	ListInput
	Status  *models.WorkOrderStatus
	OrderID string
}

// FinishedGoodInput represents a production output record.
type FinishedGoodInput struct {
	ProductID string
	Quantity  decimal.Decimal
}

// ListWorkOrders returns work orders matching the filters.
func (s *WorkOrderService) ListWorkOrders(ctx context.Context, input ListWorkOrdersInput) ([]models.WorkOrder, int64, error) {
	var scopes []repository.Scope
	if input.Status != nil {
		status := *input.Status
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("work_orders.status = ?", status) })
	}
	if input.OrderID != "" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("work_orders.order_id = ?", input.OrderID) })
	}
	list, total, err := s.repos.WorkOrders.List(ctx, input.query(), scopes...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list work orders: %w", err)
	}
	return list, total, nil
}

// GetWorkOrder returns a work order with its order and finished goods.
func (s *WorkOrderService) GetWorkOrder(ctx context.Context, id string) (*models.WorkOrder, error) {
	wo, err := s.repos.WorkOrders.FindByID(ctx, id, "Order", "FinishedGoods", "FinishedGoods.Product")
	if err != nil {
		return nil, lookupError(err, ErrWorkOrderNotFound, "work order")
	}
	return wo, nil
}

// CreateWorkOrder opens a numbered work order for a confirmed order.
func (s *WorkOrderService) CreateWorkOrder(ctx context.Context, actor audit.Actor, orderID, description string) (*models.WorkOrder, error) {
	wo := &models.WorkOrder{
		OrderID:     orderID,
		Description: description,
		Status:      models.WorkOrderStatusPending,
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		order, err := tx.Orders.FindByID(ctx, orderID)
		if err != nil {
			return lookupError(err, ErrOrderNotFound, "order")
		}
		if order.Trashed() {
			return ErrOrderNotFound
		}
		if order.Status != models.OrderStatusConfirmed {
			return ErrOrderNotConfirmed
		}
		if err := noLiveWorkOrder(ctx, tx, orderID); err != nil {
			return err
		}

		wo.Number, err = s.generator.Next(ctx, tx.DB(), s.scheme, tx.Stamper().Now())
		if err != nil {
			return err
		}
		if err := tx.WorkOrders.Create(ctx, actor, wo); err != nil {
			return fmt.Errorf("failed to create work order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.DocumentNumbered(s.scheme.Scope)
	s.logger.Info("work order created", zap.String("number", wo.Number), zap.String("order_id", orderID))
	return s.GetWorkOrder(ctx, wo.ID)
}

// StartWorkOrder puts a pending work order in progress and its order in production.
func (s *WorkOrderService) StartWorkOrder(ctx context.Context, actor audit.Actor, id string) (*models.WorkOrder, error) {
	return s.transition(ctx, actor, id, models.WorkOrderStatusInProgress, models.OrderStatusInProduction)
}

// CompleteWorkOrder completes a running work order and marks its order ready.
func (s *WorkOrderService) CompleteWorkOrder(ctx context.Context, actor audit.Actor, id string) (*models.WorkOrder, error) {
	return s.transition(ctx, actor, id, models.WorkOrderStatusCompleted, models.OrderStatusReady)
}

// CancelWorkOrder cancels a pending work order. The order stays confirmed.
func (s *WorkOrderService) CancelWorkOrder(ctx context.Context, actor audit.Actor, id string) (*models.WorkOrder, error) {
	return s.transition(ctx, actor, id, models.WorkOrderStatusCancelled, "")
}

// RecordFinishedGood records production output on a running work order.
func (s *WorkOrderService) RecordFinishedGood(ctx context.Context, actor audit.Actor, id string, input FinishedGoodInput) (*models.FinishedGood, error) {
	if !input.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	wo, err := s.liveWorkOrder(ctx, s.repos, id)
	if err != nil {
		return nil, err
	}
	if wo.Status != models.WorkOrderStatusInProgress {
		return nil, ErrWorkOrderNotRunning
	}
	products, err := s.repos.Products.FindByIDs(ctx, []string{input.ProductID})
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: unknown product", ErrInvalidReference)
	}

	good := &models.FinishedGood{
		WorkOrderID: wo.ID,
		ProductID:   input.ProductID,
		Quantity:    input.Quantity,
		ProducedAt:  s.repos.Stamper().Now(),
	}
	if err := s.repos.FinishedGoods.Create(ctx, actor, good); err != nil {
		return nil, fmt.Errorf("failed to record finished good: %w", err)
	}
	return good, nil
}

// DeleteWorkOrder soft deletes a pending or cancelled work order.
func (s *WorkOrderService) DeleteWorkOrder(ctx context.Context, actor audit.Actor, id, reason string) error {
	wo, err := s.repos.WorkOrders.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, ErrWorkOrderNotFound, "work order")
	}
	if wo.Status != models.WorkOrderStatusPending && wo.Status != models.WorkOrderStatusCancelled {
		return ErrDocumentInProgress
	}
	if err := s.repos.WorkOrders.Delete(ctx, actor, wo, reason); err != nil {
		return fmt.Errorf("failed to delete work order: %w", err)
	}
	return nil
}

func (s *WorkOrderService) transition(ctx context.Context, actor audit.Actor, id string, next models.WorkOrderStatus, orderNext models.OrderStatus) (*models.WorkOrder, error) {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		wo, err := s.liveWorkOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if !wo.Status.CanTransition(next) {
			return fmt.Errorf("%w: work order %s to %s", ErrInvalidTransition, wo.Status, next)
		}
		wo.Status = next
		if err := tx.WorkOrders.Update(ctx, actor, wo); err != nil {
			return fmt.Errorf("failed to update work order: %w", err)
		}
		if orderNext == "" {
			return nil
		}
		return transitionOrder(ctx, tx, actor, wo.OrderID, orderNext)
	})
	if err != nil {
		return nil, err
	}
	return s.GetWorkOrder(ctx, id)
}

func (s *WorkOrderService) liveWorkOrder(ctx context.Context, repos *repository.Repositories, id string) (*models.WorkOrder, error) {
	wo, err := repos.WorkOrders.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrWorkOrderNotFound, "work order")
	}
	if wo.Trashed() {
		return nil, ErrWorkOrderNotFound
	}
	return wo, nil
}

// noLiveWorkOrder fails when the order already has a work order that is not cancelled.
func noLiveWorkOrder(ctx context.Context, tx *repository.Repositories, orderID string) error {
	_, total, err := tx.WorkOrders.List(ctx, repository.ListQuery{}, func(db *gorm.DB) *gorm.DB {
		return db.Where("work_orders.order_id = ? AND work_orders.status <> ?", orderID, models.WorkOrderStatusCancelled)
	})
	if err != nil {
		return fmt.Errorf("failed to check work orders: %w", err)
	}
	if total > 0 {
		return ErrWorkOrderExists
	}
	return nil
}
