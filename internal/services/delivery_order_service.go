package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
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
	ErrDeliveryOrderNotFound = errors.New("delivery order not found")
	ErrDeliveryOrderExists   = errors.New("order already has a delivery order")
	ErrOrderNotReady         = errors.New("order must be ready for delivery")
)

// DeliveryOrderService provides business logic for delivery orders.
type DeliveryOrderService struct {
	repos     *repository.Repositories
	generator *numbering.Generator
	scheme    numbering.Scheme
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewDeliveryOrderService creates a new DeliveryOrderService numbering documents with code.
func NewDeliveryOrderService(repos *repository.Repositories, generator *numbering.Generator, code string, mt *metrics.Metrics, logger *zap.Logger) *DeliveryOrderService {
	return &DeliveryOrderService{
		repos:     repos,
		generator: generator,
		scheme:    numbering.DeliveryOrderScheme(code),
		metrics:   mt,
		logger:    logger,
	}
}

// DeliveryItemInput represents one delivered product.
type DeliveryItemInput struct {
	ProductID string
	Quantity  decimal.Decimal
}

// ListDeliveryOrdersInput represents filters for listing delivery orders
type ListDeliveryOrdersInput struct {
	ListInput
	Status  *models.DeliveryOrderStatus
	OrderID string
}

// ListDeliveryOrders returns delivery orders matching the filters.
func (s *DeliveryOrderService) ListDeliveryOrders(ctx context.Context, input ListDeliveryOrdersInput) ([]models.DeliveryOrder, int64, error) {
	var scopes []repository.Scope
	if input.Status != nil {
		status := *input.Status
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("delivery_orders.status = ?", status) })
	}
	if input.OrderID != "" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("delivery_orders.order_id = ?", input.OrderID) })
	}
	list, total, err := s.repos.DeliveryOrders.List(ctx, input.query("Items"), scopes...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list delivery orders: %w", err)
	}
	return list, total, nil
}

// GetDeliveryOrder returns a delivery order with its order and items.
func (s *DeliveryOrderService) GetDeliveryOrder(ctx context.Context, id string) (*models.DeliveryOrder, error) {
	do, err := s.repos.DeliveryOrders.FindByID(ctx, id, "Order", "Items")
	if err != nil {
		return nil, lookupError(err, ErrDeliveryOrderNotFound, "delivery order")
	}
	return do, nil
}

// CreateDeliveryOrder opens a numbered delivery order for a ready order. When
// items is empty the order's items are delivered in full. Product name and
// unit are copied onto each line.
func (s *DeliveryOrderService) CreateDeliveryOrder(ctx context.Context, actor audit.Actor, orderID string, items []DeliveryItemInput) (*models.DeliveryOrder, error) {
	do := &models.DeliveryOrder{OrderID: orderID, Status: models.DeliveryOrderStatusPending}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		order, err := tx.Orders.FindByIDWith(ctx, orderID, repository.LivePreload("Items"))
		if err != nil {
			return lookupError(err, ErrOrderNotFound, "order")
		}
		if order.Trashed() {
			return ErrOrderNotFound
		}
		if order.Status != models.OrderStatusReady {
			return ErrOrderNotReady
		}

		_, total, err := tx.DeliveryOrders.List(ctx, repository.ListQuery{}, func(db *gorm.DB) *gorm.DB {
			return db.Where("delivery_orders.order_id = ? AND delivery_orders.status <> ?", orderID, models.DeliveryOrderStatusCancelled)
		})
		if err != nil {
			return fmt.Errorf("failed to check delivery orders: %w", err)
		}
		if total > 0 {
			return ErrDeliveryOrderExists
		}

		if len(items) == 0 {
			items = lo.Map(order.Items, func(it models.OrderItem, _ int) DeliveryItemInput {
				return DeliveryItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
			})
		}
		lines, err := deliveryLines(ctx, tx, items)
		if err != nil {
			return err
		}

		do.Number, err = s.generator.Next(ctx, tx.DB(), s.scheme, tx.Stamper().Now())
		if err != nil {
			return err
		}
		if err := tx.DeliveryOrders.Create(ctx, actor, do); err != nil {
			return fmt.Errorf("failed to create delivery order: %w", err)
		}
		for i := range lines {
			lines[i].DeliveryOrderID = do.ID
			if err := tx.DeliveryOrderItems.Create(ctx, actor, &lines[i]); err != nil {
				return fmt.Errorf("failed to create delivery order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.DocumentNumbered(s.scheme.Scope)
	s.logger.Info("delivery order created", zap.String("number", do.Number), zap.String("order_id", orderID))
	return s.GetDeliveryOrder(ctx, do.ID)
}

// ShipDeliveryOrder marks a pending delivery order shipped.
func (s *DeliveryOrderService) ShipDeliveryOrder(ctx context.Context, actor audit.Actor, id string) (*models.DeliveryOrder, error) {
	return s.transition(ctx, actor, id, models.DeliveryOrderStatusShipped)
}

// DeliverDeliveryOrder marks a shipped delivery order delivered together with its order.
func (s *DeliveryOrderService) DeliverDeliveryOrder(ctx context.Context, actor audit.Actor, id string) (*models.DeliveryOrder, error) {
	return s.transition(ctx, actor, id, models.DeliveryOrderStatusDelivered)
}

// CancelDeliveryOrder cancels a pending delivery order.
func (s *DeliveryOrderService) CancelDeliveryOrder(ctx context.Context, actor audit.Actor, id string) (*models.DeliveryOrder, error) {
	return s.transition(ctx, actor, id, models.DeliveryOrderStatusCancelled)
}

// DeleteDeliveryOrder soft deletes a pending or cancelled delivery order.
func (s *DeliveryOrderService) DeleteDeliveryOrder(ctx context.Context, actor audit.Actor, id, reason string) error {
	do, err := s.repos.DeliveryOrders.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, ErrDeliveryOrderNotFound, "delivery order")
	}
	if do.Status != models.DeliveryOrderStatusPending && do.Status != models.DeliveryOrderStatusCancelled {
		return ErrDocumentInProgress
	}
	if err := s.repos.DeliveryOrders.Delete(ctx, actor, do, reason); err != nil {
		return fmt.Errorf("failed to delete delivery order: %w", err)
	}
	return nil
}

func (s *DeliveryOrderService) transition(ctx context.Context, actor audit.Actor, id string, next models.DeliveryOrderStatus) (*models.DeliveryOrder, error) {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		do, err := tx.DeliveryOrders.FindByID(ctx, id)
		if err != nil {
			return lookupError(err, ErrDeliveryOrderNotFound, "delivery order")
		}
		if do.Trashed() {
			return ErrDeliveryOrderNotFound
		}
		if !do.Status.CanTransition(next) {
			return fmt.Errorf("%w: delivery order %s to %s", ErrInvalidTransition, do.Status, next)
		}

		now := tx.Stamper().Now()
		do.Status = next
		switch next {
		case models.DeliveryOrderStatusShipped:
			do.ShippedAt = &now
		case models.DeliveryOrderStatusDelivered:
			do.DeliveredAt = &now
		}
		if err := tx.DeliveryOrders.Update(ctx, actor, do); err != nil {
			return fmt.Errorf("failed to update delivery order: %w", err)
		}
		if next == models.DeliveryOrderStatusDelivered {
			return transitionOrder(ctx, tx, actor, do.OrderID, models.OrderStatusDelivered)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetDeliveryOrder(ctx, id)
}

func deliveryLines(ctx context.Context, tx *repository.Repositories, items []DeliveryItemInput) ([]models.DeliveryOrderItem, error) {
	if len(items) == 0 {
		return nil, ErrOrderItemsRequired
	}
	ids := lo.Uniq(lo.Map(items, func(it DeliveryItemInput, _ int) string { return it.ProductID }))
	products, err := tx.Products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	byID := lo.KeyBy(products, func(p models.Product) string { return p.ID })

	lines := make([]models.DeliveryOrderItem, 0, len(items))
	for _, it := range items {
		if !it.Quantity.IsPositive() {
			return nil, ErrInvalidQuantity
		}
		product, ok := byID[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown product", ErrInvalidReference)
		}
		lines = append(lines, models.DeliveryOrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    it.Quantity,
			Unit:        product.Unit,
		})
	}
	return lines, nil
}
