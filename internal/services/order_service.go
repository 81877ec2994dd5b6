package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotEditable     = errors.New("only draft orders can be edited")
	ErrOrderItemsRequired   = errors.New("at least one order item is required")
	ErrCustomerNameRequired = errors.New("customer name is required")
	ErrInvalidTransition    = errors.New("status transition is not allowed")
	ErrOrderInProgress      = errors.New("only draft or cancelled orders can be deleted")
	ErrUnknownOrderItem     = errors.New("usage refers to an item of another order")
)

// OrderService provides business logic for customer orders.
type OrderService struct {
	repos    *repository.Repositories
	notifier *StockNotifier
	logger   *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(repos *repository.Repositories, notifier *StockNotifier, logger *zap.Logger) *OrderService {
	return &OrderService{repos: repos, notifier: notifier, logger: logger}
}

// OrderItemInput represents one ordered product.
type OrderItemInput struct {
	ProductID string
	Quantity  decimal.Decimal
}

// OrderInput represents input for creating an order
type OrderInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	CustomerAddress string
	Finishing       string
	Thickness       string
	Notes           string
	Items           []OrderItemInput
}

// UpdateOrderInput represents input for updating a draft order. Nil fields are left unchanged.
type UpdateOrderInput struct {
	CustomerName    *string
	CustomerPhone   *string
	CustomerEmail   *string
	CustomerAddress *string
	Finishing       *string
	Thickness       *string
	Notes           *string
	Items           *[]OrderItemInput
}

// UsageInput represents raw material consumed by one order item.
type UsageInput struct {
	OrderItemID   string
	RawMaterialID string
	Quantity      decimal.Decimal
}

// ListOrdersInput represents filters for listing orders
type ListOrdersInput struct {
	ListInput
	Status *models.OrderStatus
}

// ConfirmResult is a confirmed order and the low-stock check that followed it.
type ConfirmResult struct {
	Order *models.Order `json:"order"`
	Stock *StockReport  `json:"stock,omitempty"`
}

// orderDetail loads the live children of an order. Replaced items and usages
// returned by a cancellation stay hidden, and a cancelled work or delivery
// order never shadows its replacement.
var orderDetail = []repository.Scope{
	repository.LivePreload("Items"),
	repository.Preload("Items.Product"),
	repository.LivePreload("Usages"),
	repository.Preload("Usages.RawMaterial"),
	repository.LivePreload("WorkOrder", func(db *gorm.DB) *gorm.DB {
		return db.Where("status <> ?", models.WorkOrderStatusCancelled)
	}),
	repository.LivePreload("DeliveryOrder", func(db *gorm.DB) *gorm.DB {
		return db.Where("status <> ?", models.DeliveryOrderStatusCancelled)
	}),
}

// ListOrders returns orders with their items.
func (s *OrderService) ListOrders(ctx context.Context, input ListOrdersInput) ([]models.Order, int64, error) {
	var scopes []repository.Scope
	if input.Status != nil {
		status := *input.Status
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("orders.status = ?", status) })
	}
	orders, total, err := s.repos.Orders.List(ctx, input.query("Items"), scopes...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// GetOrder returns an order with items, usages, work order and delivery order.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.repos.Orders.FindByIDWith(ctx, id, orderDetail...)
	if err != nil {
		return nil, lookupError(err, ErrOrderNotFound, "order")
	}
	return order, nil
}

// CreateOrder creates a draft order with its items.
func (s *OrderService) CreateOrder(ctx context.Context, actor audit.Actor, input OrderInput) (*models.Order, error) {
	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		return nil, ErrCustomerNameRequired
	}
	if err := s.validateItems(ctx, input.Items); err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerName:    name,
		CustomerPhone:   input.CustomerPhone,
		CustomerEmail:   input.CustomerEmail,
		CustomerAddress: input.CustomerAddress,
		Finishing:       input.Finishing,
		Thickness:       input.Thickness,
		Notes:           input.Notes,
		Status:          models.OrderStatusDraft,
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Orders.Create(ctx, actor, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		for _, item := range input.Items {
			row := &models.OrderItem{OrderID: order.ID, ProductID: item.ProductID, Quantity: item.Quantity}
			if err := tx.OrderItems.Create(ctx, actor, row); err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, order.ID)
}

// UpdateOrder updates a draft order. Items, when given, replace the current ones.
func (s *OrderService) UpdateOrder(ctx context.Context, actor audit.Actor, id string, input UpdateOrderInput) (*models.Order, error) {
	order, err := s.liveOrder(ctx, s.repos, id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusDraft {
		return nil, ErrOrderNotEditable
	}

	if input.CustomerName != nil {
		name := strings.TrimSpace(*input.CustomerName)
		if name == "" {
			return nil, ErrCustomerNameRequired
		}
		order.CustomerName = name
	}
	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&order.CustomerPhone, input.CustomerPhone)
	assign(&order.CustomerEmail, input.CustomerEmail)
	assign(&order.CustomerAddress, input.CustomerAddress)
	assign(&order.Finishing, input.Finishing)
	assign(&order.Thickness, input.Thickness)
	assign(&order.Notes, input.Notes)

	if input.Items != nil {
		if err := s.validateItems(ctx, *input.Items); err != nil {
			return nil, err
		}
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Orders.Update(ctx, actor, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if input.Items == nil {
			return nil
		}
		items := lo.Map(*input.Items, func(in OrderItemInput, _ int) models.OrderItem {
			return models.OrderItem{ProductID: in.ProductID, Quantity: in.Quantity}
		})
		if err := tx.Orders.ReplaceItems(ctx, actor, order.ID, items); err != nil {
			return fmt.Errorf("failed to replace order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, order.ID)
}

// ConfirmOrder confirms a draft order, records raw material usages and takes
// them out of stock. The used materials are checked for low stock after the
// transaction commits; notification problems never fail the confirmation.
func (s *OrderService) ConfirmOrder(ctx context.Context, actor audit.Actor, id string, usages []UsageInput) (*ConfirmResult, error) {
	var materialIDs []string

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		order, err := s.liveOrder(ctx, tx, id, repository.LivePreload("Items"))
		if err != nil {
			return err
		}
		if !order.Status.CanTransition(models.OrderStatusConfirmed) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, models.OrderStatusConfirmed)
		}

		items := lo.SliceToMap(order.Items, func(it models.OrderItem) (string, models.OrderItem) { return it.ID, it })
		required := map[string]decimal.Decimal{}
		for _, u := range usages {
			if _, ok := items[u.OrderItemID]; !ok {
				return ErrUnknownOrderItem
			}
			if !u.Quantity.IsPositive() {
				return ErrInvalidQuantity
			}
			required[u.RawMaterialID] = required[u.RawMaterialID].Add(u.Quantity)
		}

		materialIDs = lo.Keys(required)
		materials, err := tx.RawMaterials.FindByIDs(ctx, materialIDs)
		if err != nil {
			return fmt.Errorf("failed to load raw materials: %w", err)
		}
		if len(materials) != len(materialIDs) {
			return fmt.Errorf("%w: unknown raw material", ErrInvalidReference)
		}

		for i := range materials {
			m := &materials[i]
			stock := decimal.NewFromFloat(m.Stock())
			remaining := stock.Sub(required[m.ID])
			if remaining.IsNegative() {
				return fmt.Errorf("%w: %s has %s %s, %s needed", ErrInsufficientStock, m.Name(), stock, m.Unit(), required[m.ID])
			}
			if err := m.SetStock(remaining.InexactFloat64()); err != nil {
				return fmt.Errorf("failed to set stock: %w", err)
			}
			if err := tx.RawMaterials.Update(ctx, actor, m); err != nil {
				return fmt.Errorf("failed to update raw material: %w", err)
			}
		}

		for _, u := range usages {
			usage := &models.RawMaterialUsage{
				OrderID:       order.ID,
				OrderItemID:   u.OrderItemID,
				ProductID:     items[u.OrderItemID].ProductID,
				RawMaterialID: u.RawMaterialID,
				QuantityUsed:  u.Quantity,
			}
			if err := tx.RawMaterialUsages.Create(ctx, actor, usage); err != nil {
				return fmt.Errorf("failed to record usage: %w", err)
			}
		}

		now := tx.Stamper().Now()
		order.Status = models.OrderStatusConfirmed
		order.ConfirmDate = &now
		order.Items = nil
		if err := tx.Orders.Update(ctx, actor, order); err != nil {
			return fmt.Errorf("failed to confirm order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &ConfirmResult{}
	if len(materialIDs) > 0 && s.notifier != nil {
		report, err := s.notifier.NotifyMaterials(ctx, materialIDs)
		if err != nil {
			s.logger.Warn("low stock check after confirmation failed", zap.String("order_id", id), zap.Error(err))
		}
		result.Stock = report
	}

	result.Order, err = s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelOrder cancels a draft or confirmed order. Raw materials used by a
// confirmed order are put back into stock and the usages are deleted.
func (s *OrderService) CancelOrder(ctx context.Context, actor audit.Actor, id, reason string) (*models.Order, error) {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		order, err := s.liveOrder(ctx, tx, id, repository.LivePreload("Usages"))
		if err != nil {
			return err
		}
		if !order.Status.CanTransition(models.OrderStatusCancelled) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, models.OrderStatusCancelled)
		}

		returned := map[string]decimal.Decimal{}
		for i := range order.Usages {
			u := &order.Usages[i]
			returned[u.RawMaterialID] = returned[u.RawMaterialID].Add(u.QuantityUsed)
			if err := tx.RawMaterialUsages.Delete(ctx, actor, u, "order cancelled"); err != nil {
				return fmt.Errorf("failed to delete usage: %w", err)
			}
		}

		// Trashed materials get their stock back too.
		for materialID, qty := range returned {
			m, err := tx.RawMaterials.FindByID(ctx, materialID)
			if err != nil {
				return lookupError(err, ErrRawMaterialNotFound, "raw material")
			}
			stock := decimal.NewFromFloat(m.Stock()).Add(qty)
			if err := m.SetStock(stock.InexactFloat64()); err != nil {
				return fmt.Errorf("failed to set stock: %w", err)
			}
			if m.Trashed() {
				err = tx.DB().WithContext(ctx).Unscoped().Model(m).UpdateColumn("data", m.Data).Error
			} else {
				err = tx.RawMaterials.Update(ctx, actor, m)
			}
			if err != nil {
				return fmt.Errorf("failed to return stock: %w", err)
			}
		}

		order.Status = models.OrderStatusCancelled
		if reason != "" {
			order.Notes = strings.TrimSpace(order.Notes + "\nCancelled: " + reason)
		}
		order.Usages = nil
		if err := tx.Orders.Update(ctx, actor, order); err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

// DeleteOrder soft deletes a draft or cancelled order.
func (s *OrderService) DeleteOrder(ctx context.Context, actor audit.Actor, id, reason string) error {
	order, err := s.repos.Orders.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, ErrOrderNotFound, "order")
	}
	if order.Status != models.OrderStatusDraft && order.Status != models.OrderStatusCancelled {
		return ErrOrderInProgress
	}
	if err := s.repos.Orders.Delete(ctx, actor, order, reason); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// RestoreOrder restores a deleted order.
func (s *OrderService) RestoreOrder(ctx context.Context, actor audit.Actor, id string) (*models.Order, error) {
	order, err := s.repos.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrOrderNotFound, "order")
	}
	if err := s.repos.Orders.Restore(ctx, actor, order); err != nil {
		return nil, restoreError(err, "order")
	}
	return s.GetOrder(ctx, id)
}

// ListProducts returns the live products ordered by name.
func (s *OrderService) ListProducts(ctx context.Context, input ListInput) ([]models.Product, int64, error) {
	q := input.query()
	q.Order = "name"
	products, total, err := s.repos.Products.List(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// CreateProduct adds a product that orders can reference.
func (s *OrderService) CreateProduct(ctx context.Context, actor audit.Actor, name, unit string) (*models.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	product := &models.Product{Name: name, Unit: strings.TrimSpace(unit)}
	if err := s.repos.Products.Create(ctx, actor, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// transitionOrder moves a live order to next inside tx.
func transitionOrder(ctx context.Context, tx *repository.Repositories, actor audit.Actor, orderID string, next models.OrderStatus) error {
	order, err := tx.Orders.FindByID(ctx, orderID)
	if err != nil {
		return lookupError(err, ErrOrderNotFound, "order")
	}
	if order.Trashed() {
		return ErrOrderNotFound
	}
	if !order.Status.CanTransition(next) {
		return fmt.Errorf("%w: order %s to %s", ErrInvalidTransition, order.Status, next)
	}
	order.Status = next
	if err := tx.Orders.Update(ctx, actor, order); err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func (s *OrderService) liveOrder(ctx context.Context, repos *repository.Repositories, id string, scopes ...repository.Scope) (*models.Order, error) {
	order, err := repos.Orders.FindByIDWith(ctx, id, scopes...)
	if err != nil {
		return nil, lookupError(err, ErrOrderNotFound, "order")
	}
	if order.Trashed() {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) validateItems(ctx context.Context, items []OrderItemInput) error {
	if len(items) == 0 {
		return ErrOrderItemsRequired
	}
	for _, item := range items {
		if !item.Quantity.IsPositive() {
			return ErrInvalidQuantity
		}
	}
	productIDs := lo.Uniq(lo.Map(items, func(it OrderItemInput, _ int) string { return it.ProductID }))
	products, err := s.repos.Products.FindByIDs(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	if len(products) != len(productIDs) {
		return fmt.Errorf("%w: unknown product", ErrInvalidReference)
	}
	return nil
}
