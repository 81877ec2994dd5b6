package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/yukikurage/manufacturing-backoffice/internal/dto"
	apierrors "github.com/yukikurage/manufacturing-backoffice/internal/errors"
	"github.com/yukikurage/manufacturing-backoffice/internal/middleware"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
	"go.uber.org/zap"
)

// OrderHandler serves /orders and the product catalogue they reference.
type OrderHandler struct {
	orderService *services.OrderService
	logger       *zap.Logger
}

func NewOrderHandler(orderService *services.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

type orderItemRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func toItemInputs(items []orderItemRequest) []services.OrderItemInput {
	return lo.Map(items, func(it orderItemRequest, _ int) services.OrderItemInput {
		return services.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
	})
}

// ListOrders returns orders filtered by ?status
func (h *OrderHandler) ListOrders(c *gin.Context) {
	input, params := listParams(c)
	filter := services.ListOrdersInput{ListInput: input}
	if status := c.Query("status"); status != "" {
		s := models.OrderStatus(status)
		filter.Status = &s
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.respondOrderError(c, err)
		return
	}
	apierrors.OK(c, dto.NewListResponse(orders, params, total, dto.Identity[models.Order]), "")
}

// GetOrder returns an order with its items, usages and documents
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondOrderError(c, err)
		return
	}
	apierrors.OK(c, order, "")
}

// CreateOrder creates a draft order
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	type CreateOrderRequest struct {
		CustomerName    string             `json:"customer_name" binding:"required,max=255"`
		CustomerPhone   string             `json:"customer_phone" binding:"max=50"`
		CustomerEmail   string             `json:"customer_email"`
		CustomerAddress string             `json:"customer_address"`
		Finishing       string             `json:"finishing" binding:"max=100"`
		Thickness       string             `json:"thickness" binding:"max=50"`
		Notes           string             `json:"notes"`
		Items           []orderItemRequest `json:"items" binding:"required,dive"`
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Customer name and items are required")
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), middleware.GetActor(c), services.OrderInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		CustomerAddress: req.CustomerAddress,
		Finishing:       req.Finishing,
		Thickness:       req.Thickness,
		Notes:           req.Notes,
		Items:           toItemInputs(req.Items),
	})
	if err != nil {
		h.respondOrderError(c, err)
		return
	}
	apierrors.Created(c, order, "Order created")
}

// UpdateOrder updates a draft order
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	type UpdateOrderRequest struct {
		CustomerName    *string             `json:"customer_name"`
		CustomerPhone   *string             `json:"customer_phone"`
		CustomerEmail   *string             `json:"customer_email"`
		CustomerAddress *string             `json:"customer_address"`
		Finishing       *string             `json:"finishing"`
		Thickness       *string             `json:"thickness"`
		Notes           *string             `json:"notes"`
		Items           *[]orderItemRequest `json:"items"`
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateOrderInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		CustomerAddress: req.CustomerAddress,
		Finishing:       req.Finishing,
		Thickness:       req.Thickness,
		Notes:           req.Notes,
	}
	if req.Items != nil {
		items := toItemInputs(*req.Items)
		input.Items = &items
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), middleware.GetActor(c), c.Param("id"), input)
	if err != nil {
		h.respondOrderError(c, err)
		return
	}
	apierrors.OK(c, order, "Order updated")
}

// ConfirmOrder confirms a draft order and consumes the raw materials it uses
func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	type UsageRequest struct {
		OrderItemID   string          `json:"order_item_id" binding:"required"`
		RawMaterialID string          `json:"raw_material_id" binding:"required"`
		Quantity      decimal.Decimal `json:"quantity"`
	}
	type ConfirmRequest struct {
		Usages []UsageRequest `json:"usages" binding:"dive"`
	}

	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Every usage needs an order item and a raw material")
		return
	}

	usages := lo.Map(req.Usages, func(u UsageRequest, _ int) services.UsageInput {
		return services.UsageInput{OrderItemID: u.OrderItemID, RawMaterialID: u.RawMaterialID, Quantity: u.Quantity}
	})
	result, err := h.orderService.ConfirmOrder(c.Request.Context(), middleware.GetActor(c), c.Param("id"), usages)
	if err != nil {
		h.respondOrderError(c, err)
		return
	}
	apierrors.OK(c, result, "Order confirmed")
}

// CancelOrder cancels an order and returns consumed stock
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	order, err := h.orderService.CancelOrder(c.Request.Context(), middleware.GetActor(c), c.Param("id"), deleteReason(c))
	if err != nil {
		h.respondOrderError(c, err)
		return
	}
	apierrors.OK(c, order, "Order cancelled")
}

// DeleteOrder soft deletes a draft or cancelled order
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.orderService.DeleteOrder(c.Request.Context(), middleware.GetActor(c), c.Param("id"), deleteReason(c)); err != nil {
		h.respondOrderError(c, err)
		return
	}
	apierrors.OK(c, nil, "Order deleted")
}

// RestoreOrder restores a deleted order
func (h *OrderHandler) RestoreOrder(c *gin.Context) {
	order, err := h.orderService.RestoreOrder(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		h.respondOrderError(c, err)
		return
	}
	apierrors.OK(c, order, "Order restored")
}

// ListProducts returns the product catalogue
func (h *OrderHandler) ListProducts(c *gin.Context) {
	input, params := listParams(c)
	products, total, err := h.orderService.ListProducts(c.Request.Context(), input)
	if err != nil {
		h.respondOrderError(c, err)
		return
	}
	apierrors.OK(c, dto.NewListResponse(products, params, total, dto.Identity[models.Product]), "")
}

// CreateProduct adds a product to the catalogue
func (h *OrderHandler) CreateProduct(c *gin.Context) {
	type CreateProductRequest struct {
		Name string `json:"name" binding:"required,max=255"`
		Unit string `json:"unit" binding:"max=20"`
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Name is required")
		return
	}
	product, err := h.orderService.CreateProduct(c.Request.Context(), middleware.GetActor(c), req.Name, req.Unit)
	if err != nil {
		h.respondOrderError(c, err)
		return
	}
	apierrors.Created(c, product, "Product created")
}

func (h *OrderHandler) respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		apierrors.NotFound(c, "")
	case errors.Is(err, services.ErrCustomerNameRequired),
		errors.Is(err, services.ErrOrderItemsRequired),
		errors.Is(err, services.ErrUnknownOrderItem):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrOrderNotEditable),
		errors.Is(err, services.ErrOrderInProgress),
		errors.Is(err, services.ErrInsufficientStock):
		apierrors.InvalidOperation(c, err.Error())
	default:
		respondCommonError(c, h.logger, err)
	}
}
