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

// DeliveryOrderHandler serves /delivery-orders.
type DeliveryOrderHandler struct {
	deliveryService *services.DeliveryOrderService
	logger          *zap.Logger
}

func NewDeliveryOrderHandler(deliveryService *services.DeliveryOrderService, logger *zap.Logger) *DeliveryOrderHandler {
	return &DeliveryOrderHandler{deliveryService: deliveryService, logger: logger}
}

// ListDeliveryOrders returns delivery orders filtered by ?status and ?order_id
func (h *DeliveryOrderHandler) ListDeliveryOrders(c *gin.Context) {
	input, params := listParams(c)
	filter := services.ListDeliveryOrdersInput{ListInput: input, OrderID: c.Query("order_id")}
	if status := c.Query("status"); status != "" {
		s := models.DeliveryOrderStatus(status)
		filter.Status = &s
	}

	deliveries, total, err := h.deliveryService.ListDeliveryOrders(c.Request.Context(), filter)
	if err != nil {
		h.respondDeliveryError(c, err)
		return
	}
	apierrors.OK(c, dto.NewListResponse(deliveries, params, total, dto.Identity[models.DeliveryOrder]), "")
}

// GetDeliveryOrder returns a delivery order with its lines
func (h *DeliveryOrderHandler) GetDeliveryOrder(c *gin.Context) {
	delivery, err := h.deliveryService.GetDeliveryOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondDeliveryError(c, err)
		return
	}
	apierrors.OK(c, delivery, "")
}

// CreateDeliveryOrder opens a numbered delivery order for a ready order.
// Without items the order's own items are delivered.
func (h *DeliveryOrderHandler) CreateDeliveryOrder(c *gin.Context) {
	type ItemRequest struct {
		ProductID string          `json:"product_id" binding:"required"`
		Quantity  decimal.Decimal `json:"quantity"`
	}
	type CreateDeliveryOrderRequest struct {
		OrderID string        `json:"order_id" binding:"required"`
		Items   []ItemRequest `json:"items" binding:"dive"`
	}

	var req CreateDeliveryOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "order_id is required")
		return
	}

	items := lo.Map(req.Items, func(it ItemRequest, _ int) services.DeliveryItemInput {
		return services.DeliveryItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
	})
	delivery, err := h.deliveryService.CreateDeliveryOrder(c.Request.Context(), middleware.GetActor(c), req.OrderID, items)
	if err != nil {
		h.respondDeliveryError(c, err)
		return
	}
	apierrors.Created(c, delivery, "Delivery order created")
}

// ShipDeliveryOrder marks a delivery order as shipped
func (h *DeliveryOrderHandler) ShipDeliveryOrder(c *gin.Context) {
	delivery, err := h.deliveryService.ShipDeliveryOrder(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		h.respondDeliveryError(c, err)
		return
	}
	apierrors.OK(c, delivery, "Delivery order shipped")
}

// DeliverDeliveryOrder marks a delivery order and its order as delivered
func (h *DeliveryOrderHandler) DeliverDeliveryOrder(c *gin.Context) {
	delivery, err := h.deliveryService.DeliverDeliveryOrder(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		h.respondDeliveryError(c, err)
		return
	}
	apierrors.OK(c, delivery, "Delivery order delivered")
}

// CancelDeliveryOrder cancels a pending delivery order
func (h *DeliveryOrderHandler) CancelDeliveryOrder(c *gin.Context) {
	delivery, err := h.deliveryService.CancelDeliveryOrder(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		h.respondDeliveryError(c, err)
		return
	}
	apierrors.OK(c, delivery, "Delivery order cancelled")
}

// DeleteDeliveryOrder soft deletes a pending or cancelled delivery order
func (h *DeliveryOrderHandler) DeleteDeliveryOrder(c *gin.Context) {
	if err := h.deliveryService.DeleteDeliveryOrder(c.Request.Context(), middleware.GetActor(c), c.Param("id"), deleteReason(c)); err != nil {
		h.respondDeliveryError(c, err)
		return
	}
	apierrors.OK(c, nil, "Delivery order deleted")
}

func (h *DeliveryOrderHandler) respondDeliveryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDeliveryOrderNotFound), errors.Is(err, services.ErrOrderNotFound):
		apierrors.NotFound(c, "")
	case errors.Is(err, services.ErrDeliveryOrderExists):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrOrderNotReady), errors.Is(err, services.ErrDocumentInProgress):
		apierrors.InvalidOperation(c, err.Error())
	default:
		respondCommonError(c, h.logger, err)
	}
}
