package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yukikurage/manufacturing-backoffice/internal/dto"
	apierrors "github.com/yukikurage/manufacturing-backoffice/internal/errors"
	"github.com/yukikurage/manufacturing-backoffice/internal/middleware"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
	"go.uber.org/zap"
)

// WorkOrderHandler serves /work-orders.
type WorkOrderHandler struct {
	workOrderService *services.WorkOrderService
	logger           *zap.Logger
}

func NewWorkOrderHandler(workOrderService *services.WorkOrderService, logger *zap.Logger) *WorkOrderHandler {
	return &WorkOrderHandler{workOrderService: workOrderService, logger: logger}
}

// ListWorkOrders returns work orders filtered by ?status and ?order_id
func (h *WorkOrderHandler) ListWorkOrders(c *gin.Context) {
	input, params := listParams(c)
	filter := services.ListWorkOrdersInput{ListInput: input, OrderID: c.Query("order_id")}
	if status := c.Query("status"); status != "" {
		s := models.WorkOrderStatus(status)
		filter.Status = &s
	}

	workOrders, total, err := h.workOrderService.ListWorkOrders(c.Request.Context(), filter)
	if err != nil {
		h.respondWorkOrderError(c, err)
		return
	}
	apierrors.OK(c, dto.NewListResponse(workOrders, params, total, dto.Identity[models.WorkOrder]), "")
}

// GetWorkOrder returns a work order with its finished goods
func (h *WorkOrderHandler) GetWorkOrder(c *gin.Context) {
	workOrder, err := h.workOrderService.GetWorkOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondWorkOrderError(c, err)
		return
	}
	apierrors.OK(c, workOrder, "")
}

// CreateWorkOrder opens a numbered work order for a confirmed order
func (h *WorkOrderHandler) CreateWorkOrder(c *gin.Context) {
	type CreateWorkOrderRequest struct {
		OrderID     string `json:"order_id" binding:"required"`
		Description string `json:"description"`
	}

	var req CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "order_id is required")
		return
	}
	workOrder, err := h.workOrderService.CreateWorkOrder(c.Request.Context(), middleware.GetActor(c), req.OrderID, req.Description)
	if err != nil {
		h.respondWorkOrderError(c, err)
		return
	}
	apierrors.Created(c, workOrder, "Work order created")
}

// StartWorkOrder moves a pending work order into production
func (h *WorkOrderHandler) StartWorkOrder(c *gin.Context) {
	workOrder, err := h.workOrderService.StartWorkOrder(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		h.respondWorkOrderError(c, err)
		return
	}
	apierrors.OK(c, workOrder, "Work order started")
}

// CompleteWorkOrder finishes a running work order
func (h *WorkOrderHandler) CompleteWorkOrder(c *gin.Context) {
	workOrder, err := h.workOrderService.CompleteWorkOrder(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		h.respondWorkOrderError(c, err)
		return
	}
	apierrors.OK(c, workOrder, "Work order completed")
}

// CancelWorkOrder cancels a pending work order
func (h *WorkOrderHandler) CancelWorkOrder(c *gin.Context) {
	workOrder, err := h.workOrderService.CancelWorkOrder(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		h.respondWorkOrderError(c, err)
		return
	}
	apierrors.OK(c, workOrder, "Work order cancelled")
}

// RecordFinishedGood records production output against a running work order
func (h *WorkOrderHandler) RecordFinishedGood(c *gin.Context) {
	type FinishedGoodRequest struct {
		ProductID string          `json:"product_id" binding:"required"`
		Quantity  decimal.Decimal `json:"quantity"`
	}

	var req FinishedGoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "product_id is required")
		return
	}
	good, err := h.workOrderService.RecordFinishedGood(c.Request.Context(), middleware.GetActor(c), c.Param("id"), services.FinishedGoodInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.respondWorkOrderError(c, err)
		return
	}
	apierrors.Created(c, good, "Finished good recorded")
}

// DeleteWorkOrder soft deletes a pending or cancelled work order
func (h *WorkOrderHandler) DeleteWorkOrder(c *gin.Context) {
	if err := h.workOrderService.DeleteWorkOrder(c.Request.Context(), middleware.GetActor(c), c.Param("id"), deleteReason(c)); err != nil {
		h.respondWorkOrderError(c, err)
		return
	}
	apierrors.OK(c, nil, "Work order deleted")
}

func (h *WorkOrderHandler) respondWorkOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrWorkOrderNotFound), errors.Is(err, services.ErrOrderNotFound):
		apierrors.NotFound(c, "")
	case errors.Is(err, services.ErrWorkOrderExists):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrOrderNotConfirmed),
		errors.Is(err, services.ErrWorkOrderNotRunning),
		errors.Is(err, services.ErrDocumentInProgress):
		apierrors.InvalidOperation(c, err.Error())
	default:
		respondCommonError(c, h.logger, err)
	}
}
