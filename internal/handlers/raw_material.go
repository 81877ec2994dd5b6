package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/manufacturing-backoffice/internal/dto"
	apierrors "github.com/yukikurage/manufacturing-backoffice/internal/errors"
	"github.com/yukikurage/manufacturing-backoffice/internal/middleware"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
	"go.uber.org/zap"
)

// RawMaterialHandler serves /raw-materials.
type RawMaterialHandler struct {
	materialService *services.RawMaterialService
	threshold       float64
	logger          *zap.Logger
}

// NewRawMaterialHandler creates a handler. threshold is used when a request names none.
func NewRawMaterialHandler(materialService *services.RawMaterialService, threshold float64, logger *zap.Logger) *RawMaterialHandler {
	return &RawMaterialHandler{materialService: materialService, threshold: threshold, logger: logger}
}

type rawMaterialRequest struct {
	Name  string          `json:"name" binding:"required,max=255"`
	Stock float64         `json:"stock"`
	Unit  string          `json:"unit" binding:"max=50"`
	Extra json.RawMessage `json:"extra"`
}

func (r rawMaterialRequest) input() services.RawMaterialInput {
	return services.RawMaterialInput{Name: r.Name, Stock: r.Stock, Unit: r.Unit, Extra: r.Extra}
}

// ListRawMaterials returns raw materials with pagination
func (h *RawMaterialHandler) ListRawMaterials(c *gin.Context) {
	input, params := listParams(c)
	materials, total, err := h.materialService.ListRawMaterials(c.Request.Context(), input)
	if err != nil {
		h.respondMaterialError(c, err)
		return
	}
	apierrors.OK(c, dto.NewListResponse(materials, params, total, dto.ToRawMaterialDTO), "")
}

// GetRawMaterial returns one raw material
func (h *RawMaterialHandler) GetRawMaterial(c *gin.Context) {
	material, err := h.materialService.GetRawMaterial(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondMaterialError(c, err)
		return
	}
	apierrors.OK(c, dto.ToRawMaterialDTO(*material), "")
}

// CreateRawMaterial creates a new raw material
func (h *RawMaterialHandler) CreateRawMaterial(c *gin.Context) {
	var req rawMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Name is required")
		return
	}
	material, err := h.materialService.CreateRawMaterial(c.Request.Context(), middleware.GetActor(c), req.input())
	if err != nil {
		h.respondMaterialError(c, err)
		return
	}
	apierrors.Created(c, dto.ToRawMaterialDTO(*material), "Raw material created")
}

// UpdateRawMaterial replaces the editable fields of a raw material
func (h *RawMaterialHandler) UpdateRawMaterial(c *gin.Context) {
	var req rawMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Name is required")
		return
	}
	material, err := h.materialService.UpdateRawMaterial(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req.input())
	if err != nil {
		h.respondMaterialError(c, err)
		return
	}
	apierrors.OK(c, dto.ToRawMaterialDTO(*material), "Raw material updated")
}

// AdjustStock adds a signed delta to the stock
func (h *RawMaterialHandler) AdjustStock(c *gin.Context) {
	type AdjustRequest struct {
		Delta float64 `json:"delta" binding:"required"`
	}

	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "A non-zero delta is required")
		return
	}
	material, err := h.materialService.AdjustStock(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req.Delta)
	if err != nil {
		h.respondMaterialError(c, err)
		return
	}
	apierrors.OK(c, dto.ToRawMaterialDTO(*material), "Stock adjusted")
}

// DeleteRawMaterial soft deletes a raw material
func (h *RawMaterialHandler) DeleteRawMaterial(c *gin.Context) {
	if err := h.materialService.DeleteRawMaterial(c.Request.Context(), middleware.GetActor(c), c.Param("id"), deleteReason(c)); err != nil {
		h.respondMaterialError(c, err)
		return
	}
	apierrors.OK(c, nil, "Raw material deleted")
}

// RestoreRawMaterial restores a deleted raw material
func (h *RawMaterialHandler) RestoreRawMaterial(c *gin.Context) {
	material, err := h.materialService.RestoreRawMaterial(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		h.respondMaterialError(c, err)
		return
	}
	apierrors.OK(c, dto.ToRawMaterialDTO(*material), "Raw material restored")
}

// LowStock lists materials below ?threshold
func (h *RawMaterialHandler) LowStock(c *gin.Context) {
	threshold, ok := h.thresholdParam(c)
	if !ok {
		return
	}
	materials, err := h.materialService.LowStock(c.Request.Context(), threshold)
	if err != nil {
		h.respondMaterialError(c, err)
		return
	}
	apierrors.OK(c, materials, "")
}

// Notify emails the stock recipients about materials below ?threshold
func (h *RawMaterialHandler) Notify(c *gin.Context) {
	threshold, ok := h.thresholdParam(c)
	if !ok {
		return
	}
	report, err := h.materialService.Notify(c.Request.Context(), threshold)
	if err != nil {
		h.respondMaterialError(c, err)
		return
	}
	apierrors.OK(c, report, "Notification finished")
}

func (h *RawMaterialHandler) thresholdParam(c *gin.Context) (float64, bool) {
	if c.Query("threshold") == "" {
		return h.threshold, true
	}
	threshold, ok := queryFloat(c, "threshold")
	if !ok {
		return 0, false
	}
	if threshold <= 0 {
		apierrors.BadRequest(c, "threshold must be a positive number")
		return 0, false
	}
	return threshold, true
}

func (h *RawMaterialHandler) respondMaterialError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRawMaterialNotFound):
		apierrors.NotFound(c, "")
	case errors.Is(err, services.ErrNegativeStock), errors.Is(err, services.ErrInvalidData):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInsufficientStock):
		apierrors.InvalidOperation(c, err.Error())
	default:
		respondCommonError(c, h.logger, err)
	}
}
