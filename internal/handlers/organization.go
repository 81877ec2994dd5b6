package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/yukikurage/manufacturing-backoffice/internal/dto"
	apierrors "github.com/yukikurage/manufacturing-backoffice/internal/errors"
	"github.com/yukikurage/manufacturing-backoffice/internal/middleware"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
	"go.uber.org/zap"
)

// OrganizationHandler serves /general/setup/organizations and their departments.
// Bodies are free-form JSON documents with at least a name.
type OrganizationHandler struct {
	orgService *services.OrganizationService
	logger     *zap.Logger
}

func NewOrganizationHandler(orgService *services.OrganizationService, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService, logger: logger}
}

// ListOrganizations returns organizations with pagination
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	input, params := listParams(c)
	orgs, total, err := h.orgService.ListOrganizations(c.Request.Context(), input)
	if err != nil {
		h.respondOrgError(c, err)
		return
	}
	apierrors.OK(c, dto.NewListResponse(orgs, params, total, dto.ToOrganizationDTO), "")
}

// GetOrganization returns an organization with its departments
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	org, err := h.orgService.GetOrganization(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondOrgError(c, err)
		return
	}
	apierrors.OK(c, dto.ToOrganizationDTO(*org), "")
}

// CreateOrganization creates a new organization
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	body, ok := bindDocument(c)
	if !ok {
		return
	}
	org, err := h.orgService.CreateOrganization(c.Request.Context(), middleware.GetActor(c), body)
	if err != nil {
		h.respondOrgError(c, err)
		return
	}
	apierrors.Created(c, dto.ToOrganizationDTO(*org), "Organization created")
}

// UpdateOrganization replaces the data document of an organization
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	body, ok := bindDocument(c)
	if !ok {
		return
	}
	org, err := h.orgService.UpdateOrganization(c.Request.Context(), middleware.GetActor(c), c.Param("id"), body)
	if err != nil {
		h.respondOrgError(c, err)
		return
	}
	apierrors.OK(c, dto.ToOrganizationDTO(*org), "Organization updated")
}

// DeleteOrganization soft deletes an organization and its departments
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	if err := h.orgService.DeleteOrganization(c.Request.Context(), middleware.GetActor(c), c.Param("id"), deleteReason(c)); err != nil {
		h.respondOrgError(c, err)
		return
	}
	apierrors.OK(c, nil, "Organization deleted")
}

// RestoreOrganization restores a deleted organization
func (h *OrganizationHandler) RestoreOrganization(c *gin.Context) {
	org, err := h.orgService.RestoreOrganization(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		h.respondOrgError(c, err)
		return
	}
	apierrors.OK(c, dto.ToOrganizationDTO(*org), "Organization restored")
}

// ListDepartments returns the live departments of an organization
func (h *OrganizationHandler) ListDepartments(c *gin.Context) {
	departments, err := h.orgService.ListDepartments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondOrgError(c, err)
		return
	}
	apierrors.OK(c, lo.Map(departments, func(d models.Department, _ int) dto.DepartmentDTO {
		return dto.ToDepartmentDTO(d)
	}), "")
}

// CreateDepartment adds a department to an organization
func (h *OrganizationHandler) CreateDepartment(c *gin.Context) {
	body, ok := bindDocument(c)
	if !ok {
		return
	}
	department, err := h.orgService.CreateDepartment(c.Request.Context(), middleware.GetActor(c), c.Param("id"), body)
	if err != nil {
		h.respondOrgError(c, err)
		return
	}
	apierrors.Created(c, dto.ToDepartmentDTO(*department), "Department created")
}

// UpdateDepartment replaces the data document of a department
func (h *OrganizationHandler) UpdateDepartment(c *gin.Context) {
	body, ok := bindDocument(c)
	if !ok {
		return
	}
	department, err := h.orgService.UpdateDepartment(c.Request.Context(), middleware.GetActor(c), c.Param("departmentId"), body)
	if err != nil {
		h.respondOrgError(c, err)
		return
	}
	apierrors.OK(c, dto.ToDepartmentDTO(*department), "Department updated")
}

// DeleteDepartment soft deletes a department
func (h *OrganizationHandler) DeleteDepartment(c *gin.Context) {
	if err := h.orgService.DeleteDepartment(c.Request.Context(), middleware.GetActor(c), c.Param("departmentId"), deleteReason(c)); err != nil {
		h.respondOrgError(c, err)
		return
	}
	apierrors.OK(c, nil, "Department deleted")
}

func bindDocument(c *gin.Context) (json.RawMessage, bool) {
	var body json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return nil, false
	}
	return body, true
}

func (h *OrganizationHandler) respondOrgError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrganizationNotFound), errors.Is(err, services.ErrDepartmentNotFound):
		apierrors.NotFound(c, "")
	case errors.Is(err, services.ErrInvalidData):
		apierrors.BadRequest(c, err.Error())
	default:
		respondCommonError(c, h.logger, err)
	}
}
