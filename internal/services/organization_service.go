package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/repository"
	"gorm.io/datatypes"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrDepartmentNotFound   = errors.New("department not found")
	ErrInvalidData          = errors.New("data must be a JSON object")
)

// OrganizationService provides business logic for organizations and departments.
// Both keep their attributes in a free-form JSON data column that must carry a name.
type OrganizationService struct {
	repos *repository.Repositories
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(repos *repository.Repositories) *OrganizationService {
	return &OrganizationService{repos: repos}
}

// ListOrganizations returns organizations with pagination.
func (s *OrganizationService) ListOrganizations(ctx context.Context, input ListInput) ([]models.Organization, int64, error) {
	orgs, total, err := s.repos.Organizations.List(ctx, input.query())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, total, nil
}

// GetOrganization returns an organization with its departments.
func (s *OrganizationService) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	org, err := s.repos.Organizations.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrOrganizationNotFound, "organization")
	}
	departments, err := s.repos.Departments.ListByOrganization(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load departments: %w", err)
	}
	org.Departments = departments
	return org, nil
}

// CreateOrganization creates a new organization from its data document.
func (s *OrganizationService) CreateOrganization(ctx context.Context, actor audit.Actor, data json.RawMessage) (*models.Organization, error) {
	doc, err := namedDocument(data, nil)
	if err != nil {
		return nil, err
	}
	org := &models.Organization{Data: doc}
	if err := s.repos.Organizations.Create(ctx, actor, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}
	return org, nil
}

// UpdateOrganization replaces the data document of a non-deleted organization.
func (s *OrganizationService) UpdateOrganization(ctx context.Context, actor audit.Actor, id string, data json.RawMessage) (*models.Organization, error) {
	org, err := s.repos.Organizations.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrOrganizationNotFound, "organization")
	}
	if org.Trashed() {
		return nil, ErrOrganizationNotFound
	}
	doc, err := namedDocument(data, nil)
	if err != nil {
		return nil, err
	}
	org.Data = doc
	if err := s.repos.Organizations.Update(ctx, actor, org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	return org, nil
}

// DeleteOrganization soft deletes an organization and its departments.
func (s *OrganizationService) DeleteOrganization(ctx context.Context, actor audit.Actor, id, reason string) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		org, err := tx.Organizations.FindByID(ctx, id)
		if err != nil {
			return lookupError(err, ErrOrganizationNotFound, "organization")
		}
		departments, err := tx.Departments.ListByOrganization(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load departments: %w", err)
		}
		for i := range departments {
			if err := tx.Departments.Delete(ctx, actor, &departments[i], "organization deleted"); err != nil {
				return fmt.Errorf("failed to delete department: %w", err)
			}
		}
		if err := tx.Organizations.Delete(ctx, actor, org, reason); err != nil {
			return fmt.Errorf("failed to delete organization: %w", err)
		}
		return nil
	})
}

// RestoreOrganization restores a deleted organization. Departments stay deleted.
func (s *OrganizationService) RestoreOrganization(ctx context.Context, actor audit.Actor, id string) (*models.Organization, error) {
	org, err := s.repos.Organizations.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrOrganizationNotFound, "organization")
	}
	if err := s.repos.Organizations.Restore(ctx, actor, org); err != nil {
		return nil, restoreError(err, "organization")
	}
	return org, nil
}

// ListDepartments returns the departments of an organization.
func (s *OrganizationService) ListDepartments(ctx context.Context, organizationID string) ([]models.Department, error) {
	if _, err := s.liveOrganization(ctx, organizationID); err != nil {
		return nil, err
	}
	return s.repos.Departments.ListByOrganization(ctx, organizationID)
}

// CreateDepartment creates a department under an organization. The organization
// id is written into the data document as organization_id.
func (s *OrganizationService) CreateDepartment(ctx context.Context, actor audit.Actor, organizationID string, data json.RawMessage) (*models.Department, error) {
	if _, err := s.liveOrganization(ctx, organizationID); err != nil {
		return nil, err
	}
	doc, err := namedDocument(data, map[string]string{"organization_id": organizationID})
	if err != nil {
		return nil, err
	}
	dept := &models.Department{OrganizationID: &organizationID, Data: doc}
	if err := s.repos.Departments.Create(ctx, actor, dept); err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}
	return dept, nil
}

// UpdateDepartment replaces the data document of a department.
func (s *OrganizationService) UpdateDepartment(ctx context.Context, actor audit.Actor, id string, data json.RawMessage) (*models.Department, error) {
	dept, err := s.repos.Departments.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrDepartmentNotFound, "department")
	}
	if dept.Trashed() {
		return nil, ErrDepartmentNotFound
	}
	doc, err := namedDocument(data, map[string]string{"organization_id": gjson.GetBytes(dept.Data, "organization_id").String()})
	if err != nil {
		return nil, err
	}
	dept.Data = doc
	if err := s.repos.Departments.Update(ctx, actor, dept); err != nil {
		return nil, fmt.Errorf("failed to update department: %w", err)
	}
	return dept, nil
}

// DeleteDepartment soft deletes a department.
func (s *OrganizationService) DeleteDepartment(ctx context.Context, actor audit.Actor, id, reason string) error {
	dept, err := s.repos.Departments.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, ErrDepartmentNotFound, "department")
	}
	if err := s.repos.Departments.Delete(ctx, actor, dept, reason); err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	return nil
}

func (s *OrganizationService) liveOrganization(ctx context.Context, id string) (*models.Organization, error) {
	org, err := s.repos.Organizations.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrOrganizationNotFound, "organization")
	}
	if org.Trashed() {
		return nil, ErrOrganizationNotFound
	}
	return org, nil
}

// namedDocument validates that data is a JSON object with a non-empty name and
// overlays fixed keys onto it.
func namedDocument(data json.RawMessage, fixed map[string]string) (datatypes.JSON, error) {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, ErrInvalidData
	}
	if strings.TrimSpace(gjson.GetBytes(data, "name").String()) == "" {
		return nil, ErrNameRequired
	}
	if len(fixed) == 0 {
		return datatypes.JSON(data), nil
	}

	doc := append([]byte(nil), data...)
	for _, key := range slices.Sorted(maps.Keys(fixed)) {
		var err error
		if doc, err = sjson.SetBytes(doc, key, fixed[key]); err != nil {
			return nil, err
		}
	}
	return datatypes.JSON(doc), nil
}
