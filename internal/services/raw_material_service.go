package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/repository"
)

var (
	ErrRawMaterialNotFound = errors.New("raw material not found")
	ErrInsufficientStock   = errors.New("insufficient raw material stock")
	ErrNegativeStock       = errors.New("stock cannot be negative")
)

// RawMaterialService provides business logic for raw material stock.
type RawMaterialService struct {
	repos    *repository.Repositories
	notifier *StockNotifier
}

// NewRawMaterialService creates a new RawMaterialService.
func NewRawMaterialService(repos *repository.Repositories, notifier *StockNotifier) *RawMaterialService {
	return &RawMaterialService{repos: repos, notifier: notifier}
}

// RawMaterialInput represents the editable fields of a raw material.
type RawMaterialInput struct {
	Name  string
	Stock float64
	Unit  string
	Extra []byte
}

// ListRawMaterials returns raw materials with pagination.
func (s *RawMaterialService) ListRawMaterials(ctx context.Context, input ListInput) ([]models.RawMaterial, int64, error) {
	materials, total, err := s.repos.RawMaterials.List(ctx, input.query())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list raw materials: %w", err)
	}
	return materials, total, nil
}

// GetRawMaterial returns a raw material, trashed ones included.
func (s *RawMaterialService) GetRawMaterial(ctx context.Context, id string) (*models.RawMaterial, error) {
	material, err := s.repos.RawMaterials.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrRawMaterialNotFound, "raw material")
	}
	return material, nil
}

// CreateRawMaterial creates a new raw material.
func (s *RawMaterialService) CreateRawMaterial(ctx context.Context, actor audit.Actor, input RawMaterialInput) (*models.RawMaterial, error) {
	data, err := rawMaterialData(input)
	if err != nil {
		return nil, err
	}
	material := &models.RawMaterial{Data: data}
	if err := s.repos.RawMaterials.Create(ctx, actor, material); err != nil {
		return nil, fmt.Errorf("failed to create raw material: %w", err)
	}
	return material, nil
}

// UpdateRawMaterial replaces the data of a non-deleted raw material.
func (s *RawMaterialService) UpdateRawMaterial(ctx context.Context, actor audit.Actor, id string, input RawMaterialInput) (*models.RawMaterial, error) {
	material, err := s.liveMaterial(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := rawMaterialData(input)
	if err != nil {
		return nil, err
	}
	material.Data = data
	if err := s.repos.RawMaterials.Update(ctx, actor, material); err != nil {
		return nil, fmt.Errorf("failed to update raw material: %w", err)
	}
	return material, nil
}

// AdjustStock adds delta (which may be negative) to the stock of a raw material.
func (s *RawMaterialService) AdjustStock(ctx context.Context, actor audit.Actor, id string, delta float64) (*models.RawMaterial, error) {
	material, err := s.liveMaterial(ctx, id)
	if err != nil {
		return nil, err
	}
	stock := material.Stock() + delta
	if stock < 0 {
		return nil, fmt.Errorf("%w: %s has %g %s", ErrInsufficientStock, material.Name(), material.Stock(), material.Unit())
	}
	if err := material.SetStock(stock); err != nil {
		return nil, fmt.Errorf("failed to set stock: %w", err)
	}
	if err := s.repos.RawMaterials.Update(ctx, actor, material); err != nil {
		return nil, fmt.Errorf("failed to update raw material: %w", err)
	}
	return material, nil
}

// DeleteRawMaterial soft deletes a raw material.
func (s *RawMaterialService) DeleteRawMaterial(ctx context.Context, actor audit.Actor, id, reason string) error {
	material, err := s.repos.RawMaterials.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, ErrRawMaterialNotFound, "raw material")
	}
	if err := s.repos.RawMaterials.Delete(ctx, actor, material, reason); err != nil {
		return fmt.Errorf("failed to delete raw material: %w", err)
	}
	return nil
}

// RestoreRawMaterial restores a deleted raw material.
func (s *RawMaterialService) RestoreRawMaterial(ctx context.Context, actor audit.Actor, id string) (*models.RawMaterial, error) {
	material, err := s.repos.RawMaterials.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrRawMaterialNotFound, "raw material")
	}
	if err := s.repos.RawMaterials.Restore(ctx, actor, material); err != nil {
		return nil, restoreError(err, "raw material")
	}
	return material, nil
}

// LowStock lists the raw materials below threshold.
func (s *RawMaterialService) LowStock(ctx context.Context, threshold float64) ([]MaterialStatus, error) {
	return s.notifier.LowStock(ctx, threshold)
}

// Notify runs the low-stock notification for every raw material.
func (s *RawMaterialService) Notify(ctx context.Context, threshold float64) (*StockReport, error) {
	return s.notifier.NotifyAll(ctx, threshold)
}

func (s *RawMaterialService) liveMaterial(ctx context.Context, id string) (*models.RawMaterial, error) {
	material, err := s.repos.RawMaterials.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrRawMaterialNotFound, "raw material")
	}
	if material.Trashed() {
		return nil, ErrRawMaterialNotFound
	}
	return material, nil
}

func rawMaterialData(input RawMaterialInput) ([]byte, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if input.Stock < 0 {
		return nil, ErrNegativeStock
	}
	data, err := models.RawMaterialData(name, input.Stock, strings.TrimSpace(input.Unit), input.Extra)
	if errors.Is(err, models.ErrDataNotObject) {
		return nil, ErrInvalidData
	}
	return data, err
}
