package dto

import (
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"gorm.io/datatypes"
)

// RawMaterialDTO represents a raw material with its data document unpacked
type RawMaterialDTO struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Stock float64        `json:"stock"`
	Unit  string         `json:"unit"`
	Data  datatypes.JSON `json:"data"`
	AuditDTO
}

// ToRawMaterialDTO converts a RawMaterial model to RawMaterialDTO
func ToRawMaterialDTO(m models.RawMaterial) RawMaterialDTO {
	return RawMaterialDTO{
		ID:       m.ID,
		Name:     m.Name(),
		Stock:    m.Stock(),
		Unit:     m.Unit(),
		Data:     m.Data,
		AuditDTO: ToAuditDTO(m.Audit),
	}
}
