package dto

import (
	"github.com/tidwall/gjson"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"gorm.io/datatypes"
)

// DepartmentDTO represents a department in API responses
type DepartmentDTO struct {
	ID             string         `json:"id"`
	OrganizationID *string        `json:"organization_id"`
	Name           string         `json:"name"`
	Data           datatypes.JSON `json:"data"`
	AuditDTO
}

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Data        datatypes.JSON  `json:"data"`
	Departments []DepartmentDTO `json:"departments,omitempty"`
	AuditDTO
}

// ToDepartmentDTO converts a Department model to DepartmentDTO
func ToDepartmentDTO(d models.Department) DepartmentDTO {
	return DepartmentDTO{
		ID:             d.ID,
		OrganizationID: d.OrganizationID,
		Name:           gjson.GetBytes(d.Data, "name").String(),
		Data:           d.Data,
		AuditDTO:       ToAuditDTO(d.Audit),
	}
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	dto := OrganizationDTO{
		ID:       org.ID,
		Name:     gjson.GetBytes(org.Data, "name").String(),
		Data:     org.Data,
		AuditDTO: ToAuditDTO(org.Audit),
	}

	// Include departments if loaded
	if len(org.Departments) > 0 {
		dto.Departments = make([]DepartmentDTO, len(org.Departments))
		for i, d := range org.Departments {
			dto.Departments[i] = ToDepartmentDTO(d)
		}
	}
	return dto
}
