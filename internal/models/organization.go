package models

import (
	"gorm.io/datatypes"
)

type Organization struct {
	Base
	Data datatypes.JSON `json:"data"`

	// Relations
	Departments []Department `gorm:"foreignKey:OrganizationID" json:"departments,omitempty"`
	Users       []User       `gorm:"foreignKey:OrganizationID" json:"-"`
}

// Department keeps its organization reference inside Data as well as in
// OrganizationID so listings can filter without JSON operators.
type Department struct {
	Base
	OrganizationID *string        `gorm:"type:varchar(36);index" json:"organization_id"`
	Data           datatypes.JSON `json:"data"`

	// Relations
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}
