package dto

import (
	"time"

	"github.com/tidwall/gjson"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
)

// RoleSummaryDTO represents a role reference in API responses
type RoleSummaryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NamedRefDTO represents a department or organization reference
type NamedRefDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserDTO represents a user in API responses
type UserDTO struct {
	ID                       string          `json:"id"`
	Name                     string          `json:"name"`
	Email                    *string         `json:"email"`
	RoleID                   *string         `json:"role_id"`
	DepartmentID             *string         `json:"department_id"`
	OrganizationID           *string         `json:"organization_id"`
	IsActive                 bool            `json:"is_active"`
	ReceiveStockNotification bool            `json:"receive_stock_notification"`
	Role                     *RoleSummaryDTO `json:"role,omitempty"`
	Department               *NamedRefDTO    `json:"department,omitempty"`
	Organization             *NamedRefDTO    `json:"organization,omitempty"`
	AuditDTO
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	dto := UserDTO{
		ID:                       user.ID,
		Name:                     user.Name,
		Email:                    user.Email,
		RoleID:                   user.RoleID,
		DepartmentID:             user.DepartmentID,
		OrganizationID:           user.OrganizationID,
		IsActive:                 user.IsActive,
		ReceiveStockNotification: user.ReceiveStockNotification,
		AuditDTO:                 ToAuditDTO(user.Audit),
	}

	// Include relations if preloaded
	if user.Role != nil {
		dto.Role = &RoleSummaryDTO{ID: user.Role.ID, Name: user.Role.Name}
	}
	if user.Department != nil {
		dto.Department = &NamedRefDTO{ID: user.Department.ID, Name: gjson.GetBytes(user.Department.Data, "name").String()}
	}
	if user.Organization != nil {
		dto.Organization = &NamedRefDTO{ID: user.Organization.ID, Name: gjson.GetBytes(user.Organization.Data, "name").String()}
	}
	return dto
}

// LoginResponse is returned by POST /login
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserDTO   `json:"user"`
}
