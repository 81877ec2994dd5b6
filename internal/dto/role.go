package dto

import "github.com/yukikurage/manufacturing-backoffice/internal/models"

// GrantDTO represents a window grant of a role
type GrantDTO struct {
	ID       string `json:"id"`
	WindowID string `json:"window_id"`
	Window   string `json:"window,omitempty"`
	URL      string `json:"url,omitempty"`
	IsEdit   bool   `json:"is_edit"`
	IsAdmin  bool   `json:"is_admin"`
}

// RoleDTO represents a role in API responses
type RoleDTO struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Grants      []GrantDTO `json:"grants,omitempty"`
	AuditDTO
}

// ToGrantDTO converts a RoleWindow model to GrantDTO
func ToGrantDTO(g models.RoleWindow) GrantDTO {
	dto := GrantDTO{
		ID:       g.ID,
		WindowID: g.WindowID,
		IsEdit:   g.IsEdit,
		IsAdmin:  g.IsAdmin,
	}
	if g.Window != nil {
		dto.Window = g.Window.Name
		dto.URL = g.Window.URL
	}
	return dto
}

// ToRoleDTO converts a Role model to RoleDTO
func ToRoleDTO(role models.Role) RoleDTO {
	dto := RoleDTO{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		AuditDTO:    ToAuditDTO(role.Audit),
	}
	if len(role.RoleWindows) > 0 {
		dto.Grants = make([]GrantDTO, len(role.RoleWindows))
		for i, g := range role.RoleWindows {
			dto.Grants[i] = ToGrantDTO(g)
		}
	}
	return dto
}
