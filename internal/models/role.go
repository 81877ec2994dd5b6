package models

type Role struct {
	Base
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	// Relations
	Users       []User       `gorm:"foreignKey:RoleID" json:"-"`
	RoleWindows []RoleWindow `gorm:"foreignKey:RoleID" json:"role_windows,omitempty"`
}

// Window is a page or menu entry of the admin panel.
type Window struct {
	Base
	Name         string  `gorm:"type:varchar(100);not null" json:"name"`
	Description  string  `gorm:"type:text" json:"description"`
	Icon         string  `gorm:"type:varchar(100)" json:"icon"`
	ParentID     *string `gorm:"type:varchar(36);index" json:"parent_id"`
	DisplayOrder int     `gorm:"not null;default:0" json:"display_order"`
	URL          string  `gorm:"type:varchar(255);index" json:"url"`
}

// RoleWindow grants a role access to a window. Pairs are not unique.
type RoleWindow struct {
	Base
	RoleID   string `gorm:"type:varchar(36);not null;index" json:"role_id"`
	WindowID string `gorm:"type:varchar(36);not null;index" json:"window_id"`
	IsEdit   bool   `gorm:"not null;default:false" json:"is_edit"`
	IsAdmin  bool   `gorm:"not null;default:false" json:"is_admin"`

	// Relations
	Role   *Role   `gorm:"foreignKey:RoleID" json:"-"`
	Window *Window `gorm:"foreignKey:WindowID" json:"window,omitempty"`
}
