package models

type User struct {
	Base
	Name                     string  `gorm:"type:varchar(255);not null" json:"name"`
	Email                    *string `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	PasswordHash             string  `gorm:"type:varchar(255);not null" json:"-"`
	RoleID                   *string `gorm:"type:varchar(36);index" json:"role_id"`
	DepartmentID             *string `gorm:"type:varchar(36);index" json:"department_id"`
	OrganizationID           *string `gorm:"type:varchar(36);index" json:"organization_id"`
	IsActive                 bool    `gorm:"not null;default:true" json:"is_active"`
	ReceiveStockNotification bool    `gorm:"not null;default:false" json:"receive_stock_notification"`

	// Relations
	Role         *Role         `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Department   *Department   `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

// EmailAddress returns the user's email or an empty string.
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}
