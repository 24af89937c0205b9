package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Office staff run the CRM, installers use the field app,
// admins can do both plus user management.
const (
	RoleAdmin     = "admin"
	RoleOffice    = "office"
	RoleInstaller = "installer"
)

// User represents a staff member (office, installer or admin)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      string         `gorm:"not null;default:'office'" json:"role"` // admin, office or installer
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
