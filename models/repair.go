package models

import (
	"time"

	"gorm.io/gorm"
)

// Repair is a post-installation repair ticket. It references the originating
// order by id and keeps a snapshot of the client fields from ticket-creation
// time, so later edits to the order do not rewrite the ticket.
type Repair struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`

	// Client snapshot, denormalized on purpose
	OrderNumber   string `gorm:"not null" json:"order_number"`
	ClientName    string `gorm:"not null" json:"client_name"`
	ClientPhone   string `json:"client_phone"`
	ClientAddress string `json:"client_address"`
	Region        string `json:"region"`

	ContactedAt time.Time `gorm:"not null" json:"contacted_at"`
	Problem     string    `gorm:"type:text;not null" json:"problem"`

	Status RepairStatus `gorm:"not null;default:'open'" json:"status"`

	EstimatedWorkDays int `gorm:"default:1" json:"estimated_work_days"`

	Installers       []User     `gorm:"many2many:repair_installers" json:"installers"`
	InstallDateStart *time.Time `json:"install_date_start"`
	InstallDateEnd   *time.Time `json:"install_date_end"`
	SchedulingNotes  string     `gorm:"default:''" json:"scheduling_notes"`

	Issue Issue `gorm:"embedded;embeddedPrefix:issue_" json:"issue"`

	Notes []RepairNote  `gorm:"constraint:OnDelete:CASCADE" json:"notes"`
	Media []RepairMedia `gorm:"constraint:OnDelete:CASCADE" json:"media"`

	// Computed at read time, never stored
	IsOverdueFlag bool `gorm:"-" json:"is_overdue"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Repair model
func (Repair) TableName() string {
	return "repairs"
}

// RepairNote is a free-text note on a repair ticket.
type RepairNote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RepairID  uint      `gorm:"not null;index" json:"repair_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

// TableName specifies the table name for the RepairNote model
func (RepairNote) TableName() string {
	return "repair_notes"
}

// Repair media types
const (
	MediaTypePhoto    = "photo"
	MediaTypeVideo    = "video"
	MediaTypeDocument = "document"
)

// IsValidMediaType reports whether t is a known repair media type.
func IsValidMediaType(t string) bool {
	return t == MediaTypePhoto || t == MediaTypeVideo || t == MediaTypeDocument
}

// RepairMedia is a blob reference (photo, video, document) on a repair.
type RepairMedia struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RepairID  uint      `gorm:"not null;index" json:"repair_id"`
	URL       string    `gorm:"not null" json:"url"`
	Type      string    `gorm:"default:'photo'" json:"type"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

// TableName specifies the table name for the RepairMedia model
func (RepairMedia) TableName() string {
	return "repair_media"
}

// Deadline returns the scheduling deadline used for overdue computation.
func (r *Repair) Deadline() *time.Time {
	if r.InstallDateEnd != nil {
		return r.InstallDateEnd
	}
	return r.InstallDateStart
}

// IsOverdue reports whether the repair is scheduled past its deadline.
func (r *Repair) IsOverdue(now time.Time) bool {
	if r.Status != RepairStatusScheduled {
		return false
	}
	deadline := r.Deadline()
	return deadline != nil && deadline.Before(now)
}
