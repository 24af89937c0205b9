package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Order is the top-level fabrication/installation job record.
type Order struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Human-assigned identifier from the paper workflow. Unique and
	// immutable once set.
	OrderNumber string `gorm:"uniqueIndex;not null" json:"order_number"`

	ClientName    string `gorm:"not null" json:"client_name"`
	ClientPhone   string `json:"client_phone"`
	ClientEmail   string `json:"client_email"`
	ClientAddress string `json:"client_address"`
	Region        string `json:"region"`

	Status OrderStatus `gorm:"not null;default:'new'" json:"status"`

	// Finance & time estimation
	Deposit                   float64      `json:"deposit"`
	DepositPaid               bool         `json:"deposit_paid"`
	DepositPaidAt             *time.Time   `json:"deposit_paid_at"`
	EstimatedInstallationDays int          `gorm:"default:1" json:"estimated_installation_days"`
	FinalInvoice              FinalInvoice `gorm:"embedded;embeddedPrefix:invoice_" json:"final_invoice"`

	// Line items
	Products  []Product  `gorm:"constraint:OnDelete:CASCADE" json:"products"`
	Materials []Material `gorm:"constraint:OnDelete:CASCADE" json:"materials"`

	// Per-category procurement roll-up, recomputed on every arrival toggle
	GlassStatus    MaterialCategoryStatus `gorm:"default:'not_needed'" json:"glass_status"`
	PaintStatus    MaterialCategoryStatus `gorm:"default:'not_needed'" json:"paint_status"`
	AluminumStatus MaterialCategoryStatus `gorm:"default:'not_needed'" json:"aluminum_status"`
	HardwareStatus MaterialCategoryStatus `gorm:"default:'not_needed'" json:"hardware_status"`
	OtherStatus    MaterialCategoryStatus `gorm:"default:'not_needed'" json:"other_status"`

	// Production checklist. Nullable on purpose: nil means "not yet
	// evaluated" and reads as done when the category has no materials.
	GlassDone      *bool  `json:"glass_done"`
	PaintDone      *bool  `json:"paint_done"`
	MaterialsDone  *bool  `json:"materials_done"`
	ProductionNote string `gorm:"default:''" json:"production_note"`

	// Installation scheduling
	Installers        []User         `gorm:"many2many:order_installers" json:"installers"`
	InstallDateStart  *time.Time     `json:"install_date_start"`
	InstallDateEnd    *time.Time     `json:"install_date_end"`
	InstallationNotes string         `json:"installation_notes"`
	InstallTakeList   datatypes.JSON `json:"install_take_list"` // array of {label, done}

	Issue Issue `gorm:"embedded;embeddedPrefix:issue_" json:"issue"`

	Files    []OrderFile     `gorm:"constraint:OnDelete:CASCADE" json:"files"`
	Notes    []OrderNote     `gorm:"constraint:OnDelete:CASCADE" json:"notes"`
	Timeline []TimelineEntry `gorm:"constraint:OnDelete:CASCADE" json:"timeline"`

	// Computed at read time, never stored
	IsOverdueFlag bool `gorm:"-" json:"is_overdue"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// Product is a customer-facing line item (window, door, showcase).
type Product struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderID     uint   `gorm:"not null;index" json:"order_id"`
	Type        string `json:"type"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Dimensions  string `json:"dimensions"`
	Quantity    int    `gorm:"default:1" json:"quantity"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// Material is a factory-facing procurable line item owned by an order.
type Material struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderID     uint   `gorm:"not null;index" json:"order_id"`
	MaterialType string `gorm:"not null" json:"material_type"` // Glass, Aluminum, Paint, Hardware, Other
	Description string `json:"description"`
	Supplier    string `json:"supplier"`
	Quantity    int    `gorm:"default:1" json:"quantity"`

	// Procurement status (per-item tracking)
	IsOrdered bool       `gorm:"default:false" json:"is_ordered"`
	OrderedAt *time.Time `json:"ordered_at"`
	OrderedBy string     `json:"ordered_by"`

	// Arrival status (warehouse checklist)
	IsArrived bool       `gorm:"default:false" json:"is_arrived"`
	ArrivedAt *time.Time `json:"arrived_at"`
}

// TableName specifies the table name for the Material model
func (Material) TableName() string {
	return "materials"
}

// Order file types
const (
	FileTypeMasterPlan = "master_plan"
	FileTypeDocument   = "document"
	FileTypeSitePhoto  = "site_photo"
)

// OrderFile is a blob reference attached to an order. Storage and transport
// of the blob itself is handled elsewhere; the engine only keeps the URL.
type OrderFile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	Name       string    `json:"name"`
	URL        string    `gorm:"not null" json:"url"`
	Type       string    `gorm:"default:'document'" json:"type"` // master_plan, document, site_photo
	UploadedAt time.Time `json:"uploaded_at"`
	UploadedBy string    `json:"uploaded_by"`
}

// TableName specifies the table name for the OrderFile model
func (OrderFile) TableName() string {
	return "order_files"
}

// OrderNote is a free-text staff note tagged with a workflow stage.
type OrderNote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Stage     string    `gorm:"default:'general'" json:"stage"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

// TableName specifies the table name for the OrderNote model
func (OrderNote) TableName() string {
	return "order_notes"
}

// TimelineEntry is one row of the append-only audit trail. Every status
// change appends exactly one entry; entries are never updated or deleted.
type TimelineEntry struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `json:"status"`
	Note      string      `json:"note"`
	Actor     string      `json:"actor"`
	CreatedAt time.Time   `json:"created_at"`
}

// TableName specifies the table name for the TimelineEntry model
func (TimelineEntry) TableName() string {
	return "timeline_entries"
}

// Issue is an explicit, staff-asserted delay/problem flag. Distinct from the
// derived overdue condition. Clearing the flag keeps the reason text.
type Issue struct {
	IsIssue    bool       `gorm:"default:false" json:"is_issue"`
	Reason     string     `gorm:"default:''" json:"reason"`
	CreatedAt  *time.Time `json:"created_at"`
	CreatedBy  string     `json:"created_by"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// FinalInvoice is the financial closure block. Amount is nullable so an
// unset amount can be told apart from zero.
type FinalInvoice struct {
	IsIssued      bool     `gorm:"default:false" json:"is_issued"`
	InvoiceNumber string   `json:"invoice_number"`
	Amount        *float64 `json:"amount"`
	IsPaid        bool     `gorm:"default:false" json:"is_paid"`
}

// TakeListItem is one row of the user-authored "what to take to site" list.
type TakeListItem struct {
	Label string `json:"label"`
	Done  bool   `json:"done"`
}
