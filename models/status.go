package models

// OrderStatus is the closed vocabulary for the order workflow.
type OrderStatus string

const (
	StatusNew               OrderStatus = "new"
	StatusMaterialsPending  OrderStatus = "materials_pending"
	StatusProductionPending OrderStatus = "production_pending"
	StatusInProduction      OrderStatus = "in_production"
	StatusReadyForInstall   OrderStatus = "ready_for_install"
	StatusScheduled         OrderStatus = "scheduled"
	StatusPendingApproval   OrderStatus = "pending_approval"
	StatusCompleted         OrderStatus = "completed"
	StatusCancelled         OrderStatus = "cancelled"
)

// Legacy statuses written by older deployments. They are never stored by this
// service; NormalizeOrderStatus maps them to canonical states at the boundary.
const (
	legacyStatusOffer      OrderStatus = "offer"
	legacyStatusProduction OrderStatus = "production"
	legacyStatusInstall    OrderStatus = "install"
)

// NormalizeOrderStatus maps legacy aliases to their canonical state.
// Unknown values pass through unchanged so callers can reject them.
func NormalizeOrderStatus(s OrderStatus) OrderStatus {
	switch s {
	case legacyStatusOffer:
		return StatusNew
	case legacyStatusProduction:
		return StatusInProduction
	case legacyStatusInstall:
		return StatusReadyForInstall
	default:
		return s
	}
}

// IsValidOrderStatus reports whether s (after normalization) is a known state.
func IsValidOrderStatus(s OrderStatus) bool {
	switch NormalizeOrderStatus(s) {
	case StatusNew, StatusMaterialsPending, StatusProductionPending,
		StatusInProduction, StatusReadyForInstall, StatusScheduled,
		StatusPendingApproval, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminalOrderStatus reports whether s ends the order lifecycle.
func IsTerminalOrderStatus(s OrderStatus) bool {
	n := NormalizeOrderStatus(s)
	return n == StatusCompleted || n == StatusCancelled
}

// orderTransitions is the allowed manual transition table. The legacy system
// accepted any status write; validating against this table is a deliberate
// hardening. Cancellation is allowed from every non-terminal state, and
// scheduling steps can be walked back one step.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusNew:               {StatusMaterialsPending, StatusProductionPending, StatusInProduction},
	StatusMaterialsPending:  {StatusProductionPending},
	StatusProductionPending: {StatusInProduction},
	StatusInProduction:      {StatusReadyForInstall},
	StatusReadyForInstall:   {StatusScheduled},
	StatusScheduled:         {StatusPendingApproval, StatusReadyForInstall},
	StatusPendingApproval:   {StatusCompleted, StatusScheduled},
	StatusCompleted:         {},
	StatusCancelled:         {},
}

// CanTransitionOrder reports whether a manual move from one status to another
// is allowed. Writing the current status again is always a legal no-op.
func CanTransitionOrder(from, to OrderStatus) bool {
	f := NormalizeOrderStatus(from)
	t := NormalizeOrderStatus(to)
	if f == t {
		return true
	}
	if t == StatusCancelled {
		return !IsTerminalOrderStatus(f)
	}
	for _, allowed := range orderTransitions[f] {
		if allowed == t {
			return true
		}
	}
	return false
}

// AllowedOrderTransitions returns the statuses reachable from the given one.
func AllowedOrderTransitions(from OrderStatus) []OrderStatus {
	f := NormalizeOrderStatus(from)
	out := append([]OrderStatus{}, orderTransitions[f]...)
	if !IsTerminalOrderStatus(f) {
		out = append(out, StatusCancelled)
	}
	return out
}

// RepairStatus is the closed vocabulary for the repair ticket lifecycle.
type RepairStatus string

const (
	RepairStatusOpen            RepairStatus = "open"
	RepairStatusReadyToSchedule RepairStatus = "ready_to_schedule"
	RepairStatusScheduled       RepairStatus = "scheduled"
	RepairStatusInProgress      RepairStatus = "in_progress"
	RepairStatusClosed          RepairStatus = "closed"
)

// IsValidRepairStatus reports whether s is a known repair state.
func IsValidRepairStatus(s RepairStatus) bool {
	switch s {
	case RepairStatusOpen, RepairStatusReadyToSchedule, RepairStatusScheduled,
		RepairStatusInProgress, RepairStatusClosed:
		return true
	}
	return false
}

// MaterialCategoryStatus is the per-category procurement roll-up state.
type MaterialCategoryStatus string

const (
	CategoryNotNeeded MaterialCategoryStatus = "not_needed"
	CategoryPending   MaterialCategoryStatus = "pending"
	CategoryArrived   MaterialCategoryStatus = "arrived"
)

// Material categories. "materials" on the production checklist covers
// aluminum, hardware and other.
const (
	MaterialGlass    = "Glass"
	MaterialAluminum = "Aluminum"
	MaterialPaint    = "Paint"
	MaterialHardware = "Hardware"
	MaterialOther    = "Other"
)

// IsValidMaterialType reports whether t is a known material category.
func IsValidMaterialType(t string) bool {
	switch t {
	case MaterialGlass, MaterialAluminum, MaterialPaint, MaterialHardware, MaterialOther:
		return true
	}
	return false
}
