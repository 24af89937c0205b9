package models

import (
	"strings"
	"time"
)

// CategoryStatusFor computes the roll-up state for one material category:
// not_needed when the order has no material of that category, arrived when
// every one of them has arrived, pending otherwise.
func (o *Order) CategoryStatusFor(category string) MaterialCategoryStatus {
	found := false
	allArrived := true
	for _, m := range o.Materials {
		if m.MaterialType != category {
			continue
		}
		found = true
		if !m.IsArrived {
			allArrived = false
		}
	}
	if !found {
		return CategoryNotNeeded
	}
	if allArrived {
		return CategoryArrived
	}
	return CategoryPending
}

// RecalcProductionStatus recomputes all five category roll-ups from the
// current material list. Call after any arrival toggle and at creation.
func (o *Order) RecalcProductionStatus() {
	o.GlassStatus = o.CategoryStatusFor(MaterialGlass)
	o.PaintStatus = o.CategoryStatusFor(MaterialPaint)
	o.AluminumStatus = o.CategoryStatusFor(MaterialAluminum)
	o.HardwareStatus = o.CategoryStatusFor(MaterialHardware)
	o.OtherStatus = o.CategoryStatusFor(MaterialOther)
}

// AllMaterialsArrived reports whether every material on the order has
// arrived, regardless of category.
func (o *Order) AllMaterialsArrived() bool {
	for _, m := range o.Materials {
		if !m.IsArrived {
			return false
		}
	}
	return true
}

// checklist relevance, computed from the current material list
func (o *Order) hasMaterialOf(categories ...string) bool {
	for _, m := range o.Materials {
		for _, c := range categories {
			if m.MaterialType == c {
				return true
			}
		}
	}
	return false
}

// EffectiveChecklist holds the three resolved production checklist flags.
type EffectiveChecklist struct {
	GlassDone     bool `json:"glass_done"`
	PaintDone     bool `json:"paint_done"`
	MaterialsDone bool `json:"materials_done"`
}

// effectiveFlag resolves one checklist flag. An explicit value always wins,
// even when the category is irrelevant; this lets staff uncheck an
// auto-done item. An unset flag reads as done only when irrelevant.
func effectiveFlag(explicit *bool, relevant bool) bool {
	if explicit != nil {
		return *explicit
	}
	return !relevant
}

// ResolveChecklist computes the effective production checklist. The inferred
// values are never persisted; only explicit user writes land in the columns.
func (o *Order) ResolveChecklist() EffectiveChecklist {
	return EffectiveChecklist{
		GlassDone:     effectiveFlag(o.GlassDone, o.hasMaterialOf(MaterialGlass)),
		PaintDone:     effectiveFlag(o.PaintDone, o.hasMaterialOf(MaterialPaint)),
		MaterialsDone: effectiveFlag(o.MaterialsDone, o.hasMaterialOf(MaterialAluminum, MaterialHardware, MaterialOther)),
	}
}

// ChecklistComplete reports whether production work is confirmed done and
// the order may advance to ready_for_install.
func (o *Order) ChecklistComplete() bool {
	c := o.ResolveChecklist()
	return c.GlassDone && c.PaintDone && c.MaterialsDone
}

// CanCloseFinance reports whether the final invoice block satisfies the
// auto-completion gate: issued, paid and a concrete amount.
func (o *Order) CanCloseFinance() bool {
	return o.FinalInvoice.IsIssued && o.FinalInvoice.IsPaid && o.FinalInvoice.Amount != nil
}

// MasterPlanURL returns the URL of the first master-plan file on the order,
// or empty when none is attached.
func (o *Order) MasterPlanURL() string {
	for _, f := range o.Files {
		if f.Type == FileTypeMasterPlan {
			return f.URL
		}
	}
	return ""
}

// Deadline returns the installation deadline used for overdue computation:
// the end date when present, otherwise the start date.
func (o *Order) Deadline() *time.Time {
	if o.InstallDateEnd != nil {
		return o.InstallDateEnd
	}
	return o.InstallDateStart
}

// IsOverdue reports whether the order is scheduled past its deadline at the
// given instant. Computed on every read, never stored.
func (o *Order) IsOverdue(now time.Time) bool {
	if NormalizeOrderStatus(o.Status) != StatusScheduled {
		return false
	}
	deadline := o.Deadline()
	return deadline != nil && deadline.Before(now)
}

// NormalizeTakeList trims labels, drops empty rows and caps the list length.
func NormalizeTakeList(items []TakeListItem) []TakeListItem {
	const maxItems = 50
	out := make([]TakeListItem, 0, len(items))
	for _, it := range items {
		label := strings.TrimSpace(it.Label)
		if label == "" {
			continue
		}
		out = append(out, TakeListItem{Label: label, Done: it.Done})
		if len(out) == maxItems {
			break
		}
	}
	return out
}

// InitialOrderStatus picks the creation status: orders with materials start
// in procurement, orders without skip the materials step entirely.
func InitialOrderStatus(materialCount int) OrderStatus {
	if materialCount > 0 {
		return StatusMaterialsPending
	}
	return StatusInProduction
}
