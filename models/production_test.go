package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool       { return &b }
func floatPtr(f float64) *float64 { return &f }

func TestCategoryStatusFor(t *testing.T) {
	order := Order{
		Materials: []Material{
			{MaterialType: MaterialGlass, IsArrived: true},
			{MaterialType: MaterialGlass, IsArrived: false},
			{MaterialType: MaterialPaint, IsArrived: true},
		},
	}

	assert.Equal(t, CategoryPending, order.CategoryStatusFor(MaterialGlass))
	assert.Equal(t, CategoryArrived, order.CategoryStatusFor(MaterialPaint))
	assert.Equal(t, CategoryNotNeeded, order.CategoryStatusFor(MaterialAluminum))
}

func TestRecalcProductionStatus(t *testing.T) {
	order := Order{
		Materials: []Material{
			{MaterialType: MaterialGlass, IsArrived: false},
			{MaterialType: MaterialHardware, IsArrived: true},
		},
	}
	order.RecalcProductionStatus()

	assert.Equal(t, CategoryPending, order.GlassStatus)
	assert.Equal(t, CategoryArrived, order.HardwareStatus)
	assert.Equal(t, CategoryNotNeeded, order.PaintStatus)
	assert.Equal(t, CategoryNotNeeded, order.AluminumStatus)
	assert.Equal(t, CategoryNotNeeded, order.OtherStatus)
}

func TestAllMaterialsArrived(t *testing.T) {
	order := Order{Materials: []Material{
		{MaterialType: MaterialGlass, IsArrived: true},
		{MaterialType: MaterialPaint, IsArrived: false},
	}}
	assert.False(t, order.AllMaterialsArrived())

	order.Materials[1].IsArrived = true
	assert.True(t, order.AllMaterialsArrived())

	// Vacuously true with no materials at all
	empty := Order{}
	assert.True(t, empty.AllMaterialsArrived())
}

func TestResolveChecklistInference(t *testing.T) {
	// Order with only glass: paint and materials have nothing to do, so the
	// unset flags read as done while glass reads as not done
	order := Order{Materials: []Material{{MaterialType: MaterialGlass}}}

	resolved := order.ResolveChecklist()
	assert.False(t, resolved.GlassDone)
	assert.True(t, resolved.PaintDone)
	assert.True(t, resolved.MaterialsDone)
	assert.False(t, order.ChecklistComplete())
}

func TestResolveChecklistExplicitValueWins(t *testing.T) {
	// Explicit false on an irrelevant category survives; staff can uncheck an
	// auto-done item
	order := Order{
		Materials: []Material{{MaterialType: MaterialGlass}},
		GlassDone: boolPtr(true),
		PaintDone: boolPtr(false),
	}

	resolved := order.ResolveChecklist()
	assert.True(t, resolved.GlassDone)
	assert.False(t, resolved.PaintDone)
	assert.True(t, resolved.MaterialsDone)
	assert.False(t, order.ChecklistComplete())
}

func TestChecklistCompleteWithNoMaterials(t *testing.T) {
	// No materials anywhere: everything is vacuously done
	order := Order{}
	assert.True(t, order.ChecklistComplete())
}

func TestCanCloseFinance(t *testing.T) {
	tests := []struct {
		name     string
		invoice  FinalInvoice
		expected bool
	}{
		{"issued paid with amount", FinalInvoice{IsIssued: true, IsPaid: true, Amount: floatPtr(1200)}, true},
		{"missing amount", FinalInvoice{IsIssued: true, IsPaid: true}, false},
		{"not paid", FinalInvoice{IsIssued: true, Amount: floatPtr(1200)}, false},
		{"not issued", FinalInvoice{IsPaid: true, Amount: floatPtr(1200)}, false},
		{"zero amount still counts", FinalInvoice{IsIssued: true, IsPaid: true, Amount: floatPtr(0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := Order{FinalInvoice: tt.invoice}
			assert.Equal(t, tt.expected, order.CanCloseFinance())
		})
	}
}

func TestOrderDeadline(t *testing.T) {
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	order := Order{InstallDateStart: &start, InstallDateEnd: &end}
	assert.Equal(t, &end, order.Deadline())

	order.InstallDateEnd = nil
	assert.Equal(t, &start, order.Deadline())

	order.InstallDateStart = nil
	assert.Nil(t, order.Deadline())
}

func TestOrderIsOverdue(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)

	scheduled := Order{Status: StatusScheduled, InstallDateEnd: &past}
	assert.True(t, scheduled.IsOverdue(time.Now()))

	// Only scheduled orders can be overdue
	inProduction := Order{Status: StatusInProduction, InstallDateEnd: &past}
	assert.False(t, inProduction.IsOverdue(time.Now()))

	notYet := Order{Status: StatusScheduled, InstallDateEnd: &future}
	assert.False(t, notYet.IsOverdue(time.Now()))

	noDates := Order{Status: StatusScheduled}
	assert.False(t, noDates.IsOverdue(time.Now()))
}

func TestMasterPlanURL(t *testing.T) {
	order := Order{Files: []OrderFile{
		{Type: FileTypeDocument, URL: "https://blobs/contract.pdf"},
		{Type: FileTypeMasterPlan, URL: "https://blobs/plan-v1.pdf"},
		{Type: FileTypeMasterPlan, URL: "https://blobs/plan-v2.pdf"},
	}}
	assert.Equal(t, "https://blobs/plan-v1.pdf", order.MasterPlanURL())

	assert.Equal(t, "", (&Order{}).MasterPlanURL())
}

func TestNormalizeTakeList(t *testing.T) {
	items := []TakeListItem{
		{Label: "  ladder  ", Done: true},
		{Label: "", Done: false},
		{Label: "   ", Done: true},
		{Label: "silicone", Done: false},
	}

	out := NormalizeTakeList(items)
	assert.Len(t, out, 2)
	assert.Equal(t, "ladder", out[0].Label)
	assert.True(t, out[0].Done)
	assert.Equal(t, "silicone", out[1].Label)
}

func TestNormalizeTakeListCapsLength(t *testing.T) {
	items := make([]TakeListItem, 80)
	for i := range items {
		items[i] = TakeListItem{Label: "item"}
	}
	assert.Len(t, NormalizeTakeList(items), 50)
}

func TestInitialOrderStatus(t *testing.T) {
	assert.Equal(t, StatusMaterialsPending, InitialOrderStatus(3))
	assert.Equal(t, StatusInProduction, InitialOrderStatus(0))
}
