package controllers

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alumglass/alumglass-api/config"
	"github.com/alumglass/alumglass-api/middleware"
	"github.com/alumglass/alumglass-api/models"
)

// MaterialRow is one flattened material line in the procurement views. It
// carries enough of the parent order for the purchasing screens to act on
// the row without another fetch.
type MaterialRow struct {
	OrderID       uint       `json:"order_id"`
	OrderNumber   string     `json:"order_number"`
	ClientName    string     `json:"client_name"`
	OrderDate     time.Time  `json:"order_date"`
	MasterPlanURL string     `json:"master_plan_url,omitempty"`
	MaterialID    uint       `json:"material_id"`
	MaterialType  string     `json:"material_type"`
	Description   string     `json:"description"`
	Supplier      string     `json:"supplier"`
	Quantity      int        `json:"quantity"`
	OrderedAt     *time.Time `json:"ordered_at,omitempty"`
	OrderedBy     string     `json:"ordered_by,omitempty"`
	IsArrived     bool       `json:"is_arrived"`
	ArrivedAt     *time.Time `json:"arrived_at,omitempty"`
}

// SupplierGroup is the in-transit tracking bucket for one supplier.
type SupplierGroup struct {
	Supplier string        `json:"supplier"`
	Items    []MaterialRow `json:"items"`
}

func materialRow(order *models.Order, m *models.Material) MaterialRow {
	return MaterialRow{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		ClientName:    order.ClientName,
		OrderDate:     order.CreatedAt,
		MasterPlanURL: order.MasterPlanURL(),
		MaterialID:    m.ID,
		MaterialType:  m.MaterialType,
		Description:   m.Description,
		Supplier:      m.Supplier,
		Quantity:      m.Quantity,
		OrderedAt:     m.OrderedAt,
		OrderedBy:     m.OrderedBy,
		IsArrived:     m.IsArrived,
		ArrivedAt:     m.ArrivedAt,
	}
}

// GetPendingMaterials handles GET /api/v1/procurement/pending - every
// not-yet-ordered material across live orders, oldest order first.
func GetPendingMaterials(c *gin.Context) {
	db := config.GetDB()

	var orders []models.Order
	err := db.
		Preload("Materials").
		Preload("Files").
		Where("status NOT IN ?", []string{string(models.StatusCompleted), string(models.StatusCancelled)}).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load pending materials")
		return
	}

	rows := []MaterialRow{}
	for i := range orders {
		for j := range orders[i].Materials {
			if !orders[i].Materials[j].IsOrdered {
				rows = append(rows, materialRow(&orders[i], &orders[i].Materials[j]))
			}
		}
	}

	respondData(c, http.StatusOK, rows)
}

// GetPurchasingStatus handles GET /api/v1/procurement/tracking - every
// ordered material across non-completed orders, grouped by supplier with
// the most recently ordered items first.
func GetPurchasingStatus(c *gin.Context) {
	db := config.GetDB()

	var orders []models.Order
	err := db.
		Preload("Materials").
		Preload("Files").
		Where("status <> ?", string(models.StatusCompleted)).
		Find(&orders).Error
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load purchasing status")
		return
	}

	bySupplier := map[string][]MaterialRow{}
	for i := range orders {
		for j := range orders[i].Materials {
			m := &orders[i].Materials[j]
			if m.IsOrdered {
				bySupplier[m.Supplier] = append(bySupplier[m.Supplier], materialRow(&orders[i], m))
			}
		}
	}

	groups := make([]SupplierGroup, 0, len(bySupplier))
	for supplier, items := range bySupplier {
		sort.SliceStable(items, func(a, b int) bool {
			ta, tb := items[a].OrderedAt, items[b].OrderedAt
			if ta == nil || tb == nil {
				return tb == nil && ta != nil
			}
			return ta.After(*tb)
		})
		groups = append(groups, SupplierGroup{Supplier: supplier, Items: items})
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].Supplier < groups[b].Supplier })

	respondData(c, http.StatusOK, groups)
}

// MarkMaterialOrderedRequest represents the single-item procurement write
type MarkMaterialOrderedRequest struct {
	OrderID    uint   `json:"order_id" binding:"required"`
	MaterialID uint   `json:"material_id" binding:"required"`
	OrderedBy  string `json:"ordered_by"`
	OrderedAt  string `json:"ordered_at"`
}

// MarkMaterialOrdered handles POST /api/v1/procurement/ordered - marks one
// material as ordered. This never touches the parent order's status.
func MarkMaterialOrdered(c *gin.Context) {
	var req MarkMaterialOrderedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "order_id and material_id are required")
		return
	}

	db := config.GetDB()

	var material models.Material
	if err := db.Where("id = ? AND order_id = ?", req.MaterialID, req.OrderID).First(&material).Error; err != nil {
		respondError(c, http.StatusNotFound, "MATERIAL_NOT_FOUND", "Material not found")
		return
	}

	orderedBy := strings.TrimSpace(req.OrderedBy)
	if orderedBy == "" {
		orderedBy = middleware.ActorName(c)
	}

	orderedAt := time.Now()
	if req.OrderedAt != "" {
		if t, ok := parseDate(req.OrderedAt); ok {
			orderedAt = t
		}
	}

	updates := map[string]interface{}{
		"is_ordered": true,
		"ordered_at": orderedAt,
		"ordered_by": orderedBy,
	}
	if err := db.Model(&material).Updates(updates).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to mark material as ordered")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Material marked as ordered",
	})
}

// ToggleMaterialArrivalRequest represents the warehouse arrival toggle
type ToggleMaterialArrivalRequest struct {
	OrderID    uint  `json:"order_id" binding:"required"`
	MaterialID uint  `json:"material_id" binding:"required"`
	IsArrived  *bool `json:"is_arrived" binding:"required"`
}

// ToggleMaterialArrival handles POST /api/v1/procurement/arrival - toggles
// one material's arrival flag, recomputes every category roll-up and
// auto-advances the order to production_pending when the last material of a
// materials_pending order arrives.
func ToggleMaterialArrival(c *gin.Context) {
	var req ToggleMaterialArrivalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "order_id, material_id and is_arrived are required")
		return
	}

	db := config.GetDB()

	var order models.Order
	if err := db.Preload("Materials").First(&order, req.OrderID).Error; err != nil {
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	var material *models.Material
	for i := range order.Materials {
		if order.Materials[i].ID == req.MaterialID {
			material = &order.Materials[i]
			break
		}
	}
	if material == nil {
		respondError(c, http.StatusNotFound, "MATERIAL_NOT_FOUND", "Material not found")
		return
	}

	isArrived := *req.IsArrived
	var arrivedAt *time.Time
	if isArrived {
		now := time.Now()
		arrivedAt = &now
	}
	err := db.Model(material).Updates(map[string]interface{}{
		"is_arrived": isArrived,
		"arrived_at": arrivedAt,
	}).Error
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update arrival status")
		return
	}
	material.IsArrived = isArrived
	material.ArrivedAt = arrivedAt

	// Full category roll-up over the live material list
	order.RecalcProductionStatus()
	statusUpdates := map[string]interface{}{
		"glass_status":    order.GlassStatus,
		"paint_status":    order.PaintStatus,
		"aluminum_status": order.AluminumStatus,
		"hardware_status": order.HardwareStatus,
		"other_status":    order.OtherStatus,
	}

	// Auto-advance once everything is in the warehouse
	advanced := false
	if order.AllMaterialsArrived() && models.NormalizeOrderStatus(order.Status) == models.StatusMaterialsPending {
		statusUpdates["status"] = models.StatusProductionPending
		advanced = true
	}

	if err := db.Model(&order).Updates(statusUpdates).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update production status")
		return
	}
	if advanced {
		if err := appendTimeline(db, order.ID, models.StatusProductionPending, "All materials arrived", middleware.ActorName(c)); err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record timeline entry")
			return
		}
		order.Status = models.StatusProductionPending
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Arrival status updated",
		"data": gin.H{
			"status":          order.Status,
			"glass_status":    order.GlassStatus,
			"paint_status":    order.PaintStatus,
			"aluminum_status": order.AluminumStatus,
			"hardware_status": order.HardwareStatus,
			"other_status":    order.OtherStatus,
		},
	})
}
