package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alumglass/alumglass-api/config"
	"github.com/alumglass/alumglass-api/models"
)

// respondError writes the standard error envelope.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondData writes the standard success envelope.
func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// orderPreloads loads the full order payload the CRM views consume.
func orderPreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Products").
		Preload("Materials").
		Preload("Files").
		Preload("Notes").
		Preload("Timeline").
		Preload("Installers")
}

// fetchOrder loads an order by the :id route param with the given preloads.
// Writes a 404 response and returns false when the id does not resolve.
func fetchOrder(c *gin.Context, preload bool) (*models.Order, bool) {
	db := config.GetDB()
	if preload {
		db = orderPreloads(db)
	}

	var order models.Order
	if err := db.First(&order, "id = ?", c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return nil, false
	}
	return &order, true
}

// fetchRepair loads a repair by the :id route param.
func fetchRepair(c *gin.Context) (*models.Repair, bool) {
	db := config.GetDB()

	var repair models.Repair
	err := db.
		Preload("Notes").
		Preload("Media").
		Preload("Installers").
		First(&repair, "id = ?", c.Param("id")).Error
	if err != nil {
		respondError(c, http.StatusNotFound, "REPAIR_NOT_FOUND", "Repair not found")
		return nil, false
	}
	return &repair, true
}

// appendTimeline writes one audit trail entry for an order. The trail is
// append-only; nothing in the service updates or deletes entries.
func appendTimeline(db *gorm.DB, orderID uint, status models.OrderStatus, note, actor string) error {
	if actor == "" {
		actor = "System"
	}
	return db.Create(&models.TimelineEntry{
		OrderID: orderID,
		Status:  status,
		Note:    note,
		Actor:   actor,
	}).Error
}

// appendRepairNote writes one note row for a repair.
func appendRepairNote(db *gorm.DB, repairID uint, text, actor string) error {
	if actor == "" {
		actor = "System"
	}
	return db.Create(&models.RepairNote{
		RepairID:  repairID,
		Text:      text,
		CreatedBy: actor,
	}).Error
}

// respondReloadedOrder returns the full fresh order payload after a mutation.
func respondReloadedOrder(c *gin.Context, orderID uint) {
	var order models.Order
	if err := orderPreloads(config.GetDB()).First(&order, orderID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load order details")
		return
	}
	order.IsOverdueFlag = order.IsOverdue(time.Now())
	respondData(c, http.StatusOK, order)
}

// parseDate accepts RFC3339 timestamps and plain dates, which is what the
// scheduling modals send.
func parseDate(value string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true
	}
	return time.Time{}, false
}
