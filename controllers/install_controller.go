package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alumglass/alumglass-api/config"
	"github.com/alumglass/alumglass-api/middleware"
	"github.com/alumglass/alumglass-api/models"
)

// ScheduleInstallationRequest represents the team assignment body
type ScheduleInstallationRequest struct {
	OrderID      uint   `json:"order_id" binding:"required"`
	InstallerIDs []uint `json:"installer_ids" binding:"required"`
	StartDate    string `json:"start_date" binding:"required"`
	EndDate      string `json:"end_date" binding:"required"`
	Notes        string `json:"notes"`
}

// ScheduleInstallation handles POST /api/v1/installations/schedule - assigns
// the installer team and date range and moves the order to scheduled.
func ScheduleInstallation(c *gin.Context) {
	var req ScheduleInstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "order_id, installer_ids and dates are required")
		return
	}

	if len(req.InstallerIDs) == 0 {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "At least one installer is required")
		return
	}

	startDate, okStart := parseDate(req.StartDate)
	endDate, okEnd := parseDate(req.EndDate)
	if !okStart || !okEnd {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid start or end date")
		return
	}

	db := config.GetDB()

	var order models.Order
	if err := db.First(&order, req.OrderID).Error; err != nil {
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}
	if models.IsTerminalOrderStatus(order.Status) {
		respondError(c, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", "Cannot schedule a closed order")
		return
	}

	var installers []models.User
	if err := db.Where("id IN ?", req.InstallerIDs).Find(&installers).Error; err != nil || len(installers) == 0 {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "Installers not found")
		return
	}

	updates := map[string]interface{}{
		"install_date_start": startDate,
		"install_date_end":   endDate,
		"installation_notes": req.Notes,
		"status":             models.StatusScheduled,
	}
	if err := db.Model(&order).Updates(updates).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to schedule installation")
		return
	}
	if err := db.Model(&order).Association("Installers").Replace(installers); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to assign installers")
		return
	}

	note := fmt.Sprintf("Scheduled for %s with %d installers", startDate.Format("2006-01-02"), len(installers))
	if err := appendTimeline(db, order.ID, models.StatusScheduled, note, middleware.ActorName(c)); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record timeline entry")
		return
	}

	respondReloadedOrder(c, order.ID)
}

// ListInstallers handles GET /api/v1/installations/installers - the
// installer dropdown source.
func ListInstallers(c *gin.Context) {
	db := config.GetDB()

	var installers []models.User
	if err := db.Where("role = ?", models.RoleInstaller).Find(&installers).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load installers")
		return
	}

	respondData(c, http.StatusOK, installers)
}

// ApproveInstallationRequest represents the manager approval body
type ApproveInstallationRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

// ApproveInstallation handles POST /api/v1/installations/approve - moves a
// finished installation to pending_approval for the final office review.
func ApproveInstallation(c *gin.Context) {
	var req ApproveInstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "order_id is required")
		return
	}

	db := config.GetDB()

	var order models.Order
	if err := db.First(&order, req.OrderID).Error; err != nil {
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}
	if models.IsTerminalOrderStatus(order.Status) {
		respondError(c, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", "Order is already closed")
		return
	}

	if err := db.Model(&order).Update("status", models.StatusPendingApproval).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update status")
		return
	}
	if err := appendTimeline(db, order.ID, models.StatusPendingApproval, "Status updated to pending_approval", middleware.ActorName(c)); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record timeline entry")
		return
	}

	respondReloadedOrder(c, order.ID)
}

// GetInstallationSchedule handles GET /api/v1/installations/schedule - the
// scheduling board. Orders and repairs are bucketed by readiness; every
// scheduled row carries its read-time overdue flag next to the stored issue
// flag, as two independent badges.
func GetInstallationSchedule(c *gin.Context) {
	db := config.GetDB()
	now := time.Now()

	var ready []models.Order
	err := db.Preload("Installers").Preload("Materials").
		Where("status = ?", string(models.StatusReadyForInstall)).
		Order("created_at ASC").
		Find(&ready).Error
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load schedule")
		return
	}

	var scheduled []models.Order
	err = db.Preload("Installers").Preload("Materials").
		Where("status = ?", string(models.StatusScheduled)).
		Order("install_date_start ASC").
		Find(&scheduled).Error
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load schedule")
		return
	}
	for i := range scheduled {
		scheduled[i].IsOverdueFlag = scheduled[i].IsOverdue(now)
	}

	var repairsReady []models.Repair
	err = db.Preload("Installers").
		Where("status = ?", string(models.RepairStatusReadyToSchedule)).
		Order("created_at ASC").
		Find(&repairsReady).Error
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load schedule")
		return
	}

	var repairsScheduled []models.Repair
	err = db.Preload("Installers").
		Where("status = ?", string(models.RepairStatusScheduled)).
		Order("install_date_start ASC").
		Find(&repairsScheduled).Error
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load schedule")
		return
	}
	for i := range repairsScheduled {
		repairsScheduled[i].IsOverdueFlag = repairsScheduled[i].IsOverdue(now)
	}

	respondData(c, http.StatusOK, gin.H{
		"ready_to_schedule": ready,
		"scheduled":         scheduled,
		"repairs_ready":     repairsReady,
		"repairs_scheduled": repairsScheduled,
	})
}
