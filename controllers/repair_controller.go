package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alumglass/alumglass-api/config"
	"github.com/alumglass/alumglass-api/middleware"
	"github.com/alumglass/alumglass-api/models"
)

// CreateRepairRequest represents the repair ticket creation body. The ticket
// is opened against an existing order number.
type CreateRepairRequest struct {
	OrderNumber       string `json:"order_number" binding:"required"`
	ContactedAt       string `json:"contacted_at"`
	Problem           string `json:"problem" binding:"required"`
	EstimatedWorkDays int    `json:"estimated_work_days"`
}

// CreateRepair handles POST /api/v1/repairs - opens a repair ticket against
// an existing order. Client contact fields are snapshotted from the order at
// creation time; later order edits do not touch the ticket.
func CreateRepair(c *gin.Context) {
	var req CreateRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Order number and problem are required")
		return
	}

	problem := strings.TrimSpace(req.Problem)
	if problem == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Problem is required")
		return
	}

	contactedAt := time.Now()
	if req.ContactedAt != "" {
		t, ok := parseDate(req.ContactedAt)
		if !ok {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid contacted_at date")
			return
		}
		contactedAt = t
	}

	db := config.GetDB()

	var order models.Order
	if err := db.Where("order_number = ?", strings.TrimSpace(req.OrderNumber)).First(&order).Error; err != nil {
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	actor := middleware.ActorName(c)

	workDays := req.EstimatedWorkDays
	if workDays <= 0 {
		workDays = 1
	}

	repair := models.Repair{
		OrderID:           order.ID,
		OrderNumber:       order.OrderNumber,
		ClientName:        order.ClientName,
		ClientPhone:       order.ClientPhone,
		ClientAddress:     order.ClientAddress,
		Region:            order.Region,
		ContactedAt:       contactedAt,
		Problem:           problem,
		EstimatedWorkDays: workDays,
		Status:            models.RepairStatusOpen,
		Notes: []models.RepairNote{{
			Text:      "Repair ticket created",
			CreatedBy: actor,
		}},
	}

	if err := db.Create(&repair).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create repair")
		return
	}

	respondData(c, http.StatusCreated, repair)
}

// ListRepairs handles GET /api/v1/repairs with optional status and free-text
// filters.
func ListRepairs(c *gin.Context) {
	db := config.GetDB()

	query := db.Preload("Notes").Preload("Media").Preload("Installers")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + q + "%"
		query = query.Where("order_number LIKE ? OR client_name LIKE ? OR problem LIKE ?", like, like, like)
	}

	var repairs []models.Repair
	if err := query.Order("created_at DESC").Find(&repairs).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load repairs")
		return
	}

	now := time.Now()
	for i := range repairs {
		repairs[i].IsOverdueFlag = repairs[i].IsOverdue(now)
	}

	respondData(c, http.StatusOK, repairs)
}

// GetRepair handles GET /api/v1/repairs/:id
func GetRepair(c *gin.Context) {
	repair, ok := fetchRepair(c)
	if !ok {
		return
	}

	repair.IsOverdueFlag = repair.IsOverdue(time.Now())
	respondData(c, http.StatusOK, repair)
}

// UpdateRepairRequest represents the editable ticket fields
type UpdateRepairRequest struct {
	Problem           *string `json:"problem"`
	ContactedAt       *string `json:"contacted_at"`
	EstimatedWorkDays *int    `json:"estimated_work_days"`
}

// UpdateRepair handles PUT /api/v1/repairs/:id - partial patch of the
// editable ticket fields.
func UpdateRepair(c *gin.Context) {
	var req UpdateRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	repair, ok := fetchRepair(c)
	if !ok {
		return
	}

	db := config.GetDB()
	updates := map[string]interface{}{}
	if req.Problem != nil {
		updates["problem"] = strings.TrimSpace(*req.Problem)
	}
	if req.ContactedAt != nil {
		if t, parsed := parseDate(*req.ContactedAt); parsed {
			updates["contacted_at"] = t
		}
	}
	if req.EstimatedWorkDays != nil && *req.EstimatedWorkDays > 0 {
		updates["estimated_work_days"] = *req.EstimatedWorkDays
	}

	if len(updates) > 0 {
		if err := db.Model(repair).Updates(updates).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update repair")
			return
		}
	}

	if err := appendRepairNote(db, repair.ID, "Repair updated", middleware.ActorName(c)); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record note")
		return
	}

	respondReloadedRepair(c, repair.ID)
}

// AddRepairNoteRequest represents the note creation body
type AddRepairNoteRequest struct {
	Text string `json:"text"`
}

// AddRepairNote handles POST /api/v1/repairs/:id/notes
func AddRepairNote(c *gin.Context) {
	var req AddRepairNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Text is required")
		return
	}

	repair, ok := fetchRepair(c)
	if !ok {
		return
	}

	db := config.GetDB()
	if err := appendRepairNote(db, repair.ID, text, middleware.ActorName(c)); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to add note")
		return
	}

	respondReloadedRepair(c, repair.ID)
}

// AddRepairMediaRequest represents the media attachment body
type AddRepairMediaRequest struct {
	URL  string `json:"url" binding:"required"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// AddRepairMedia handles POST /api/v1/repairs/:id/media - attaches a blob
// reference (photo, video or document) to the ticket.
func AddRepairMedia(c *gin.Context) {
	var req AddRepairMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "URL is required")
		return
	}

	repair, ok := fetchRepair(c)
	if !ok {
		return
	}

	mediaType := req.Type
	if !models.IsValidMediaType(mediaType) {
		mediaType = models.MediaTypePhoto
	}

	db := config.GetDB()
	media := models.RepairMedia{
		RepairID:  repair.ID,
		URL:       req.URL,
		Type:      mediaType,
		Name:      req.Name,
		CreatedBy: middleware.ActorName(c),
	}
	if err := db.Create(&media).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to attach media")
		return
	}

	respondReloadedRepair(c, repair.ID)
}

// ApproveRepair handles POST /api/v1/repairs/:id/approve - moves the ticket
// from open to ready_to_schedule.
func ApproveRepair(c *gin.Context) {
	repair, ok := fetchRepair(c)
	if !ok {
		return
	}

	db := config.GetDB()
	if err := db.Model(repair).Update("status", models.RepairStatusReadyToSchedule).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to approve repair")
		return
	}
	if err := appendRepairNote(db, repair.ID, "Approved to scheduling", middleware.ActorName(c)); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record note")
		return
	}

	respondReloadedRepair(c, repair.ID)
}

// ScheduleRepairRequest represents the repair scheduling body
type ScheduleRepairRequest struct {
	InstallerIDs []uint `json:"installer_ids" binding:"required"`
	StartDate    string `json:"start_date" binding:"required"`
	EndDate      string `json:"end_date" binding:"required"`
	Notes        string `json:"notes"`
}

// ScheduleRepair handles POST /api/v1/repairs/:id/schedule - requires a
// non-empty installer set and a parseable date pair.
func ScheduleRepair(c *gin.Context) {
	var req ScheduleRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "installer_ids and dates are required")
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

	repair, ok := fetchRepair(c)
	if !ok {
		return
	}

	db := config.GetDB()

	var installers []models.User
	if err := db.Where("id IN ?", req.InstallerIDs).Find(&installers).Error; err != nil || len(installers) == 0 {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "Installers not found")
		return
	}

	updates := map[string]interface{}{
		"install_date_start": startDate,
		"install_date_end":   endDate,
		"scheduling_notes":   req.Notes,
		"status":             models.RepairStatusScheduled,
	}
	if err := db.Model(repair).Updates(updates).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to schedule repair")
		return
	}
	if err := db.Model(repair).Association("Installers").Replace(installers); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to assign installers")
		return
	}
	if err := appendRepairNote(db, repair.ID, "Scheduled", middleware.ActorName(c)); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record note")
		return
	}

	respondReloadedRepair(c, repair.ID)
}

// CloseRepair handles POST /api/v1/repairs/:id/close - valid from any
// non-closed state. Tickets are never deleted, only closed.
func CloseRepair(c *gin.Context) {
	repair, ok := fetchRepair(c)
	if !ok {
		return
	}

	if repair.Status == models.RepairStatusClosed {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Repair is already closed")
		return
	}

	db := config.GetDB()
	if err := db.Model(repair).Update("status", models.RepairStatusClosed).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to close repair")
		return
	}
	if err := appendRepairNote(db, repair.ID, "Closed", middleware.ActorName(c)); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record note")
		return
	}

	respondReloadedRepair(c, repair.ID)
}

// UpdateRepairIssue handles PUT /api/v1/repairs/:id/issue - same semantics
// as the order issue flag: resolving keeps the reason text.
func UpdateRepairIssue(c *gin.Context) {
	var req UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	repair, ok := fetchRepair(c)
	if !ok {
		return
	}

	db := config.GetDB()
	actor := middleware.ActorName(c)
	now := time.Now()

	var noteText string
	if req.IsIssue {
		reason := strings.TrimSpace(req.Reason)
		updates := map[string]interface{}{
			"issue_is_issue":    true,
			"issue_reason":      reason,
			"issue_created_at":  now,
			"issue_created_by":  actor,
			"issue_resolved_at": nil,
		}
		if err := db.Model(repair).Updates(updates).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update issue")
			return
		}
		noteText = "Marked as issue"
		if reason != "" {
			noteText = "Marked as issue: " + reason
		}
	} else {
		updates := map[string]interface{}{
			"issue_is_issue":    false,
			"issue_resolved_at": now,
		}
		if err := db.Model(repair).Updates(updates).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update issue")
			return
		}
		noteText = "Issue resolved"
	}

	if err := appendRepairNote(db, repair.ID, noteText, actor); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record note")
		return
	}

	respondReloadedRepair(c, repair.ID)
}

// respondReloadedRepair returns the full fresh repair payload after a
// mutation.
func respondReloadedRepair(c *gin.Context, repairID uint) {
	var repair models.Repair
	err := config.GetDB().
		Preload("Notes").
		Preload("Media").
		Preload("Installers").
		First(&repair, repairID).Error
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load repair details")
		return
	}
	repair.IsOverdueFlag = repair.IsOverdue(time.Now())
	respondData(c, http.StatusOK, repair)
}
