package controllers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/alumglass/alumglass-api/config"
	"github.com/alumglass/alumglass-api/middleware"
	"github.com/alumglass/alumglass-api/models"
)

// ProductInput is one customer-facing line item on order creation
type ProductInput struct {
	Type        string `json:"type"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Dimensions  string `json:"dimensions"`
	Quantity    int    `json:"quantity"`
}

// MaterialInput is one factory-facing line item on order creation
type MaterialInput struct {
	MaterialType string `json:"material_type" binding:"required"`
	Description  string `json:"description"`
	Supplier     string `json:"supplier"`
	Quantity     int    `json:"quantity"`
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	OrderNumber               string          `json:"order_number" binding:"required"`
	ClientName                string          `json:"client_name" binding:"required"`
	ClientPhone               string          `json:"client_phone"`
	ClientEmail               string          `json:"client_email"`
	ClientAddress             string          `json:"client_address"`
	Region                    string          `json:"region"`
	Deposit                   float64         `json:"deposit"`
	DepositPaid               bool            `json:"deposit_paid"`
	DepositPaidAt             string          `json:"deposit_paid_at"`
	EstimatedInstallationDays int             `json:"estimated_installation_days"`
	Products                  []ProductInput  `json:"products"`
	Materials                 []MaterialInput `json:"materials"`
}

// ListOrders handles GET /api/v1/orders - all orders, newest first
func ListOrders(c *gin.Context) {
	db := config.GetDB()

	var orders []models.Order
	if err := orderPreloads(db).Order("created_at DESC").Find(&orders).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load orders")
		return
	}

	now := time.Now()
	for i := range orders {
		orders[i].IsOverdueFlag = orders[i].IsOverdue(now)
	}

	respondData(c, http.StatusOK, orders)
}

// GetOrder handles GET /api/v1/orders/:id
func GetOrder(c *gin.Context) {
	order, ok := fetchOrder(c, true)
	if !ok {
		return
	}

	order.IsOverdueFlag = order.IsOverdue(time.Now())
	respondData(c, http.StatusOK, order)
}

// CreateOrder handles POST /api/v1/orders - creates a new order.
// Orders with material line items start in materials_pending; orders without
// any skip the procurement step and go straight to production.
func CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data: "+err.Error())
		return
	}

	orderNumber := strings.TrimSpace(req.OrderNumber)
	if orderNumber == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Order number is required")
		return
	}

	for _, m := range req.Materials {
		if !models.IsValidMaterialType(m.MaterialType) {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("Unknown material type %q", m.MaterialType))
			return
		}
	}

	db := config.GetDB()

	// Pre-check the human-assigned order number; it is unique and immutable
	var count int64
	db.Model(&models.Order{}).Where("order_number = ?", orderNumber).Count(&count)
	if count > 0 {
		respondError(c, http.StatusConflict, "DUPLICATE_ORDER_NUMBER", "Order number already exists")
		return
	}

	actor := middleware.ActorName(c)

	order := models.Order{
		OrderNumber:               orderNumber,
		ClientName:                req.ClientName,
		ClientPhone:               req.ClientPhone,
		ClientEmail:               req.ClientEmail,
		ClientAddress:             req.ClientAddress,
		Region:                    req.Region,
		Deposit:                   req.Deposit,
		DepositPaid:               req.DepositPaid,
		EstimatedInstallationDays: req.EstimatedInstallationDays,
		Status:                    models.InitialOrderStatus(len(req.Materials)),
	}
	if order.EstimatedInstallationDays <= 0 {
		order.EstimatedInstallationDays = 1
	}
	if req.DepositPaidAt != "" {
		if t, ok := parseDate(req.DepositPaidAt); ok {
			order.DepositPaidAt = &t
		}
	}

	for _, p := range req.Products {
		qty := p.Quantity
		if qty <= 0 {
			qty = 1
		}
		order.Products = append(order.Products, models.Product{
			Type:        p.Type,
			Location:    p.Location,
			Description: p.Description,
			Dimensions:  p.Dimensions,
			Quantity:    qty,
		})
	}
	for _, m := range req.Materials {
		qty := m.Quantity
		if qty <= 0 {
			qty = 1
		}
		order.Materials = append(order.Materials, models.Material{
			MaterialType: m.MaterialType,
			Description:  m.Description,
			Supplier:     m.Supplier,
			Quantity:     qty,
		})
	}

	// Category roll-up starts from the material list; the production
	// checklist stays unset so irrelevant categories read as done
	order.RecalcProductionStatus()

	order.Timeline = []models.TimelineEntry{{
		Status: order.Status,
		Note:   "Order created",
		Actor:  actor,
	}}

	if err := db.Create(&order).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create order")
		return
	}

	respondData(c, http.StatusCreated, order)
}

// UpdateOrderStatusRequest represents the request body for a status change
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus handles PUT /api/v1/orders/:id/status - a manual status
// transition. The move is validated against the transition table and the
// production checklist gate before anything is written.
func UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Status is required")
		return
	}

	target := models.NormalizeOrderStatus(models.OrderStatus(req.Status))
	if !models.IsValidOrderStatus(target) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("Unknown status %q", req.Status))
		return
	}

	order, ok := fetchOrder(c, true)
	if !ok {
		return
	}

	if !models.CanTransitionOrder(order.Status, target) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_STATUS_TRANSITION",
				"message": "Invalid status transition",
				"details": gin.H{
					"current_status":   order.Status,
					"allowed_statuses": models.AllowedOrderTransitions(order.Status),
				},
			},
		})
		return
	}

	// Advancing to ready_for_install requires the production checklist
	if target == models.StatusReadyForInstall && !order.ChecklistComplete() {
		respondError(c, http.StatusBadRequest, "CHECKLIST_INCOMPLETE",
			"Production checklist must be complete before the order is ready for installation")
		return
	}

	db := config.GetDB()
	actor := middleware.ActorName(c)

	if err := db.Model(order).Update("status", target).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update status")
		return
	}
	if err := appendTimeline(db, order.ID, target, fmt.Sprintf("Status updated to %s", target), actor); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record timeline entry")
		return
	}

	respondReloadedOrder(c, order.ID)
}

// ChecklistPatch carries the partial production checklist update. Nil fields
// are left untouched; explicit false survives even when the category has no
// materials, so staff can uncheck an auto-done item.
type ChecklistPatch struct {
	GlassDone     *bool `json:"glass_done"`
	PaintDone     *bool `json:"paint_done"`
	MaterialsDone *bool `json:"materials_done"`
}

// UpdateProductionRequest represents the request body for production updates
type UpdateProductionRequest struct {
	ProductionChecklist *ChecklistPatch `json:"production_checklist"`
	ProductionNote      *string         `json:"production_note"`
}

// UpdateProduction handles PUT /api/v1/orders/:id/production - merges the
// production checklist and note with partial patch semantics.
func UpdateProduction(c *gin.Context) {
	var req UpdateProductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	order, ok := fetchOrder(c, false)
	if !ok {
		return
	}

	db := config.GetDB()
	updates := map[string]interface{}{}
	if req.ProductionChecklist != nil {
		if req.ProductionChecklist.GlassDone != nil {
			updates["glass_done"] = *req.ProductionChecklist.GlassDone
		}
		if req.ProductionChecklist.PaintDone != nil {
			updates["paint_done"] = *req.ProductionChecklist.PaintDone
		}
		if req.ProductionChecklist.MaterialsDone != nil {
			updates["materials_done"] = *req.ProductionChecklist.MaterialsDone
		}
	}
	if req.ProductionNote != nil {
		updates["production_note"] = *req.ProductionNote
	}

	if len(updates) > 0 {
		if err := db.Model(order).Updates(updates).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update production")
			return
		}
	}

	if err := appendTimeline(db, order.ID, order.Status, "Production updated", middleware.ActorName(c)); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record timeline entry")
		return
	}

	respondReloadedOrder(c, order.ID)
}

// UpdateInstallTakeListRequest represents the take-list replacement body
type UpdateInstallTakeListRequest struct {
	InstallTakeList []models.TakeListItem `json:"install_take_list"`
}

// UpdateInstallTakeList handles PUT /api/v1/orders/:id/take-list - replaces
// the "what to take to site" checklist wholesale.
func UpdateInstallTakeList(c *gin.Context) {
	var req UpdateInstallTakeListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	order, ok := fetchOrder(c, false)
	if !ok {
		return
	}

	normalized := models.NormalizeTakeList(req.InstallTakeList)
	raw, err := json.Marshal(normalized)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to encode take list")
		return
	}

	db := config.GetDB()
	if err := db.Model(order).Update("install_take_list", datatypes.JSON(raw)).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update take list")
		return
	}
	if err := appendTimeline(db, order.ID, order.Status, "Installation checklist updated", middleware.ActorName(c)); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record timeline entry")
		return
	}

	respondReloadedOrder(c, order.ID)
}

// UpdateIssueRequest represents the issue flag update body
type UpdateIssueRequest struct {
	IsIssue bool   `json:"is_issue"`
	Reason  string `json:"reason"`
}

// UpdateOrderIssue handles PUT /api/v1/orders/:id/issue - raises or resolves
// the staff-asserted issue flag. Resolving keeps the reason text and stamps
// the resolution time.
func UpdateOrderIssue(c *gin.Context) {
	var req UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	order, ok := fetchOrder(c, false)
	if !ok {
		return
	}

	db := config.GetDB()
	actor := middleware.ActorName(c)
	now := time.Now()

	var timelineNote string
	if req.IsIssue {
		reason := strings.TrimSpace(req.Reason)
		updates := map[string]interface{}{
			"issue_is_issue":    true,
			"issue_reason":      reason,
			"issue_created_at":  now,
			"issue_created_by":  actor,
			"issue_resolved_at": nil,
		}
		if err := db.Model(order).Updates(updates).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update issue")
			return
		}
		timelineNote = "Marked as issue"
		if reason != "" {
			timelineNote = "Marked as issue: " + reason
		}
	} else {
		updates := map[string]interface{}{
			"issue_is_issue":    false,
			"issue_resolved_at": now,
		}
		if err := db.Model(order).Updates(updates).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update issue")
			return
		}
		timelineNote = "Issue resolved"
	}

	if err := appendTimeline(db, order.ID, order.Status, timelineNote, actor); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record timeline entry")
		return
	}

	respondReloadedOrder(c, order.ID)
}

// UpdateFinalInvoiceRequest represents the finance block overwrite body
type UpdateFinalInvoiceRequest struct {
	IsIssued      bool     `json:"is_issued"`
	InvoiceNumber string   `json:"invoice_number"`
	Amount        *float64 `json:"amount"`
	IsPaid        bool     `json:"is_paid"`
}

// UpdateFinalInvoice handles PUT /api/v1/orders/:id/invoice - overwrites the
// finance block and auto-completes the order once the invoice is issued,
// paid and carries a concrete amount. The gate is re-evaluated on every
// finance update and fires at most once per order.
func UpdateFinalInvoice(c *gin.Context) {
	var req UpdateFinalInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	order, ok := fetchOrder(c, false)
	if !ok {
		return
	}

	amount := req.Amount
	if amount != nil && (math.IsNaN(*amount) || math.IsInf(*amount, 0)) {
		amount = nil
	}

	db := config.GetDB()
	actor := middleware.ActorName(c)

	updates := map[string]interface{}{
		"invoice_is_issued":      req.IsIssued,
		"invoice_invoice_number": req.InvoiceNumber,
		"invoice_amount":         amount,
		"invoice_is_paid":        req.IsPaid,
	}
	if err := db.Model(order).Updates(updates).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update invoice")
		return
	}
	if err := appendTimeline(db, order.ID, order.Status, "Final invoice updated", actor); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record timeline entry")
		return
	}

	order.FinalInvoice = models.FinalInvoice{
		IsIssued:      req.IsIssued,
		InvoiceNumber: req.InvoiceNumber,
		Amount:        amount,
		IsPaid:        req.IsPaid,
	}

	if order.CanCloseFinance() && models.NormalizeOrderStatus(order.Status) != models.StatusCompleted {
		if err := db.Model(order).Update("status", models.StatusCompleted).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to complete order")
			return
		}
		if err := appendTimeline(db, order.ID, models.StatusCompleted, "Order completed (invoice issued + paid)", actor); err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record timeline entry")
			return
		}
	}

	respondReloadedOrder(c, order.ID)
}

// AddOrderNoteRequest represents the note creation body
type AddOrderNoteRequest struct {
	Stage string `json:"stage"`
	Text  string `json:"text"`
}

// AddOrderNote handles POST /api/v1/orders/:id/notes
func AddOrderNote(c *gin.Context) {
	var req AddOrderNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Note text is required")
		return
	}

	order, ok := fetchOrder(c, false)
	if !ok {
		return
	}

	stage := req.Stage
	if stage == "" {
		stage = "general"
	}

	db := config.GetDB()
	actor := middleware.ActorName(c)

	note := models.OrderNote{
		OrderID:   order.ID,
		Stage:     stage,
		Text:      text,
		CreatedBy: actor,
	}
	if err := db.Create(&note).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to add note")
		return
	}
	if err := appendTimeline(db, order.ID, order.Status, fmt.Sprintf("Note added (%s)", stage), actor); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record timeline entry")
		return
	}

	respondReloadedOrder(c, order.ID)
}

// AddOrderFileRequest represents the file attachment body. The blob itself
// lives elsewhere; the engine only records the reference.
type AddOrderFileRequest struct {
	URL  string `json:"url" binding:"required"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// AddOrderFile handles POST /api/v1/orders/:id/files
func AddOrderFile(c *gin.Context) {
	var req AddOrderFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "File URL is required")
		return
	}

	fileType := req.Type
	if fileType == "" {
		fileType = models.FileTypeDocument
	}
	if fileType != models.FileTypeMasterPlan && fileType != models.FileTypeDocument && fileType != models.FileTypeSitePhoto {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("Unknown file type %q", req.Type))
		return
	}

	order, ok := fetchOrder(c, false)
	if !ok {
		return
	}

	name := req.Name
	if name == "" {
		name = "Uploaded File"
	}

	db := config.GetDB()
	file := models.OrderFile{
		OrderID:    order.ID,
		Name:       name,
		URL:        req.URL,
		Type:       fileType,
		UploadedAt: time.Now(),
		UploadedBy: middleware.ActorName(c),
	}
	if err := db.Create(&file).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to attach file")
		return
	}

	respondReloadedOrder(c, order.ID)
}
