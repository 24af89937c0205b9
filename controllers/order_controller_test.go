package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/alumglass/alumglass-api/config"
	"github.com/alumglass/alumglass-api/middleware"
	"github.com/alumglass/alumglass-api/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.Product{},
		&models.Material{},
		&models.OrderFile{},
		&models.OrderNote{},
		&models.TimelineEntry{},
		&models.Repair{},
		&models.RepairNote{},
		&models.RepairMedia{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// mockAuthMiddleware simulates EnsureValidToken for handler tests
func mockAuthMiddleware(auth0ID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", auth0ID)
		c.Set("validated_claims", &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: auth0ID},
			CustomClaims:     &middleware.CustomClaims{},
		})
		c.Next()
	}
}

func createOfficeUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		Auth0ID: "auth0|office123",
		Name:    "Maria Office",
		Email:   "maria@alumglass.example",
		Role:    models.RoleOffice,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func performJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	return response
}

func TestCreateOrder(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createOfficeUser(t, db)

	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name: "order with materials starts in materials_pending",
			requestBody: map[string]interface{}{
				"order_number": "2026-101",
				"client_name":  "Ivan Petrov",
				"client_phone": "+359888123456",
				"materials": []map[string]interface{}{
					{"material_type": "Glass", "supplier": "GlassCo", "quantity": 4},
					{"material_type": "Paint", "supplier": "ColorWorks"},
				},
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "materials_pending", data["status"])
				assert.Equal(t, "pending", data["glass_status"])
				assert.Equal(t, "pending", data["paint_status"])
				assert.Equal(t, "not_needed", data["aluminum_status"])

				// Omitted quantity defaults to 1
				materials := data["materials"].([]interface{})
				paint := materials[1].(map[string]interface{})
				assert.Equal(t, float64(1), paint["quantity"])

				// Creation is recorded on the timeline
				timeline := data["timeline"].([]interface{})
				assert.Len(t, timeline, 1)
				entry := timeline[0].(map[string]interface{})
				assert.Equal(t, "Order created", entry["note"])
				assert.Equal(t, "Maria Office", entry["actor"])
			},
		},
		{
			name: "order without materials skips procurement",
			requestBody: map[string]interface{}{
				"order_number": "2026-102",
				"client_name":  "Elena Georgieva",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "in_production", data["status"])
			},
		},
		{
			name: "duplicate order number is rejected",
			requestBody: map[string]interface{}{
				"order_number": "2026-101",
				"client_name":  "Someone Else",
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "DUPLICATE_ORDER_NUMBER",
		},
		{
			name: "missing order number fails validation",
			requestBody: map[string]interface{}{
				"client_name": "Ivan Petrov",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "whitespace order number fails validation",
			requestBody: map[string]interface{}{
				"order_number": "   ",
				"client_name":  "Ivan Petrov",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "unknown material type is rejected",
			requestBody: map[string]interface{}{
				"order_number": "2026-103",
				"client_name":  "Ivan Petrov",
				"materials": []map[string]interface{}{
					{"material_type": "Wood"},
				},
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/orders", mockAuthMiddleware(user.Auth0ID), CreateOrder)

			w := performJSON(router, http.MethodPost, "/orders", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, w.Code)

			response := parseResponse(t, w)
			if tt.expectedError != "" {
				assert.False(t, response["success"].(bool))
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createOfficeUser(t, db)

	router := setupTestRouter()
	router.PUT("/orders/:id/status", mockAuthMiddleware(user.Auth0ID), UpdateOrderStatus)

	order := models.Order{
		OrderNumber: "2026-201",
		ClientName:  "Ivan Petrov",
		Status:      models.StatusProductionPending,
	}
	db.Create(&order)

	t.Run("allowed transition succeeds", func(t *testing.T) {
		w := performJSON(router, http.MethodPut, fmt.Sprintf("/orders/%d/status", order.ID),
			map[string]interface{}{"status": "in_production"})
		assert.Equal(t, http.StatusOK, w.Code)

		response := parseResponse(t, w)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "in_production", data["status"])
	})

	t.Run("skipping ahead is rejected with allowed statuses", func(t *testing.T) {
		w := performJSON(router, http.MethodPut, fmt.Sprintf("/orders/%d/status", order.ID),
			map[string]interface{}{"status": "scheduled"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		response := parseResponse(t, w)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "INVALID_STATUS_TRANSITION", errorData["code"])

		details := errorData["details"].(map[string]interface{})
		assert.Equal(t, "in_production", details["current_status"])
		assert.Contains(t, details["allowed_statuses"], "ready_for_install")
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		w := performJSON(router, http.MethodPut, fmt.Sprintf("/orders/%d/status", order.ID),
			map[string]interface{}{"status": "exploded"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		response := parseResponse(t, w)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "VALIDATION_ERROR", errorData["code"])
	})

	t.Run("missing order returns 404", func(t *testing.T) {
		w := performJSON(router, http.MethodPut, "/orders/99999/status",
			map[string]interface{}{"status": "in_production"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		response := parseResponse(t, w)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "ORDER_NOT_FOUND", errorData["code"])
	})

	t.Run("legacy alias is normalized before the transition check", func(t *testing.T) {
		legacy := models.Order{
			OrderNumber: "2026-202",
			ClientName:  "Legacy Row",
			Status:      models.StatusReadyForInstall,
		}
		db.Create(&legacy)

		// "install" is the old alias for ready_for_install: a no-op write
		w := performJSON(router, http.MethodPut, fmt.Sprintf("/orders/%d/status", legacy.ID),
			map[string]interface{}{"status": "install"})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestUpdateOrderStatusChecklistGate(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createOfficeUser(t, db)

	router := setupTestRouter()
	router.PUT("/orders/:id/status", mockAuthMiddleware(user.Auth0ID), UpdateOrderStatus)
	router.PUT("/orders/:id/production", mockAuthMiddleware(user.Auth0ID), UpdateProduction)

	order := models.Order{
		OrderNumber: "2026-301",
		ClientName:  "Ivan Petrov",
		Status:      models.StatusInProduction,
		Materials: []models.Material{
			{MaterialType: models.MaterialGlass, Supplier: "GlassCo", Quantity: 2},
		},
	}
	db.Create(&order)

	// The glass checklist item is unset and the order has glass, so the gate
	// blocks the move
	w := performJSON(router, http.MethodPut, fmt.Sprintf("/orders/%d/status", order.ID),
		map[string]interface{}{"status": "ready_for_install"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseResponse(t, w)
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "CHECKLIST_INCOMPLETE", errorData["code"])

	// Ticking glass done opens the gate; paint and materials read as done
	// because the order has no such materials
	w = performJSON(router, http.MethodPut, fmt.Sprintf("/orders/%d/production", order.ID),
		map[string]interface{}{"production_checklist": map[string]interface{}{"glass_done": true}})
	assert.Equal(t, http.StatusOK, w.Code)

	w = performJSON(router, http.MethodPut, fmt.Sprintf("/orders/%d/status", order.ID),
		map[string]interface{}{"status": "ready_for_install"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateProductionPartialPatch(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createOfficeUser(t, db)

	router := setupTestRouter()
	router.PUT("/orders/:id/production", mockAuthMiddleware(user.Auth0ID), UpdateProduction)

	order := models.Order{
		OrderNumber: "2026-401",
		ClientName:  "Ivan Petrov",
		Status:      models.StatusInProduction,
	}
	db.Create(&order)

	// Explicit false lands in the column even though the category reads done
	w := performJSON(router, http.MethodPut, fmt.Sprintf("/orders/%d/production", order.ID),
		map[string]interface{}{
			"production_checklist": map[string]interface{}{"paint_done": false},
			"production_note":      "waiting on powder coat",
		})
	assert.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Order
	db.First(&reloaded, order.ID)
	if assert.NotNil(t, reloaded.PaintDone) {
		assert.False(t, *reloaded.PaintDone)
	}
	assert.Nil(t, reloaded.GlassDone, "untouched flags stay unset")
	assert.Equal(t, "waiting on powder coat", reloaded.ProductionNote)
}

func TestUpdateFinalInvoiceAutoClose(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createOfficeUser(t, db)

	router := setupTestRouter()
	router.PUT("/orders/:id/invoice", mockAuthMiddleware(user.Auth0ID), UpdateFinalInvoice)

	order := models.Order{
		OrderNumber: "2026-501",
		ClientName:  "Ivan Petrov",
		Status:      models.StatusPendingApproval,
	}
	db.Create(&order)

	t.Run("partial finance data does not close the order", func(t *testing.T) {
		w := performJSON(router, http.MethodPut, fmt.Sprintf("/orders/%d/invoice", order.ID),
			map[string]interface{}{"is_issued": true, "invoice_number": "F-1001"})
		assert.Equal(t, http.StatusOK, w.Code)

		response := parseResponse(t, w)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "pending_approval", data["status"])
	})

	t.Run("issued and paid with amount completes the order", func(t *testing.T) {
		w := performJSON(router, http.MethodPut, fmt.Sprintf("/orders/%d/invoice", order.ID),
			map[string]interface{}{
				"is_issued":      true,
				"invoice_number": "F-1001",
				"amount":         2450.00,
				"is_paid":        true,
			})
		assert.Equal(t, http.StatusOK, w.Code)

		response := parseResponse(t, w)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "completed", data["status"])
	})

	t.Run("re-sending the finance block is idempotent", func(t *testing.T) {
		w := performJSON(router, http.MethodPut, fmt.Sprintf("/orders/%d/invoice", order.ID),
			map[string]interface{}{
				"is_issued":      true,
				"invoice_number": "F-1001",
				"amount":         2450.00,
				"is_paid":        true,
			})
		assert.Equal(t, http.StatusOK, w.Code)

		var completions int64
		db.Model(&models.TimelineEntry{}).
			Where("order_id = ? AND note = ?", order.ID, "Order completed (invoice issued + paid)").
			Count(&completions)
		assert.Equal(t, int64(1), completions, "completion fires at most once")
	})
}

func TestUpdateOrderIssue(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createOfficeUser(t, db)

	router := setupTestRouter()
	router.PUT("/orders/:id/issue", mockAuthMiddleware(user.Auth0ID), UpdateOrderIssue)

	order := models.Order{
		OrderNumber: "2026-601",
		ClientName:  "Ivan Petrov",
		Status:      models.StatusScheduled,
	}
	db.Create(&order)

	// Raise
	w := performJSON(router, http.MethodPut, fmt.Sprintf("/orders/%d/issue", order.ID),
		map[string]interface{}{"is_issue": true, "reason": "cracked pane on delivery"})
	assert.Equal(t, http.StatusOK, w.Code)

	var raised models.Order
	db.First(&raised, order.ID)
	assert.True(t, raised.Issue.IsIssue)
	assert.Equal(t, "cracked pane on delivery", raised.Issue.Reason)
	assert.NotNil(t, raised.Issue.CreatedAt)
	assert.Equal(t, "Maria Office", raised.Issue.CreatedBy)
	assert.Nil(t, raised.Issue.ResolvedAt)

	// Resolve: the reason survives for history, resolution time is stamped
	w = performJSON(router, http.MethodPut, fmt.Sprintf("/orders/%d/issue", order.ID),
		map[string]interface{}{"is_issue": false})
	assert.Equal(t, http.StatusOK, w.Code)

	var resolved models.Order
	db.First(&resolved, order.ID)
	assert.False(t, resolved.Issue.IsIssue)
	assert.Equal(t, "cracked pane on delivery", resolved.Issue.Reason)
	assert.NotNil(t, resolved.Issue.ResolvedAt)
}

func TestAddOrderNote(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createOfficeUser(t, db)

	router := setupTestRouter()
	router.POST("/orders/:id/notes", mockAuthMiddleware(user.Auth0ID), AddOrderNote)

	order := models.Order{
		OrderNumber: "2026-701",
		ClientName:  "Ivan Petrov",
		Status:      models.StatusInProduction,
	}
	db.Create(&order)

	t.Run("note with stage", func(t *testing.T) {
		w := performJSON(router, http.MethodPost, fmt.Sprintf("/orders/%d/notes", order.ID),
			map[string]interface{}{"stage": "production", "text": "frame welded"})
		assert.Equal(t, http.StatusOK, w.Code)

		var note models.OrderNote
		db.Where("order_id = ?", order.ID).First(&note)
		assert.Equal(t, "production", note.Stage)
		assert.Equal(t, "frame welded", note.Text)
		assert.Equal(t, "Maria Office", note.CreatedBy)
	})

	t.Run("blank text is rejected", func(t *testing.T) {
		w := performJSON(router, http.MethodPost, fmt.Sprintf("/orders/%d/notes", order.ID),
			map[string]interface{}{"text": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		response := parseResponse(t, w)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "VALIDATION_ERROR", errorData["code"])
	})
}

func TestUpdateInstallTakeList(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createOfficeUser(t, db)

	router := setupTestRouter()
	router.PUT("/orders/:id/take-list", mockAuthMiddleware(user.Auth0ID), UpdateInstallTakeList)

	order := models.Order{
		OrderNumber: "2026-801",
		ClientName:  "Ivan Petrov",
		Status:      models.StatusReadyForInstall,
	}
	db.Create(&order)

	w := performJSON(router, http.MethodPut, fmt.Sprintf("/orders/%d/take-list", order.ID),
		map[string]interface{}{"install_take_list": []map[string]interface{}{
			{"label": " ladder ", "done": false},
			{"label": "", "done": true},
			{"label": "silicone", "done": true},
		}})
	assert.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Order
	db.First(&reloaded, order.ID)

	var items []models.TakeListItem
	assert.NoError(t, json.Unmarshal(reloaded.InstallTakeList, &items))
	assert.Len(t, items, 2)
	assert.Equal(t, "ladder", items[0].Label)
}
