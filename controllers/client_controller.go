package controllers

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alumglass/alumglass-api/config"
	"github.com/alumglass/alumglass-api/models"
)

// ClientSummary is one deduplicated client derived from the order history.
// Clients are not stored as their own table; the phone number is the key.
type ClientSummary struct {
	ClientName    string    `json:"client_name"`
	ClientPhone   string    `json:"client_phone"`
	ClientAddress string    `json:"client_address"`
	Region        string    `json:"region"`
	OrderCount    int       `json:"order_count"`
	LastOrderAt   time.Time `json:"last_order_at"`
}

// SearchClients handles GET /api/v1/clients/search?q= - typeahead for the
// order form. Matches name or phone, capped at five suggestions.
func SearchClients(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		respondData(c, http.StatusOK, []ClientSummary{})
		return
	}

	db := config.GetDB()

	var orders []models.Order
	like := "%" + q + "%"
	err := db.
		Where("client_name LIKE ? OR client_phone LIKE ?", like, like).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to search clients")
		return
	}

	results := summarizeClients(orders)
	if len(results) > 5 {
		results = results[:5]
	}

	respondData(c, http.StatusOK, results)
}

// GetClientByPhone handles GET /api/v1/clients/by-phone/:phone - exact phone
// lookup used to prefill the order form.
func GetClientByPhone(c *gin.Context) {
	phone := strings.TrimSpace(c.Param("phone"))
	if phone == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Phone is required")
		return
	}

	db := config.GetDB()

	var order models.Order
	err := db.
		Where("client_phone = ?", phone).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		respondError(c, http.StatusNotFound, "CLIENT_NOT_FOUND", "No client with this phone number")
		return
	}

	respondData(c, http.StatusOK, ClientSummary{
		ClientName:    order.ClientName,
		ClientPhone:   order.ClientPhone,
		ClientAddress: order.ClientAddress,
		Region:        order.Region,
		OrderCount:    1,
		LastOrderAt:   order.CreatedAt,
	})
}

// ListClients handles GET /api/v1/clients - every known client with their
// order count, most recent first.
func ListClients(c *gin.Context) {
	db := config.GetDB()

	var orders []models.Order
	if err := db.Order("created_at DESC").Find(&orders).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load clients")
		return
	}

	respondData(c, http.StatusOK, summarizeClients(orders))
}

// GetClientHistory handles GET /api/v1/clients/by-phone/:phone/history - the
// full order and repair history for one client.
func GetClientHistory(c *gin.Context) {
	phone := strings.TrimSpace(c.Param("phone"))
	if phone == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Phone is required")
		return
	}

	db := config.GetDB()

	var orders []models.Order
	err := orderPreloads(db).
		Where("client_phone = ?", phone).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load client history")
		return
	}
	if len(orders) == 0 {
		respondError(c, http.StatusNotFound, "CLIENT_NOT_FOUND", "No client with this phone number")
		return
	}

	var repairs []models.Repair
	err = db.
		Preload("Notes").
		Preload("Media").
		Where("client_phone = ?", phone).
		Order("created_at DESC").
		Find(&repairs).Error
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load client history")
		return
	}

	now := time.Now()
	for i := range orders {
		orders[i].IsOverdueFlag = orders[i].IsOverdue(now)
	}
	for i := range repairs {
		repairs[i].IsOverdueFlag = repairs[i].IsOverdue(now)
	}

	respondData(c, http.StatusOK, gin.H{
		"orders":  orders,
		"repairs": repairs,
	})
}

// summarizeClients collapses an order list into one row per phone number,
// keeping the contact fields from the newest order. Input must already be
// sorted newest first.
func summarizeClients(orders []models.Order) []ClientSummary {
	byPhone := map[string]*ClientSummary{}
	keys := []string{}
	for i := range orders {
		phone := orders[i].ClientPhone
		if existing, ok := byPhone[phone]; ok {
			existing.OrderCount++
			continue
		}
		byPhone[phone] = &ClientSummary{
			ClientName:    orders[i].ClientName,
			ClientPhone:   phone,
			ClientAddress: orders[i].ClientAddress,
			Region:        orders[i].Region,
			OrderCount:    1,
			LastOrderAt:   orders[i].CreatedAt,
		}
		keys = append(keys, phone)
	}

	results := make([]ClientSummary, 0, len(keys))
	for _, phone := range keys {
		results = append(results, *byPhone[phone])
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].LastOrderAt.After(results[b].LastOrderAt)
	})
	return results
}
