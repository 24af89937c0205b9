package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/alumglass/alumglass-api/config"
	"github.com/alumglass/alumglass-api/middleware"
	"github.com/alumglass/alumglass-api/models"
	"github.com/alumglass/alumglass-api/services"
)

// setupMockAuth0Server simulates Auth0's /userinfo endpoint
func setupMockAuth0Server(userInfoByToken map[string]*services.Auth0UserInfo) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if len(authHeader) < 8 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		token := authHeader[7:]

		info, ok := userInfoByToken[token]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	}))
}

// mockAuthWithRole injects identity plus a role custom claim
func mockAuthWithRole(auth0ID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", auth0ID)
		c.Set("validated_claims", &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: auth0ID},
			CustomClaims:     &middleware.CustomClaims{Role: role},
		})
		c.Next()
	}
}

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	auth0Server := setupMockAuth0Server(map[string]*services.Auth0UserInfo{
		"token-office": {Sub: "auth0|new-office", Email: "office@alumglass.example", Name: "New Office"},
		"token-crew":   {Sub: "auth0|new-crew", Email: "crew@alumglass.example", Name: "New Crew"},
		"token-noname": {Sub: "auth0|blank", Email: "blank@alumglass.example", Name: ""},
	})
	defer auth0Server.Close()

	config.SetConfig(&config.Config{Auth0Domain: auth0Server.URL, GoEnv: "test"})

	newRequest := func(token string) (*httptest.ResponseRecorder, *http.Request) {
		req, _ := http.NewRequest(http.MethodPost, "/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return httptest.NewRecorder(), req
	}

	t.Run("role defaults to office without a role claim", func(t *testing.T) {
		router := setupTestRouter()
		router.POST("/users", mockAuthWithRole("auth0|new-office", ""), CreateUser)

		w, req := newRequest("token-office")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)

		var user models.User
		db.Where("auth0_id = ?", "auth0|new-office").First(&user)
		assert.Equal(t, models.RoleOffice, user.Role)
		assert.Equal(t, "office@alumglass.example", user.Email)
	})

	t.Run("role claim is honored", func(t *testing.T) {
		router := setupTestRouter()
		router.POST("/users", mockAuthWithRole("auth0|new-crew", models.RoleInstaller), CreateUser)

		w, req := newRequest("token-crew")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)

		var user models.User
		db.Where("auth0_id = ?", "auth0|new-crew").First(&user)
		assert.Equal(t, models.RoleInstaller, user.Role)
	})

	t.Run("duplicate identity is rejected", func(t *testing.T) {
		router := setupTestRouter()
		router.POST("/users", mockAuthWithRole("auth0|new-office", ""), CreateUser)

		w, req := newRequest("token-office")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)

		response := parseResponse(t, w)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "USER_EXISTS", errorData["code"])
	})

	t.Run("missing name from Auth0 is rejected", func(t *testing.T) {
		router := setupTestRouter()
		router.POST("/users", mockAuthWithRole("auth0|blank", ""), CreateUser)

		w, req := newRequest("token-noname")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		response := parseResponse(t, w)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "MISSING_NAME", errorData["code"])
	})
}

func TestGetMyProfile(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createOfficeUser(t, db)

	router := setupTestRouter()
	router.GET("/users/me", mockAuthMiddleware(user.Auth0ID), GetMyProfile)

	w := performJSON(router, http.MethodGet, "/users/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	response := parseResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "Maria Office", data["name"])

	t.Run("unknown identity returns 404", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/users/me", mockAuthMiddleware("auth0|stranger"), GetMyProfile)

		w := performJSON(router, http.MethodGet, "/users/me", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateMyProfile(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createOfficeUser(t, db)

	router := setupTestRouter()
	router.PUT("/users/me", mockAuthMiddleware(user.Auth0ID), UpdateMyProfile)

	w := performJSON(router, http.MethodPut, "/users/me", map[string]interface{}{
		"name": "Maria Petrova",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var reloaded models.User
	db.First(&reloaded, user.ID)
	assert.Equal(t, "Maria Petrova", reloaded.Name)
	assert.Equal(t, user.Email, reloaded.Email, "untouched fields survive")
}
