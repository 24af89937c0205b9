package controllers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alumglass/alumglass-api/config"
	"github.com/alumglass/alumglass-api/services"
)

func setupUploadTest(t *testing.T) *services.MockS3Service {
	t.Helper()
	db := setupTestDB(t)
	config.SetDB(db)

	mockS3 := services.NewMockS3Service()
	mockS3.SetAsMockForTesting()
	services.InitFileService(mockS3)
	return mockS3
}

func multipartRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to build multipart body: %v", err)
	}
	part.Write(content)
	writer.Close()

	req, _ := http.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadAttachment(t *testing.T) {
	mockS3 := setupUploadTest(t)

	router := setupTestRouter()
	router.POST("/uploads", mockAuthMiddleware("auth0|office123"), UploadAttachment)

	t.Run("valid file lands in storage", func(t *testing.T) {
		req := multipartRequest(t, "/uploads", "site-photo.jpg", []byte("jpeg-bytes"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		response := parseResponse(t, w)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "site-photo.jpg", data["name"])
		assert.NotEmpty(t, data["key"])
		assert.NotEmpty(t, data["url"])
		assert.True(t, mockS3.HasFile(data["key"].(string)))
	})

	t.Run("disallowed extension is rejected", func(t *testing.T) {
		req := multipartRequest(t, "/uploads", "malware.exe", []byte("nope"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		response := parseResponse(t, w)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "INVALID_FILE_FORMAT", errorData["code"])
	})

	t.Run("missing file field is rejected", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/uploads", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteAttachment(t *testing.T) {
	mockS3 := setupUploadTest(t)

	router := setupTestRouter()
	router.POST("/uploads", mockAuthMiddleware("auth0|office123"), UploadAttachment)
	router.DELETE("/uploads/*key", mockAuthMiddleware("auth0|office123"), DeleteAttachment)

	req := multipartRequest(t, "/uploads", "plan.pdf", []byte("pdf-bytes"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	key := parseResponse(t, w)["data"].(map[string]interface{})["key"].(string)
	assert.True(t, mockS3.HasFile(key))

	req, _ = http.NewRequest(http.MethodDelete, "/uploads/"+key, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, mockS3.HasFile(key))
}
