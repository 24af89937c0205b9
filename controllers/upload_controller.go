package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alumglass/alumglass-api/services"
	"github.com/alumglass/alumglass-api/utils"
)

// UploadAttachment handles POST /api/v1/uploads - multipart upload of a plan,
// site photo or repair clip. Returns the blob key and a presigned URL.
func UploadAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "A file field is required")
		return
	}

	fileService := services.GetFileService()
	key, err := fileService.UploadAttachment(fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return
		}
		respondError(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to store the file")
		return
	}

	url, err := fileService.GetAttachmentURL(key)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to presign the file")
		return
	}

	respondData(c, http.StatusCreated, gin.H{
		"key":  key,
		"url":  url,
		"name": fileHeader.Filename,
	})
}

// GetAttachmentURL handles GET /api/v1/uploads/*key - refreshes the presigned
// URL for a stored attachment.
func GetAttachmentURL(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "A blob key is required")
		return
	}

	url, err := services.GetFileService().GetAttachmentURL(key)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to presign the file")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"key": key,
		"url": url,
	})
}

// DeleteAttachment handles DELETE /api/v1/uploads/*key
func DeleteAttachment(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "A blob key is required")
		return
	}

	if err := services.GetFileService().DeleteAttachment(key); err != nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to delete the file")
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": key})
}
