package services

import (
	"fmt"
	"mime/multipart"

	"github.com/alumglass/alumglass-api/utils"
)

// FileService handles attachment upload, retrieval and deletion for order
// files and repair media.
type FileService interface {
	// UploadAttachment validates and uploads a file, returns the storage key
	UploadAttachment(fileHeader *multipart.FileHeader) (string, error)

	// GetAttachmentURL generates a URL for accessing an uploaded attachment
	GetAttachmentURL(key string) (string, error)

	// DeleteAttachment removes an attachment from storage
	DeleteAttachment(key string) error
}

// S3FileService implements FileService using AWS S3 for storage
type S3FileService struct {
	s3Service S3Interface
}

var fileServiceInstance FileService

// InitFileService initializes the file service with an S3 backend
func InitFileService(s3Service S3Interface) FileService {
	fileServiceInstance = &S3FileService{
		s3Service: s3Service,
	}
	return fileServiceInstance
}

// GetFileService returns the initialized file service instance
func GetFileService() FileService {
	return fileServiceInstance
}

// SetFileService sets the file service instance (primarily for testing)
func SetFileService(service FileService) {
	fileServiceInstance = service
}

// UploadAttachment validates and uploads an attachment to S3
func (s *S3FileService) UploadAttachment(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateAttachment(fileHeader); err != nil {
		return "", err
	}

	key, err := s.s3Service.UploadFile(fileHeader)
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}

	return key, nil
}

// GetAttachmentURL generates a presigned URL for an attachment
func (s *S3FileService) GetAttachmentURL(key string) (string, error) {
	if key == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(key)
	if err != nil {
		return "", fmt.Errorf("failed to generate attachment URL: %w", err)
	}

	return url, nil
}

// DeleteAttachment deletes an attachment from S3
func (s *S3FileService) DeleteAttachment(key string) error {
	if key == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(key); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	return nil
}
