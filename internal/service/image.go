package service

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/nnote/nnote/internal/apperr"
	"github.com/nnote/nnote/internal/metrics"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 5 << 20

var (
	allowedImageExts = map[string]bool{
		".jpeg": true,
		".jpg":  true,
		".png":  true,
		".gif":  true,
		".webp": true,
	}
	allowedImageTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}
)

// ImageService validates note images and hands them to blob storage.
type ImageService struct {
	store   ImageStore
	metrics metrics.Recorder
}

// NewImageService creates a new ImageService.
func NewImageService(store ImageStore, recorder metrics.Recorder) *ImageService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ImageService{store: store, metrics: recorder}
}

// Upload checks size, file extension, declared type and sniffed content,
// then stores the image and returns its URL.
func (s *ImageService) Upload(ctx context.Context, data []byte, filename, declaredType string) (string, error) {
	contentType, ext, err := validateImage(data, filename, declaredType)
	if err != nil {
		s.metrics.IncImageUpload(metrics.StatusFailure)
		return "", err
	}

	url, err := s.store.Upload(ctx, data, contentType, ext)
	if err != nil {
		s.metrics.IncImageUpload(metrics.StatusFailure)
		return "", apperr.Wrap(apperr.ErrUploadFailed, "Failed to upload image", err)
	}

	s.metrics.IncImageUpload(metrics.StatusSuccess)
	return url, nil
}

// validateImage returns the sniffed content type and normalized extension.
func validateImage(data []byte, filename, declaredType string) (string, string, error) {
	if len(data) == 0 {
		return "", "", apperr.New(apperr.ErrValidation, "No image file provided")
	}
	if len(data) > MaxImageSize {
		return "", "", apperr.New(apperr.ErrValidation, "Image exceeds the 5MB limit")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	declared := strings.ToLower(strings.TrimSpace(strings.Split(declaredType, ";")[0]))
	if !allowedImageExts[ext] || !allowedImageTypes[declared] {
		return "", "", apperr.New(apperr.ErrValidation, "Only image files are allowed!")
	}

	sniffed := http.DetectContentType(data)
	if !allowedImageTypes[sniffed] {
		return "", "", apperr.New(apperr.ErrValidation, "Only image files are allowed!")
	}

	return sniffed, ext, nil
}
