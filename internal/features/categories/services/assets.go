package services

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"backoffice/internal/core"
	"backoffice/internal/features/categories/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrPayloadTooLarge      = errors.New("image exceeds the upload size limit")
	ErrUnsupportedMediaType = errors.New("only image files are allowed")
	ErrInvalidImagePath     = errors.New("image path is outside the upload directory")
)

// allowedExtensions are matched against the lowercased upload filename
var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// allowedMediaTypes cover both the declared and the sniffed content type
var allowedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ImageStore keeps uploaded category images in a single flat directory
type ImageStore struct {
	dir      string
	maxBytes int64
	logger   *core.Logger
	now      func() time.Time
}

// NewImageStore creates an image store rooted at dir. The directory is
// created on first write.
func NewImageStore(dir string, maxBytes int64, logger *core.Logger) *ImageStore {
	return &ImageStore{
		dir:      dir,
		maxBytes: maxBytes,
		logger:   logger,
		now:      time.Now,
	}
}

// Save validates an uploaded image and writes it under a fresh name.
// It returns the stored reference and the number of bytes written.
func (s *ImageStore) Save(upload *models.ImageUpload) (models.ImageRef, int64, error) {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !allowedExtensions[ext] {
		return models.ImageRef{}, 0, fmt.Errorf("%w: extension %q", ErrUnsupportedMediaType, ext)
	}

	mediaType, _, err := mime.ParseMediaType(upload.ContentType)
	if err != nil || !allowedMediaTypes[strings.ToLower(mediaType)] {
		return models.ImageRef{}, 0, fmt.Errorf("%w: media type %q", ErrUnsupportedMediaType, upload.ContentType)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return models.ImageRef{}, 0, fmt.Errorf("failed to create upload directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return models.ImageRef{}, 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	keep := false
	defer func() {
		if !keep {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmp, io.LimitReader(upload.Body, s.maxBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return models.ImageRef{}, 0, fmt.Errorf("failed to write upload: %w", err)
	}
	if written > s.maxBytes {
		return models.ImageRef{}, 0, fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, s.maxBytes)
	}

	detected, err := mimetype.DetectFile(tmpPath)
	if err != nil {
		return models.ImageRef{}, 0, fmt.Errorf("failed to inspect upload: %w", err)
	}
	if !allowedMediaTypes[detected.String()] {
		return models.ImageRef{}, 0, fmt.Errorf("%w: content is %s", ErrUnsupportedMediaType, detected.String())
	}

	name := s.generateFilename(ext)
	if err := os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		return models.ImageRef{}, 0, fmt.Errorf("failed to store upload: %w", err)
	}
	keep = true

	s.logger.Debug("Stored category image", "file", name, "bytes", written)
	return models.StoredImage(name), written, nil
}

// generateFilename builds category-<unix millis>-<random hex><ext>
func (s *ImageStore) generateFilename(ext string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("category-%d-%s%s", s.now().UnixMilli(), random, ext)
}

// Remove deletes the file behind a stored reference. Placeholders and
// empty references are ignored, as is a file that is already gone.
func (s *ImageStore) Remove(ref models.ImageRef) error {
	if !ref.IsStored() {
		return nil
	}
	if !models.ValidFilename(ref.Name()) {
		return fmt.Errorf("%w: %q", ErrInvalidImagePath, ref.Name())
	}

	err := os.Remove(filepath.Join(s.dir, ref.Name()))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove image %s: %w", ref.Name(), err)
	}
	return nil
}

// RemoveURL deletes the file behind a public image path
func (s *ImageStore) RemoveURL(raw string) error {
	ref, err := models.ParseImageURL(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImagePath, err)
	}
	return s.Remove(ref)
}

// Exists reports whether the stored file for ref is on disk
func (s *ImageStore) Exists(ref models.ImageRef) bool {
	if !ref.IsStored() || !models.ValidFilename(ref.Name()) {
		return false
	}
	info, err := os.Stat(filepath.Join(s.dir, ref.Name()))
	return err == nil && info.Mode().IsRegular()
}
