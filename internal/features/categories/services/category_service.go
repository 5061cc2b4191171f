package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/core"
	"backoffice/internal/features/categories/database"
	"backoffice/internal/features/categories/models"

	"github.com/go-playground/validator/v10"
)

// CategoryStore is the persistence the category service needs
type CategoryStore interface {
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id int) (*models.Category, error)
	InsertCategory(ctx context.Context, name string, itemCount int, image models.ImageRef, now time.Time) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int, name string, itemCount int, image models.ImageRef, now time.Time) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int) error
}

// ImageStorage stores and reclaims category image files
type ImageStorage interface {
	Save(upload *models.ImageUpload) (models.ImageRef, int64, error)
	Remove(ref models.ImageRef) error
}

// Recorder receives category lifecycle events, typically for metrics
type Recorder interface {
	CategoryCreated()
	CategoryUpdated()
	CategoryDeleted()
	ImageStored(bytes int64)
	ImageRemoved()
	ImageRejected(reason string)
}

type nopRecorder struct{}

func (nopRecorder) CategoryCreated()     {}
func (nopRecorder) CategoryUpdated()     {}
func (nopRecorder) CategoryDeleted()     {}
func (nopRecorder) ImageStored(int64)    {}
func (nopRecorder) ImageRemoved()        {}
func (nopRecorder) ImageRejected(string) {}

// CategoryService handles category CRUD and keeps image files in step
// with the rows that reference them
type CategoryService struct {
	store    CategoryStore
	images   ImageStorage
	validate *validator.Validate
	recorder Recorder
	logger   *core.Logger
	now      func() time.Time
}

// NewCategoryService creates a new category service. A nil recorder
// discards events.
func NewCategoryService(store CategoryStore, images ImageStorage, recorder Recorder, logger *core.Logger) *CategoryService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &CategoryService{
		store:    store,
		images:   images,
		validate: validator.New(),
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// ParseItemCount reads the leading integer of raw, the way form values
// are read by browsers. Missing, non-numeric and negative values become 0.
func ParseItemCount(raw string) int {
	s := strings.TrimSpace(raw)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ListCategories returns every category, newest first
func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.GetCategories(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", "error", err)
		return nil, core.NewDatabaseError("Error fetching categories", err)
	}
	return categories, nil
}

// GetCategory retrieves a category by ID
func (s *CategoryService) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	category, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return nil, core.NewNotFoundError("Category not found", err)
		}
		s.logger.Error("Failed to get category", "id", id, "error", err)
		return nil, core.NewDatabaseError("Error fetching category", err)
	}
	return category, nil
}

// CreateCategory validates input, stores the optional image and inserts
// the row. The image is removed again if the insert fails.
func (s *CategoryService) CreateCategory(ctx context.Context, input *models.CategoryCreate) (*models.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	image, err := s.saveImage(input.Image)
	if err != nil {
		return nil, err
	}

	category, err := s.store.InsertCategory(ctx, input.Name, input.ItemCount, image, s.now())
	if err != nil {
		s.discardImage(image)
		s.logger.Error("Failed to create category", "name", input.Name, "error", err)
		return nil, core.NewDatabaseError("Error creating category", err)
	}

	s.recorder.CategoryCreated()
	s.logger.Info("Created category", "id", category.ID, "name", category.Name, "image", category.ImageURL.String())
	return category, nil
}

// UpdateCategory overwrites name and item count, and swaps the image when
// a new one is supplied. The replaced file is removed on a best-effort basis.
func (s *CategoryService) UpdateCategory(ctx context.Context, id int, input *models.CategoryUpdate) (*models.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	image := existing.ImageURL
	if input.Image != nil {
		image, err = s.saveImage(input.Image)
		if err != nil {
			return nil, err
		}
	}

	// updated_at must move forward even when the clock has not
	now := s.now().UTC()
	if !now.After(existing.UpdatedAt) {
		now = existing.UpdatedAt.Add(time.Microsecond)
	}

	category, err := s.store.UpdateCategory(ctx, id, input.Name, input.ItemCount, image, now)
	if err != nil {
		if input.Image != nil {
			s.discardImage(image)
		}
		if errors.Is(err, database.ErrRecordNotFound) {
			return nil, core.NewNotFoundError("Category not found", err)
		}
		s.logger.Error("Failed to update category", "id", id, "error", err)
		return nil, core.NewDatabaseError("Error updating category", err)
	}

	if input.Image != nil && existing.ImageURL != image {
		s.discardImage(existing.ImageURL)
	}

	s.recorder.CategoryUpdated()
	s.logger.Info("Updated category", "id", category.ID, "name", category.Name, "image", category.ImageURL.String())
	return category, nil
}

// DeleteCategory removes the row and then its stored image, if any
func (s *CategoryService) DeleteCategory(ctx context.Context, id int) error {
	existing, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return core.NewNotFoundError("Category not found", err)
		}
		s.logger.Error("Failed to delete category", "id", id, "error", err)
		return core.NewDatabaseError("Error deleting category", err)
	}

	s.discardImage(existing.ImageURL)

	s.recorder.CategoryDeleted()
	s.logger.Info("Deleted category", "id", id, "name", existing.Name)
	return nil
}

func (s *CategoryService) validateInput(input any) error {
	if err := s.validate.Struct(input); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
			switch fieldErrors[0].Field() {
			case "Name":
				return core.NewValidationError("Category name is required", err)
			case "ItemCount":
				return core.NewValidationError("Item count must be a non-negative number", err)
			}
		}
		return core.NewValidationError("Invalid category data", err)
	}
	return nil
}

func (s *CategoryService) saveImage(upload *models.ImageUpload) (models.ImageRef, error) {
	if upload == nil {
		return models.NoImage(), nil
	}

	image, written, err := s.images.Save(upload)
	if err != nil {
		switch {
		case errors.Is(err, ErrPayloadTooLarge):
			s.recorder.ImageRejected("too_large")
			return models.ImageRef{}, core.NewPayloadTooLargeError("File too large", err)
		case errors.Is(err, ErrUnsupportedMediaType):
			s.recorder.ImageRejected("unsupported_type")
			return models.ImageRef{}, core.NewUnsupportedMediaTypeError("Only image files are allowed", err)
		default:
			s.logger.Error("Failed to store image", "filename", upload.Filename, "error", err)
			return models.ImageRef{}, core.NewInternalError("Error saving image", err)
		}
	}

	s.recorder.ImageStored(written)
	return image, nil
}

// discardImage removes a stored file and only logs on failure. An orphaned
// file never fails the surrounding operation.
func (s *CategoryService) discardImage(image models.ImageRef) {
	if !image.IsStored() {
		return
	}
	if err := s.images.Remove(image); err != nil {
		s.logger.Warn("Failed to remove category image", "image", image.URL(), "error", err)
		return
	}
	s.recorder.ImageRemoved()
}
