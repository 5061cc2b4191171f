package handlers

import (
	"context"

	"backoffice/internal/features/categories/models"
)

type CategoryServiceInterface interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int) (*models.Category, error)
	CreateCategory(ctx context.Context, input *models.CategoryCreate) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int, input *models.CategoryUpdate) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int) error
}
