package categories

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/core"
	"backoffice/internal/features/categories/database"
	"backoffice/internal/features/categories/handlers"
	"backoffice/internal/features/categories/migrations"
	"backoffice/internal/features/categories/models"
	"backoffice/internal/features/categories/services"
)

// Feature represents the category management feature
type Feature struct {
	*core.BaseFeature
	config          *Config
	migrationMgr    *migrations.Manager
	store           *database.DatabaseService
	categoryService *services.CategoryService
	handler         *handlers.APIHandler
}

// NewFeature creates a new category feature. recorder may be nil.
func NewFeature(logger *core.Logger, db *core.Database, config *Config, recorder services.Recorder) *Feature {
	featureLogger := logger.ForFeature("categories")

	store := database.NewDatabaseService(db)
	images := services.NewImageStore(config.UploadDir, config.MaxUploadBytes, featureLogger)
	categoryService := services.NewCategoryService(store, images, recorder, featureLogger)

	return &Feature{
		BaseFeature:     core.NewBaseFeature("categories", "Product category management", config.Enabled, logger),
		config:          config,
		migrationMgr:    migrations.NewManager(db, featureLogger),
		store:           store,
		categoryService: categoryService,
		handler:         handlers.NewAPIHandler(featureLogger, categoryService, config.MaxUploadBytes),
	}
}

// Init runs migrations and seeds sample categories into an empty table
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	if err := f.config.Validate(); err != nil {
		return err
	}

	if err := f.migrationMgr.Migrate(ctx); err != nil {
		return err
	}

	if f.config.SeedSamples {
		if _, err := f.migrationMgr.SeedSamples(ctx, time.Now()); err != nil {
			return fmt.Errorf("failed to seed sample categories: %w", err)
		}
	}

	f.Logger().Info("Category feature initialized successfully", "upload_dir", f.config.UploadDir)
	return nil
}

// Routes returns the HTTP routes for the category feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		{Method: "GET", Path: "/api/categories", Handler: f.handler.ListCategories},
		{Method: "POST", Path: "/api/categories", Handler: f.handler.CreateCategory},
		{Method: "GET", Path: "/api/categories/{id}", Handler: f.handler.GetCategory},
		{Method: "PUT", Path: "/api/categories/{id}", Handler: f.handler.UpdateCategory},
		{Method: "DELETE", Path: "/api/categories/{id}", Handler: f.handler.DeleteCategory},

		// Stored images are public
		{Method: "GET", Path: models.UploadURLPrefix + "/{file}", Handler: handlers.UploadsHandler(f.config.UploadDir), Public: true},
	}
}

// CountCategories returns the number of stored categories
func (f *Feature) CountCategories(ctx context.Context) (int, error) {
	return f.store.CountCategories(ctx)
}
