package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"), NewLoggerWithLevel(io.Discard, "error"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("BACKOFFICE_JWT_SECRET", "secret")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 5000, cfg.Server.Port)
		assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
		assert.Equal(t, int64(5<<20), cfg.Uploads.MaxBytes)
		assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
		assert.True(t, cfg.IsFeatureEnabled("categories"))
		assert.False(t, cfg.IsFeatureEnabled("unknown"))
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("BACKOFFICE_JWT_SECRET", "secret")
		t.Setenv("BACKOFFICE_PORT", "8081")
		t.Setenv("BACKOFFICE_ALLOWED_ORIGINS", "http://localhost:3000, https://admin.example.com")
		t.Setenv("BACKOFFICE_SEED_SAMPLE_CATEGORIES", "off")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 8081, cfg.Server.Port)
		assert.Equal(t, []string{"http://localhost:3000", "https://admin.example.com"}, cfg.Server.AllowedOrigins)
		assert.False(t, cfg.Features.Categories.SeedSamples)
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("BACKOFFICE_JWT_SECRET", "")
		_, err := LoadConfig()
		require.Error(t, err)
		assert.True(t, IsCode(err, ErrCodeConfiguration))
	})

	t.Run("admin email without password", func(t *testing.T) {
		t.Setenv("BACKOFFICE_JWT_SECRET", "secret")
		t.Setenv("BACKOFFICE_ADMIN_EMAIL", "admin@example.com")
		_, err := LoadConfig()
		require.Error(t, err)
	})
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", NewValidationError("Category name is required", nil), http.StatusBadRequest, ErrCodeValidation, "Category name is required"},
		{"not found", NewNotFoundError("Category not found", nil), http.StatusNotFound, ErrCodeNotFound, "Category not found"},
		{"too large", NewPayloadTooLargeError("too big", nil), http.StatusBadRequest, ErrCodePayloadTooLarge, "too big"},
		{"wrapped app error", fmt.Errorf("outer: %w", NewForbiddenError("nope", nil)), http.StatusForbidden, ErrCodeForbidden, "nope"},
		{"database hides cause", NewDatabaseError("Error fetching categories", errors.New("disk I/O error")), http.StatusInternalServerError, ErrCodeDatabase, "Error fetching categories"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantMsg, body.Error)
		})
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("update: %w", NewNotFoundError("Category not found", nil))
	assert.True(t, IsCode(err, ErrCodeNotFound))
	assert.False(t, IsCode(err, ErrCodeValidation))
	assert.False(t, IsCode(errors.New("plain"), ErrCodeNotFound))
}

func TestMigrations(t *testing.T) {
	db := newTestDatabase(t)
	service := NewMigrationService(db, NewLoggerWithLevel(io.Discard, "error"))
	ctx := context.Background()

	migrations := []Migration{
		{
			Version: 900,
			Name:    "create_widgets",
			UpSQL:   `CREATE TABLE widgets (id INTEGER PRIMARY KEY); CREATE INDEX idx_widgets_id ON widgets(id);`,
			DownSQL: `DROP INDEX IF EXISTS idx_widgets_id; DROP TABLE IF EXISTS widgets;`,
		},
	}

	require.NoError(t, service.Migrate(ctx, migrations))
	// Applying twice is a no-op
	require.NoError(t, service.Migrate(ctx, migrations))

	status, err := service.GetMigrationStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, status.AppliedCount)
	require.NotNil(t, status.LastApplied)
	assert.Equal(t, "create_widgets", status.LastApplied.Name)
	assert.False(t, status.LastApplied.CreatedAt.IsZero())

	require.NoError(t, service.RollbackMigration(ctx, migrations[0]))

	var tables int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='widgets'`).Scan(&tables))
	assert.Equal(t, 0, tables)

	applied, err := service.IsMigrationApplied(ctx, 900)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestMigrationFailureRollsBack(t *testing.T) {
	db := newTestDatabase(t)
	service := NewMigrationService(db, NewLoggerWithLevel(io.Discard, "error"))
	ctx := context.Background()

	err := service.Migrate(ctx, []Migration{{Version: 901, Name: "broken", UpSQL: `CREATE TABLE oops (`}})
	require.Error(t, err)

	applied, err := service.IsMigrationApplied(ctx, 901)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestParseTimeFlexible(t *testing.T) {
	for _, input := range []string{
		"2025-08-03 17:46:37.91092+01:00",
		"2025-08-03T18:04:25.926402+01:00",
		"2025-08-03 17:46:37",
	} {
		_, err := ParseTimeFlexible(input)
		assert.NoError(t, err, input)
	}

	_, err := ParseTimeFlexible("yesterday")
	assert.Error(t, err)
}

func TestTimestampScan(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 600, time.UTC)

	var ts Timestamp
	require.NoError(t, ts.Scan(now))
	assert.True(t, ts.Equal(now))

	require.NoError(t, ts.Scan("2025-01-02 03:04:05.0000006+00:00"))
	assert.True(t, ts.Equal(now))

	require.Error(t, ts.Scan(42))
}

// failingFeature fails both Init and Shutdown
type failingFeature struct {
	*BaseFeature
}

func (f failingFeature) Init(context.Context) error     { return errors.New("init failed") }
func (f failingFeature) Shutdown(context.Context) error { return errors.New("shutdown failed") }

func TestRegistry(t *testing.T) {
	logger := NewLoggerWithLevel(io.Discard, "error")
	registry := NewRegistry(logger)
	handler := func(w http.ResponseWriter, r *http.Request) {}

	enabled := &routedFeature{
		BaseFeature: NewBaseFeature("alpha", "Alpha feature", true, logger),
		routes: []Route{
			{Method: http.MethodGet, Path: "/api/alpha", Handler: handler},
			{Method: http.MethodGet, Path: "/files/{file}", Handler: handler, Public: true},
		},
	}
	disabled := NewBaseFeature("beta", "Beta feature", false, logger)

	require.NoError(t, registry.Register(enabled))
	require.NoError(t, registry.Register(disabled))
	require.Error(t, registry.Register(disabled))

	require.Len(t, registry.Enabled(), 1)
	assert.Equal(t, []FeatureStatus{
		{Name: "alpha", Description: "Alpha feature", Enabled: true},
		{Name: "beta", Description: "Beta feature"},
	}, registry.Status())

	require.NoError(t, registry.InitAll(context.Background()))
	assert.True(t, registry.Status()[0].Initialized)
	assert.False(t, registry.Status()[1].Initialized)

	require.Len(t, registry.PublicRoutes(), 1)
	assert.Equal(t, "/files/{file}", registry.PublicRoutes()[0].Path)
	require.Len(t, registry.ProtectedRoutes(), 1)
	assert.Equal(t, "/api/alpha", registry.ProtectedRoutes()[0].Path)

	require.NoError(t, registry.ShutdownAll(context.Background()))
	assert.False(t, registry.Status()[0].Initialized)
}

func TestRegistryFailures(t *testing.T) {
	logger := NewLoggerWithLevel(io.Discard, "error")
	registry := NewRegistry(logger)
	require.NoError(t, registry.Register(failingFeature{NewBaseFeature("broken", "Broken feature", true, logger)}))

	err := registry.InitAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.False(t, registry.Status()[0].Initialized)

	err = registry.ShutdownAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown failed")
}

type routedFeature struct {
	*BaseFeature
	routes []Route
}

func (f *routedFeature) Routes() []Route { return f.routes }
