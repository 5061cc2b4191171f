package core

import (
	"context"
	"net/http"
)

// Feature is a self-contained slice of the back office. It owns its tables,
// contributes routes and is initialized before the server accepts requests.
type Feature interface {
	Name() string
	Description() string
	Enabled() bool
	Init(ctx context.Context) error
	Routes() []Route
	Shutdown(ctx context.Context) error
}

// Route is one endpoint contributed by a feature. Routes sit behind the
// bearer token check unless Public is set.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
	Public  bool
}

// BaseFeature carries the identity and logger every feature needs.
// Embedders override Init, Routes and Shutdown as required.
type BaseFeature struct {
	name        string
	description string
	enabled     bool
	logger      *Logger
}

func NewBaseFeature(name, description string, enabled bool, logger *Logger) *BaseFeature {
	return &BaseFeature{
		name:        name,
		description: description,
		enabled:     enabled,
		logger:      logger.ForFeature(name),
	}
}

func (f *BaseFeature) Name() string        { return f.name }
func (f *BaseFeature) Description() string { return f.description }
func (f *BaseFeature) Enabled() bool       { return f.enabled }

// Logger returns a logger tagged with the feature name
func (f *BaseFeature) Logger() *Logger {
	return f.logger
}

func (f *BaseFeature) Init(ctx context.Context) error {
	f.logger.Debug("Initializing feature")
	return nil
}

func (f *BaseFeature) Routes() []Route {
	return nil
}

func (f *BaseFeature) Shutdown(ctx context.Context) error {
	f.logger.Debug("Shutting down feature")
	return nil
}
