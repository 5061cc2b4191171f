package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// FeatureStatus is the health view of one registered feature
type FeatureStatus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	Initialized bool   `json:"initialized"`
}

// Registry holds features in registration order. Disabled features stay
// registered so they show up in status, but are never initialized or routed.
type Registry struct {
	mu          sync.RWMutex
	features    []Feature
	initialized map[string]bool
	logger      *Logger
}

func NewRegistry(logger *Logger) *Registry {
	return &Registry{
		initialized: make(map[string]bool),
		logger:      logger,
	}
}

// Register adds a feature. Names must be unique.
func (r *Registry) Register(feature Feature) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.features {
		if existing.Name() == feature.Name() {
			return fmt.Errorf("feature %s already registered", feature.Name())
		}
	}

	r.features = append(r.features, feature)
	r.logger.Info("Registered feature", "name", feature.Name(), "enabled", feature.Enabled())
	return nil
}

// Enabled returns the enabled features in registration order
func (r *Registry) Enabled() []Feature {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enabled := make([]Feature, 0, len(r.features))
	for _, feature := range r.features {
		if feature.Enabled() {
			enabled = append(enabled, feature)
		}
	}
	return enabled
}

// InitAll initializes enabled features in registration order and stops at
// the first failure
func (r *Registry) InitAll(ctx context.Context) error {
	for _, feature := range r.Enabled() {
		if err := feature.Init(ctx); err != nil {
			return fmt.Errorf("failed to initialize feature %s: %w", feature.Name(), err)
		}

		r.mu.Lock()
		r.initialized[feature.Name()] = true
		r.mu.Unlock()

		r.logger.Info("Initialized feature", "name", feature.Name())
	}
	return nil
}

// ShutdownAll shuts features down in reverse order. Every feature gets a
// chance to stop; failures are joined.
func (r *Registry) ShutdownAll(ctx context.Context) error {
	features := r.Enabled()

	var errs []error
	for i := len(features) - 1; i >= 0; i-- {
		feature := features[i]
		if err := feature.Shutdown(ctx); err != nil {
			r.logger.LogFeatureError(feature.Name(), "Failed to shutdown feature", err)
			errs = append(errs, fmt.Errorf("%s: %w", feature.Name(), err))
		}

		r.mu.Lock()
		delete(r.initialized, feature.Name())
		r.mu.Unlock()
	}
	return errors.Join(errs...)
}

// PublicRoutes returns the routes of enabled features served without a token
func (r *Registry) PublicRoutes() []Route {
	return r.routes(true)
}

// ProtectedRoutes returns the routes of enabled features that require a token
func (r *Registry) ProtectedRoutes() []Route {
	return r.routes(false)
}

func (r *Registry) routes(public bool) []Route {
	var routes []Route
	for _, feature := range r.Enabled() {
		for _, route := range feature.Routes() {
			if route.Public == public {
				routes = append(routes, route)
			}
		}
	}
	return routes
}

// Status reports every registered feature in registration order
func (r *Registry) Status() []FeatureStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := make([]FeatureStatus, 0, len(r.features))
	for _, feature := range r.features {
		status = append(status, FeatureStatus{
			Name:        feature.Name(),
			Description: feature.Description(),
			Enabled:     feature.Enabled(),
			Initialized: r.initialized[feature.Name()],
		})
	}
	return status
}
