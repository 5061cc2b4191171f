package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"backoffice/internal/auth"
	"backoffice/internal/core"
	"backoffice/internal/features/categories"
	"backoffice/internal/features/categories/services"
)

type Server struct {
	config         *core.Config
	logger         *core.Logger
	db             *core.Database
	authService    *auth.Service
	authHandler    *auth.Handler
	authMiddleware *auth.Middleware
	registry       *core.Registry
	metrics        *Metrics
	server         *http.Server
}

// New opens the database, prepares the auth tables and registers features.
// Features are initialized by Init.
func New(ctx context.Context, config *core.Config, logger *core.Logger) (*Server, error) {
	db, err := core.OpenDatabase(config.Database.Path, logger)
	if err != nil {
		return nil, err
	}

	authService := auth.NewService(db, logger.ForFeature("auth"), config.Auth.JWTSecret, config.Auth.TokenTTL)

	srv := &Server{
		config:         config,
		logger:         logger,
		db:             db,
		authService:    authService,
		authHandler:    auth.NewHandler(authService, logger.ForFeature("auth")),
		authMiddleware: auth.NewMiddleware(authService, logger.ForFeature("auth")),
		registry:       core.NewRegistry(logger),
	}

	// Initialize database tables
	if err := srv.initDatabase(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Seed the bootstrap admin account
	if err := srv.seedDatabase(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	var (
		categoryFeature *categories.Feature
		recorder        services.Recorder
	)
	if config.IsFeatureEnabled("metrics") {
		srv.metrics = NewMetrics(func(ctx context.Context) (int, error) {
			return categoryFeature.CountCategories(ctx)
		})
		recorder = srv.metrics
	}
	categoryFeature = categories.NewFeature(logger, db, categories.NewConfig(config), recorder)

	if err := srv.registry.Register(categoryFeature); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register categories feature: %w", err)
	}

	srv.setupRoutes()
	return srv, nil
}

func (s *Server) setupRoutes() {
	// Create router
	mux := chi.NewRouter()

	// Add middleware
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.metrics != nil {
		mux.Use(s.metrics.Middleware)
		mux.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// Health check
	mux.Get("/api/health", s.healthCheckHandler)

	// Authentication
	mux.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.authHandler.RegisterHandler)
		r.Post("/login", s.authHandler.LoginHandler)
		r.With(s.authMiddleware.Authenticate).Get("/me", s.authHandler.MeHandler)
	})

	// Feature routes: public ones are mounted directly, the rest behind the auth gate
	for _, route := range s.registry.PublicRoutes() {
		mux.Method(route.Method, route.Path, route.Handler)
	}

	mux.Group(func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)

		for _, route := range s.registry.ProtectedRoutes() {
			r.Method(route.Method, route.Path, route.Handler)
		}
	})

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		core.HandleError(w, core.NewNotFoundError("Route not found", nil))
	})

	// Create HTTP server
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// healthResponse is the body of GET /api/health
type healthResponse struct {
	Status   string               `json:"status"`
	Message  string               `json:"message"`
	Features []core.FeatureStatus `json:"features"`
}

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(healthResponse{
		Status:   "OK",
		Message:  "Server is running",
		Features: s.registry.Status(),
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Init initializes all enabled features
func (s *Server) Init(ctx context.Context) error {
	if err := s.registry.InitAll(ctx); err != nil {
		s.logger.Error("Failed to initialize features", "error", err)
		return err
	}
	return nil
}

// Start serves HTTP until the server is shut down
func (s *Server) Start() error {
	s.logger.Info("Starting server", "host", s.config.Server.Host, "port", s.config.Server.Port)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then shuts features down and closes
// the database
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	if err := s.registry.ShutdownAll(ctx); err != nil {
		s.logger.Error("Failed to shutdown features", "error", err)
	}

	s.db.LogStats()
	return s.Close()
}

// Close releases the database without touching the HTTP listener
func (s *Server) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
