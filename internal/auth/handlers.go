package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"backoffice/internal/core"

	"github.com/go-playground/validator/v10"
)

// maxPasswordBytes is the longest password bcrypt will hash
const maxPasswordBytes = 72

// Handler provides authentication HTTP handlers
type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *core.Logger
}

// NewHandler creates a new authentication handler
func NewHandler(service *Service, logger *core.Logger) *Handler {
	validate := validator.New()
	validate.RegisterValidation("bcrypt", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})

	return &Handler{
		service:  service,
		validate: validate,
		logger:   logger,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,bcrypt"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterHandler creates an account and returns a token for it
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.HandleError(w, core.NewValidationError("Invalid request body", err))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(&req); err != nil {
		core.HandleError(w, core.NewValidationError(validationMessage(err), err))
		return
	}

	user, err := h.service.CreateUser(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			core.HandleError(w, core.NewConflictError("User already exists", err))
		default:
			h.logger.Error("Registration error", "error", err)
			core.HandleError(w, core.NewInternalError("Registration failed", err))
		}
		return
	}

	h.respondWithToken(w, http.StatusCreated, user)
}

// LoginHandler handles user login
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.HandleError(w, core.NewValidationError("Invalid request body", err))
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(&req); err != nil {
		core.HandleError(w, core.NewValidationError("Email and password are required", err))
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			core.HandleError(w, core.NewUnauthorizedError("Invalid credentials", err))
		default:
			h.logger.Error("Authentication error", "error", err)
			core.HandleError(w, core.NewInternalError("Authentication failed", err))
		}
		return
	}

	h.logger.WithUser(user.ID, user.Email).Info("User logged in")
	h.respondWithToken(w, http.StatusOK, user)
}

// MeHandler returns the authenticated user
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		core.HandleError(w, core.NewUnauthorizedError("Access token required", nil))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{"user": user})
}

func (h *Handler) respondWithToken(w http.ResponseWriter, status int, user *User) {
	token, expiresAt, err := h.service.IssueToken(user)
	if err != nil {
		h.logger.Error("Token creation error", "error", err)
		core.HandleError(w, core.NewInternalError("Failed to create authentication token", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(AuthResponse{Token: token, ExpiresAt: expiresAt, User: user})
}

func validationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return "Invalid request"
	}

	switch fieldErrors[0].Field() {
	case "Name":
		if fieldErrors[0].Tag() == "max" {
			return "Name must be at most 100 characters"
		}
		return "Name is required"
	case "Email":
		return "A valid email is required"
	case "Password":
		if fieldErrors[0].Tag() == "bcrypt" {
			return "Password must be at most 72 bytes"
		}
		return "Password must be at least 6 characters"
	default:
		return "Invalid request"
	}
}
