package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"backoffice/internal/core"
)

// Context key for user
type contextKey string

const userContextKey = contextKey("user")

// TokenValidator resolves a bearer token to its user
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*User, error)
}

// Middleware provides authentication middleware
type Middleware struct {
	validator TokenValidator
	logger    *core.Logger
}

// NewMiddleware creates new authentication middleware
func NewMiddleware(validator TokenValidator, logger *core.Logger) *Middleware {
	return &Middleware{
		validator: validator,
		logger:    logger,
	}
}

// Authenticate rejects requests without a valid bearer token. A missing
// token is 401; a malformed, expired or unknown one is 403.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Add Vary header for caching
		w.Header().Add("Vary", "Authorization")

		authorizationHeader := r.Header.Get("Authorization")
		if authorizationHeader == "" {
			m.authenticationRequiredResponse(w, r)
			return
		}

		headerParts := strings.SplitN(authorizationHeader, " ", 2)
		if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "Bearer") || strings.TrimSpace(headerParts[1]) == "" {
			m.invalidAuthenticationTokenResponse(w, r)
			return
		}

		user, err := m.validator.ValidateToken(r.Context(), strings.TrimSpace(headerParts[1]))
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidToken):
				m.invalidAuthenticationTokenResponse(w, r)
			default:
				m.logger.WithContext(r.Context()).Error("Token validation error", "error", err)
				m.serverErrorResponse(w, r)
			}
			return
		}

		r = contextSetUser(r, user)
		next.ServeHTTP(w, r)
	})
}

// Context management
func contextSetUser(r *http.Request, user *User) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(r *http.Request) (*User, bool) {
	user, ok := r.Context().Value(userContextKey).(*User)
	return user, ok && user != nil
}

// Response helpers
func (m *Middleware) invalidAuthenticationTokenResponse(w http.ResponseWriter, r *http.Request) {
	core.WriteErrorResponse(w, http.StatusForbidden, core.NewForbiddenError("Invalid or expired token", nil))
}

func (m *Middleware) authenticationRequiredResponse(w http.ResponseWriter, r *http.Request) {
	core.WriteErrorResponse(w, http.StatusUnauthorized, core.NewUnauthorizedError("Access token required", nil))
}

func (m *Middleware) serverErrorResponse(w http.ResponseWriter, r *http.Request) {
	core.WriteErrorResponse(w, http.StatusInternalServerError, core.NewInternalError("Internal server error", nil))
}
