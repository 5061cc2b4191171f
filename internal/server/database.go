package server

import (
	"context"
	"fmt"

	"backoffice/internal/auth"
)

// initDatabase applies the server-owned migrations. Feature tables are
// migrated by each feature's Init.
func (s *Server) initDatabase(ctx context.Context) error {
	if err := auth.Migrate(ctx, s.db, s.logger); err != nil {
		return fmt.Errorf("failed to migrate auth tables: %w", err)
	}
	return nil
}

func (s *Server) seedDatabase(ctx context.Context) error {
	admin := s.config.Auth
	if admin.AdminEmail == "" {
		s.logger.Debug("No admin account configured, skipping seed")
		return nil
	}

	created, err := s.authService.EnsureAdmin(ctx, admin.AdminName, admin.AdminEmail, admin.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	if created {
		s.logger.Info("Created admin user", "email", admin.AdminEmail)
	}

	return nil
}
