package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backoffice/internal/auth"
	"backoffice/internal/core"
	"backoffice/internal/features/categories/migrations"
	"backoffice/internal/server"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "backoffice"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Category back office API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides BACKOFFICE_LOG_LEVEL")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(logLevel)
		},
	})

	cmd.AddCommand(migrateCmd(&logLevel))

	cmd.AddCommand(createUserCmd(&logLevel))

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func migrateCmd(logLevel *string) *cobra.Command {
	var rollback bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and print their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), *logLevel, rollback)
		},
	}

	cmd.Flags().BoolVar(&rollback, "rollback", false, "Roll back the most recent category migration instead")
	return cmd
}

func createUserCmd(logLevel *string) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a back office user",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := load(*logLevel)
			if err != nil {
				return err
			}

			db, err := core.OpenDatabase(config.Database.Path, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if err := auth.Migrate(ctx, db, logger); err != nil {
				return err
			}

			service := auth.NewService(db, logger, config.Auth.JWTSecret, config.Auth.TokenTTL)
			user, err := service.CreateUser(ctx, name, email, password)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			fmt.Printf("Created user %d (%s)\n", user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&password, "password", "", "Login password")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func load(logLevel string) (*core.Config, *core.Logger, error) {
	config, err := core.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}
	return config, core.NewLoggerWithLevel(os.Stdout, config.LogLevel), nil
}

func serve(logLevel string) error {
	config, logger, err := load(logLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, config, logger)
	if err != nil {
		return err
	}
	if err := srv.Init(ctx); err != nil {
		srv.Close()
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		srv.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func migrate(ctx context.Context, logLevel string, rollback bool) error {
	config, logger, err := load(logLevel)
	if err != nil {
		return err
	}

	db, err := core.OpenDatabase(config.Database.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := auth.Migrate(ctx, db, logger); err != nil {
		return err
	}

	manager := migrations.NewManager(db, logger.ForFeature("categories"))
	if rollback {
		if err := manager.Rollback(ctx); err != nil {
			return err
		}
	} else {
		pending, err := manager.GetPendingMigrations(ctx)
		if err != nil {
			return err
		}
		for _, migration := range pending {
			fmt.Printf("Applying %03d %s\n", migration.Version, migration.Name)
		}

		if err := manager.Migrate(ctx); err != nil {
			return err
		}
	}

	status, err := manager.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%d migrations applied\n", status.AppliedCount)
	for _, migration := range status.Applied {
		fmt.Printf("  %03d %s\n", migration.Version, migration.Name)
	}
	return nil
}
