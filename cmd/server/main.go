package main

import (
	"context"
	"fmt"
	"log"
	"os"

	_ "tasktracker/docs"
	"tasktracker/internal/config"
	"tasktracker/internal/metrics"
	"tasktracker/internal/repository"
	"tasktracker/internal/server"

	"github.com/spf13/cobra"
)

// @title           Task Tracker API
// @version         1.0
// @description     Personal tasks with dependencies and recurring templates.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tasktracker",
		Short:        "Personal task tracker API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the recurrence scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "recur",
		Short: "Run a single recurrence pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return recurOnce(cmd.Context())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate()
		},
	})

	return cmd
}

func serve() error {
	cfg := config.Load()

	s, err := server.Init(cfg)
	if err != nil {
		return fmt.Errorf("❌ server initialization failed: %w", err)
	}

	return s.Run()
}

func recurOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()

	db, err := server.OpenDB(cfg)
	if err != nil {
		return err
	}

	spawned, err := server.NewScheduler(db, cfg, metrics.New()).RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("❌ recurrence pass failed after %d occurrence(s): %w", spawned, err)
	}
	log.Printf("✅ Spawned %d recurring task occurrence(s)", spawned)
	return nil
}

func migrate() error {
	cfg := config.Load()

	switch cfg.DBDriver {
	case config.DriverPostgres:
		if err := repository.MigrateUp(cfg.MigrationURL()); err != nil {
			return fmt.Errorf("❌ migration failed: %w", err)
		}
	default:
		if _, err := repository.NewDB(cfg); err != nil {
			return fmt.Errorf("❌ migration failed: %w", err)
		}
	}

	log.Println("✅ Database schema is up to date")
	return nil
}
