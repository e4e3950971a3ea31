// Command admin is the Casedata operations CLI.
//
// Usage:
//
//	casedata-admin reminders today
//	casedata-admin reminders upcoming
//	casedata-admin maintenance cleanup
//	casedata-admin seed demo
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lumenrehab/casedata/internal/config"
	"github.com/lumenrehab/casedata/internal/db"
	"github.com/lumenrehab/casedata/internal/maintenance"
	"github.com/lumenrehab/casedata/internal/reminder"
	"github.com/lumenrehab/casedata/internal/seed"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "casedata-admin",
		Short: "Casedata operations CLI",
	}

	root.AddCommand(remindersCmd())
	root.AddCommand(maintenanceCmd())
	root.AddCommand(seedCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// reminders command — manual pipeline triggers
// --------------------------------------------------------------------------

func remindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Run the reminder pipelines outside the schedule",
	}
	cmd.AddCommand(remindersTodayCmd())
	cmd.AddCommand(remindersUpcomingCmd())
	return cmd
}

func remindersTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Run the daily pipeline over today's appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				svc, err := buildService(cfg, pool)
				if err != nil {
					return err
				}
				start := time.Now()
				created := svc.RunTodaysNotifications(ctx)
				logger.Info("Today pipeline finished",
					"created", created, "duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
}

func remindersUpcomingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upcoming",
		Short: "Run the hourly pipeline over the next 60 minutes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				svc, err := buildService(cfg, pool)
				if err != nil {
					return err
				}
				start := time.Now()
				created := svc.RunUpcomingReminders(ctx)
				logger.Info("Upcoming pipeline finished",
					"created", created, "duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// maintenance command
// --------------------------------------------------------------------------

func maintenanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Run housekeeping tasks once",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Purge old notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				maintenance.Cleanup(ctx, pool.Pool, logger)
				return nil
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// seed command — demo data for local and staging environments
// --------------------------------------------------------------------------

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the database",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "demo",
		Short: "Upsert a deterministic demo dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if cfg.IsProduction() {
					return fmt.Errorf("refusing to seed demo data in production")
				}
				result := seed.SeedDemo(ctx, pool.Pool, logger)
				if len(result.Errors) > 0 {
					return fmt.Errorf("seed finished with %d errors: %s",
						len(result.Errors), result.Errors[0])
				}
				return nil
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func buildService(cfg *config.Config, pool *db.Pool) (*reminder.Service, error) {
	loc, err := cfg.ClinicLocation()
	if err != nil {
		return nil, err
	}
	return reminder.NewService(reminder.NewPgStore(pool.Pool), loc, logger), nil
}

// run handles config loading, DB connection, and context cancellation.
func run(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
