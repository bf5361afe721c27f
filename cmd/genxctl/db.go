package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhay-kr-0705/GEN-X/internal/app"
	"github.com/abhay-kr-0705/GEN-X/internal/config"
	"github.com/abhay-kr-0705/GEN-X/internal/database"
	"github.com/abhay-kr-0705/GEN-X/internal/logging"
	"github.com/abhay-kr-0705/GEN-X/internal/model"
	"github.com/abhay-kr-0705/GEN-X/internal/service"
)

// dbEnv is the configuration and database handle of a maintenance command.
type dbEnv struct {
	cfg    *config.Config
	stores *app.Stores
	log    *slog.Logger
}

func (e *dbEnv) close() { e.stores.Close() }

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, errors.New("GENX_DATABASE_URL is not set")
	}
	return cfg, logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel), nil
}

func openEnv(ctx context.Context) (*dbEnv, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &dbEnv{cfg: cfg, stores: stores, log: log}, nil
}

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	cmd.AddCommand(newMigrateCmd(), newSeedEventsCmd())
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if err := database.Migrate(cmd.Context(), cfg.DatabaseURL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

func newSeedEventsCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "seed-events",
		Short: "Insert the sample events",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			svc := app.Services(env.cfg, env.stores, nil, nil, env.log)
			created, err := svc.Events.Seed(cmd.Context(), sampleEvents(), reset)
			for _, e := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", e.ID, e.Date.Format(time.DateOnly), e.Title)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Delete existing events and their registrations first")
	return cmd
}

func sampleEvents() []service.EventInput {
	const venue = "Shershah Engineering College, Sasaram"
	return []service.EventInput{
		{
			Title:       "Ideathon (Junior Edition)",
			Description: "A student innovation challenge fostering creativity and teamwork among school students from grades 8 to 12.",
			Date:        day(2024, time.September, 14),
			EndDate:     ptr(day(2024, time.October, 4)),
			Venue:       venue,
			Type:        model.EventPast,
		},
		{
			Title:       "4-Day Web Development Bootcamp",
			Description: "Learn, explore and master web development in a hands-on bootcamp.",
			Date:        day(2025, time.February, 4),
			EndDate:     ptr(day(2025, time.February, 7)),
			Venue:       venue,
			Type:        model.EventUpcoming,
		},
		{
			Title:       "Introduction to Robotics and IoT Workshop",
			Description: "A four day workshop on robotics and the Internet of Things.",
			Date:        day(2025, time.February, 4),
			EndDate:     ptr(day(2025, time.February, 7)),
			Venue:       venue,
			Type:        model.EventUpcoming,
		},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
