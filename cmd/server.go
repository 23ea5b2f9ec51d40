package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/curaious/dashboard/internal/api"
	"github.com/curaious/dashboard/internal/config"
	"github.com/curaious/dashboard/internal/migrations"
	"github.com/curaious/dashboard/internal/services"
	"github.com/curaious/dashboard/internal/telemetry"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the dashboard API server",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServer(context.Background(), config.ReadConfig()); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func runServer(ctx context.Context, conf *config.Config) error {
	shutdownTelemetry := telemetry.NewProvider(conf.OTEL_EXPORTER_OTLP_ENDPOINT)
	defer shutdownTelemetry()

	svc, err := services.NewServices(ctx, conf)
	if err != nil {
		return fmt.Errorf("unable to initialize services: %w", err)
	}

	if conn := svc.DB(); conn != nil {
		if err := migrateUp(ctx, conn); err != nil {
			if cerr := svc.Close(); cerr != nil {
				slog.Error("Failed to release services", slog.Any("error", cerr))
			}
			return err
		}
	}

	// Start releases the services on shutdown
	api.New(conf, svc).Start()
	return nil
}

func migrateUp(ctx context.Context, conn *sqlx.DB) error {
	m, err := migrations.NewMigrator(ctx, conn)
	if err != nil {
		return fmt.Errorf("unable to create migrator: %w", err)
	}
	if err := m.Up(ctx, 0); err != nil {
		return fmt.Errorf("unable to run migrations: %w", err)
	}
	return nil
}

// Register the "server" command
func init() {
	rootCmd.AddCommand(serverCmd)
}
