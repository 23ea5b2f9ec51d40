package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/curaious/dashboard/internal/config"
	"github.com/curaious/dashboard/internal/db"
	"github.com/curaious/dashboard/internal/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run Migrations",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(cmd.Help())
	},
}

// withMigrator opens a connection, runs fn and exits non-zero on failure.
func withMigrator(fn func(ctx context.Context, m *migrations.Migrator) error) {
	ctx := context.Background()

	conn, err := db.NewConn(config.ReadConfig())
	if err != nil {
		fmt.Println("Unable to connect to the database", err)
		os.Exit(1)
	}
	defer conn.Close()

	migrator, err := migrations.NewMigrator(ctx, conn)
	if err != nil {
		fmt.Println("Unable to initialize migrator", err)
		conn.Close()
		os.Exit(1)
	}

	if err := fn(ctx, migrator); err != nil {
		fmt.Println(err)
		conn.Close()
		os.Exit(1)
	}
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display status of each migration",
	Run: func(cmd *cobra.Command, args []string) {
		withMigrator(func(_ context.Context, m *migrations.Migrator) error {
			if err := m.MigrationStatus(); err != nil {
				return fmt.Errorf("unable to fetch migration status: %w", err)
			}
			return nil
		})
	},
}

var migrateCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new empty migration file",
	Run: func(cmd *cobra.Command, args []string) {
		name, err := cmd.Flags().GetString("name")
		if err != nil || name == "" {
			fmt.Println("Flag `name` is required", err)
			os.Exit(1)
		}

		withMigrator(func(_ context.Context, m *migrations.Migrator) error {
			if err := m.CreateMigration(name); err != nil {
				return fmt.Errorf("unable to create new migration file: %w", err)
			}
			return nil
		})
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run up migrations",
	Long:  "Run all 'up' migrations by default.\nIf step is provided, it will run `N` 'up' migrations.",
	Run: func(cmd *cobra.Command, args []string) {
		step, err := cmd.Flags().GetInt("step")
		if err != nil {
			fmt.Println("Unable to read flag `step`", err)
			os.Exit(1)
		}

		withMigrator(func(ctx context.Context, m *migrations.Migrator) error {
			if err := m.Up(ctx, step); err != nil {
				return fmt.Errorf("unable to run `up` migrations: %w", err)
			}
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Run down migrations",
	Long:  "Run all 'down' migrations by default.\nIf step is provided, it will run `N` 'down' migrations.",
	Run: func(cmd *cobra.Command, args []string) {
		step, err := cmd.Flags().GetInt("step")
		if err != nil {
			fmt.Println("Unable to read flag `step`", err)
			os.Exit(1)
		}

		withMigrator(func(ctx context.Context, m *migrations.Migrator) error {
			if err := m.Down(ctx, step); err != nil {
				return fmt.Errorf("unable to run `down` migrations: %w", err)
			}
			return nil
		})
	},
}

// Register the "migrate" command
func init() {
	migrateCreateCmd.Flags().StringP("name", "n", "", "Name for the migration")
	migrateCmd.AddCommand(migrateCreateCmd)

	migrateUpCmd.Flags().IntP("step", "s", 0, "Number of migrations to execute")
	migrateCmd.AddCommand(migrateUpCmd)

	migrateDownCmd.Flags().IntP("step", "s", 0, "Number of migrations to execute")
	migrateCmd.AddCommand(migrateDownCmd)

	migrateCmd.AddCommand(migrateStatusCmd)

	rootCmd.AddCommand(migrateCmd)
}
