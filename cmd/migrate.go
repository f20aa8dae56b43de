package cmd

import (
	"fmt"
	"os"

	"event-registration/internal/config"
	"event-registration/internal/infrastructure/database"
	"event-registration/pkg/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration management",
	Long:  "Manage database migrations for the registration ledger",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run pending migrations",
	Run:   runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Run:   runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func connectForMigrations() *database.MigrationRunner {
	cfg := config.Get()

	db, err := database.NewConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.Username,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	return database.NewMigrationRunner(db, "migrations")
}

func runMigrateUp(cmd *cobra.Command, args []string) {
	runner := connectForMigrations()
	if err := runner.RunMigrations(); err != nil {
		logger.Error("Migration failed: %v", err)
		os.Exit(1)
	}
}

func runMigrateStatus(cmd *cobra.Command, args []string) {
	runner := connectForMigrations()

	migrations, err := runner.GetMigrationStatus()
	if err != nil {
		logger.Error("Failed to get migration status: %v", err)
		os.Exit(1)
	}

	for _, migration := range migrations {
		status := "pending"
		if migration.AppliedAt != nil {
			status = fmt.Sprintf("applied at %s", migration.AppliedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("%s  %-40s %s\n", migration.ID, migration.Description, status)
	}
}
