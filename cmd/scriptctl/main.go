package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/scriptdesk-api/internal/config"
	"github.com/noah-isme/scriptdesk-api/internal/database"
)

var rootCmd = &cobra.Command{
	Use:   "scriptctl",
	Short: "Operator tooling for the ScriptDesk API",
	Long: `scriptctl runs maintenance tasks against the ScriptDesk database using the
same SCRIPTDESK_* environment as the API server.`,
	Example: `  # Create or update the schema
  scriptctl migrate

  # Load projects and topics from a catalog
  scriptctl seed --file catalog.yaml

  # Mint a development token
  scriptctl token --sub writer-1 --role scriptwriter`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}
	return logger
}

// openDatabase loads configuration, connects and migrates.
func openDatabase() (*gorm.DB, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("load configuration: %w", err)
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, cfg, err
	}

	if err := database.Migrate(db); err != nil {
		return nil, cfg, fmt.Errorf("migrate database: %w", err)
	}
	return db, cfg, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
