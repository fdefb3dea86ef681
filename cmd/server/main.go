package main

import (
	"fmt"
	"os"

	"github.com/gracechurch/retreat-api/internal/config"
	"github.com/gracechurch/retreat-api/internal/database"
	"github.com/gracechurch/retreat-api/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "retreat-api",
	Short: "Church retreat registration and attendance API",
	Long: `Manages retreats, attendee registrations, session schedules,
head-count attendance and the final retreat report.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer zap.L().Sync()

		if _, err := database.Connect(cfg); err != nil {
			return err
		}
		zap.L().Info("migration complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, adminCmd)
}

// setup loads the configuration and installs the global logger.
func setup() (*config.Config, error) {
	cfg := config.LoadConfig()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return cfg, nil
}

func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := setup()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
