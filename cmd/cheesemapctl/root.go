package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/shadikamal997/cheesemap-sub001/internal/config"
	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	dbURL   string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cheesemapctl",
	Short: "CheeseMap operator tooling",
	Long: `Operator commands for a CheeseMap deployment.

Connection settings come from --database-url, DATABASE_URL or a .env file
in the working directory.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(migrateCmd, createAdminCmd, clearDataCmd, generateSecretsCmd)
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// connect opens a small pool without loading the full server configuration
func connect() (*database.PostgresDB, error) {
	url := dbURL
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set and --database-url was not provided")
	}

	return database.NewConnection(config.DatabaseConfig{
		URL:                url,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	})
}
