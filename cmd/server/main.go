package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coursetutor/tutor-backend/internal/config"
	"github.com/coursetutor/tutor-backend/internal/logger"
	"github.com/coursetutor/tutor-backend/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tutor",
	Short: "Course tutor backend: Socratic chat grounded in uploaded course material",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, ingestCmd, makeAdminCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() (*logger.Logger, error) {
	return logger.New(config.AppConfig.LogMode, config.AppConfig.LogLevel)
}

func openStore() (*store.SQLStore, error) {
	return store.NewSQLStore(config.AppConfig.DatabaseDriver, config.AppConfig.DatabaseURL)
}
