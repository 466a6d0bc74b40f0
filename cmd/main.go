package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gitlab.com/magneto-ui.net/internal/config"
	logger2 "gitlab.com/magneto-ui.net/internal/global/logger"
)

var environment string

var rootCmd = &cobra.Command{
	Use:   "magneto",
	Short: "MAGNETO-UI backend: trace uploads and oracle runs",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return InitReader(environment)
	},
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&environment, "env", "e", "", "load <env>.env before reading configuration")
	rootCmd.AddCommand(serveCmd, migrateCmd, reconcileCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// InitReader loads <environment>.env. Variables already set in the process win.
func InitReader(environment string) error {
	if environment == "" {
		return nil
	}
	if err := godotenv.Load(environment + ".env"); err != nil {
		log.Printf("Error loading %s.env file: %v", environment, err)
		return fmt.Errorf("failed to load %s.env: %w", environment, err)
	}
	return nil
}

// loadConfig reads the configuration and sets the process log level from it
func loadConfig() *config.AppConfig {
	sysCfg := config.NewSystemConfig()
	logger2.SetLevel(sysCfg.LogLevel)
	return sysCfg
}
