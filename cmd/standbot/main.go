package main

import (
	"fmt"
	"os"
	"standbot/internal/di"
	"standbot/internal/structures"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var flags structures.CliFlags

var rootCmd = &cobra.Command{
	Use:   "standbot",
	Short: "Standing session bot for Telegram group chats",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot, the scheduler and the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, cleanup, err := di.InitApp(&flags)
		if err != nil {
			return fmt.Errorf("init: %w", err)
		}
		defer cleanup()

		return app.Run()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&flags.ConfigPath, "config", "c", "config/config.yaml", "path to the YAML config file")
	serveCmd.Flags().BoolVarP(&flags.DebugMode, "debug", "d", false, "also log to the console")
	rootCmd.AddCommand(serveCmd)
}

func loadEnvFiles() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}

func main() {
	loadEnvFiles()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
