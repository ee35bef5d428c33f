package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "camerabot",
	Short: "camerabot is a Telegram bot for Hikvision cameras",
	Long: `camerabot is a Telegram bot that lets allowed users fetch snapshots from
Hikvision IP cameras, switch motion detection on and off, and receive alert
files dropped into a watched directory.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadDotEnv loads variables from a .env file in the working directory.
// A missing file is not an error; variables already set are kept.
func loadDotEnv() bool {
	return godotenv.Load() == nil
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}
