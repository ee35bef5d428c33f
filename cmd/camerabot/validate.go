package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/keepmind9/camerabot/internal/camera"
	"github.com/keepmind9/camerabot/internal/core"
	"github.com/spf13/cobra"
)

var (
	validateConfig string
	validateShow   bool
	validateJSON   bool
)

// ValidationResult represents the validation result
type ValidationResult struct {
	Valid        bool     `json:"valid"`
	Config       string   `json:"config"`
	Cameras      int      `json:"cameras"`
	AllowedUsers int      `json:"allowed_users"`
	Watchdog     bool     `json:"watchdog"`
	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate camerabot configuration file",
	Long: `Validate the camerabot configuration file without starting the bot.

This command checks:
  - YAML syntax and environment variables
  - Telegram token and allowed users
  - Camera identifiers, hosts and commands
  - Watchdog settings

Exit codes:
  0 - Configuration is valid
  1 - Configuration has errors`,
	Run: func(cmd *cobra.Command, args []string) {
		loadDotEnv()

		configFile := validateConfig
		if configFile == "" {
			configFile = findConfigFile(defaultConfigLocations())
		}

		if configFile == "" {
			fmt.Println("❌ No configuration file found")
			fmt.Println("\nSpecify a config file with --config or ensure one exists at:")
			for _, loc := range defaultConfigLocations() {
				fmt.Printf("  - %s\n", loc)
			}
			os.Exit(1)
		}

		cfg, err := core.LoadConfig(configFile)
		if err != nil {
			result := ValidationResult{
				Valid:  false,
				Config: configFile,
				Errors: []string{err.Error()},
			}
			outputValidationResult(result, validateJSON)
			os.Exit(1)
		}

		result := ValidationResult{
			Valid:        true,
			Config:       configFile,
			Cameras:      len(cfg.Cameras),
			AllowedUsers: len(cfg.Telegram.AllowedUserIDs),
			Watchdog:     cfg.Watchdog.Enabled,
			Warnings:     validateConfigDetails(cfg),
		}

		if validateShow && !validateJSON {
			showConfig(configFile, cfg)
		}

		outputValidationResult(result, validateJSON)
	},
}

func defaultConfigLocations() []string {
	return []string{
		"config.yaml",
		filepath.Join(os.Getenv("HOME"), ".config/camerabot/config.yaml"),
		"/etc/camerabot/config.yaml",
	}
}

// findConfigFile returns the first existing path
func findConfigFile(locations []string) string {
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

func showConfig(configFile string, cfg *core.Config) {
	fmt.Printf("✓ Configuration loaded: %s\n\n", configFile)
	fmt.Printf("Cameras (%d):\n", len(cfg.Cameras))
	for _, cam := range cfg.Cameras {
		fmt.Printf("  - %s: %s @ %s (auth: %s, commands: %s)\n",
			cam.ID, cam.Description, cam.Host, cam.Auth, strings.Join(cam.Commands, ", "))
	}
	fmt.Printf("\nAllowed users (%d):\n", len(cfg.Telegram.AllowedUserIDs))
	for _, uid := range cfg.Telegram.AllowedUserIDs {
		fmt.Printf("  - %d\n", uid)
	}
	if cfg.Watchdog.Enabled {
		fmt.Printf("\nWatchdog: %s every %s\n", cfg.Watchdog.Directory, cfg.Watchdog.Interval)
	} else {
		fmt.Println("\nWatchdog: disabled")
	}
	fmt.Println()
}

func outputValidationResult(result ValidationResult, jsonFormat bool) {
	if jsonFormat {
		output, err := json.Marshal(result)
		if err != nil {
			fmt.Printf("{\"error\": \"failed to marshal json: %v\"}\n", err)
			return
		}
		fmt.Println(string(output))
		return
	}

	if result.Valid {
		fmt.Println("✓ Configuration is valid")
		fmt.Printf("  - Config: %s\n", result.Config)
		fmt.Printf("  - Cameras: %d\n", result.Cameras)
		fmt.Printf("  - Allowed users: %d\n", result.AllowedUsers)
		fmt.Printf("  - Watchdog enabled: %v\n", result.Watchdog)
		if len(result.Warnings) > 0 {
			fmt.Println("\n⚠️  Warnings:")
			for _, warning := range result.Warnings {
				fmt.Printf("  - %s\n", warning)
			}
		}
	} else {
		fmt.Println("❌ Configuration validation failed:")
		if len(result.Errors) > 0 {
			fmt.Println("\nErrors:")
			for _, errMsg := range result.Errors {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
	}
}

// validateConfigDetails reports settings that load fine but are likely mistakes
func validateConfigDetails(cfg *core.Config) []string {
	var warnings []string

	for _, cam := range cfg.Cameras {
		if cam.Username == "" {
			warnings = append(warnings, fmt.Sprintf("Camera '%s' has no username - requests will be unauthenticated", cam.ID))
		}
		if cam.Auth == camera.AuthBasic && strings.HasPrefix(cam.Host, "http://") && cam.Password != "" {
			warnings = append(warnings, fmt.Sprintf("Camera '%s' sends credentials over plain HTTP", cam.ID))
		}
	}

	if cfg.Watchdog.Enabled {
		if info, err := os.Stat(cfg.Watchdog.Directory); err != nil || !info.IsDir() {
			warnings = append(warnings, fmt.Sprintf("Watchdog directory '%s' does not exist", cfg.Watchdog.Directory))
		}
	}

	return warnings
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfig, "config", "c", "", "Configuration file path")
	validateCmd.Flags().BoolVar(&validateShow, "show", false, "Show full configuration details")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output in JSON format")
}
