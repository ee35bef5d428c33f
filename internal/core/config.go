// Package core provides the command engine and configuration management for camerabot.
//
// The engine receives chat commands from the transport, checks the sender
// against the allow-list, resolves the camera a command targets and replies
// with text, photos or documents.
//
// # Configuration
//
// Configuration is loaded from a YAML file with the following sections:
//
//   - telegram: bot token and allowed user IDs
//   - cameras: ordered list of cameras
//   - watchdog: alert directory broadcasting
//   - logging: log configuration
//
// Values may reference environment variables as ${VAR} or $VAR; a missing
// variable is an error. Write $$ for a literal dollar sign, e.g. a password
// pa$$w0rd in the file becomes pa$w0rd.
//
// # Example Configuration
//
//	telegram:
//	  token: ${CAMERABOT_TOKEN}
//	  allowed_user_ids: [123456789]
//	cameras:
//	  - id: cam_1
//	    description: Front door
//	    host: http://192.168.1.10
//	    username: admin
//	    password: ${CAM1_PASSWORD}
//	    auth: digest
//	watchdog:
//	  enabled: true
//	  directory: /var/lib/camerabot/alerts
package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/keepmind9/camerabot/internal/camera"
	"github.com/keepmind9/camerabot/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Duration defaults as written in the YAML file
var (
	DefaultCameraTimeout    = constants.DefaultCameraTimeout.String()
	DefaultWatchdogInterval = constants.DefaultWatchdogInterval.String()
)

// LoadConfig loads configuration from file and expands environment variables
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData, err := expandEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// expandEnv replaces ${VAR_NAME} patterns with environment variable values.
// "$$" stands for a literal "$".
func expandEnv(input string) (string, error) {
	var missingVars []string

	result := os.Expand(input, func(key string) string {
		if key == "$" {
			return "$"
		}
		if val := os.Getenv(key); val != "" {
			return val
		}
		missingVars = append(missingVars, key)
		return ""
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missingVars, ", "))
	}

	return result, nil
}

// validateConfig applies defaults and checks the configuration
func validateConfig(config *Config) error {
	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = constants.DefaultLogMaxSize
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = constants.DefaultLogMaxBackups
	}
	if config.Logging.MaxAge == 0 {
		config.Logging.MaxAge = constants.DefaultLogMaxAge
	}

	if strings.TrimSpace(config.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if len(config.Telegram.AllowedUserIDs) == 0 {
		return fmt.Errorf("telegram.allowed_user_ids cannot be empty")
	}

	if len(config.Cameras) == 0 {
		return fmt.Errorf("at least one camera must be configured")
	}

	seen := make(map[string]bool, len(config.Cameras))
	for i := range config.Cameras {
		cam := &config.Cameras[i]

		if !camera.ValidID(cam.ID) {
			return fmt.Errorf("cameras[%d]: id %q must look like %s<id>", i, cam.ID, constants.CameraIDPrefix)
		}
		if seen[cam.ID] {
			return fmt.Errorf("cameras[%d]: duplicate id %s", i, cam.ID)
		}
		seen[cam.ID] = true

		if cam.Host == "" {
			return fmt.Errorf("camera %s: host is required", cam.ID)
		}
		if cam.Auth == "" {
			cam.Auth = camera.AuthDigest
		}
		if cam.Auth != camera.AuthDigest && cam.Auth != camera.AuthBasic {
			return fmt.Errorf("camera %s: auth must be %s or %s (got %q)", cam.ID, camera.AuthDigest, camera.AuthBasic, cam.Auth)
		}
		if cam.Description == "" {
			cam.Description = cam.ID
		}
		if cam.SnapshotChannel == 0 {
			cam.SnapshotChannel = constants.DefaultSnapshotChannel
		}
		if cam.ResizeWidth == 0 {
			cam.ResizeWidth = constants.DefaultResizeWidth
		}
		if cam.ResizeWidth < 0 {
			return fmt.Errorf("camera %s: resize_width must be positive (got %d)", cam.ID, cam.ResizeWidth)
		}
		if cam.Timeout == "" {
			cam.Timeout = DefaultCameraTimeout
		}
		timeout, err := time.ParseDuration(cam.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout for %s: %w", cam.ID, err)
		}
		if timeout <= 0 {
			return fmt.Errorf("timeout for %s must be positive (got %v)", cam.ID, timeout)
		}

		if len(cam.Commands) == 0 {
			cam.Commands = append([]string(nil), camera.CameraVerbs...)
		}
		for _, verb := range cam.Commands {
			if !camera.IsVerb(verb) {
				return fmt.Errorf("camera %s: unknown command %q (known: %s)",
					cam.ID, verb, strings.Join(camera.CameraVerbs, ", "))
			}
		}
	}

	if config.Watchdog.Interval == "" {
		config.Watchdog.Interval = DefaultWatchdogInterval
	}
	if config.Watchdog.Enabled {
		if config.Watchdog.Directory == "" {
			return fmt.Errorf("watchdog.directory is required when watchdog is enabled")
		}
		interval, err := time.ParseDuration(config.Watchdog.Interval)
		if err != nil {
			return fmt.Errorf("invalid watchdog.interval: %w", err)
		}
		if interval < 100*time.Millisecond {
			return fmt.Errorf("watchdog.interval must be at least 100ms (got %v)", interval)
		}
		if interval > 60*time.Second {
			return fmt.Errorf("watchdog.interval is too large (max 60s, got %v)", interval)
		}
	}

	return nil
}

// BuildRegistry creates Hikvision cameras for every configured camera
func (c *Config) BuildRegistry() (*camera.Registry, error) {
	entries := make([]camera.Entry, 0, len(c.Cameras))
	for _, cam := range c.Cameras {
		entries = append(entries, camera.Entry{
			ID: cam.ID,
			Camera: camera.NewHikvision(cam.ID, camera.HikvisionConfig{
				Description:     cam.Description,
				Host:            cam.Host,
				Username:        cam.Username,
				Password:        cam.Password,
				Auth:            cam.Auth,
				SnapshotChannel: cam.SnapshotChannel,
				ResizeWidth:     cam.ResizeWidth,
				Timeout:         cam.TimeoutDuration(),
			}),
			Commands: camera.Commands(cam.ID, cam.Commands),
		})
	}
	return camera.NewRegistry(entries...)
}
