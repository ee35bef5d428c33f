package core

import (
	"time"

	"github.com/keepmind9/camerabot/internal/logger"
)

// Config represents the complete camerabot configuration structure
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Cameras  []CameraConfig `yaml:"cameras"`
	Watchdog WatchdogConfig `yaml:"watchdog"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TelegramConfig holds the bot token and the user allow-list
type TelegramConfig struct {
	Token          string  `yaml:"token"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids"`
}

// CameraConfig describes a single camera
type CameraConfig struct {
	ID              string   `yaml:"id"`          // cam_<id>, used in commands
	Description     string   `yaml:"description"` // shown in replies and /list
	Host            string   `yaml:"host"`        // base URL, e.g. http://192.168.1.10
	Username        string   `yaml:"username"`
	Password        string   `yaml:"password"`
	Auth            string   `yaml:"auth"`             // digest or basic (default: digest)
	SnapshotChannel int      `yaml:"snapshot_channel"` // ISAPI streaming channel (default: 102)
	ResizeWidth     int      `yaml:"resize_width"`     // width of resized snapshots (default: 1280)
	Timeout         string   `yaml:"timeout"`          // HTTP timeout (default: 10s)
	Commands        []string `yaml:"commands"`         // enabled verbs (default: all)
}

// WatchdogConfig represents the alert directory watchdog
type WatchdogConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
	Interval  string `yaml:"interval"` // scan interval (default: 2s)
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	File         string `yaml:"file"`          // Log file path
	MaxSize      int    `yaml:"max_size"`      // Single file max size in MB (default: 100)
	MaxBackups   int    `yaml:"max_backups"`   // Number of backups to keep (default: 5)
	MaxAge       int    `yaml:"max_age"`       // Maximum days to retain (default: 30)
	Compress     bool   `yaml:"compress"`      // Whether to compress old logs
	EnableStdout *bool  `yaml:"enable_stdout"` // Also output to stdout (default: true)
}

// LoggerConfig converts the logging section for logger.InitLogger
func (l LoggingConfig) LoggerConfig() logger.Config {
	stdout := true
	if l.EnableStdout != nil {
		stdout = *l.EnableStdout
	}
	return logger.Config{
		Level:        l.Level,
		File:         l.File,
		MaxSize:      l.MaxSize,
		MaxBackups:   l.MaxBackups,
		MaxAge:       l.MaxAge,
		Compress:     l.Compress,
		EnableStdout: stdout,
	}
}

// TimeoutDuration returns the parsed camera timeout. Values are validated
// when the config is loaded.
func (c CameraConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// IntervalDuration returns the parsed watchdog interval
func (w WatchdogConfig) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(w.Interval)
	return d
}
