package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keepmind9/camerabot/internal/bot"
	"github.com/keepmind9/camerabot/internal/core"
	"github.com/keepmind9/camerabot/internal/logger"
	"github.com/keepmind9/camerabot/internal/watchdog"
	"github.com/keepmind9/camerabot/pkg/constants"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start camerabot",
		Long:  "Start camerabot, poll Telegram for commands and relay them to the configured cameras",
		Run: func(cmd *cobra.Command, args []string) {
			if !loadDotEnv() {
				log.Println("No .env file found, using environment variables")
			}

			config, err := core.LoadConfig(configFile)
			if err != nil {
				log.Fatalf("Failed to load config: %v", err)
			}

			fmt.Printf("Starting camerabot with config: %s\n", configFile)
			fmt.Printf("Cameras: %d\n", len(config.Cameras))
			fmt.Printf("Allowed users: %d\n", len(config.Telegram.AllowedUserIDs))
			fmt.Printf("Watchdog enabled: %v\n", config.Watchdog.Enabled)

			if err := logger.InitLogger(config.Logging.LoggerConfig()); err != nil {
				log.Fatalf("Failed to initialize logger: %v", err)
			}

			logger.WithFields(logrus.Fields{
				"config_file": configFile,
				"log_level":   config.Logging.Level,
				"log_file":    config.Logging.File,
			}).Info("logger-initialized")

			if err := run(config); err != nil {
				log.Fatalf("Engine error: %v", err)
			}

			log.Println("camerabot stopped")
		},
	}
)

// run wires the bot, engine and watchdog together and blocks until a signal,
// a /stop command or a fatal engine error
func run(config *core.Config) error {
	registry, err := config.BuildRegistry()
	if err != nil {
		return fmt.Errorf("failed to build camera registry: %w", err)
	}

	telegramBot := bot.NewTelegramBot(config.Telegram.Token)
	shutdown := make(chan struct{}, 1)
	engine := core.NewEngine(telegramBot, config.Telegram.AllowedUserIDs, registry, shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.Watchdog.Enabled {
		dirWatchdog := watchdog.New(watchdog.Config{
			Directory: config.Watchdog.Directory,
			Interval:  config.Watchdog.IntervalDuration(),
		}, engine)
		go func() {
			if err := dirWatchdog.Run(ctx); err != nil && !errors.Is(err, watchdog.ErrCancelled) {
				logger.WithField("error", err).Error("directory-watchdog-failed")
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	engineErrChan := make(chan error, 1)
	go func() {
		fmt.Println("\ncamerabot engine starting...")
		fmt.Println("Press Ctrl+C to stop")
		engineErrChan <- engine.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("received-signal-shutting-down")
	case <-shutdown:
		logger.Info("stop-command-received-shutting-down")
	case err := <-engineErrChan:
		if err != nil {
			return err
		}
	}

	cancel()
	stopped := make(chan error, 1)
	go func() {
		stopped <- engine.Stop()
	}()

	select {
	case err := <-stopped:
		if err != nil {
			logger.WithField("error", err).Error("error-during-shutdown")
		}
	case <-time.After(constants.ShutdownTimeout):
		logger.Warn("shutdown-timed-out")
	}

	return nil
}

func init() {
	startCmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")
}
