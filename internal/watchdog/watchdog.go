// Package watchdog broadcasts files dropped into an alert directory.
//
// Cameras and NVRs upload motion clips or snapshots into a directory over
// FTP or SMB. The watchdog polls that directory and, once a file has stopped
// growing, sends it to every allowed user and removes it.
package watchdog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/keepmind9/camerabot/internal/bot"
	"github.com/keepmind9/camerabot/internal/logger"
	"github.com/keepmind9/camerabot/pkg/constants"
	"github.com/sirupsen/logrus"
)

// ErrCancelled is returned by Run when its context is cancelled
var ErrCancelled = errors.New("watchdog cancelled")

// AlertCaption is the caption attached to broadcast files
const AlertCaption = "Directory watchdog alert"

const maxConsecutiveErrors = 10

// Broadcaster sends a file to every allowed user
type Broadcaster interface {
	Broadcast(ctx context.Context, file bot.File, caption string) error
}

// Config defines the watchdog behavior
type Config struct {
	Directory string
	Interval  time.Duration // How often to scan (default: 2s)
}

// DirectoryWatchdog polls a directory and broadcasts finished files
type DirectoryWatchdog struct {
	config      Config
	broadcaster Broadcaster
	sizes       map[string]int64 // size seen on the previous scan, by path
}

// New creates a directory watchdog
func New(config Config, broadcaster Broadcaster) *DirectoryWatchdog {
	if config.Interval <= 0 {
		config.Interval = constants.DefaultWatchdogInterval
	}
	return &DirectoryWatchdog{
		config:      config,
		broadcaster: broadcaster,
		sizes:       make(map[string]int64),
	}
}

// Run scans the directory every interval until ctx is cancelled. It gives up
// when the directory cannot be read for too many scans in a row.
func (w *DirectoryWatchdog) Run(ctx context.Context) error {
	info, err := os.Stat(w.config.Directory)
	if err != nil {
		return fmt.Errorf("watchdog directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watchdog directory %s is not a directory", w.config.Directory)
	}

	logger.WithFields(logrus.Fields{
		"directory": w.config.Directory,
		"interval":  w.config.Interval,
	}).Info("directory-watchdog-started")

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	var consecutiveErrors int
	for {
		select {
		case <-ctx.Done():
			logger.Info("directory-watchdog-stopped")
			return ErrCancelled

		case <-ticker.C:
			if err := w.scan(ctx); err != nil {
				consecutiveErrors++
				if consecutiveErrors > maxConsecutiveErrors {
					logger.WithFields(logrus.Fields{
						"directory": w.config.Directory,
						"attempts":  consecutiveErrors,
						"error":     err,
					}).Error("directory-scan-failed-too-many-times")
					return fmt.Errorf("scan failed repeatedly after %d attempts: %w", consecutiveErrors, err)
				}
				logger.WithFields(logrus.Fields{
					"directory": w.config.Directory,
					"error":     err,
					"attempt":   consecutiveErrors,
				}).Warn("directory-scan-failed-retrying")
				continue
			}
			consecutiveErrors = 0
		}
	}
}

// scan performs one pass over the directory. A file is sent when its size
// matches the previous pass; failed sends are retried on the next pass.
func (w *DirectoryWatchdog) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.config.Directory)
	if err != nil {
		return err
	}

	seen := make(map[string]int64, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}

		path := filepath.Join(w.config.Directory, entry.Name())
		size := info.Size()
		prev, known := w.sizes[path]
		seen[path] = size

		if !known || prev != size || size == 0 {
			logger.WithFields(logrus.Fields{
				"path": path,
				"size": size,
			}).Debug("file-still-growing")
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil
		}
		if w.send(ctx, path) {
			delete(seen, path)
		}
	}

	w.sizes = seen
	return nil
}

// send broadcasts one file and removes it on success
func (w *DirectoryWatchdog) send(ctx context.Context, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"path":  path,
			"error": err,
		}).Warn("failed-to-read-alert-file")
		return false
	}

	if err := w.broadcaster.Broadcast(ctx, bot.File{Name: path, Data: data}, AlertCaption); err != nil {
		logger.WithFields(logrus.Fields{
			"path":  path,
			"error": err,
		}).Error("failed-to-broadcast-alert-file")
		return false
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithFields(logrus.Fields{
			"path":  path,
			"error": err,
		}).Error("failed-to-remove-alert-file")
		return false
	}

	logger.WithFields(logrus.Fields{
		"path": path,
		"size": len(data),
	}).Info("alert-file-broadcast")
	return true
}
