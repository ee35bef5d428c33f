package constants

import "time"

// Message length limits imposed by Telegram
const (
	// MaxTelegramMessageLength is Telegram's message character limit
	MaxTelegramMessageLength = 4096
	// MaxTelegramCaptionLength is Telegram's media caption character limit
	MaxTelegramCaptionLength = 1024
)

// Timeouts and delays
const (
	// DefaultPollTimeout is the timeout for Telegram long polling
	DefaultPollTimeout = 60 * time.Second
	// BroadcastUploadTimeout bounds a single unsolicited document upload
	BroadcastUploadTimeout = 300 * time.Second
	// DefaultCameraTimeout is the HTTP timeout for camera requests
	DefaultCameraTimeout = 10 * time.Second
	// DefaultWatchdogInterval is how often the alert directory is scanned
	DefaultWatchdogInterval = 2 * time.Second
	// ShutdownTimeout bounds graceful shutdown of the engine
	ShutdownTimeout = 5 * time.Second
)

// Message buffer sizes
const (
	// MessageChannelBufferSize is the buffer size for inbound bot messages
	MessageChannelBufferSize = 100
)

// Camera defaults
const (
	// CameraIDPrefix marks the camera identifier inside a command token
	CameraIDPrefix = "cam_"
	// DefaultSnapshotChannel is the ISAPI streaming channel used for pictures
	DefaultSnapshotChannel = 102
	// DefaultResizeWidth is the width of resized snapshots in pixels
	DefaultResizeWidth = 1280
	// SnapshotJPEGQuality is the quality used when re-encoding resized snapshots
	SnapshotJPEGQuality = 90
)

// Secret masking
const (
	// MinSecretLengthForMasking is the minimum secret length to show a prefix and suffix
	MinSecretLengthForMasking = 10
	// SecretMaskPrefixLength is the length of prefix to show before masking
	SecretMaskPrefixLength = 4
	// SecretMaskSuffixLength is the length of suffix to show after masking
	SecretMaskSuffixLength = 4
)

// Logging defaults
const (
	// DefaultLogLevel is used when no level is configured
	DefaultLogLevel = "info"
	// DefaultLogMaxSize is the default maximum log file size in MB
	DefaultLogMaxSize = 100
	// DefaultLogMaxBackups is the default number of rotated files kept
	DefaultLogMaxBackups = 5
	// DefaultLogMaxAge is the default maximum number of days to retain old logs
	DefaultLogMaxAge = 30
)
