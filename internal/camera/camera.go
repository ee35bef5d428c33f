// Package camera defines the camera collaborator used by the bot, the
// registry of configured cameras and a Hikvision ISAPI implementation.
package camera

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a camera identifier is not registered.
var ErrNotFound = errors.New("camera not found")

// Snapshot is a captured still image.
type Snapshot struct {
	Data      []byte
	Timestamp time.Time
}

// Camera is the capability set the bot needs from a camera.
type Camera interface {
	// TakeSnapshot captures a picture. When resize is set the picture is
	// scaled down for inline display.
	TakeSnapshot(ctx context.Context, resize bool) (*Snapshot, error)

	// SwitchMotionDetection enables or disables motion detection.
	SwitchMotionDetection(ctx context.Context, enable bool) error

	// Description is the human-readable camera name.
	Description() string

	// SnapshotsTaken counts successful captures since startup.
	SnapshotsTaken() int
}

// Error is a camera-domain failure. Its message is safe to show to users;
// the underlying cause is kept for logs.
type Error struct {
	CameraID string
	Msg      string
	Err      error
}

// NewError creates a camera-domain error.
func NewError(cameraID, msg string, err error) *Error {
	return &Error{CameraID: cameraID, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
