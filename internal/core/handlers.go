package core

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/keepmind9/camerabot/internal/camera"
	"github.com/keepmind9/camerabot/internal/logger"
	"github.com/sirupsen/logrus"
)

const (
	captionTimeLayout  = "Mon Jan 2 15:04:05 2006"
	fileNameTimeLayout = "Mon Jan 2 15.04.05 2006" // spaces become underscores
)

// fullSnapshotName names a full-size snapshot after its capture time,
// e.g. Full_snapshot_Tue_Mar_5_09.08.07_2024.jpg
func fullSnapshotName(ts time.Time) string {
	return "Full_snapshot_" + strings.ReplaceAll(ts.Format(fileNameTimeLayout), " ", "_") + ".jpg"
}

// cmdGetPic sends a resized snapshot as an inline photo
func (e *Engine) cmdGetPic(ctx context.Context, req *Request) error {
	logger.WithFields(userFields(req.Msg)).WithField("camera", req.Camera.Description()).
		Info("resized-snapshot-requested")

	snap, err := req.Camera.TakeSnapshot(ctx, true)
	if err != nil {
		return e.snapshotFailed(req, err)
	}

	caption := fmt.Sprintf("Pic taken on %s (pic #%d)",
		snap.Timestamp.Format(captionTimeLayout), req.Camera.SnapshotsTaken())
	if err := e.sendCamPhoto(req, camPhoto{
		data:      snap.Data,
		caption:   caption,
		replyText: fmt.Sprintf("Sending pic from %s...", req.Camera.Description()),
		fileName:  req.CameraID + ".jpg",
	}); err != nil {
		return err
	}

	logger.WithField("camera_id", req.CameraID).Info("resized-snapshot-sent")
	return e.printHelper(req)
}

// cmdGetFullPic sends a full-size snapshot as a document
func (e *Engine) cmdGetFullPic(ctx context.Context, req *Request) error {
	logger.WithFields(userFields(req.Msg)).WithField("camera", req.Camera.Description()).
		Info("full-snapshot-requested")

	snap, err := req.Camera.TakeSnapshot(ctx, false)
	if err != nil {
		return e.snapshotFailed(req, err)
	}

	fileName := fullSnapshotName(snap.Timestamp)
	caption := fmt.Sprintf("Full pic taken on %s (pic #%d)",
		snap.Timestamp.Format(captionTimeLayout), req.Camera.SnapshotsTaken())
	if err := e.sendCamPhoto(req, camPhoto{
		data:      snap.Data,
		caption:   caption,
		replyText: fmt.Sprintf("Sending full pic from %s...", req.Camera.Description()),
		fileName:  fileName,
		full:      true,
	}); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"camera_id": req.CameraID,
		"file_name": fileName,
	}).Info("full-snapshot-sent")
	return e.printHelper(req)
}

// snapshotFailed answers camera errors; anything else is returned as is
func (e *Engine) snapshotFailed(req *Request, err error) error {
	var camErr *camera.Error
	if !errors.As(err, &camErr) {
		return fmt.Errorf("take snapshot from %s: %w", req.CameraID, err)
	}
	return e.reply(req, camErr.Error()+"\nTry later or /list other cameras")
}

// cmdStop acknowledges and asks the process to shut down
func (e *Engine) cmdStop(ctx context.Context, req *Request) error {
	msg := fmt.Sprintf("Stopping %s bot", e.messenger.Name())
	logger.WithFields(userFields(req.Msg)).Info("stop-requested")

	err := e.reply(req, msg)
	e.requestShutdown()
	return err
}

// requestShutdown signals the shutdown channel without waiting. A pending
// request makes further ones no-ops.
func (e *Engine) requestShutdown() {
	if e.shutdown == nil {
		logger.Warn("no-shutdown-channel-configured")
		return
	}
	select {
	case e.shutdown <- struct{}{}:
		logger.Info("shutdown-signalled")
	default:
		logger.Debug("shutdown-already-pending")
	}
}

// cmdListCams lists every camera with its commands
func (e *Engine) cmdListCams(ctx context.Context, req *Request) error {
	logger.WithField("user_id", req.Msg.UserID).Info("camera-list-requested")

	entries := e.cameras.Entries()
	blocks := make([]string, 0, len(entries)+1)
	blocks = append(blocks, fmt.Sprintf("<b>You have %d cameras:</b>", len(entries)))

	for _, entry := range entries {
		blocks = append(blocks, fmt.Sprintf(
			"<b>Camera:</b> %s\n<b>Description:</b> %s\n<b>Commands:</b> %s",
			html.EscapeString(entry.ID),
			html.EscapeString(entry.Camera.Description()),
			html.EscapeString(slashJoin(entry.Commands, ", "))))
	}

	if err := e.replyHTML(req, strings.Join(blocks, "\n\n")); err != nil {
		return err
	}

	logger.Info("camera-list-sent")
	return nil
}

// cmdMotionDetection returns the handler for the on or off switch
func (e *Engine) cmdMotionDetection(enable bool) HandlerFunc {
	state := "disabled"
	if enable {
		state = "enabled"
	}

	return func(ctx context.Context, req *Request) error {
		logger.WithFields(userFields(req.Msg)).WithFields(logrus.Fields{
			"camera_id": req.CameraID,
			"enable":    enable,
		}).Info("motion-detection-switch-requested")

		if err := req.Camera.SwitchMotionDetection(ctx, enable); err != nil {
			var camErr *camera.Error
			if !errors.As(err, &camErr) {
				return fmt.Errorf("switch motion detection on %s: %w", req.CameraID, err)
			}
			return e.reply(req, camErr.Error())
		}

		msg := fmt.Sprintf("Motion Detection successfully %s.", state)
		if err := e.reply(req, msg); err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"camera_id": req.CameraID,
			"state":     state,
		}).Info("motion-detection-switched")
		return e.printHelper(req)
	}
}

// cmdHelp answers an explicit /help
func (e *Engine) cmdHelp(ctx context.Context, req *Request) error {
	return e.sendHelp(req, false, true)
}

// printHelper appends the camera's command list after a reply
func (e *Engine) printHelper(req *Request) error {
	return e.sendHelp(req, true, false)
}

// sendHelp sends either the generic pointer to /list (requested) or the
// camera-specific command footer (appended). requested wins when both are set.
func (e *Engine) sendHelp(req *Request, appended, requested bool) error {
	switch {
	case requested:
		logger.WithFields(userFields(req.Msg)).Info("help-requested")
		if err := e.reply(req, "Use /list command to list available cameras and commands"); err != nil {
			return err
		}
	case appended:
		if err := e.reply(req, fmt.Sprintf("Available commands\n%s or /list available cameras",
			slashJoin(req.Commands, "\n"))); err != nil {
			return err
		}
	default:
		return nil
	}

	logger.Debug("help-sent")
	return nil
}

// slashJoin renders commands as /cmd tokens
func slashJoin(commands []string, sep string) string {
	out := make([]string, len(commands))
	for i, c := range commands {
		out[i] = "/" + c
	}
	return strings.Join(out, sep)
}
