package camera

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/keepmind9/camerabot/internal/logger"
	"github.com/keepmind9/camerabot/pkg/constants"
	"github.com/sirupsen/logrus"
)

const (
	snapshotPathFormat  = "/ISAPI/Streaming/channels/%d/picture"
	motionDetectionPath = "/ISAPI/System/Video/inputs/channels/1/motionDetection"
)

// Authentication schemes for ISAPI requests.
const (
	AuthDigest = "digest"
	AuthBasic  = "basic"
)

var enabledElement = regexp.MustCompile(`<enabled>\s*(true|false)\s*</enabled>`)

// HikvisionConfig holds connection settings for a Hikvision camera.
type HikvisionConfig struct {
	Description     string
	Host            string
	Username        string
	Password        string
	Auth            string // AuthDigest (default) or AuthBasic
	SnapshotChannel int
	ResizeWidth     int
	Timeout         time.Duration
}

// Hikvision talks to a camera over the ISAPI HTTP interface.
type Hikvision struct {
	id        string
	cfg       HikvisionConfig
	http      *resty.Client
	snapshots atomic.Int64
	now       func() time.Time
}

// NewHikvision creates a camera client. Zero config values take defaults.
func NewHikvision(id string, cfg HikvisionConfig) *Hikvision {
	if cfg.SnapshotChannel == 0 {
		cfg.SnapshotChannel = constants.DefaultSnapshotChannel
	}
	if cfg.ResizeWidth == 0 {
		cfg.ResizeWidth = constants.DefaultResizeWidth
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = constants.DefaultCameraTimeout
	}
	if cfg.Auth == "" {
		cfg.Auth = AuthDigest
	}

	client := resty.New().
		SetBaseURL(cfg.Host).
		SetTimeout(cfg.Timeout)
	if cfg.Username != "" {
		if cfg.Auth == AuthBasic {
			client.SetBasicAuth(cfg.Username, cfg.Password)
		} else {
			client.SetDigestAuth(cfg.Username, cfg.Password)
		}
	}

	return &Hikvision{
		id:   id,
		cfg:  cfg,
		http: client,
		now:  time.Now,
	}
}

// Description returns the configured camera description.
func (h *Hikvision) Description() string {
	return h.cfg.Description
}

// SnapshotsTaken returns the number of successful captures.
func (h *Hikvision) SnapshotsTaken() int {
	return int(h.snapshots.Load())
}

// TakeSnapshot fetches a JPEG picture from the camera.
func (h *Hikvision) TakeSnapshot(ctx context.Context, resize bool) (*Snapshot, error) {
	userMsg := fmt.Sprintf("Failed to take snapshot from %s", h.cfg.Description)

	resp, err := h.http.R().
		SetContext(ctx).
		SetQueryParam("snapShotImageType", "JPEG").
		Get(fmt.Sprintf(snapshotPathFormat, h.cfg.SnapshotChannel))
	if err != nil {
		return nil, h.fail(userMsg, fmt.Errorf("request snapshot: %w", err))
	}
	if resp.IsError() {
		return nil, h.fail(userMsg, fmt.Errorf("snapshot request returned %s", resp.Status()))
	}
	data := resp.Body()
	if len(data) == 0 {
		return nil, h.fail(userMsg, fmt.Errorf("snapshot response body is empty"))
	}
	taken := h.now()

	if resize {
		data, err = resizeJPEG(data, h.cfg.ResizeWidth)
		if err != nil {
			return nil, h.fail(userMsg, fmt.Errorf("resize snapshot: %w", err))
		}
	}

	count := h.snapshots.Add(1)
	logger.WithFields(logrus.Fields{
		"camera_id": h.id,
		"resized":   resize,
		"size":      len(data),
		"count":     count,
	}).Debug("snapshot-taken")

	return &Snapshot{Data: data, Timestamp: taken}, nil
}

// SwitchMotionDetection reads the motion detection document, flips its
// enabled flag and writes it back.
func (h *Hikvision) SwitchMotionDetection(ctx context.Context, enable bool) error {
	state := "disable"
	if enable {
		state = "enable"
	}
	userMsg := fmt.Sprintf("Failed to %s motion detection on %s", state, h.cfg.Description)

	resp, err := h.http.R().SetContext(ctx).Get(motionDetectionPath)
	if err != nil {
		return h.fail(userMsg, fmt.Errorf("get motion detection settings: %w", err))
	}
	if resp.IsError() {
		return h.fail(userMsg, fmt.Errorf("get motion detection settings returned %s", resp.Status()))
	}

	doc, err := setEnabled(resp.Body(), enable)
	if err != nil {
		return h.fail(userMsg, err)
	}

	resp, err = h.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/xml").
		SetBody(doc).
		Put(motionDetectionPath)
	if err != nil {
		return h.fail(userMsg, fmt.Errorf("put motion detection settings: %w", err))
	}
	if resp.IsError() {
		return h.fail(userMsg, fmt.Errorf("put motion detection settings returned %s", resp.Status()))
	}

	logger.WithFields(logrus.Fields{
		"camera_id": h.id,
		"enabled":   enable,
	}).Info("motion-detection-switched")
	return nil
}

func (h *Hikvision) fail(userMsg string, cause error) *Error {
	logger.WithFields(logrus.Fields{
		"camera_id": h.id,
		"error":     cause,
	}).Error("camera-request-failed")
	return NewError(h.id, userMsg, cause)
}

// setEnabled rewrites the first <enabled> element of an ISAPI document.
func setEnabled(doc []byte, enable bool) ([]byte, error) {
	loc := enabledElement.FindIndex(doc)
	if loc == nil {
		return nil, fmt.Errorf("motion detection settings have no <enabled> element")
	}
	out := make([]byte, 0, len(doc)+1)
	out = append(out, doc[:loc[0]]...)
	out = append(out, "<enabled>"+strconv.FormatBool(enable)+"</enabled>"...)
	out = append(out, doc[loc[1]:]...)
	return out, nil
}
