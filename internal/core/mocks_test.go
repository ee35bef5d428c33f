package core

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/keepmind9/camerabot/internal/bot"
	"github.com/keepmind9/camerabot/internal/camera"
	"github.com/keepmind9/camerabot/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// SentMessage records one outbound call on MockMessenger
type SentMessage struct {
	Kind   string // text, photo, document
	ChatID int64
	Text   string
	File   bot.File
	Opts   bot.SendOptions
}

// MockMessenger is a mock implementation of bot.Messenger for testing
type MockMessenger struct {
	mu             sync.Mutex
	name           string
	sent           []SentMessage
	sendErr        error
	failFor        map[int64]error
	startErr       error
	startCalled    bool
	stopCalled     bool
	messageHandler func(bot.BotMessage)
}

func NewMockMessenger() *MockMessenger {
	return &MockMessenger{name: "Camerabot", failFor: make(map[int64]error)}
}

func (m *MockMessenger) Start(handler func(bot.BotMessage)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startCalled = true
	m.messageHandler = handler
	return m.startErr
}

func (m *MockMessenger) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalled = true
	return nil
}

func (m *MockMessenger) Name() string {
	return m.name
}

func (m *MockMessenger) record(msg SentMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[msg.ChatID]; err != nil {
		return err
	}
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *MockMessenger) SendText(chatID int64, text string, opts bot.SendOptions) error {
	return m.record(SentMessage{Kind: "text", ChatID: chatID, Text: text, Opts: opts})
}

func (m *MockMessenger) SendPhoto(chatID int64, photo bot.File, opts bot.SendOptions) error {
	return m.record(SentMessage{Kind: "photo", ChatID: chatID, File: photo, Opts: opts})
}

func (m *MockMessenger) SendDocument(chatID int64, doc bot.File, opts bot.SendOptions) error {
	return m.record(SentMessage{Kind: "document", ChatID: chatID, File: doc, Opts: opts})
}

func (m *MockMessenger) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *MockMessenger) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

func (m *MockMessenger) Handler() func(bot.BotMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messageHandler
}

// MockCamera is a mock implementation of camera.Camera for testing
type MockCamera struct {
	mu            sync.Mutex
	description   string
	snapshots     int
	snapshotErr   error
	motionErr     error
	timestamp     time.Time
	snapshotCalls []bool // resize flag per call
	motionCalls   []bool // enable flag per call
}

func NewMockCamera(description string) *MockCamera {
	return &MockCamera{
		description: description,
		timestamp:   time.Date(2024, time.March, 5, 9, 8, 7, 0, time.Local),
	}
}

func (c *MockCamera) TakeSnapshot(ctx context.Context, resize bool) (*camera.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshotCalls = append(c.snapshotCalls, resize)
	if c.snapshotErr != nil {
		return nil, c.snapshotErr
	}
	c.snapshots++
	return &camera.Snapshot{Data: []byte("jpeg-bytes"), Timestamp: c.timestamp}, nil
}

func (c *MockCamera) SwitchMotionDetection(ctx context.Context, enable bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.motionCalls = append(c.motionCalls, enable)
	return c.motionErr
}

func (c *MockCamera) Description() string {
	return c.description
}

func (c *MockCamera) SnapshotsTaken() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshots
}

func (c *MockCamera) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snapshotCalls) + len(c.motionCalls)
}

// testEnv bundles an engine with its mocks
type testEnv struct {
	engine    *Engine
	messenger *MockMessenger
	cameras   map[string]*MockCamera
	shutdown  chan struct{}
}

// newTestEnv builds an engine allowing user 42 with cam_1 (all commands)
// and cam_2 (snapshots only)
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cam1 := NewMockCamera("Front door")
	cam2 := NewMockCamera("Back yard")
	registry, err := camera.NewRegistry(
		camera.Entry{ID: "cam_1", Camera: cam1, Commands: camera.Commands("cam_1", camera.CameraVerbs)},
		camera.Entry{ID: "cam_2", Camera: cam2, Commands: camera.Commands("cam_2", []string{camera.VerbGetPic, camera.VerbGetFullPic})},
	)
	require.NoError(t, err)

	messenger := NewMockMessenger()
	shutdown := make(chan struct{}, 1)

	return &testEnv{
		engine:    NewEngine(messenger, []int64{42, 7}, registry, shutdown),
		messenger: messenger,
		cameras:   map[string]*MockCamera{"cam_1": cam1, "cam_2": cam2},
		shutdown:  shutdown,
	}
}

// command builds an inbound message from user in chat user
func command(user int64, text string) bot.BotMessage {
	cmd := ""
	if len(text) > 1 && text[0] == '/' {
		cmd = text[1:]
	}
	return bot.BotMessage{
		Platform:  "telegram",
		UserID:    user,
		ChatID:    user,
		MessageID: 100,
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Smith",
		Text:      text,
		Command:   cmd,
		Timestamp: time.Now(),
	}
}

func (env *testEnv) handle(t *testing.T, user int64, text string) []SentMessage {
	t.Helper()
	env.engine.HandleUserMessage(context.Background(), command(user, text))
	return env.messenger.Sent()
}

// captureLogs redirects the global logger into a buffer for the test
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := logger.GetLogger()
	t.Cleanup(func() { logger.SetLogger(prev) })

	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLogger(l)
	return &buf
}
