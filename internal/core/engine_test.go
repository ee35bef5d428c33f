package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/keepmind9/camerabot/internal/bot"
	"github.com/keepmind9/camerabot/internal/camera"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	env := newTestEnv(t)

	assert.True(t, env.engine.IsUserAuthorized(42))
	assert.True(t, env.engine.IsUserAuthorized(7))
	assert.False(t, env.engine.IsUserAuthorized(99))
	assert.Equal(t, []int64{42, 7}, env.engine.allowedOrder)
}

func TestSplitCameraCommand(t *testing.T) {
	tests := []struct {
		command  string
		verb     string
		cameraID string
		ok       bool
	}{
		{"getpic_cam_1", "getpic", "cam_1", true},
		{"getfullpic_cam_garage", "getfullpic", "cam_garage", true},
		{"motion_detection_on_cam_2", "motion_detection_on", "cam_2", true},
		{"motion_detection_off_cam_2", "motion_detection_off", "cam_2", true},
		{"cam_3", "", "cam_3", true},
		{"list", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			verb, cameraID, ok := splitCameraCommand(tt.command)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.verb, verb)
			assert.Equal(t, tt.cameraID, cameraID)
		})
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, req *Request) error {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}

	h := chain(func(ctx context.Context, req *Request) error {
		order = append(order, "handler")
		return nil
	}, mw("first"), mw("second"))

	require.NoError(t, h(context.Background(), &Request{}))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestAuthorization_RejectsUnknownUsers(t *testing.T) {
	commands := []string{
		"/getpic_cam_1",
		"/getfullpic_cam_1",
		"/motion_detection_on_cam_1",
		"/motion_detection_off_cam_1",
		"/getpic_cam_404",
		"/list",
		"/stop",
	}

	for _, text := range commands {
		t.Run(text, func(t *testing.T) {
			env := newTestEnv(t)
			logs := captureLogs(t)

			sent := env.handle(t, 99, text)

			require.Len(t, sent, 1)
			assert.Equal(t, "text", sent[0].Kind)
			assert.Equal(t, int64(99), sent[0].ChatID)
			assert.Equal(t, "Not authorized", sent[0].Text)
			assert.Zero(t, env.cameras["cam_1"].Calls())
			assert.Empty(t, env.shutdown)
			assert.Contains(t, logs.String(), "user-authorization-error")
			assert.Contains(t, logs.String(), `"username":"alice"`)
			assert.NotContains(t, logs.String(), "handler-error")
		})
	}
}

func TestAuthorization_HelpIsOpen(t *testing.T) {
	env := newTestEnv(t)

	sent := env.handle(t, 99, "/help")

	require.Len(t, sent, 1)
	assert.Equal(t, "Use /list command to list available cameras and commands", sent[0].Text)
}

func TestWithCamera_UnknownCamera(t *testing.T) {
	env := newTestEnv(t)
	logs := captureLogs(t)

	sent := env.handle(t, 42, "/getpic_cam_9")

	require.Len(t, sent, 1)
	assert.Equal(t, "Camera cam_9 not found, /list available cameras", sent[0].Text)
	assert.Zero(t, env.cameras["cam_1"].Calls())
	assert.Zero(t, env.cameras["cam_2"].Calls())
	assert.Contains(t, logs.String(), "unknown-camera-requested")
}

func TestWithCamera_CommandNotEnabled(t *testing.T) {
	env := newTestEnv(t)

	sent := env.handle(t, 42, "/motion_detection_on_cam_2")

	assert.Empty(t, sent)
	assert.Zero(t, env.cameras["cam_2"].Calls())
}

func TestHandleUserMessage_IgnoresNonCommands(t *testing.T) {
	env := newTestEnv(t)

	assert.Empty(t, env.handle(t, 42, "hello there"))
	assert.Empty(t, env.handle(t, 42, "/unknown"))
	assert.Empty(t, env.handle(t, 42, "/reboot_cam_1"))
}

func TestHandleUserMessage_ErrorHandler(t *testing.T) {
	env := newTestEnv(t)
	logs := captureLogs(t)
	env.cameras["cam_1"].snapshotErr = errors.New("connection reset")

	sent := env.handle(t, 42, "/getpic_cam_1")

	assert.Empty(t, sent)
	assert.Contains(t, logs.String(), "handler-error")
	assert.Contains(t, logs.String(), "connection reset")
}

func TestHandleUserMessage_SendErrorIsLogged(t *testing.T) {
	env := newTestEnv(t)
	logs := captureLogs(t)
	env.messenger.SetSendError(errors.New("telegram down"))

	env.handle(t, 42, "/list")

	assert.Contains(t, logs.String(), "handler-error")
	assert.Contains(t, logs.String(), "telegram down")
}

type panickingCamera struct{ MockCamera }

func (c *panickingCamera) TakeSnapshot(ctx context.Context, resize bool) (*camera.Snapshot, error) {
	panic("sensor on fire")
}

func TestHandleUserMessage_RecoversPanics(t *testing.T) {
	registry, err := camera.NewRegistry(camera.Entry{
		ID:       "cam_1",
		Camera:   &panickingCamera{},
		Commands: camera.Commands("cam_1", camera.CameraVerbs),
	})
	require.NoError(t, err)

	messenger := NewMockMessenger()
	engine := NewEngine(messenger, []int64{42}, registry, nil)
	logs := captureLogs(t)

	assert.NotPanics(t, func() {
		engine.HandleUserMessage(context.Background(), command(42, "/getpic_cam_1"))
	})
	assert.Contains(t, logs.String(), "sensor on fire")
}

func TestEngine_RunAndStop(t *testing.T) {
	env := newTestEnv(t)

	done := make(chan error, 1)
	go func() {
		done <- env.engine.Run(context.Background())
	}()

	require.Eventually(t, func() bool {
		return env.messenger.Handler() != nil
	}, time.Second, 10*time.Millisecond)

	env.messenger.Handler()(command(42, "/list"))

	require.Eventually(t, func() bool {
		for _, m := range env.messenger.Sent() {
			if m.Opts.HTML {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, env.engine.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}

	assert.True(t, env.messenger.stopCalled)

	// Startup greeting goes to every allowed user first.
	sent := env.messenger.Sent()
	require.GreaterOrEqual(t, len(sent), 3)
	assert.Equal(t, int64(42), sent[0].ChatID)
	assert.Equal(t, int64(7), sent[1].ChatID)
	assert.Equal(t, "Camerabot bot started, see /help for available commands", sent[0].Text)
}

func TestEngine_RunContextCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- env.engine.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return env.messenger.Handler() != nil
	}, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestEngine_RunStartError(t *testing.T) {
	env := newTestEnv(t)
	env.messenger.startErr = errors.New("bad token")

	err := env.engine.Run(context.Background())

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "bad token"))
	assert.Empty(t, env.messenger.Sent())
}

func TestHandleBotMessage_AfterStop(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.engine.Stop())

	for i := 0; i < 2*cap(env.engine.messageChan); i++ {
		env.engine.HandleBotMessage(bot.BotMessage{Command: "list"})
	}
}

func TestAuthorization_GroupChatChecksSender(t *testing.T) {
	env := newTestEnv(t)

	// Allow-listed id 7 as the group chat, sender 99 not allow-listed.
	msg := command(99, "/getpic_cam_1")
	msg.ChatID = 7
	env.engine.HandleUserMessage(context.Background(), msg)

	sent := env.messenger.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Not authorized", sent[0].Text)
	assert.Equal(t, int64(7), sent[0].ChatID)
	assert.Zero(t, env.cameras["cam_1"].Calls())
}
