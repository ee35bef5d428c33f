package core

import (
	"context"
	"errors"
	"testing"

	"github.com/keepmind9/camerabot/internal/bot"
	"github.com/keepmind9/camerabot/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcast(t *testing.T) {
	env := newTestEnv(t)

	err := env.engine.Broadcast(context.Background(),
		bot.File{Name: "/var/alerts/motion_20240305.mp4", Data: []byte("video")},
		"Directory watchdog alert")
	require.NoError(t, err)

	sent := env.messenger.Sent()
	require.Len(t, sent, 2)
	for i, uid := range []int64{42, 7} {
		assert.Equal(t, "document", sent[i].Kind)
		assert.Equal(t, uid, sent[i].ChatID)
		assert.Equal(t, "motion_20240305.mp4", sent[i].File.Name)
		assert.Equal(t, []byte("video"), sent[i].File.Data)
		assert.Equal(t, "Directory watchdog alert", sent[i].Opts.Caption)
		assert.Equal(t, constants.BroadcastUploadTimeout, sent[i].Opts.Timeout)
		assert.Zero(t, sent[i].Opts.ReplyTo)
	}
}

func TestBroadcast_PartialFailure(t *testing.T) {
	env := newTestEnv(t)
	logs := captureLogs(t)
	env.messenger.failFor[42] = errors.New("blocked by user")

	err := env.engine.Broadcast(context.Background(), bot.File{Name: "a.jpg", Data: []byte("x")}, "alert")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "user 42")
	assert.Contains(t, err.Error(), "blocked by user")

	sent := env.messenger.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(7), sent[0].ChatID)
	assert.Contains(t, logs.String(), "failed-to-broadcast-document")
}

func TestBroadcast_CancelledContext(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := env.engine.Broadcast(ctx, bot.File{Name: "a.jpg"}, "alert")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, env.messenger.Sent())
}

func TestSendStartupMessage(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.engine.SendStartupMessage())

	sent := env.messenger.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, int64(42), sent[0].ChatID)
	assert.Equal(t, int64(7), sent[1].ChatID)
	for _, m := range sent {
		assert.Equal(t, "Camerabot bot started, see /help for available commands", m.Text)
		assert.False(t, m.Opts.HTML)
	}
}

func TestSendStartupMessage_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.messenger.failFor[7] = errors.New("chat not found")

	err := env.engine.SendStartupMessage()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "user 7")
	assert.Len(t, env.messenger.Sent(), 1)
}
