package core

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/keepmind9/camerabot/internal/bot"
	"github.com/keepmind9/camerabot/internal/camera"
	"github.com/keepmind9/camerabot/internal/logger"
	"github.com/keepmind9/camerabot/pkg/constants"
	"github.com/sirupsen/logrus"
)

// Request is one inbound command on its way through the middleware chain.
// Camera fields are filled by withCamera.
type Request struct {
	Msg      bot.BotMessage
	CameraID string
	Camera   camera.Camera
	Commands []string
}

// HandlerFunc handles a command. Returned errors go to the generic error
// handler, which only logs them.
type HandlerFunc func(ctx context.Context, req *Request) error

// Middleware wraps a HandlerFunc with a cross-cutting check.
type Middleware func(HandlerFunc) HandlerFunc

// chain applies middlewares so that the first one runs outermost
func chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Engine dispatches chat commands to camera handlers
type Engine struct {
	messenger    bot.Messenger
	allowed      map[int64]struct{}
	allowedOrder []int64
	cameras      *camera.Registry
	shutdown     chan<- struct{}
	routes       map[string]HandlerFunc // plain commands
	cameraRoutes map[string]HandlerFunc // verb -> handler for <verb>_cam_<id>
	messageChan  chan bot.BotMessage
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewEngine creates an engine. The allow-list and registry are treated as
// immutable; shutdown receives a value when a user sends /stop.
func NewEngine(messenger bot.Messenger, allowedUserIDs []int64, cameras *camera.Registry, shutdown chan<- struct{}) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		messenger:    messenger,
		allowed:      make(map[int64]struct{}, len(allowedUserIDs)),
		allowedOrder: append([]int64(nil), allowedUserIDs...),
		cameras:      cameras,
		shutdown:     shutdown,
		messageChan:  make(chan bot.BotMessage, constants.MessageChannelBufferSize),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, uid := range allowedUserIDs {
		e.allowed[uid] = struct{}{}
	}

	e.routes = map[string]HandlerFunc{
		"stop": chain(e.cmdStop, e.authorized),
		"list": chain(e.cmdListCams, e.authorized),
		"help": e.cmdHelp,
	}
	e.cameraRoutes = map[string]HandlerFunc{
		camera.VerbGetPic:             chain(e.cmdGetPic, e.authorized, e.withCamera),
		camera.VerbGetFullPic:         chain(e.cmdGetFullPic, e.authorized, e.withCamera),
		camera.VerbMotionDetectionOn:  chain(e.cmdMotionDetection(true), e.authorized, e.withCamera),
		camera.VerbMotionDetectionOff: chain(e.cmdMotionDetection(false), e.authorized, e.withCamera),
	}

	return e
}

// Run starts the bot, greets allowed users and processes messages until
// ctx is cancelled or Stop is called
func (e *Engine) Run(ctx context.Context) error {
	logger.WithField("cameras", e.cameras.Len()).Info("starting-camerabot-engine")

	if err := e.messenger.Start(e.HandleBotMessage); err != nil {
		return fmt.Errorf("failed to start bot: %w", err)
	}

	if err := e.SendStartupMessage(); err != nil {
		logger.WithField("error", err).Error("failed-to-send-startup-message")
	}

	e.runEventLoop(ctx)
	return nil
}

// runEventLoop handles one message at a time
func (e *Engine) runEventLoop(ctx context.Context) {
	logger.Info("engine-event-loop-started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("event-loop-shutting-down")
			return
		case <-e.ctx.Done():
			logger.Info("event-loop-shutting-down")
			return
		case msg := <-e.messageChan:
			e.HandleUserMessage(ctx, msg)
		}
	}
}

// HandleBotMessage is the callback the transport delivers messages to
func (e *Engine) HandleBotMessage(msg bot.BotMessage) {
	select {
	case e.messageChan <- msg:
	case <-e.ctx.Done():
	}
}

// HandleUserMessage routes a message to its handler and logs any error the
// handler returns
func (e *Engine) HandleUserMessage(ctx context.Context, msg bot.BotMessage) {
	defer func() {
		if r := recover(); r != nil {
			e.errorHandler(msg, fmt.Errorf("panic: %v", r))
		}
	}()

	if msg.Command == "" {
		logger.WithField("user_id", msg.UserID).Debug("ignoring-non-command-message")
		return
	}

	handler, req, ok := e.route(msg)
	if !ok {
		logger.WithFields(logrus.Fields{
			"user_id": msg.UserID,
			"command": msg.Command,
		}).Debug("ignoring-unknown-command")
		return
	}

	if err := handler(ctx, req); err != nil {
		e.errorHandler(msg, err)
	}
}

// route finds the handler for a command token. Camera-scoped commands are
// split on the last occurrence of the camera marker, so verbs may contain
// underscores.
func (e *Engine) route(msg bot.BotMessage) (HandlerFunc, *Request, bool) {
	req := &Request{Msg: msg}

	if h, ok := e.routes[msg.Command]; ok {
		return h, req, true
	}

	verb, cameraID, ok := splitCameraCommand(msg.Command)
	if !ok {
		return nil, nil, false
	}
	h, ok := e.cameraRoutes[verb]
	if !ok {
		return nil, nil, false
	}
	req.CameraID = cameraID
	return h, req, true
}

// splitCameraCommand splits "motion_detection_on_cam_2" into
// ("motion_detection_on", "cam_2")
func splitCameraCommand(command string) (verb, cameraID string, ok bool) {
	i := strings.LastIndex(command, constants.CameraIDPrefix)
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSuffix(command[:i], "_"), command[i:], true
}

// authorized only lets allow-listed users through. Rejections are logged
// and answered here; they never reach the error handler.
func (e *Engine) authorized(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, req *Request) error {
		if !e.IsUserAuthorized(req.Msg.UserID) {
			logger.WithFields(userFields(req.Msg)).Error("user-authorization-error")
			if err := e.reply(req, "Not authorized"); err != nil {
				logger.WithFields(logrus.Fields{
					"user_id": req.Msg.UserID,
					"error":   err,
				}).Error("failed-to-send-authorization-error")
			}
			return nil
		}
		return next(ctx, req)
	}
}

// withCamera resolves req.CameraID against the registry and injects the
// camera. Unknown identifiers are reported to the user.
func (e *Engine) withCamera(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, req *Request) error {
		entry, err := e.cameras.Lookup(req.CameraID)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"user_id":   req.Msg.UserID,
				"camera_id": req.CameraID,
				"command":   req.Msg.Command,
			}).Warn("unknown-camera-requested")
			return e.reply(req, fmt.Sprintf("Camera %s not found, /list available cameras", req.CameraID))
		}
		if !slices.Contains(entry.Commands, req.Msg.Command) {
			logger.WithFields(logrus.Fields{
				"camera_id": req.CameraID,
				"command":   req.Msg.Command,
			}).Debug("command-not-enabled-for-camera")
			return nil
		}

		req.Camera = entry.Camera
		req.Commands = entry.Commands
		return next(ctx, req)
	}
}

// IsUserAuthorized checks if a user is in the allow-list
func (e *Engine) IsUserAuthorized(userID int64) bool {
	_, ok := e.allowed[userID]
	return ok
}

// errorHandler is the last stop for handler errors: log and move on
func (e *Engine) errorHandler(msg bot.BotMessage, err error) {
	logger.WithFields(logrus.Fields{
		"user_id": msg.UserID,
		"command": msg.Command,
		"error":   err,
	}).Error("handler-error")
}

// Stop stops the event loop and the transport
func (e *Engine) Stop() error {
	logger.Info("stopping-camerabot-engine")

	if e.cancel != nil {
		e.cancel()
	}

	if err := e.messenger.Stop(); err != nil {
		logger.WithField("error", err).Error("failed-to-stop-bot")
		return fmt.Errorf("failed to stop bot: %w", err)
	}

	logger.Info("engine-stopped")
	return nil
}

func userFields(msg bot.BotMessage) logrus.Fields {
	return logrus.Fields{
		"user_id":    msg.UserID,
		"username":   msg.Username,
		"first_name": msg.FirstName,
		"last_name":  msg.LastName,
	}
}
