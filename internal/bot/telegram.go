package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/keepmind9/camerabot/internal/logger"
	"github.com/keepmind9/camerabot/pkg/constants"
	"github.com/sirupsen/logrus"
)

// BotAPI is the subset of *tgbotapi.BotAPI used for sending.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramBot implements Messenger for Telegram using long polling
type TelegramBot struct {
	mu             sync.RWMutex
	token          string
	name           string
	api            BotAPI
	client         *tgbotapi.BotAPI
	messageHandler func(BotMessage)
	ctx            context.Context
	cancel         context.CancelFunc
}

// NewTelegramBot creates a new Telegram bot instance
func NewTelegramBot(token string) *TelegramBot {
	return &TelegramBot{
		token: token,
	}
}

// Start authenticates with Telegram and begins long polling for updates
func (t *TelegramBot) Start(messageHandler func(BotMessage)) error {
	t.SetMessageHandler(messageHandler)

	logger.WithField("token", maskSecret(t.token)).Info("starting-telegram-bot-with-long-polling")

	client, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		logger.WithField("error", err).Error("failed-to-initialize-telegram-bot")
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	t.client = client
	t.api = client
	t.name = client.Self.FirstName
	t.ctx, t.cancel = ctx, cancel
	t.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"bot_username": client.Self.UserName,
		"bot_name":     client.Self.FirstName,
		"bot_id":       client.Self.ID,
	}).Info("telegram-bot-initialized-successfully")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(constants.DefaultPollTimeout.Seconds())
	updates := client.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("telegram-long-polling-stopped")
				return
			case update, ok := <-updates:
				if !ok {
					logger.Info("telegram-updates-channel-closed")
					return
				}
				if update.Message != nil {
					t.handleMessage(update.Message)
				}
			}
		}
	}()

	logger.Info("telegram-long-polling-connection-started")
	return nil
}

// handleMessage converts a Telegram message and hands it to the handler
func (t *TelegramBot) handleMessage(message *tgbotapi.Message) {
	if message == nil || message.Chat == nil {
		return
	}

	msg := BotMessage{
		Platform:  "telegram",
		UserID:    message.Chat.ID,
		ChatID:    message.Chat.ID,
		MessageID: message.MessageID,
		Username:  message.Chat.UserName,
		FirstName: message.Chat.FirstName,
		LastName:  message.Chat.LastName,
		Text:      message.Text,
		Command:   message.Command(),
		Timestamp: time.Now(),
	}
	if message.From != nil {
		msg.UserID = message.From.ID
		msg.Username = message.From.UserName
		msg.FirstName = message.From.FirstName
		msg.LastName = message.From.LastName
	}
	if msg.Command == "" {
		msg.Command = parseCommand(message.Text)
	}

	logger.WithFields(logrus.Fields{
		"platform":   msg.Platform,
		"user_id":    msg.UserID,
		"username":   msg.Username,
		"chat_id":    msg.ChatID,
		"message_id": msg.MessageID,
		"command":    msg.Command,
	}).Debug("received-telegram-message-parsed")

	if message.Text == "" {
		return
	}
	if handler := t.GetMessageHandler(); handler != nil {
		handler(msg)
	}
}

// Name returns the bot's first name as reported by Telegram
func (t *TelegramBot) Name() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.name
}

// SendText sends a text message, truncated to Telegram's limit
func (t *TelegramBot) SendText(chatID int64, text string, opts SendOptions) error {
	msg := tgbotapi.NewMessage(chatID, truncate(text, constants.MaxTelegramMessageLength))
	msg.ReplyToMessageID = opts.ReplyTo
	if opts.HTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	return t.send(chatID, msg, opts.Timeout, "text")
}

// SendPhoto sends an inline photo
func (t *TelegramBot) SendPhoto(chatID int64, photo File, opts SendOptions) error {
	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: photo.Name, Bytes: photo.Data})
	msg.Caption = truncate(opts.Caption, constants.MaxTelegramCaptionLength)
	msg.ReplyToMessageID = opts.ReplyTo
	return t.send(chatID, msg, opts.Timeout, "photo")
}

// SendDocument sends a file as a document
func (t *TelegramBot) SendDocument(chatID int64, doc File, opts SendOptions) error {
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: doc.Name, Bytes: doc.Data})
	msg.Caption = truncate(opts.Caption, constants.MaxTelegramCaptionLength)
	msg.ReplyToMessageID = opts.ReplyTo
	return t.send(chatID, msg, opts.Timeout, "document")
}

func (t *TelegramBot) send(chatID int64, c tgbotapi.Chattable, timeout time.Duration, kind string) error {
	api, err := t.sender(timeout)
	if err != nil {
		return err
	}

	if _, err := api.Send(c); err != nil {
		logger.WithFields(logrus.Fields{
			"chat_id": chatID,
			"kind":    kind,
			"error":   err,
		}).Error("failed-to-send-message-to-telegram")
		return fmt.Errorf("failed to send %s to chat %d: %w", kind, chatID, err)
	}

	logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"kind":    kind,
	}).Info("message-sent-to-telegram")
	return nil
}

// sender picks the API to send through. A positive timeout gets a copy of
// the client with its own http.Client so long uploads do not share the
// default transport settings.
func (t *TelegramBot) sender(timeout time.Duration) (BotAPI, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.api == nil {
		return nil, ErrNotInitialized
	}
	if timeout <= 0 || t.client == nil {
		return t.api, nil
	}

	clone := *t.client
	clone.Client = &http.Client{Timeout: timeout}
	return &clone, nil
}

// Stop closes the Telegram long polling connection and cleans up resources
func (t *TelegramBot) Stop() error {
	t.mu.Lock()
	cancel := t.cancel
	client := t.client
	t.client = nil
	t.api = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if client != nil {
		client.StopReceivingUpdates()
	}

	logger.Info("telegram-bot-stopped")
	return nil
}

// SetMessageHandler sets the message handler in a thread-safe manner
func (t *TelegramBot) SetMessageHandler(handler func(BotMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messageHandler = handler
}

// GetMessageHandler gets the message handler in a thread-safe manner
func (t *TelegramBot) GetMessageHandler() func(BotMessage) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.messageHandler
}
