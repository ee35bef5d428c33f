// Package bot provides the chat transport used by camerabot.
//
// The transport delivers inbound commands to a handler callback and sends
// replies back as plain text, HTML, inline photos or documents. Telegram is
// the only implementation; it receives updates through long polling.
//
// # Usage
//
//	tg := bot.NewTelegramBot(token)
//	err := tg.Start(func(msg bot.BotMessage) {
//	    fmt.Printf("Received: %s\n", msg.Text)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tg.SendText(chatID, "Hello", bot.SendOptions{})
//	tg.Stop()
//
// # Thread Safety
//
// TelegramBot guards its state with a mutex. The message handler is called
// from the polling goroutine, one update at a time.
package bot

import (
	"errors"
	"time"
)

// ErrNotInitialized is returned when sending before Start succeeded.
var ErrNotInitialized = errors.New("telegram bot not initialized")

// Messenger is the chat transport consumed by the engine.
type Messenger interface {
	// Start connects and begins delivering inbound messages to messageHandler
	Start(messageHandler func(BotMessage)) error

	// Stop stops receiving updates and releases resources
	Stop() error

	// Name is the bot's display name, available after Start
	Name() string

	// SendText sends a text (or HTML when opts.HTML is set) message
	SendText(chatID int64, text string, opts SendOptions) error

	// SendPhoto sends an inline photo
	SendPhoto(chatID int64, photo File, opts SendOptions) error

	// SendDocument sends a file as a document
	SendDocument(chatID int64, doc File, opts SendOptions) error
}

// BotMessage is an inbound chat message
type BotMessage struct {
	Platform  string
	UserID    int64 // sender, used for authorization
	ChatID    int64 // where replies go
	MessageID int
	Username  string
	FirstName string
	LastName  string
	Text      string
	Command   string // command token without the leading slash or @botname, empty for plain text
	Timestamp time.Time
}

// File is an in-memory upload
type File struct {
	Name string
	Data []byte
}

// SendOptions tunes a single outbound message
type SendOptions struct {
	ReplyTo int           // message ID to thread the reply under, 0 for none
	Caption string        // media caption
	HTML    bool          // parse text as HTML
	Timeout time.Duration // per-request HTTP timeout, 0 for transport default
}
