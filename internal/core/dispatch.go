package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/keepmind9/camerabot/internal/bot"
	"github.com/keepmind9/camerabot/internal/logger"
	"github.com/keepmind9/camerabot/pkg/constants"
	"github.com/sirupsen/logrus"
)

// camPhoto is a snapshot ready to be sent in answer to a command
type camPhoto struct {
	data      []byte
	caption   string
	replyText string
	fileName  string
	full      bool // send as a named document instead of an inline photo
}

// sendCamPhoto sends the acknowledgment text, then the picture as a reply
// to the triggering message
func (e *Engine) sendCamPhoto(req *Request, p camPhoto) error {
	if err := e.reply(req, p.replyText); err != nil {
		return err
	}

	file := bot.File{Name: p.fileName, Data: p.data}
	opts := bot.SendOptions{ReplyTo: req.Msg.MessageID, Caption: p.caption}

	if p.full {
		return e.messenger.SendDocument(req.Msg.ChatID, file, opts)
	}
	return e.messenger.SendPhoto(req.Msg.ChatID, file, opts)
}

// Broadcast sends a document to every allowed user with a long upload
// timeout. Failures for one user do not stop delivery to the others.
func (e *Engine) Broadcast(ctx context.Context, file bot.File, caption string) error {
	doc := bot.File{Name: filepath.Base(file.Name), Data: file.Data}
	opts := bot.SendOptions{Caption: caption, Timeout: constants.BroadcastUploadTimeout}

	var errs []error
	for _, uid := range e.allowedOrder {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := e.messenger.SendDocument(uid, doc, opts); err != nil {
			logger.WithFields(logrus.Fields{
				"user_id":   uid,
				"file_name": doc.Name,
				"error":     err,
			}).Error("failed-to-broadcast-document")
			errs = append(errs, fmt.Errorf("user %d: %w", uid, err))
			continue
		}
		logger.WithFields(logrus.Fields{
			"user_id":   uid,
			"file_name": doc.Name,
		}).Info("document-broadcast")
	}

	return errors.Join(errs...)
}

// SendStartupMessage greets every allowed user
func (e *Engine) SendStartupMessage() error {
	logger.Info("sending-welcome-message")

	text := fmt.Sprintf("%s bot started, see /help for available commands", e.messenger.Name())
	var errs []error
	for _, uid := range e.allowedOrder {
		if err := e.messenger.SendText(uid, text, bot.SendOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", uid, err))
		}
	}
	return errors.Join(errs...)
}

// reply sends plain text to the chat the request came from
func (e *Engine) reply(req *Request, text string) error {
	return e.messenger.SendText(req.Msg.ChatID, text, bot.SendOptions{})
}

// replyHTML sends HTML-formatted text to the chat the request came from
func (e *Engine) replyHTML(req *Request, text string) error {
	return e.messenger.SendText(req.Msg.ChatID, text, bot.SendOptions{HTML: true})
}
