// Package telegram connects the notification relay to the Telegram Bot API.
//
// Bot implements notify.Transport for outbound messages and routes the
// commands and moderation buttons it receives to a Handler.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/notify"
)

// Handler is the application side of the bot
type Handler interface {
	RegisterContact(ctx context.Context, contact models.Contact) error
	PromoteContact(ctx context.Context, id int64) error
	HandleCallback(ctx context.Context, data string) (*dto.ModerationResult, error)
}

// PasswordChecker verifies the admin password sent with /admin
type PasswordChecker interface {
	CheckPassword(password string) bool
}

// Config holds the bot settings
type Config struct {
	Token       string
	URL         string
	PollTimeout time.Duration
	WebAppURL   string

	// Offline skips the getMe round trip, used by tests
	Offline bool
	// Synchronous runs handlers on the polling goroutine
	Synchronous bool
}

// Bot wraps a telebot instance
type Bot struct {
	bot       *tele.Bot
	webAppURL string
	logger    zerolog.Logger
	timeout   time.Duration
}

var _ notify.Transport = (*Bot)(nil)

// NewBot creates a bot. Call Register before Start.
func NewBot(cfg Config, logger zerolog.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 10 * time.Second
	}

	b := &Bot{
		webAppURL: cfg.WebAppURL,
		logger:    logger,
		timeout:   30 * time.Second,
	}

	bot, err := tele.NewBot(tele.Settings{
		URL:         cfg.URL,
		Token:       cfg.Token,
		Poller:      &tele.LongPoller{Timeout: cfg.PollTimeout},
		Offline:     cfg.Offline,
		Synchronous: cfg.Synchronous,
		OnError: func(err error, c tele.Context) {
			event := logger.Error().Err(err)
			if c != nil && c.Sender() != nil {
				event = event.Int64("chatID", c.Sender().ID)
			}
			event.Msg("Telegram handler failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	b.bot = bot
	return b, nil
}

// Register installs the command and callback handlers
func (b *Bot) Register(handler Handler, passwords PasswordChecker) {
	b.bot.Handle("/start", b.handleStart(handler))
	b.bot.Handle("/admin", b.handleAdmin(handler, passwords))
	b.bot.Handle(tele.OnCallback, b.handleCallback(handler))
}

// Start polls for updates until Stop is called
func (b *Bot) Start() {
	b.logger.Info().Str("username", b.bot.Me.Username).Msg("Telegram bot polling started")
	b.bot.Start()
}

// Stop ends polling
func (b *Bot) Stop() {
	b.bot.Stop()
	b.logger.Info().Msg("Telegram bot stopped")
}

// ProcessUpdate feeds a single update through the handlers
func (b *Bot) ProcessUpdate(u tele.Update) {
	b.bot.ProcessUpdate(u)
}

// SendText sends a plain message
func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.bot.Send(tele.ChatID(chatID), text)
	return translateError(err)
}

// SendTextWithActions sends a message with inline buttons
func (b *Bot) SendTextWithActions(ctx context.Context, chatID int64, text string, actions []notify.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.bot.Send(tele.ChatID(chatID), text, actionMarkup(actions))
	return translateError(err)
}

// SendPhoto uploads a local image with a caption and inline buttons
func (b *Bot) SendPhoto(ctx context.Context, chatID int64, path, caption string, actions []notify.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := &tele.Photo{File: tele.FromDisk(path), Caption: caption}
	_, err := b.bot.Send(tele.ChatID(chatID), photo, actionMarkup(actions))
	return translateError(err)
}

func (b *Bot) handleStart(handler Handler) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		if err := handler.RegisterContact(ctx, contactFromUser(sender)); err != nil {
			b.logger.Error().Err(err).Int64("chatID", sender.ID).Msg("Failed to register contact")
		}

		text := "👋 Welcome to Campus Hub! You will receive announcements here."
		if b.webAppURL == "" {
			return c.Send(text)
		}
		markup := &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{{
			{Text: "🎓 Open Campus Hub", WebApp: &tele.WebApp{URL: b.webAppURL}},
		}}}
		return c.Send(text, markup)
	}
}

func (b *Bot) handleAdmin(handler Handler, passwords PasswordChecker) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		args := c.Args()
		if len(args) != 1 {
			return c.Send("Usage: /admin <password>")
		}
		// the password should not stay in the chat history
		if err := c.Delete(); err != nil {
			b.logger.Debug().Err(err).Msg("Could not delete /admin message")
		}

		if passwords == nil || !passwords.CheckPassword(args[0]) {
			b.logger.Warn().Int64("chatID", sender.ID).Msg("Rejected /admin attempt")
			return c.Send("⛔ Wrong password")
		}

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		if err := handler.RegisterContact(ctx, contactFromUser(sender)); err != nil {
			b.logger.Error().Err(err).Int64("chatID", sender.ID).Msg("Failed to register contact")
		}
		if err := handler.PromoteContact(ctx, sender.ID); err != nil {
			return c.Send("Could not enable moderation: " + err.Error())
		}
		return c.Send("✅ You will now receive moderation requests")
	}
}

func (b *Bot) handleCallback(handler Handler) tele.HandlerFunc {
	return func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		result, err := handler.HandleCallback(ctx, cb.Data)
		if err != nil {
			b.logger.Warn().Err(err).Str("data", cb.Data).Msg("Moderation callback failed")
			return c.Respond(&tele.CallbackResponse{Text: callbackErrorText(err), ShowAlert: true})
		}

		b.logger.Info().
			Str("type", string(result.Type)).
			Str("id", result.ID).
			Str("status", string(result.Status)).
			Int64("moderator", cb.Sender.ID).
			Msg("Moderation decision via Telegram")

		status := statusLine(result)
		if err := c.Respond(&tele.CallbackResponse{Text: status}); err != nil {
			b.logger.Debug().Err(err).Msg("Could not answer callback")
		}
		return b.markDecided(c, cb, status)
	}
}

// markDecided replaces the buttons of a moderation message with the outcome
func (b *Bot) markDecided(c tele.Context, cb *tele.Callback, status string) error {
	msg := cb.Message
	if msg == nil {
		return nil
	}

	var err error
	if msg.Photo != nil {
		err = c.EditCaption(appendStatus(msg.Caption, status))
	} else {
		err = c.Edit(appendStatus(msg.Text, status))
	}
	if err != nil && errors.Is(err, tele.ErrSameMessageContent) {
		return nil
	}
	return err
}

func appendStatus(text, status string) string {
	if text == "" {
		return status
	}
	return text + "\n\n" + status
}

func statusLine(result *dto.ModerationResult) string {
	switch {
	case !result.Changed:
		return "ℹ️ Already " + string(result.Status)
	case result.Status == models.StatusApproved:
		return "✅ Approved"
	default:
		return "❌ Rejected"
	}
}

func callbackErrorText(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrResourceNotFound):
		return "This item no longer exists"
	case apperrors.Is(err, apperrors.ErrAlreadyModerated):
		return "This item was already moderated"
	}
	return "Moderation failed"
}

func contactFromUser(u *tele.User) models.Contact {
	return models.Contact{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

func actionMarkup(actions []notify.Action) *tele.ReplyMarkup {
	if len(actions) == 0 {
		return nil
	}
	row := make([]tele.InlineButton, 0, len(actions))
	for _, a := range actions {
		row = append(row, tele.InlineButton{Text: a.Label, Data: a.Data})
	}
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{row}}
}

// translateError maps the errors meaning the chat is unreachable for good
func translateError(err error) error {
	if err == nil {
		return nil
	}
	for _, gone := range []error{
		tele.ErrBlockedByUser,
		tele.ErrUserIsDeactivated,
		tele.ErrChatNotFound,
		tele.ErrNotStartedByUser,
		tele.ErrKickedFromGroup,
	} {
		if errors.Is(err, gone) {
			return fmt.Errorf("%w: %s", notify.ErrRecipientGone, strings.TrimSpace(err.Error()))
		}
	}
	return err
}
