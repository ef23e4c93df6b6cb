// Package telegram provides the Telegram transport for Selene: a
// long-polling update loop, the mapping from Telegram updates onto pipeline
// events, and outgoing reply delivery.
//
// Updates are delivered to the handler serially, in the order Telegram
// returns them — the pipeline relies on this single-consumer delivery for
// its per-user ordering guarantee.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mymmrac/telego"

	"github.com/bdobrica/selene/common/retry"
	"github.com/bdobrica/selene/internal/selene/pipeline"
)

// Config holds Telegram client configuration
type Config struct {
	// Token is the bot token from @BotFather.
	Token string
	// PollTimeout is the long-poll wait passed to getUpdates.
	// Defaults to 30 s.
	PollTimeout time.Duration
	// StartMessage is the fixed reply to the /start command.
	StartMessage string
	// HelpMessage is the fixed reply to the /help command.
	HelpMessage string
}

// Handler processes one mapped incoming event.
type Handler func(ctx context.Context, ev pipeline.Event)

// Client wraps the Telegram bot API client
type Client struct {
	bot    *telego.Bot
	config Config
	self   *telego.User
	stopCh chan struct{}
}

// New creates a new Telegram client. No network calls are made until
// Connect.
func New(config Config) (*Client, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("telegram: bot token is required")
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = 30 * time.Second
	}

	bot, err := telego.NewBot(config.Token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to create bot client: %w", err)
	}

	return &Client{
		bot:    bot,
		config: config,
		stopCh: make(chan struct{}),
	}, nil
}

// Connect fetches the bot's own identity. It must be called before Start so
// that reply-to-bot detection and mention matching know who the bot is.
func (c *Client) Connect(ctx context.Context) error {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram: getMe failed: %w", err)
	}
	c.self = me
	slog.Info("telegram: connected", "bot_id", me.ID, "bot_username", me.Username)
	return nil
}

// Handle returns the bot's username without the leading "@". Valid after
// Connect.
func (c *Client) Handle() string {
	if c.self == nil {
		return ""
	}
	return c.self.Username
}

// Start begins the long-polling loop in a background goroutine. Transient
// getUpdates failures are retried with exponential backoff; a long outage
// keeps the loop alive rather than killing the bot.
func (c *Client) Start(ctx context.Context, handler Handler) {
	go c.pollLoop(ctx, handler)
}

// Stop stops the polling loop.
func (c *Client) Stop() {
	close(c.stopCh)
}

func (c *Client) pollLoop(ctx context.Context, handler Handler) {
	var offset int
	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		var updates []telego.Update
		err := retry.Do(ctx, retry.Config{
			MaxAttempts:  5,
			InitialDelay: 2 * time.Second,
			MaxDelay:     5 * time.Minute,
		}, func() error {
			var getErr error
			updates, getErr = c.bot.GetUpdates(ctx, &telego.GetUpdatesParams{
				Offset:         offset,
				Timeout:        int(c.config.PollTimeout.Seconds()),
				AllowedUpdates: []string{"message"},
			})
			return getErr
		})
		if err != nil {
			// Retries exhausted; log and go around again unless stopping.
			select {
			case <-c.stopCh:
				return
			case <-ctx.Done():
				return
			default:
			}
			slog.Error("telegram: getUpdates failed after retries", "err", err)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			c.dispatch(ctx, update, handler)
		}
	}
}

// dispatch answers bot commands itself and maps everything else onto a
// pipeline event for the handler.
func (c *Client) dispatch(ctx context.Context, update telego.Update, handler Handler) {
	msg := update.Message
	if msg == nil {
		return
	}

	if strings.HasPrefix(msg.Text, "/") {
		c.handleCommand(ctx, msg)
		return
	}

	ev, ok := c.eventFromMessage(update.UpdateID, msg)
	if !ok {
		return
	}
	handler(ctx, ev)
}

// commandName extracts the bare command from a message text, stripping
// arguments and the "@botname" suffix Telegram appends in groups.
func commandName(text string) string {
	if i := strings.IndexAny(text, " @"); i > 0 {
		return text[:i]
	}
	return text
}

// handleCommand answers /start and /help; other commands are ignored.
func (c *Client) handleCommand(ctx context.Context, msg *telego.Message) {
	command := commandName(msg.Text)

	var reply string
	switch command {
	case "/start":
		reply = c.config.StartMessage
	case "/help":
		reply = c.config.HelpMessage
	default:
		return
	}
	if reply == "" {
		return
	}

	if err := c.SendReply(ctx, msg.Chat.ID, reply, 0); err != nil {
		slog.Error("telegram: failed to answer command", "command", command, "err", err)
	}
}

// eventFromMessage maps a Telegram message onto a pipeline event. Messages
// from channels or without a sender are not mapped.
func (c *Client) eventFromMessage(updateID int, msg *telego.Message) (pipeline.Event, bool) {
	if msg.From == nil {
		return pipeline.Event{}, false
	}

	var chatType string
	switch msg.Chat.Type {
	case telego.ChatTypePrivate:
		chatType = pipeline.ChatTypePrivate
	case telego.ChatTypeGroup, telego.ChatTypeSupergroup:
		chatType = pipeline.ChatTypeGroup
	default:
		return pipeline.Event{}, false
	}

	ev := pipeline.Event{
		UpdateID:  int64(updateID),
		MessageID: int64(msg.MessageID),
		ChatID:    msg.Chat.ID,
		ChatType:  chatType,
		Sender: pipeline.Sender{
			ID:          msg.From.ID,
			DisplayName: msg.From.FirstName,
			Handle:      msg.From.Username,
		},
		Text: msg.Text,
	}

	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		from := msg.ReplyToMessage.From
		ev.ReplyTo = &pipeline.Sender{
			ID:          from.ID,
			DisplayName: from.FirstName,
			Handle:      from.Username,
		}
		ev.ReplyToBot = c.self != nil && from.ID == c.self.ID
	}

	return ev, true
}

// SendReply sends text to a chat, optionally as a reply to a specific
// message. A zero replyToMessageID sends a plain message.
func (c *Client) SendReply(ctx context.Context, chatID int64, text string, replyToMessageID int64) error {
	params := &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	}
	if replyToMessageID != 0 {
		params.ReplyParameters = &telego.ReplyParameters{
			MessageID: int(replyToMessageID),
		}
	}

	if _, err := c.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	return nil
}
