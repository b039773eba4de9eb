// Package telegram adapts the Bot API client to the narrow transport
// interfaces the rest of the engine consumes. All outbound traffic
// (messages, deletions, callback acks, membership lookups) and the
// long-polling update loop live here; nothing outside this package
// imports the Bot API types.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/mkravets/contentgate/internal/bot"
	"github.com/mkravets/contentgate/internal/chat"
)

const (
	cmdStart = "start"
	cmdID    = "id"

	pollTimeoutSeconds = 30
)

// Client wraps an authorized Bot API session. It satisfies the messenger,
// deletion, callback, and chat-member interfaces declared by its consumers.
type Client struct {
	api *tgbotapi.BotAPI
}

// New authorizes against the Bot API with the given token.
func New(token string, debug bool) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}
	api.Debug = debug
	log.Info().Str("username", api.Self.UserName).Msg("bot authorized")
	return &Client{api: api}, nil
}

// SendText sends a text message, optionally with an inline keyboard, and
// returns the new message id.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, kb chat.Keyboard) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if len(kb) > 0 {
		msg.ReplyMarkup = toMarkup(kb)
	}
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send text: %w", err)
	}
	return sent.MessageID, nil
}

// SendVideo sends a previously uploaded video by its file handle.
func (c *Client) SendVideo(ctx context.Context, chatID int64, fileID, caption string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewVideo(chatID, tgbotapi.FileID(fileID))
	msg.Caption = caption
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send video: %w", err)
	}
	return sent.MessageID, nil
}

// SendDocument sends a previously uploaded document by its file handle.
func (c *Client) SendDocument(ctx context.Context, chatID int64, fileID, caption string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileID(fileID))
	msg.Caption = caption
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send document: %w", err)
	}
	return sent.MessageID, nil
}

// DeleteMessage removes one message from a chat.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a button press. With alert set the text is
// shown as a popup instead of a toast.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cb := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cb = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if _, err := c.api.Request(cb); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// ChatMember returns the raw membership status string of a user in a chat.
// The chat may be referenced by @username or by numeric id.
func (c *Client) ChatMember(ctx context.Context, chatID string, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: chatRef(chatID, userID),
	}
	member, err := c.api.GetChatMember(cfg)
	if err != nil {
		return "", fmt.Errorf("get chat member: %w", err)
	}
	return member.Status, nil
}

// Run consumes long-polling updates and dispatches them to the handler
// until the context is canceled. It returns only after the update channel
// is drained.
func (c *Client) Run(ctx context.Context, h *bot.Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := c.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		c.api.StopReceivingUpdates()
	}()

	log.Info().Msg("update loop started")
	for update := range updates {
		c.dispatch(ctx, h, update)
	}
	log.Info().Msg("update loop stopped")
}

// dispatch routes one update. A panic in a handler is contained so a
// single malformed update cannot take down the loop.
func (c *Client) dispatch(ctx context.Context, h *bot.Handler, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int("update_id", update.UpdateID).Msg("recovered from handler panic")
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		ev := bot.Callback{
			ID:     cb.ID,
			UserID: cb.From.ID,
			Data:   cb.Data,
		}
		if cb.Message != nil {
			ev.ChatID = cb.Message.Chat.ID
			ev.MessageID = cb.Message.MessageID
		}
		h.HandleCallback(ctx, ev)

	case update.Message != nil && update.Message.IsCommand():
		msg := update.Message
		if msg.From == nil {
			return
		}
		switch msg.Command() {
		case cmdStart:
			h.HandleStart(ctx, msg.From.ID, msg.Chat.ID, msg.From.FirstName, msg.From.LanguageCode, msg.CommandArguments())
		case cmdID:
			var reply *bot.ReplyInfo
			if r := msg.ReplyToMessage; r != nil && r.From != nil {
				reply = &bot.ReplyInfo{UserID: r.From.ID, ChatID: r.Chat.ID}
			}
			h.HandleID(ctx, msg.From.ID, msg.Chat.ID, reply)
		default:
			log.Debug().Str("command", msg.Command()).Int64("user_id", msg.From.ID).Msg("ignored command")
		}
	}
}

// toMarkup converts the transport-neutral keyboard to Bot API markup.
func toMarkup(kb chat.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		rows = append(rows, btns)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// chatRef builds a chat-plus-user reference from either an @username or a
// numeric chat id.
func chatRef(chatID string, userID int64) tgbotapi.ChatConfigWithUser {
	ref := tgbotapi.ChatConfigWithUser{UserID: userID}
	if n, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		ref.ChatID = n
	} else {
		ref.SuperGroupUsername = chatID
	}
	return ref
}
