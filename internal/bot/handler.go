// Package bot implements the interaction controller: the mapping from
// user-visible actions (the /start entry command, the Joined/Resend/Close
// callback buttons, the admin /id diagnostic) onto the membership verifier
// and the delivery engine.
//
// Each interaction is stateless except for the per-user pending-delivery
// lookup used by the Joined path. Handler methods catch and log their own
// transport failures so that one bad event can never take down processing
// of subsequent, unrelated events.
package bot

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/mkravets/contentgate/internal/chat"
	"github.com/mkravets/contentgate/internal/config"
	"github.com/mkravets/contentgate/internal/domain"
)

// User-facing texts sent by the interaction controller.
const (
	msgWelcomeNew  = "👋 Welcome, %s! You're all set. Open a file link to get started."
	msgWelcomeBack = "👋 Welcome back, %s!"
	msgStoreError  = "Sorry, there was an error connecting to the database."
	msgGatePrompt  = "🔒 To get this file, join the channels below, then tap ✅ Joined."
	msgStaleLink   = "Please open the original file link again."
	msgNotJoined   = "❗ You haven't joined all the required channels yet."
	msgReplyNeeded = "Please reply to a message."
)

var gatePromptsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "contentgate_gate_prompts_total",
		Help: "Total number of join-gate prompts shown.",
	},
)

func init() {
	prometheus.MustRegister(gatePromptsTotal)
}

// Transport is the outbound contract required by the interaction controller.
type Transport interface {
	// SendText sends a formatted text message, optionally with an inline
	// keyboard, and returns the new message id.
	SendText(ctx context.Context, chatID int64, text string, kb chat.Keyboard) (int, error)

	// DeleteMessage removes one message from a chat.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// AnswerCallback acknowledges a button press, optionally with a text
	// shown as a toast or, when alert is set, a blocking popup.
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}

// MembershipChecker verifies the configured channel requirements.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64) bool
}

// Deliverer delivers resolved content to a chat.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, key string) error
}

// UserRegistry creates user records on first contact.
type UserRegistry interface {
	// Register upserts the user and reports whether a record was created.
	Register(ctx context.Context, id int64, lang string) (created bool, err error)
}

// Callback is one inline-button press as the transport reports it.
type Callback struct {
	ID        string // transport callback id, must be answered
	UserID    int64  // who pressed the button
	ChatID    int64  // chat carrying the button message
	MessageID int    // the button message itself
	Data      string // opaque payload (see chat.Payload)
}

// ReplyInfo identifies the message an admin command replied to.
type ReplyInfo struct {
	UserID int64
	ChatID int64
}

// Handler is the interaction controller. Safe for concurrent use.
type Handler struct {
	tr       Transport
	members  MembershipChecker
	delivery Deliverer
	users    UserRegistry

	channels []config.ChannelRequirement
	admins   map[int64]struct{}
	pending  *pendingStore
}

// New constructs a Handler over the given collaborators. channels and
// adminIDs come from startup configuration and are treated as immutable.
func New(tr Transport, members MembershipChecker, delivery Deliverer, users UserRegistry, channels []config.ChannelRequirement, adminIDs []int64) *Handler {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Handler{
		tr:       tr,
		members:  members,
		delivery: delivery,
		users:    users,
		channels: channels,
		admins:   admins,
		pending:  newPendingStore(),
	}
}

// HandleStart processes the /start entry command. With no argument it
// registers the user and sends a welcome; with a content-key argument it
// records the pending delivery, checks membership, and either delivers or
// presents the gate prompt.
func (h *Handler) HandleStart(ctx context.Context, userID, chatID int64, firstName, langCode, arg string) {
	created, err := h.users.Register(ctx, userID, domain.NormalizeLanguage(langCode))
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("user registration failed")
		h.send(ctx, chatID, msgStoreError, nil)
		return
	}
	if created {
		log.Info().Int64("user_id", userID).Msg("new user registered")
	}

	if arg == "" {
		if created {
			h.send(ctx, chatID, fmt.Sprintf(msgWelcomeNew, firstName), nil)
		} else {
			h.send(ctx, chatID, fmt.Sprintf(msgWelcomeBack, firstName), nil)
		}
		return
	}

	h.pending.put(userID, arg)

	if h.members.IsMember(ctx, userID) {
		h.deliver(ctx, chatID, arg)
		return
	}
	h.sendGatePrompt(ctx, chatID, arg)
}

// HandleCallback dispatches one button press by its payload action.
func (h *Handler) HandleCallback(ctx context.Context, cb Callback) {
	action, key := chat.ParsePayload(cb.Data)
	switch action {
	case chat.ActionJoined:
		h.handleJoined(ctx, cb)
	case chat.ActionResend:
		h.handleResend(ctx, cb, key)
	case chat.ActionClose:
		h.handleClose(ctx, cb)
	default:
		log.Warn().Str("data", cb.Data).Int64("user_id", cb.UserID).Msg("unknown callback payload")
		h.answer(ctx, cb.ID, "", false)
	}
}

// handleJoined re-checks membership after the user claims to have joined.
// The content key is recovered from the pending-delivery entry, not the
// payload, so a stale button from an earlier session cannot replay an old
// request; an absent entry is answered with a retry alert.
func (h *Handler) handleJoined(ctx context.Context, cb Callback) {
	key, ok := h.pending.get(cb.UserID)
	if !ok {
		h.answer(ctx, cb.ID, msgStaleLink, true)
		return
	}
	if !h.members.IsMember(ctx, cb.UserID) {
		h.answer(ctx, cb.ID, msgNotJoined, true)
		return
	}

	h.answer(ctx, cb.ID, "", false)
	h.pending.clear(cb.UserID)
	if err := h.tr.DeleteMessage(ctx, cb.ChatID, cb.MessageID); err != nil {
		log.Warn().Err(err).Int64("chat_id", cb.ChatID).Int("message_id", cb.MessageID).Msg("failed to delete gate prompt")
	}
	h.deliver(ctx, cb.ChatID, key)
}

// handleResend re-delivers the key embedded in the payload itself. The
// payload is authoritative here: the resend button keeps working even after
// the pending entry was overwritten by a later request.
func (h *Handler) handleResend(ctx context.Context, cb Callback, key string) {
	if key == "" {
		h.answer(ctx, cb.ID, msgStaleLink, true)
		return
	}
	h.answer(ctx, cb.ID, "", false)
	if err := h.tr.DeleteMessage(ctx, cb.ChatID, cb.MessageID); err != nil {
		log.Warn().Err(err).Int64("chat_id", cb.ChatID).Int("message_id", cb.MessageID).Msg("failed to delete expiry notice")
	}
	h.deliver(ctx, cb.ChatID, key)
}

// handleClose deletes the message carrying the button; nothing else.
func (h *Handler) handleClose(ctx context.Context, cb Callback) {
	h.answer(ctx, cb.ID, "", false)
	if err := h.tr.DeleteMessage(ctx, cb.ChatID, cb.MessageID); err != nil {
		log.Warn().Err(err).Int64("chat_id", cb.ChatID).Int("message_id", cb.MessageID).Msg("failed to delete closed message")
	}
}

// HandleID answers the admin-only /id diagnostic: replies with the
// replied-to message's author and chat ids. Non-admin invocations are
// silently ignored; admin traffic is never gated.
func (h *Handler) HandleID(ctx context.Context, userID, chatID int64, reply *ReplyInfo) {
	if _, ok := h.admins[userID]; !ok {
		return
	}
	if reply == nil {
		h.send(ctx, chatID, msgReplyNeeded, nil)
		return
	}
	h.send(ctx, chatID, fmt.Sprintf("User ID: %d\nChat ID: %d", reply.UserID, reply.ChatID), nil)
}

// sendGatePrompt shows the join-gate: one link button per required channel
// plus the Joined confirmation button parameterized with the pending key.
func (h *Handler) sendGatePrompt(ctx context.Context, chatID int64, key string) {
	kb := make(chat.Keyboard, 0, len(h.channels)+1)
	for _, ch := range h.channels {
		kb = append(kb, []chat.Button{chat.URLButton("📢 "+ch.Name, ch.InviteURL)})
	}
	kb = append(kb, []chat.Button{chat.DataButton("✅ Joined", chat.Payload(chat.ActionJoined, key))})

	h.send(ctx, chatID, msgGatePrompt, kb)
	gatePromptsTotal.Inc()
}

// deliver invokes the delivery engine; its errors are already handled from
// the user's point of view and only logged here.
func (h *Handler) deliver(ctx context.Context, chatID int64, key string) {
	if err := h.delivery.Deliver(ctx, chatID, key); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Str("key", key).Msg("delivery ended with error")
	}
}

func (h *Handler) send(ctx context.Context, chatID int64, text string, kb chat.Keyboard) {
	if _, err := h.tr.SendText(ctx, chatID, text, kb); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

func (h *Handler) answer(ctx context.Context, callbackID, text string, alert bool) {
	if err := h.tr.AnswerCallback(ctx, callbackID, text, alert); err != nil {
		log.Warn().Err(err).Str("callback_id", callbackID).Msg("failed to answer callback")
	}
}
