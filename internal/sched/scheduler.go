// Package sched implements time-delayed, one-shot deletion of delivered
// messages. Every delivered unit registers a self-contained job (chat id,
// message ids, originating content key); when the job fires it deletes the
// messages in order and posts a recovery prompt whose buttons embed the key,
// so the content stays one tap away after removal.
//
// Jobs never share mutable state with each other. Many may fire
// concurrently with ongoing event processing; per-message deletion failures
// (already deleted, missing permission) are logged and skipped. There is no
// early-cancel path for a registered job; a deletion that finds nothing to
// delete is a no-op.
package sched

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/mkravets/contentgate/internal/chat"
)

// User-facing recovery prompt posted after deletion.
const msgExpired = "⌛ This file expired and was removed. Tap Resend to get it again."

// jobTimeout bounds the transport calls of a single firing job.
const jobTimeout = time.Minute

var deletionsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "contentgate_deferred_deletions_total",
		Help: "Total number of fired deferred-deletion jobs.",
	},
)

func init() {
	prometheus.MustRegister(deletionsTotal)
}

// Transport is the outbound contract required by deletion jobs.
type Transport interface {
	// DeleteMessage removes one message from a chat.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// SendText sends a formatted text message, optionally with an inline
	// keyboard, and returns the new message id.
	SendText(ctx context.Context, chatID int64, text string, kb chat.Keyboard) (int, error)
}

// Scheduler arms one-shot timers for deferred deletions. Safe for
// concurrent use. Stop cancels pending timers and waits for in-flight jobs.
type Scheduler struct {
	tr    Transport
	delay time.Duration

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*time.Timer
	stopped bool

	wg sync.WaitGroup
}

// New constructs a Scheduler that fires each job after delay.
func New(tr Transport, delay time.Duration) *Scheduler {
	return &Scheduler{
		tr:      tr,
		delay:   delay,
		pending: make(map[uint64]*time.Timer),
	}
}

// Schedule arms deferred deletion of the given messages. The ids are
// deleted in the order given; key is embedded into the recovery prompt's
// resend button. Calls after Stop are dropped.
func (s *Scheduler) Schedule(chatID int64, messageIDs []int, key string) {
	ids := make([]int, len(messageIDs))
	copy(ids, messageIDs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		log.Warn().Str("key", key).Msg("scheduler stopped, dropping deletion job")
		return
	}
	s.nextID++
	id := s.nextID
	s.wg.Add(1)
	s.pending[id] = time.AfterFunc(s.delay, func() {
		defer s.wg.Done()
		s.forget(id)
		s.fire(chatID, ids, key)
	})
}

// forget drops a fired job's timer handle.
func (s *Scheduler) forget(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

// fire deletes the scheduled messages in order and posts the recovery
// prompt. Individual deletion failures are logged and do not abort the
// remaining deletions.
func (s *Scheduler) fire(chatID int64, messageIDs []int, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	for _, msgID := range messageIDs {
		if err := s.tr.DeleteMessage(ctx, chatID, msgID); err != nil {
			log.Warn().
				Err(err).
				Int64("chat_id", chatID).
				Int("message_id", msgID).
				Str("key", key).
				Msg("deferred deletion failed for message, continuing")
		}
	}

	kb := chat.Keyboard{{
		chat.DataButton("📥 Resend", chat.Payload(chat.ActionResend, key)),
		chat.DataButton("❌ Close", chat.Payload(chat.ActionClose, "")),
	}}
	if _, err := s.tr.SendText(ctx, chatID, msgExpired, kb); err != nil {
		log.Error().
			Err(err).
			Int64("chat_id", chatID).
			Str("key", key).
			Msg("failed to post recovery prompt")
	}
	deletionsTotal.Inc()
}

// Stop cancels pending timers and waits for jobs already firing. Timers
// that were stopped before firing are deliberately dropped, not executed
// early: their deletions would be premature.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, t := range s.pending {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}
