// Package services – Delivery
//
// This file implements the delivery engine. It resolves an opaque content
// key against the store, sends single items (video or document) with their
// expiry warning, expands series records into paced, strictly ordered member
// deliveries, and hands every delivered unit to the deferred deletion
// scheduler.
//
// Failure policy: store and transport failures are converted to the
// service-level errors in errors.go at the point they occur, after the user
// has been messaged. Series member failures are logged and skipped so one
// broken episode never aborts the rest of the sequence.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/mkravets/contentgate/internal/chat"
	"github.com/mkravets/contentgate/internal/domain"
	"github.com/mkravets/contentgate/internal/repo"
)

// User-facing texts sent by the delivery engine.
const (
	msgNotFound    = "😔 This file does not exist or was removed."
	msgStoreDown   = "⚠️ Could not reach the file storage. Please try again in a bit."
	msgSeriesIntro = "📦 This is a series. Sending all parts, one by one…"
	msgSeriesDone  = "✅ All parts sent. Enjoy!"
)

// ContentStore defines the repository contract required by the delivery
// engine: single-record lookup by exact key.
type ContentStore interface {
	// GetContent fetches one record by key, returning repo.ErrNotFound
	// when absent and the raw DB error when the store misbehaves.
	GetContent(ctx context.Context, db *gorm.DB, key string) (*domain.Content, error)
}

// Messenger is the outbound transport contract required by the delivery
// engine.
type Messenger interface {
	// SendText sends a formatted text message, optionally with an inline
	// keyboard, and returns the new message id.
	SendText(ctx context.Context, chatID int64, text string, kb chat.Keyboard) (int, error)

	// SendVideo sends a stored video by its transport file handle.
	SendVideo(ctx context.Context, chatID int64, fileID, caption string) (int, error)

	// SendDocument sends a stored document by its transport file handle.
	SendDocument(ctx context.Context, chatID int64, fileID, caption string) (int, error)
}

// DeletionScheduler receives delivered message ids for time-delayed removal.
type DeletionScheduler interface {
	// Schedule arms deferred deletion of the given messages, remembering
	// the content key so the recovery prompt can offer a resend.
	Schedule(chatID int64, messageIDs []int, key string)
}

// Delivery coordinates content resolution, sending, series expansion, and
// the deletion handoff. Safe for concurrent use; each series expansion
// carries its own pacing limiter and visited-key set.
type Delivery struct {
	// DB is the GORM handle used for content resolution.
	DB *gorm.DB
	// Store is the content repository.
	Store ContentStore
	// Messenger sends outbound chat messages.
	Messenger Messenger
	// Scheduler receives delivered message ids for deferred deletion.
	Scheduler DeletionScheduler

	// DeleteDelay is how long delivered files live; quoted in the expiry
	// warning and used by the scheduler.
	DeleteDelay time.Duration
	// SeriesPace is the pause between successive series member deliveries.
	SeriesPace time.Duration
}

// NewDelivery constructs a Delivery engine.
func NewDelivery(db *gorm.DB, store ContentStore, m Messenger, s DeletionScheduler, deleteDelay, seriesPace time.Duration) *Delivery {
	return &Delivery{
		DB:          db,
		Store:       store,
		Messenger:   m,
		Scheduler:   s,
		DeleteDelay: deleteDelay,
		SeriesPace:  seriesPace,
	}
}

// Deliver resolves key and delivers the content to chatID. The user is
// informed about unresolvable keys and backend trouble directly; the
// returned error is taxonomy for the caller's logs, already handled from
// the user's point of view.
func (s *Delivery) Deliver(ctx context.Context, chatID int64, key string) error {
	return s.deliver(ctx, chatID, key, make(map[string]struct{}))
}

// deliver is the recursive single-key path. seen carries every key visited
// in the current top-level request so cyclic series fail closed instead of
// recursing forever.
func (s *Delivery) deliver(ctx context.Context, chatID int64, key string, seen map[string]struct{}) error {
	if _, dup := seen[key]; dup {
		log.Error().
			Str("key", key).
			Int64("chat_id", chatID).
			Msg("series cycle detected, abandoning branch")
		return ErrSeriesCycle
	}
	seen[key] = struct{}{}

	rec, err := s.Store.GetContent(ctx, s.DB, key)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		log.Warn().
			Str("key", key).
			Int64("chat_id", chatID).
			Msg("content key does not resolve")
		if _, serr := s.Messenger.SendText(ctx, chatID, msgNotFound, nil); serr != nil {
			log.Error().Err(serr).Int64("chat_id", chatID).Msg("failed to send not-found notice")
		}
		return fmt.Errorf("resolve %q: %w", key, ErrContentNotFound)
	case err != nil:
		log.Error().
			Err(err).
			Str("key", key).
			Int64("chat_id", chatID).
			Msg("content store lookup failed")
		if _, serr := s.Messenger.SendText(ctx, chatID, msgStoreDown, nil); serr != nil {
			log.Error().Err(serr).Int64("chat_id", chatID).Msg("failed to send store-trouble notice")
		}
		return fmt.Errorf("resolve %q: %w", key, ErrStoreUnavailable)
	}

	if rec.IsSeries() {
		return s.expand(ctx, chatID, rec, seen)
	}
	return s.deliverSingle(ctx, chatID, rec)
}

// deliverSingle sends one item, follows it with the expiry warning, and
// schedules both messages for deferred deletion under the item's key.
func (s *Delivery) deliverSingle(ctx context.Context, chatID int64, rec *domain.Content) error {
	var (
		msgID int
		err   error
	)
	switch rec.Kind {
	case domain.KindDocument:
		msgID, err = s.Messenger.SendDocument(ctx, chatID, rec.FileID, rec.Caption)
	default:
		// Unrecognized kinds take the video path.
		msgID, err = s.Messenger.SendVideo(ctx, chatID, rec.FileID, rec.Caption)
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("key", rec.Key).
			Str("kind", string(rec.Kind)).
			Int64("chat_id", chatID).
			Msg("content send failed")
		return fmt.Errorf("send %q: %w", rec.Key, ErrSendFailed)
	}

	ids := []int{msgID}
	warnID, err := s.Messenger.SendText(ctx, chatID, s.expiryWarning(), nil)
	if err != nil {
		// The content went out; still schedule its deletion.
		log.Warn().Err(err).Str("key", rec.Key).Int64("chat_id", chatID).Msg("failed to send expiry warning")
	} else {
		ids = append(ids, warnID)
	}

	s.Scheduler.Schedule(chatID, ids, rec.Key)
	deliveriesTotal.WithLabelValues(string(rec.Kind)).Inc()
	return nil
}

// expand delivers every member of a series in stored order, strictly
// sequentially, pausing SeriesPace between successive members. Member
// failures are logged and skipped. The wrapper itself schedules no
// deletion; each member manages its own.
func (s *Delivery) expand(ctx context.Context, chatID int64, rec *domain.Content, seen map[string]struct{}) error {
	if _, err := s.Messenger.SendText(ctx, chatID, msgSeriesIntro, nil); err != nil {
		log.Warn().Err(err).Str("key", rec.Key).Int64("chat_id", chatID).Msg("failed to send series intro")
	}

	// Bucket starts full, so the first member goes out immediately and
	// every later one waits out the pacing interval.
	pace := rate.NewLimiter(rate.Every(s.SeriesPace), 1)
	for _, part := range rec.Parts {
		if err := pace.Wait(ctx); err != nil {
			return err
		}
		if err := s.deliver(ctx, chatID, part, seen); err != nil {
			log.Warn().
				Err(err).
				Str("series", rec.Key).
				Str("member", part).
				Int64("chat_id", chatID).
				Msg("series member delivery failed, continuing")
		}
	}

	if _, err := s.Messenger.SendText(ctx, chatID, msgSeriesDone, nil); err != nil {
		log.Warn().Err(err).Str("key", rec.Key).Int64("chat_id", chatID).Msg("failed to send series completion")
	}
	seriesTotal.Inc()
	return nil
}

// expiryWarning renders the fixed removal warning with the configured delay.
func (s *Delivery) expiryWarning() string {
	if s.DeleteDelay >= time.Minute {
		return fmt.Sprintf("⚠️ This file will be deleted in %d minutes. Forward it somewhere safe!", int(s.DeleteDelay.Minutes()))
	}
	return fmt.Sprintf("⚠️ This file will be deleted in %d seconds. Forward it somewhere safe!", int(s.DeleteDelay.Seconds()))
}
