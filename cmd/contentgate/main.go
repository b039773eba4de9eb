// Command contentgate runs the gated content delivery bot: a long-polling
// chat frontend that hands out stored media once channel membership is
// verified, a deferred-deletion scheduler that expires delivered files, and
// a small ops HTTP server (keep-alive, health, status, metrics).
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/mkravets/contentgate/internal/bot"
	"github.com/mkravets/contentgate/internal/config"
	"github.com/mkravets/contentgate/internal/domain"
	httpapi "github.com/mkravets/contentgate/internal/http"
	"github.com/mkravets/contentgate/internal/observability"
	"github.com/mkravets/contentgate/internal/repo"
	"github.com/mkravets/contentgate/internal/sched"
	"github.com/mkravets/contentgate/internal/services"
	"github.com/mkravets/contentgate/internal/sysutil"
	"github.com/mkravets/contentgate/internal/transport/telegram"
)

const version = "1.0.0"

// contentStoreShim adapts the repo free functions to the ContentStore
// interface consumed by the delivery service.
type contentStoreShim struct{}

func (contentStoreShim) GetContent(ctx context.Context, db *gorm.DB, key string) (*domain.Content, error) {
	return repo.GetContent(ctx, db, key)
}

// userRegistryShim adapts repo.UpsertUser to the bot's UserRegistry.
type userRegistryShim struct{ db *gorm.DB }

func (s userRegistryShim) Register(ctx context.Context, id int64, lang string) (bool, error) {
	return repo.UpsertUser(ctx, s.db, id, lang)
}

func main() {
	// Optional .env for local development; ignore when absent.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database failed")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			log.Fatal().Err(err).Msg("attach db tracing failed")
		}
	}

	tg, err := telegram.New(cfg.BotToken, cfg.BotDebug)
	if err != nil {
		log.Fatal().Err(err).Msg("bot authorization failed")
	}

	scheduler := sched.New(tg, cfg.DeleteDelay)
	delivery := services.NewDelivery(db, contentStoreShim{}, tg, scheduler, cfg.DeleteDelay, cfg.SeriesPace)
	membership := services.NewMembership(tg, cfg.Channels)
	handler := bot.New(tg, membership, delivery, userRegistryShim{db: db}, cfg.Channels, cfg.AdminIDs)

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("ops server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ops server failed")
			stop()
		}
	}()

	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		tg.Run(ctx, handler)
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("ops server shutdown")
	}

	// The update loop ends once long polling is stopped by context cancel.
	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("update loop did not drain in time")
	}

	scheduler.Stop()

	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("bye")
}
