// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes bot credentials,
// the channel-requirement gate, delivery timing, store settings, the ops
// HTTP server, logging, rate limiting, and observability.
//
// The channel-requirement list and admin set are read once at startup and
// treated as immutable for the lifetime of the process. A malformed gate
// configuration is a startup failure, never a degraded run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ChannelRequirement is one channel a user must have joined before gated
// content is delivered.
type ChannelRequirement struct {
	// ChatID is the channel identifier as the transport understands it:
	// either a public "@handle" or a numeric "-100…" id.
	ChatID string
	// Name is the human-readable label shown on the join button.
	Name string
	// InviteURL is the link the join button opens.
	InviteURL string
}

// CORSConfig defines Cross-Origin Resource Sharing settings for the ops server.
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "contentgate")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Bot
	BotToken string // TELEGRAM_BOT_TOKEN (required)
	BotDebug bool   // BOT_DEBUG enables transport request logging

	// Gate
	AdminIDs []int64              // ADMIN_IDS, comma-separated numeric ids
	Channels []ChannelRequirement // REQUIRED_CHANNELS, "chat|name|invite" CSV

	// Delivery timing
	DeleteDelay time.Duration // DELETE_DELAY, how long delivered files live
	SeriesPace  time.Duration // SERIES_PACE, pause between series parts

	// Ops HTTP server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// App
	DBPath string // SQLite path

	// Rate limiting (ops server)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS CORSConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	channels, err := parseChannels(getenv("REQUIRED_CHANNELS", ""))
	if err != nil {
		return Config{}, err
	}
	admins, err := parseIDs(getenv("ADMIN_IDS", ""))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		// Bot
		BotToken: getenv("TELEGRAM_BOT_TOKEN", ""),
		BotDebug: getbool("BOT_DEBUG", false),

		// Gate
		AdminIDs: admins,
		Channels: channels,

		// Delivery timing
		DeleteDelay: getdur("DELETE_DELAY", 900*time.Second),
		SeriesPace:  getdur("SERIES_PACE", 2*time.Second),

		// Ops HTTP server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// App
		DBPath: getenv("DB_PATH", "contentgate.db"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "contentgate"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	if strings.TrimSpace(cfg.BotToken) == "" {
		return cfg, errors.New("TELEGRAM_BOT_TOKEN must not be empty")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.DeleteDelay <= 0 {
		return cfg, errors.New("DELETE_DELAY must be > 0")
	}
	if cfg.SeriesPace <= 0 {
		return cfg, errors.New("SERIES_PACE must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// IsAdmin reports whether id is in the configured admin set.
func (c Config) IsAdmin(id int64) bool {
	for _, a := range c.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}

// parseChannels parses REQUIRED_CHANNELS entries of the form
// "chat|name|invite" separated by commas. An empty value disables gating.
// A malformed entry is a configuration error; the process must not start
// with a partially understood gate.
func parseChannels(s string) ([]ChannelRequirement, error) {
	var out []ChannelRequirement
	for _, entry := range splitCSV(s) {
		parts := strings.Split(entry, "|")
		if len(parts) != 3 {
			return nil, fmt.Errorf("REQUIRED_CHANNELS entry %q must be chat|name|invite", entry)
		}
		req := ChannelRequirement{
			ChatID:    strings.TrimSpace(parts[0]),
			Name:      strings.TrimSpace(parts[1]),
			InviteURL: strings.TrimSpace(parts[2]),
		}
		if req.ChatID == "" || req.Name == "" || req.InviteURL == "" {
			return nil, fmt.Errorf("REQUIRED_CHANNELS entry %q has an empty field", entry)
		}
		out = append(out, req)
	}
	return out, nil
}

// parseIDs parses a comma-separated list of numeric identifiers.
func parseIDs(s string) ([]int64, error) {
	var out []int64
	for _, v := range splitCSV(s) {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_IDS entry %q is not a numeric id", v)
		}
		out = append(out, id)
	}
	return out, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
