package config

import (
	"strings"
	"testing"
	"time"
)

// setValidBase sets the minimum environment for Load() to succeed.
func setValidBase(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123456:TEST-TOKEN")
}

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "") // required -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	setValidBase(t)
	t.Setenv("BOT_DEBUG", "yes")

	// Gate
	t.Setenv("ADMIN_IDS", " 6056915535 , 42 ")
	t.Setenv("REQUIRED_CHANNELS", "@movies|Movie Channel|https://t.me/movies, -1001234|Backup|https://t.me/+abc ")

	// Delivery timing
	t.Setenv("DELETE_DELAY", "10m")
	t.Setenv("SERIES_PACE", "500ms")

	// Server
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")

	// App
	t.Setenv("DB_PATH", "db.sqlite")

	// Rate limiting (invalid values fall back to defaults)
	t.Setenv("RATE_RPS", "x")
	t.Setenv("RATE_BURST", "nope")

	// CORS
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.BotToken != "123456:TEST-TOKEN" || !cfg.BotDebug {
		t.Fatalf("bot fields unexpected: %+v", cfg)
	}

	if len(cfg.AdminIDs) != 2 || cfg.AdminIDs[0] != 6056915535 || cfg.AdminIDs[1] != 42 {
		t.Fatalf("AdminIDs unexpected: %v", cfg.AdminIDs)
	}
	if len(cfg.Channels) != 2 {
		t.Fatalf("Channels unexpected: %+v", cfg.Channels)
	}
	if cfg.Channels[0].ChatID != "@movies" ||
		cfg.Channels[0].Name != "Movie Channel" ||
		cfg.Channels[0].InviteURL != "https://t.me/movies" {
		t.Fatalf("first channel unexpected: %+v", cfg.Channels[0])
	}
	if cfg.Channels[1].ChatID != "-1001234" {
		t.Fatalf("second channel unexpected: %+v", cfg.Channels[1])
	}

	if cfg.DeleteDelay != 10*time.Minute || cfg.SeriesPace != 500*time.Millisecond {
		t.Fatalf("delivery timing unexpected: %+v", cfg)
	}

	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	if cfg.LogLevel != "warn" || !cfg.LogPretty {
		t.Fatalf("logging fields unexpected: %+v", cfg)
	}

	if cfg.DBPath != "db.sqlite" {
		t.Fatalf("DBPath unexpected: %q", cfg.DBPath)
	}

	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate fields unexpected: rps=%v burst=%v", cfg.RateRPS, cfg.RateBurst)
	}

	if len(cfg.CORS.AllowedOrigins) != 2 ||
		cfg.CORS.AllowedOrigins[0] != "https://a.com" ||
		cfg.CORS.AllowedOrigins[1] != "http://b" {
		t.Fatalf("CORS unexpected: %v", cfg.CORS.AllowedOrigins)
	}

	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" ||
		cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" ||
		cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("OTEL unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setValidBase(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DeleteDelay != 900*time.Second {
		t.Fatalf("DeleteDelay default = %v; want 900s", cfg.DeleteDelay)
	}
	if cfg.SeriesPace != 2*time.Second {
		t.Fatalf("SeriesPace default = %v; want 2s", cfg.SeriesPace)
	}
	if len(cfg.Channels) != 0 {
		t.Fatalf("Channels default should be empty, got %v", cfg.Channels)
	}
	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.LogLevel != "info" {
		t.Fatalf("defaults unexpected: %+v", cfg)
	}
}

// --- Validation failures ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		key     string
		value   string
		wantSub string
	}{
		{"missing token", "TELEGRAM_BOT_TOKEN", "", "TELEGRAM_BOT_TOKEN"},
		{"bad log level", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"bad delete delay", "DELETE_DELAY", "-5s", "DELETE_DELAY"},
		{"bad series pace", "SERIES_PACE", "-1s", "SERIES_PACE"},
		{"bad read timeout", "READ_TIMEOUT", "-1s", "timeouts"},
		{"bad header bytes", "MAX_HEADER_BYTES", "-1", "MAX_HEADER_BYTES"},
		{"bad rate rps", "RATE_RPS", "-1", "RATE_RPS"},
		{"bad rate burst", "RATE_BURST", "0", "RATE_BURST"},
		{"bad sample ratio", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setValidBase(t)
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.wantSub)
			}
		})
	}
}

func TestLoad_MalformedGateConfig(t *testing.T) {
	t.Run("channel entry missing field", func(t *testing.T) {
		setValidBase(t)
		t.Setenv("REQUIRED_CHANNELS", "@movies|Movie Channel")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for malformed channel entry")
		}
	})
	t.Run("channel entry empty field", func(t *testing.T) {
		setValidBase(t)
		t.Setenv("REQUIRED_CHANNELS", "@movies||https://t.me/movies")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for empty channel field")
		}
	})
	t.Run("non-numeric admin id", func(t *testing.T) {
		setValidBase(t)
		t.Setenv("ADMIN_IDS", "abc")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for non-numeric admin id")
		}
	})
}

func TestIsAdmin(t *testing.T) {
	cfg := Config{AdminIDs: []int64{1, 2}}
	if !cfg.IsAdmin(1) || !cfg.IsAdmin(2) {
		t.Fatalf("configured ids should be admins")
	}
	if cfg.IsAdmin(3) {
		t.Fatalf("unconfigured id should not be admin")
	}
	if (Config{}).IsAdmin(1) {
		t.Fatalf("empty admin set should match nobody")
	}
}
