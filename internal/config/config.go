// Package config handles application configuration from environment variables
// and the YAML targets file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds the application configuration.
type Config struct {
	DatabasePath string
	LogLevel     string
	LogFormat    string
	TargetsFile  string

	NGAAPIURL      string
	NGAUserAgent   string
	NGAPassportUID string
	NGAPassportCID string
	NGATimeout     time.Duration

	RateLimitPerMinute int
	FetchWorkers       int
	TickInterval       time.Duration

	BarkServerURL string
	BarkDeviceKey string
	BarkGroup     string
	BarkSound     string
	BarkTimeout   time.Duration
	ConsoleNotify bool

	TelegramBotToken string
	TelegramChatID   int64
	AllowedUsers     []int64

	HTTPAddr           string
	EventRetention     time.Duration
	EventPruneSchedule string
}

// Load reads configuration from environment variables. NGA credentials are
// required.
func Load() (*Config, error) {
	cfg, err := LoadOffline()
	if err != nil {
		return nil, err
	}
	if err := cfg.CheckCredentials(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOffline is Load for tools that only touch the database and may run
// without NGA credentials.
func LoadOffline() (*Config, error) {
	cfg := &Config{
		DatabasePath:       envOr("DATABASE_PATH", "./data/nga.db"),
		LogLevel:           envOr("LOG_LEVEL", "info"),
		LogFormat:          envOr("LOG_FORMAT", "text"),
		TargetsFile:        envOr("TARGETS_FILE", "./config/targets.yaml"),
		NGAAPIURL:          envOr("NGA_API_URL", "https://bbs.nga.cn/app_api.php?__lib=post&__act=list"),
		NGAUserAgent:       envOr("NGA_USER_AGENT", defaultUserAgent),
		NGAPassportUID:     os.Getenv("NGA_PASSPORT_UID"),
		NGAPassportCID:     os.Getenv("NGA_PASSPORT_CID"),
		BarkServerURL:      strings.TrimRight(envOr("BARK_SERVER_URL", "https://api.day.app"), "/"),
		BarkDeviceKey:      os.Getenv("BARK_DEVICE_KEY"),
		BarkGroup:          envOr("BARK_GROUP", "NGA Reminder"),
		BarkSound:          os.Getenv("BARK_SOUND"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		HTTPAddr:           os.Getenv("HTTP_ADDR"),
		EventPruneSchedule: envOr("EVENT_PRUNE_SCHEDULE", "@daily"),
	}

	var err error
	if cfg.NGATimeout, err = envDuration("NGA_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = envPositiveInt("RATE_LIMIT_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	if cfg.FetchWorkers, err = envPositiveInt("FETCH_WORKERS", 5); err != nil {
		return nil, err
	}
	if cfg.TickInterval, err = envDuration("TICK_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.BarkTimeout, err = envDuration("BARK_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.EventRetention, err = envDuration("EVENT_RETENTION", 720*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ConsoleNotify, err = envBool("CONSOLE_NOTIFY", true); err != nil {
		return nil, err
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		cfg.TelegramChatID = id
	}

	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			cfg.AllowedUsers = append(cfg.AllowedUsers, uid)
		}
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q, want text or json", cfg.LogFormat)
	}

	return cfg, nil
}

// CheckCredentials reports an error unless the NGA passport cookies are set.
func (c *Config) CheckCredentials() error {
	if c.NGAPassportUID == "" || c.NGAPassportCID == "" {
		return fmt.Errorf("NGA_PASSPORT_UID and NGA_PASSPORT_CID are required")
	}
	return nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	return slices.Contains(c.AllowedUsers, userID)
}

// BotEnabled reports whether the Telegram bot should be started.
func (c *Config) BotEnabled() bool {
	return c.TelegramBotToken != ""
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q, want a positive duration like 15s", key, raw)
	}
	return d, nil
}

func envPositiveInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q, want a positive integer", key, raw)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return b, nil
}
