// Package boot provides runtime configuration derived from config and environment.
package boot

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/memohai/streamrelay/internal/config"
	"github.com/memohai/streamrelay/internal/media"
)

// Telegram update transports.
const (
	ModeWebhook = "webhook"
	ModePolling = "polling"
)

// RuntimeConfig holds parsed runtime settings.
// Values may be overridden by environment variables (BOT_TOKEN, PORT, HTTP_ADDR,
// PUBLIC_URL, RENDER_EXTERNAL_URL, WEBHOOK_SECRET, TELEGRAM_API_ENDPOINT,
// TELEGRAM_FILE_ENDPOINT).
type RuntimeConfig struct {
	ServerAddr      string
	PublicURL       string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	StreamRateLimit float64
	StreamRateBurst int

	BotToken        string
	TelegramMode    string
	PollTimeout     int
	DownloadTimeout time.Duration
	TelegramDebug   bool
	WebhookSecret   string

	TelegramAPIEndpoint  string
	TelegramFileEndpoint string

	Store         media.Options
	SweepSchedule string
}

// IngestEnabled reports whether a bot token is configured.
func (rc *RuntimeConfig) IngestEnabled() bool {
	return rc.BotToken != ""
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and applies env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	readTimeout, err := parseDuration(cfg.Server.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	writeTimeout, err := parseDuration(cfg.Server.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	downloadTimeout, err := parseDuration(cfg.Telegram.DownloadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid download timeout: %w", err)
	}
	ttl, err := parseDuration(cfg.Store.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid store ttl: %w", err)
	}
	if cfg.Store.MaxObjectBytes < 0 || cfg.Store.MaxEntries < 0 || cfg.Store.MaxTotalBytes < 0 {
		return nil, fmt.Errorf("store limits must not be negative")
	}

	ret := &RuntimeConfig{
		ServerAddr:      cfg.Server.Addr,
		PublicURL:       strings.TrimSpace(cfg.Server.PublicURL),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		StreamRateLimit: cfg.Server.StreamRateLimit,
		StreamRateBurst: cfg.Server.StreamRateBurst,
		BotToken:        strings.TrimSpace(cfg.Telegram.BotToken),
		PollTimeout:     cfg.Telegram.PollTimeout,
		DownloadTimeout: downloadTimeout,
		TelegramDebug:   cfg.Telegram.Debug,
		WebhookSecret:   strings.TrimSpace(cfg.Telegram.WebhookSecret),

		TelegramAPIEndpoint:  strings.TrimSpace(cfg.Telegram.APIEndpoint),
		TelegramFileEndpoint: strings.TrimSpace(cfg.Telegram.FileEndpoint),
		Store: media.Options{
			MaxObjectBytes: cfg.Store.MaxObjectBytes,
			MaxEntries:     cfg.Store.MaxEntries,
			MaxTotalBytes:  cfg.Store.MaxTotalBytes,
			TTL:            ttl,
		},
		SweepSchedule: cfg.Store.SweepSchedule,
	}

	if value := os.Getenv("PORT"); value != "" {
		ret.ServerAddr = ":" + value
	}
	if value := os.Getenv("HTTP_ADDR"); value != "" {
		ret.ServerAddr = value
	}
	if value := os.Getenv("BOT_TOKEN"); value != "" {
		ret.BotToken = strings.TrimSpace(value)
	}
	if value := os.Getenv("PUBLIC_URL"); value != "" {
		ret.PublicURL = strings.TrimSpace(value)
	}
	if value := os.Getenv("RENDER_EXTERNAL_URL"); value != "" {
		ret.PublicURL = strings.TrimSpace(value)
	}
	if value := os.Getenv("WEBHOOK_SECRET"); value != "" {
		ret.WebhookSecret = strings.TrimSpace(value)
	}
	if value := os.Getenv("TELEGRAM_API_ENDPOINT"); value != "" {
		ret.TelegramAPIEndpoint = strings.TrimSpace(value)
	}
	if value := os.Getenv("TELEGRAM_FILE_ENDPOINT"); value != "" {
		ret.TelegramFileEndpoint = strings.TrimSpace(value)
	}
	if err := validateEndpoint("api_endpoint", ret.TelegramAPIEndpoint); err != nil {
		return nil, err
	}
	if err := validateEndpoint("file_endpoint", ret.TelegramFileEndpoint); err != nil {
		return nil, err
	}
	if ret.ServerAddr == "" {
		ret.ServerAddr = config.DefaultHTTPAddr
	}

	mode, err := resolveMode(cfg.Telegram.Mode, ret.PublicURL)
	if err != nil {
		return nil, err
	}
	ret.TelegramMode = mode

	if ret.PublicURL == "" {
		ret.PublicURL = localBaseURL(ret.ServerAddr)
	}
	ret.PublicURL = strings.TrimRight(ret.PublicURL, "/")
	return ret, nil
}

func resolveMode(raw, publicURL string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		if publicURL != "" {
			return ModeWebhook, nil
		}
		return ModePolling, nil
	case ModeWebhook:
		if publicURL == "" {
			return "", fmt.Errorf("telegram webhook mode requires a public url")
		}
		return ModeWebhook, nil
	case ModePolling:
		return ModePolling, nil
	default:
		return "", fmt.Errorf("unknown telegram mode: %s", raw)
	}
}

// validateEndpoint checks a Bot API endpoint format: two %s verbs, token then path.
func validateEndpoint(name, value string) error {
	if value == "" {
		return nil
	}
	if strings.Count(value, "%s") != 2 || strings.Count(value, "%") != 2 {
		return fmt.Errorf("telegram %s must contain exactly two %%s verbs: %s", name, value)
	}
	return nil
}

func localBaseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative: %s", raw)
	}
	return d, nil
}
