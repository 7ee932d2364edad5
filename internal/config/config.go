// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath      = "config.toml"
	DefaultHTTPAddr        = ":10000"
	DefaultReadTimeout     = "30s"
	DefaultWriteTimeout    = "10m"
	DefaultStreamRateLimit = 20
	DefaultStreamRateBurst = 40
	DefaultTelegramMode    = "auto"
	DefaultPollTimeout     = 30
	DefaultDownloadTimeout = "2m"
	DefaultMaxObjectBytes  = 50 * 1024 * 1024
	DefaultMaxTotalBytes   = 2 * 1024 * 1024 * 1024
	DefaultSweepSchedule   = "@every 1m"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Telegram TelegramConfig `toml:"telegram"`
	Store    StoreConfig    `toml:"store"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP listen address, the public base URL used in
// stream links, connection timeouts and the per-client stream rate limit.
type ServerConfig struct {
	Addr            string  `toml:"addr"`
	PublicURL       string  `toml:"public_url"`
	ReadTimeout     string  `toml:"read_timeout"`
	WriteTimeout    string  `toml:"write_timeout"`
	StreamRateLimit float64 `toml:"stream_rate_limit"`
	StreamRateBurst int     `toml:"stream_rate_burst"`
}

// TelegramConfig holds the bot token and update transport.
// Mode is one of auto, webhook or polling; auto picks webhook when a public URL is set.
// APIEndpoint and FileEndpoint point at a self-hosted Bot API server; both are
// format strings taking the token and the method or file path.
type TelegramConfig struct {
	BotToken        string `toml:"bot_token"`
	Mode            string `toml:"mode"`
	WebhookSecret   string `toml:"webhook_secret"`
	PollTimeout     int    `toml:"poll_timeout"`
	DownloadTimeout string `toml:"download_timeout"`
	Debug           bool   `toml:"debug"`
	APIEndpoint     string `toml:"api_endpoint"`
	FileEndpoint    string `toml:"file_endpoint"`
}

// StoreConfig bounds the in-memory file store. Zero disables a bound.
type StoreConfig struct {
	MaxObjectBytes int64  `toml:"max_object_bytes"`
	MaxEntries     int    `toml:"max_entries"`
	MaxTotalBytes  int64  `toml:"max_total_bytes"`
	TTL            string `toml:"ttl"`
	SweepSchedule  string `toml:"sweep_schedule"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:            DefaultHTTPAddr,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			StreamRateLimit: DefaultStreamRateLimit,
			StreamRateBurst: DefaultStreamRateBurst,
		},
		Telegram: TelegramConfig{
			Mode:            DefaultTelegramMode,
			PollTimeout:     DefaultPollTimeout,
			DownloadTimeout: DefaultDownloadTimeout,
		},
		Store: StoreConfig{
			MaxObjectBytes: DefaultMaxObjectBytes,
			MaxTotalBytes:  DefaultMaxTotalBytes,
			SweepSchedule:  DefaultSweepSchedule,
		},
	}
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
