package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Update transports.
const (
	ModeWebhook = "webhook"
	ModePolling = "polling"
)

// Config holds the Telegram bot credentials and update transport.
type Config struct {
	BotToken string
	Mode     string
	// WebhookURL is registered with Telegram in webhook mode.
	WebhookURL string
	// WebhookSecret is registered as secret_token and required on every push.
	// Empty generates a random secret per connection.
	WebhookSecret   string
	PollTimeout     int
	DownloadTimeout time.Duration
	Debug           bool
	// APIEndpoint and FileEndpoint are format strings taking the token and the
	// method or file path. Empty values use the public Bot API.
	APIEndpoint  string
	FileEndpoint string
}

func (c Config) normalize() (Config, error) {
	c.BotToken = strings.TrimSpace(c.BotToken)
	if c.BotToken == "" {
		return Config{}, errors.New("telegram botToken is required")
	}
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	switch c.Mode {
	case "":
		c.Mode = ModePolling
	case ModePolling:
	case ModeWebhook:
		if strings.TrimSpace(c.WebhookURL) == "" {
			return Config{}, errors.New("telegram webhook url is required in webhook mode")
		}
		c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
		if c.WebhookSecret != "" && !validSecretToken(c.WebhookSecret) {
			return Config{}, errors.New("telegram webhook secret must be 1-256 characters of A-Z, a-z, 0-9, _ and -")
		}
	default:
		return Config{}, fmt.Errorf("unknown telegram mode: %s", c.Mode)
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 30
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = 2 * time.Minute
	}
	if c.APIEndpoint == "" {
		c.APIEndpoint = tgbotapi.APIEndpoint
	}
	if c.FileEndpoint == "" {
		c.FileEndpoint = tgbotapi.FileEndpoint
	}
	return c, nil
}

func parseChatID(raw string) (int64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, errors.New("telegram chat_id is required")
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram chat_id must be numeric: %s", value)
	}
	return id, nil
}

func parseMessageID(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("telegram message_id is invalid: %q", value)
	}
	return id, nil
}

func validSecretToken(secret string) bool {
	if len(secret) == 0 || len(secret) > 256 {
		return false
	}
	for _, r := range secret {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
