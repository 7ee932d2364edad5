package telegram

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/memohai/streamrelay/internal/channel"
	"github.com/memohai/streamrelay/internal/logger"
)

// SecretTokenHeader carries the webhook secret on every push from Telegram.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

var (
	// ErrWebhookDisabled is returned by HandleWebhook when no webhook connection is active.
	ErrWebhookDisabled = errors.New("telegram webhook is not active")
	// ErrWebhookUnauthorized is returned by HandleWebhook when the secret token does not match.
	ErrWebhookUnauthorized = errors.New("telegram webhook secret token mismatch")
)

// TelegramAdapter receives file messages from a Telegram bot, either by long
// polling or through pushes delivered to HandleWebhook.
type TelegramAdapter struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.RWMutex
	bot     *tgbotapi.BotAPI
	handler channel.InboundHandler
	connCtx context.Context
	secret  string
}

// NewTelegramAdapter creates an adapter; the configuration is validated on Connect.
func NewTelegramAdapter(log *slog.Logger, cfg Config) *TelegramAdapter {
	if log == nil {
		log = slog.Default()
	}
	return &TelegramAdapter{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     log.With(slog.String("adapter", "telegram")),
	}
}

func (a *TelegramAdapter) Type() channel.ChannelType {
	return Type
}

// Connect authenticates the bot and starts receiving updates. The returned
// connection stays alive until stopped or ctx is cancelled.
func (a *TelegramAdapter) Connect(ctx context.Context, handler channel.InboundHandler) (channel.Connection, error) {
	if handler == nil {
		return nil, errors.New("inbound handler is required")
	}
	cfg, err := a.cfg.normalize()
	if err != nil {
		a.logger.Error("decode config failed", slog.Any("error", err))
		return nil, err
	}
	a.cfg = cfg
	routeLibraryLogs(a.logger)

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, cfg.APIEndpoint, a.httpClient)
	if err != nil {
		err = scrubURLError(err)
		a.logger.Error("create bot failed", slog.Any("error", err))
		return nil, fmt.Errorf("create bot: %w", err)
	}
	bot.Debug = cfg.Debug
	a.logger.Info("start", slog.String("mode", cfg.Mode), slog.String("bot", bot.Self.UserName))

	connCtx, cancel := context.WithCancel(ctx)
	if cfg.Mode == ModeWebhook {
		return a.connectWebhook(connCtx, cancel, bot, handler)
	}
	return a.connectPolling(connCtx, cancel, bot, handler)
}

func (a *TelegramAdapter) connectWebhook(ctx context.Context, cancel context.CancelFunc, bot *tgbotapi.BotAPI, handler channel.InboundHandler) (channel.Connection, error) {
	if _, err := url.ParseRequestURI(a.cfg.WebhookURL); err != nil {
		cancel()
		return nil, fmt.Errorf("build webhook: %w", err)
	}
	secret := a.cfg.WebhookSecret
	if secret == "" {
		secret = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	// tgbotapi's WebhookConfig predates secret_token, so the call is built by hand.
	params := tgbotapi.Params{"url": a.cfg.WebhookURL}
	params.AddNonEmpty("secret_token", secret)
	if _, err := bot.MakeRequest("setWebhook", params); err != nil {
		cancel()
		err = scrubURLError(err)
		a.logger.Error("set webhook failed", slog.Any("error", err))
		return nil, fmt.Errorf("set webhook: %w", err)
	}
	a.logger.Info("webhook set", slog.String("url", a.cfg.WebhookURL))
	a.attach(ctx, bot, handler, secret)

	stop := func(context.Context) error {
		a.logger.Info("stop", slog.String("mode", ModeWebhook))
		a.detach()
		cancel()
		return nil
	}
	return channel.NewConnection(Type, stop), nil
}

func (a *TelegramAdapter) connectPolling(ctx context.Context, cancel context.CancelFunc, bot *tgbotapi.BotAPI, handler channel.InboundHandler) (channel.Connection, error) {
	// getUpdates is refused while a webhook is registered.
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		a.logger.Warn("delete webhook failed", slog.Any("error", scrubURLError(err)))
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = a.cfg.PollTimeout
	updates := bot.GetUpdatesChan(updateConfig)

	go func() {
		for {
			select {
			case <-ctx.Done():
				bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					a.logger.Info("updates channel closed")
					return
				}
				a.dispatch(ctx, bot, handler, update)
			}
		}
	}()

	stop := func(context.Context) error {
		a.logger.Info("stop", slog.String("mode", ModePolling))
		cancel()
		return nil
	}
	return channel.NewConnection(Type, stop), nil
}

// HandleWebhook checks the secret token, decodes a pushed update and
// dispatches it asynchronously.
func (a *TelegramAdapter) HandleWebhook(r *http.Request) error {
	a.mu.RLock()
	bot, handler, ctx, secret := a.bot, a.handler, a.connCtx, a.secret
	a.mu.RUnlock()
	if bot == nil {
		return ErrWebhookDisabled
	}
	if subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretTokenHeader)), []byte(secret)) != 1 {
		return ErrWebhookUnauthorized
	}
	update, err := bot.HandleUpdate(r)
	if err != nil {
		return fmt.Errorf("decode update: %w", err)
	}
	a.dispatch(ctx, bot, handler, *update)
	return nil
}

func (a *TelegramAdapter) attach(ctx context.Context, bot *tgbotapi.BotAPI, handler channel.InboundHandler, secret string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bot, a.handler, a.connCtx, a.secret = bot, handler, ctx, secret
}

func (a *TelegramAdapter) detach() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bot, a.handler, a.connCtx, a.secret = nil, nil, nil, ""
}

func (a *TelegramAdapter) dispatch(ctx context.Context, bot *tgbotapi.BotAPI, handler channel.InboundHandler, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	msg, ok := buildInboundMessage(update.Message)
	if !ok {
		return
	}
	log := a.logger.With(
		slog.String("chat_id", msg.ChatID),
		slog.String("message_id", msg.MessageID),
	)
	log.Info("inbound received",
		slog.String("user_id", msg.Sender.Attribute("user_id")),
		slog.String("command", msg.Command),
		slog.Int("attachments", len(msg.Attachments)),
	)
	sess := &session{
		bot:             bot,
		chatID:          update.Message.Chat.ID,
		client:          a.httpClient,
		fileEndpoint:    a.cfg.FileEndpoint,
		downloadTimeout: a.cfg.DownloadTimeout,
		replyTo:         update.Message.MessageID,
	}
	go func() {
		if err := handler(logger.WithContext(ctx, log), sess, msg); err != nil {
			log.Error("handle inbound failed", slog.Any("error", err))
		}
	}()
}

func buildInboundMessage(m *tgbotapi.Message) (channel.InboundMessage, bool) {
	if m == nil || m.Chat == nil {
		return channel.InboundMessage{}, false
	}
	text := strings.TrimSpace(m.Text)
	if text == "" {
		text = strings.TrimSpace(m.Caption)
	}
	command := ""
	if m.IsCommand() {
		command = strings.ToLower(m.Command())
	}
	externalID, displayName, attrs := resolveTelegramSender(m)
	return channel.InboundMessage{
		Channel:   Type,
		MessageID: strconv.Itoa(m.MessageID),
		ChatID:    strconv.FormatInt(m.Chat.ID, 10),
		Sender: channel.Identity{
			ExternalID:  externalID,
			DisplayName: displayName,
			Attributes:  attrs,
		},
		Text:        text,
		Command:     command,
		Attachments: collectTelegramAttachments(m),
		ReceivedAt:  time.Unix(int64(m.Date), 0).UTC(),
	}, true
}

func resolveTelegramSender(msg *tgbotapi.Message) (string, string, map[string]string) {
	attrs := map[string]string{}
	if msg == nil {
		return "", "", attrs
	}
	if msg.Chat != nil {
		attrs["chat_id"] = strconv.FormatInt(msg.Chat.ID, 10)
	}
	if msg.From == nil {
		return attrs["chat_id"], "", attrs
	}
	userID := strconv.FormatInt(msg.From.ID, 10)
	attrs["user_id"] = userID
	username := strings.TrimSpace(msg.From.UserName)
	if username != "" {
		attrs["username"] = username
	}
	displayName := username
	if displayName == "" {
		displayName = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	}
	return userID, displayName, attrs
}

// collectTelegramAttachments picks up the media kinds the relay accepts.
// Photos and stickers are recompressed by Telegram and are not relayed.
func collectTelegramAttachments(msg *tgbotapi.Message) []channel.Attachment {
	attachments := make([]channel.Attachment, 0, 1)
	if msg.Document != nil {
		attachments = append(attachments, channel.Attachment{
			Type:   channel.AttachmentFile,
			FileID: msg.Document.FileID,
			Name:   strings.TrimSpace(msg.Document.FileName),
			Mime:   strings.TrimSpace(msg.Document.MimeType),
			Size:   int64(msg.Document.FileSize),
		})
	}
	if msg.Video != nil {
		attachments = append(attachments, channel.Attachment{
			Type:       channel.AttachmentVideo,
			FileID:     msg.Video.FileID,
			Name:       strings.TrimSpace(msg.Video.FileName),
			Mime:       strings.TrimSpace(msg.Video.MimeType),
			Size:       int64(msg.Video.FileSize),
			DurationMs: int64(msg.Video.Duration) * 1000,
		})
	}
	if msg.Audio != nil {
		attachments = append(attachments, channel.Attachment{
			Type:       channel.AttachmentAudio,
			FileID:     msg.Audio.FileID,
			Name:       strings.TrimSpace(msg.Audio.FileName),
			Mime:       strings.TrimSpace(msg.Audio.MimeType),
			Size:       int64(msg.Audio.FileSize),
			DurationMs: int64(msg.Audio.Duration) * 1000,
		})
	}
	if msg.Voice != nil {
		attachments = append(attachments, channel.Attachment{
			Type:       channel.AttachmentVoice,
			FileID:     msg.Voice.FileID,
			Mime:       strings.TrimSpace(msg.Voice.MimeType),
			Size:       int64(msg.Voice.FileSize),
			DurationMs: int64(msg.Voice.Duration) * 1000,
		})
	}
	return attachments
}

func resolveTelegramParseMode(format channel.MessageFormat) string {
	switch format {
	case channel.MessageFormatHTML:
		return tgbotapi.ModeHTML
	default:
		return ""
	}
}
