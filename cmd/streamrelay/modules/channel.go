package modules

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/memohai/streamrelay/internal/boot"
	"github.com/memohai/streamrelay/internal/channel"
	"github.com/memohai/streamrelay/internal/channel/adapters/telegram"
	"github.com/memohai/streamrelay/internal/ingest"
	"github.com/memohai/streamrelay/internal/media"
)

var ChannelModule = fx.Module(
	"channel",
	fx.Provide(
		provideTelegramAdapter,
		provideIngestProcessor,
	),
	fx.Invoke(startTelegram),
)

func provideTelegramAdapter(log *slog.Logger, rc *boot.RuntimeConfig) *telegram.TelegramAdapter {
	return telegram.NewTelegramAdapter(log, telegram.Config{
		BotToken:        rc.BotToken,
		Mode:            rc.TelegramMode,
		WebhookURL:      rc.PublicURL + "/webhook",
		PollTimeout:     rc.PollTimeout,
		DownloadTimeout: rc.DownloadTimeout,
		Debug:           rc.TelegramDebug,
		WebhookSecret:   rc.WebhookSecret,
		APIEndpoint:     rc.TelegramAPIEndpoint,
		FileEndpoint:    rc.TelegramFileEndpoint,
	})
}

func provideIngestProcessor(rc *boot.RuntimeConfig, store *media.Store) *ingest.Processor {
	return ingest.NewProcessor(store, rc.PublicURL)
}

func startTelegram(lc fx.Lifecycle, log *slog.Logger, rc *boot.RuntimeConfig, adapter *telegram.TelegramAdapter, processor *ingest.Processor) {
	if !rc.IngestEnabled() {
		log.Warn("BOT_TOKEN is not set; serving stored files only, telegram ingest disabled")
		return
	}
	var conn channel.Connection
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// The connection outlives the start hook, so it gets its own context.
			c, err := adapter.Connect(context.Background(), processor.Handle)
			if err != nil {
				return fmt.Errorf("connect telegram: %w", err)
			}
			conn = c
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if conn == nil {
				return nil
			}
			return conn.Stop(ctx)
		},
	})
}
