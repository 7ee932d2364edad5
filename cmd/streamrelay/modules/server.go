package modules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.uber.org/fx"

	"github.com/memohai/streamrelay/internal/boot"
	"github.com/memohai/streamrelay/internal/channel/adapters/telegram"
	"github.com/memohai/streamrelay/internal/handlers"
	"github.com/memohai/streamrelay/internal/server"
	"github.com/memohai/streamrelay/internal/version"
)

var ServerModule = fx.Module(
	"server",
	fx.Provide(
		provideServerHandler(handlers.NewPingHandler),
		provideServerHandler(handlers.NewStreamHandler),
		provideServerHandler(provideWebhookHandler),
		provideServer,
	),
	fx.Invoke(startServer),
)

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideWebhookHandler(log *slog.Logger, adapter *telegram.TelegramAdapter) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, adapter)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	RuntimeConfig  *boot.RuntimeConfig
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	rc := params.RuntimeConfig
	return server.NewServer(params.Logger, server.Options{
		Addr:            rc.ServerAddr,
		ReadTimeout:     rc.ReadTimeout,
		WriteTimeout:    rc.WriteTimeout,
		StreamRateLimit: rc.StreamRateLimit,
		StreamRateBurst: rc.StreamRateBurst,
	}, params.ServerHandlers...)
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, rc *boot.RuntimeConfig, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting streamrelay %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("public base url", slog.String("url", rc.PublicURL))
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
