package modules

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/memohai/streamrelay/internal/boot"
	"github.com/memohai/streamrelay/internal/media"
)

var StoreModule = fx.Module(
	"store",
	fx.Provide(provideStore),
	fx.Invoke(startSweeper),
)

func provideStore(log *slog.Logger, rc *boot.RuntimeConfig) (*media.Store, error) {
	store, err := media.NewStore(log, rc.Store)
	if err != nil {
		return nil, err
	}
	opts := store.Options()
	if opts.Unbounded() {
		log.Warn("media store is unbounded; memory grows with every upload until restart")
	}
	log.Info("media store ready",
		slog.Int64("max_object_bytes", opts.MaxObjectBytes),
		slog.Int("max_entries", opts.MaxEntries),
		slog.Int64("max_total_bytes", opts.MaxTotalBytes),
		slog.Duration("ttl", opts.TTL),
	)
	return store, nil
}

func startSweeper(lc fx.Lifecycle, log *slog.Logger, rc *boot.RuntimeConfig, store *media.Store) error {
	if rc.Store.TTL <= 0 {
		return nil
	}
	sweeper, err := media.NewSweeper(log, store, rc.SweepSchedule)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sweeper.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return sweeper.Stop(ctx)
		},
	})
	return nil
}
