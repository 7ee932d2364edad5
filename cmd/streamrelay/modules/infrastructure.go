package modules

import (
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/memohai/streamrelay/internal/boot"
	"github.com/memohai/streamrelay/internal/config"
	"github.com/memohai/streamrelay/internal/logger"
)

// ConfigPath is the TOML file to load; empty means defaults only.
type ConfigPath string

var InfraModule = fx.Module(
	"Infra",
	fx.Provide(
		provideConfig,
		provideLogger,
		boot.ProvideRuntimeConfig,
	),
)

func provideConfig(path ConfigPath) (config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}
