package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/streamrelay/cmd/streamrelay/modules"
	"github.com/memohai/streamrelay/internal/logger"
	"github.com/memohai/streamrelay/internal/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	rootCmd := &cobra.Command{
		Use:   "streamrelay",
		Short: "Telegram file to stream link relay.",
		Long: `streamrelay receives files sent to a Telegram bot, keeps them in memory and
serves them over HTTP at /stream/{id} so they can be embedded on any web page.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"),
		"path to the TOML config file (defaults to $CONFIG_PATH)")
	rootCmd.AddCommand(newServeCommand(&configPath))
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "streamrelay %s\n", version.GetInfo())
		},
	}
}

func runServe(configPath string) error {
	app := fx.New(
		fx.Supply(modules.ConfigPath(configPath)),
		modules.InfraModule,
		modules.StoreModule,
		modules.ChannelModule,
		modules.ServerModule,
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}
