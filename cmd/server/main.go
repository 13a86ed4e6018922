package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emberchat/ember-server/internal/app"
	"github.com/emberchat/ember-server/internal/config"
	"github.com/emberchat/ember-server/internal/log"
)

func main() {
	var (
		configPath string
		addr       string
	)

	rootCmd := &cobra.Command{
		Use:           "ember-server",
		Short:         "Realtime group and direct-message chat server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootstrap := log.New("info")
			cfg, path, err := config.Load(bootstrap, configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting ember server")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}
			if err := application.Run(ctx); err != nil {
				return err
			}

			logger.Info().Msg("server stopped")
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.New("error").Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}
