package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weatherapi-bot/internal/api/http"
	"github.com/i474232898/weatherapi-bot/internal/commands"
	"github.com/i474232898/weatherapi-bot/internal/config"
	"github.com/i474232898/weatherapi-bot/internal/history"
	"github.com/i474232898/weatherapi-bot/internal/metrics"
	"github.com/i474232898/weatherapi-bot/internal/scheduler"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the command API and the digest scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat))
		},
	}
}

func serve(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) error {
	facade := newFacade(cfg)

	// Bounded interaction log backing the deferred follow-ups.
	hist := history.NewMemoryStore(cfg.HistoryMaxEntries, cfg.HistoryMaxAge)
	m := metrics.New()

	registry := commands.DefaultRegistry()
	dispatcher := commands.NewDispatcher(commands.Config{
		GuildID: cfg.GuildID,
		Timeout: cfg.DispatchTimeout,
	}, registry, facade, hist, m, logger)

	logger.Info().Msgf("registered %d command(s) for guild %s", len(registry.List()), cfg.GuildID)

	sched := scheduler.New(scheduler.Config{
		Places:   cfg.DigestPlaces,
		Command:  cfg.DigestCommand,
		GuildID:  cfg.GuildID,
		Interval: cfg.DigestInterval,
	}, dispatcher, scheduler.LogSink{Logger: logger.With().Str("sink", "digest").Logger()}, logger)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.Deps{
		Dispatcher: dispatcher,
		History:    hist,
		Metrics:    m,
		BotToken:   cfg.BotToken,
		AccessLog:  true,
	})

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting command API")
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}

	// Deferred follow-ups are bounded by the dispatch timeout.
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), dispatcher.Timeout())
	defer cancelDrain()
	if err := dispatcher.Drain(drainCtx); err != nil {
		logger.Warn().Err(err).Msg("abandoned deferred follow-ups")
	}
	logger.Info().Msg("shut down")
	return nil
}
