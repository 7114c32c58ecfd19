package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/i474232898/weatherapi-bot/internal/config"
	"github.com/i474232898/weatherapi-bot/internal/weather"
	"github.com/i474232898/weatherapi-bot/internal/weather/providers"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "weatherapi-bot",
		Short:         "Chat bot front end for WeatherAPI.com",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd(), newReportCmd())
	return rootCmd
}

// newLogger builds the root logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// newFacade wires the WeatherAPI provider behind the lookup facade.
func newFacade(cfg *config.AppConfig) *weather.Facade {
	// Deadlines come from the facade's per-kind context, not the client.
	httpClient := &http.Client{}

	provider := providers.NewWeatherAPIProvider(providers.HTTPClientConfig{
		Client:         httpClient,
		BreakerEnabled: cfg.BreakerEnabled,
	}, cfg.WeatherAPIKey, cfg.WeatherAPIBaseURL)

	return weather.NewFacade(provider, weather.Options{
		Timeouts: map[weather.ReportKind]time.Duration{
			weather.KindCurrent: cfg.CurrentTimeout,
			weather.KindToday:   cfg.CurrentTimeout,
			weather.KindWeekly:  cfg.ForecastTimeout,
		},
	})
}
