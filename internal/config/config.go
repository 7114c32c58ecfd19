package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppConfig struct {
	// Required at startup; the process must not run without them.
	BotToken      string `mapstructure:"BOT_TOKEN" validate:"required"`
	WeatherAPIKey string `mapstructure:"WEATHER_API_KEY" validate:"required"`
	GuildID       string `mapstructure:"GUILD_ID" validate:"required,numeric"`

	WeatherAPIBaseURL string        `mapstructure:"WEATHER_API_BASE_URL" validate:"required,url"`
	CurrentTimeout    time.Duration `mapstructure:"WEATHER_CURRENT_TIMEOUT" validate:"gt=0"`
	ForecastTimeout   time.Duration `mapstructure:"WEATHER_FORECAST_TIMEOUT" validate:"gt=0"`
	// DispatchTimeout bounds a whole command and must exceed both provider timeouts.
	DispatchTimeout time.Duration `mapstructure:"DISPATCH_TIMEOUT" validate:"gtfield=CurrentTimeout,gtfield=ForecastTimeout"`
	BreakerEnabled  bool          `mapstructure:"PROVIDER_BREAKER_ENABLED"`

	// Interaction history retention.
	HistoryMaxEntries int           `mapstructure:"HISTORY_MAX_ENTRIES" validate:"gte=0"` // 0 = unlimited
	HistoryMaxAge     time.Duration `mapstructure:"HISTORY_MAX_AGE" validate:"gte=0"`     // 0 = unlimited

	// Digest job; no places disables it.
	DigestPlaces   []string      `mapstructure:"DIGEST_PLACES"`
	DigestCommand  string        `mapstructure:"DIGEST_COMMAND" validate:"oneof=weather today weekly"`
	DigestInterval time.Duration `mapstructure:"DIGEST_INTERVAL" validate:"gte=1m"`

	Port      string `mapstructure:"PORT" validate:"required,numeric"`
	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"oneof=json console"`
}

var defaults = map[string]interface{}{
	"BOT_TOKEN":                "",
	"WEATHER_API_KEY":          "",
	"GUILD_ID":                 "",
	"WEATHER_API_BASE_URL":     "https://api.weatherapi.com/v1",
	"WEATHER_CURRENT_TIMEOUT":  "5s",
	"WEATHER_FORECAST_TIMEOUT": "10s",
	"DISPATCH_TIMEOUT":         "15s",
	"PROVIDER_BREAKER_ENABLED": false,
	"HISTORY_MAX_ENTRIES":      200,
	"HISTORY_MAX_AGE":          "24h",
	"DIGEST_PLACES":            "",
	"DIGEST_COMMAND":           "today",
	"DIGEST_INTERVAL":          "1h",
	"PORT":                     "8080",
	"LOG_LEVEL":                "info",
	"LOG_FORMAT":               "json",
}

var validate = newValidator()

// Load reads configuration from the environment (and a .env file when present)
// with sensible defaults. A missing required value is an error.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*AppConfig, error) {
	for key, def := range defaults {
		v.SetDefault(key, def)
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.DigestPlaces = cleanList(cfg.DigestPlaces)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", describe(err))
	}
	return cfg, nil
}

// cleanList trims entries and drops empty ones; env lists arrive as "Paris, London".
func cleanList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// describe turns validator errors into env-var names without echoing values.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			msgs = append(msgs, fe.Field()+" is not set")
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("mapstructure")
	})
	return v
}
