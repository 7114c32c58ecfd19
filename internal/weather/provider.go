package weather

import (
	"context"
)

// Provider abstracts the weather data source (WeatherAPI.com in production).
// Implementations return *LookupError values so failures keep their kind.
type Provider interface {
	Name() string
	// Current fetches current conditions; withAirQuality asks for the air-quality block.
	Current(ctx context.Context, place string, withAirQuality bool) (WeatherSnapshot, error)
	// Forecast fetches a daily forecast for the given number of days.
	Forecast(ctx context.Context, place string, days int) (Forecast, error)
}
