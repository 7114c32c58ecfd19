package weather

import (
	"fmt"
	"strings"
	"time"
)

// ReportKind selects which provider endpoint is queried and which fields are rendered.
type ReportKind string

const (
	KindCurrent ReportKind = "current"
	KindToday   ReportKind = "today_detailed"
	KindWeekly  ReportKind = "weekly_forecast"
)

// ForecastDays is the number of days requested for a weekly report.
const ForecastDays = 7

// Kinds lists every supported report kind.
var Kinds = []ReportKind{KindCurrent, KindToday, KindWeekly}

// ParseKind accepts either a kind value or its command alias ("weather", "today", "weekly").
func ParseKind(s string) (ReportKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weather", string(KindCurrent):
		return KindCurrent, nil
	case "today", string(KindToday):
		return KindToday, nil
	case "weekly", string(KindWeekly):
		return KindWeekly, nil
	}
	return "", fmt.Errorf("unknown report kind %q", s)
}

// Location identifies the place the provider resolved a query to.
type Location struct {
	Name      string `json:"name"`
	Region    string `json:"region"`
	Country   string `json:"country"`
	LocalTime string `json:"localtime"`
}

// Condition is the provider's textual condition with its icon reference.
type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

// IconURL returns an absolute URL for the condition icon. The provider returns
// protocol-relative paths ("//cdn...").
func (c Condition) IconURL() string {
	if strings.HasPrefix(c.Icon, "//") {
		return "https:" + c.Icon
	}
	return c.Icon
}

// AirQuality holds pollutant concentrations in μg/m³.
type AirQuality struct {
	CO   float64 `json:"co"`
	NO2  float64 `json:"no2"`
	O3   float64 `json:"o3"`
	PM25 float64 `json:"pm2_5"`
	PM10 float64 `json:"pm10"`
}

// WeatherSnapshot is the current-conditions view for one place at one instant.
// It lives for a single request.
type WeatherSnapshot struct {
	Location     Location    `json:"location"`
	TemperatureC float64     `json:"tempC"`
	TemperatureF float64     `json:"tempF"`
	FeelsLikeC   float64     `json:"feelsLikeC"`
	FeelsLikeF   float64     `json:"feelsLikeF"`
	Humidity     int         `json:"humidityPercent"`
	Condition    Condition   `json:"condition"`
	WindKph      float64     `json:"windKph"`
	WindDir      string      `json:"windDir"`
	PressureMb   float64     `json:"pressureMb"`
	UV           float64     `json:"uv"`
	VisibilityKm float64     `json:"visibilityKm"`
	AirQuality   *AirQuality `json:"airQuality,omitempty"` // nil when the provider omitted it
}

// DailyForecast is a single day of a multi-day forecast.
type DailyForecast struct {
	Date         string    `json:"date"` // raw provider value
	Day          time.Time `json:"-"`    // zero when Date could not be parsed
	MinTempC     float64   `json:"minTempC"`
	MaxTempC     float64   `json:"maxTempC"`
	Condition    Condition `json:"condition"`
	ChanceOfRain int       `json:"chanceOfRain"`
	ChanceOfSnow int       `json:"chanceOfSnow"`
	MaxWindKph   float64   `json:"maxWindKph"`
	AvgHumidity  float64   `json:"avgHumidity"`
	UV           float64   `json:"uv"`
}

// Forecast is a multi-day forecast for one location.
// Days are kept in the order the provider returned them (date ascending).
type Forecast struct {
	Location Location        `json:"location"`
	Days     []DailyForecast `json:"days"`
}

// Report is a successful lookup: the rendered text plus the data it was built from.
type Report struct {
	Kind     ReportKind       `json:"kind"`
	Place    string           `json:"place"`
	Text     string           `json:"text"`
	Snapshot *WeatherSnapshot `json:"snapshot,omitempty"`
	Forecast *Forecast        `json:"forecast,omitempty"`
}
