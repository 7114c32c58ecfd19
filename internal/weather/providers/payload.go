package providers

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/i474232898/weatherapi-bot/internal/weather"
)

// Wire shapes of WeatherAPI.com responses. Pointer fields let validation tell a
// missing field apart from a zero value.

type locationPayload struct {
	Name      *string `json:"name" validate:"required"`
	Region    *string `json:"region" validate:"required"`
	Country   *string `json:"country" validate:"required"`
	LocalTime *string `json:"localtime" validate:"required"`
}

type conditionPayload struct {
	Text *string `json:"text" validate:"required"`
	Icon *string `json:"icon" validate:"required"`
}

type airQualityPayload struct {
	CO   *float64 `json:"co" validate:"required"`
	NO2  *float64 `json:"no2" validate:"required"`
	O3   *float64 `json:"o3" validate:"required"`
	PM25 *float64 `json:"pm2_5" validate:"required"`
	PM10 *float64 `json:"pm10" validate:"required"`
}

type currentBlock struct {
	TempC      *float64           `json:"temp_c" validate:"required"`
	TempF      *float64           `json:"temp_f" validate:"required"`
	FeelsLikeC *float64           `json:"feelslike_c" validate:"required"`
	FeelsLikeF *float64           `json:"feelslike_f" validate:"required"`
	Humidity   *float64           `json:"humidity" validate:"required"`
	Condition  *conditionPayload  `json:"condition" validate:"required"`
	WindKph    *float64           `json:"wind_kph" validate:"required"`
	WindDir    *string            `json:"wind_dir" validate:"required"`
	PressureMb *float64           `json:"pressure_mb" validate:"required"`
	UV         *float64           `json:"uv" validate:"required"`
	VisKm      *float64           `json:"vis_km" validate:"required"`
	AirQuality *airQualityPayload `json:"air_quality"`
}

type currentPayload struct {
	Location *locationPayload `json:"location" validate:"required"`
	Current  *currentBlock    `json:"current" validate:"required"`
}

type dayPayload struct {
	MaxTempC     *float64          `json:"maxtemp_c" validate:"required"`
	MinTempC     *float64          `json:"mintemp_c" validate:"required"`
	MaxWindKph   *float64          `json:"maxwind_kph" validate:"required"`
	AvgHumidity  *float64          `json:"avghumidity" validate:"required"`
	ChanceOfRain *percent          `json:"daily_chance_of_rain" validate:"required"`
	ChanceOfSnow *percent          `json:"daily_chance_of_snow" validate:"required"`
	Condition    *conditionPayload `json:"condition" validate:"required"`
	UV           *float64          `json:"uv" validate:"required"`
}

type forecastDayPayload struct {
	Date *string     `json:"date" validate:"required"`
	Day  *dayPayload `json:"day" validate:"required"`
}

type forecastPayload struct {
	Location *locationPayload `json:"location" validate:"required"`
	Forecast *struct {
		ForecastDay []forecastDayPayload `json:"forecastday" validate:"required,min=1,dive"`
	} `json:"forecast" validate:"required"`
}

// percent accepts both 42 and "42"; the provider has served either over time.
type percent int

func (p *percent) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 {
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*p = percent(f)
	return nil
}

var _ json.Unmarshaler = (*percent)(nil)

func (l *locationPayload) toLocation() weather.Location {
	return weather.Location{
		Name:      *l.Name,
		Region:    *l.Region,
		Country:   *l.Country,
		LocalTime: *l.LocalTime,
	}
}

func (c *conditionPayload) toCondition() weather.Condition {
	return weather.Condition{Text: *c.Text, Icon: *c.Icon}
}

func (p *currentPayload) toSnapshot() weather.WeatherSnapshot {
	c := p.Current
	snap := weather.WeatherSnapshot{
		Location:     p.Location.toLocation(),
		TemperatureC: *c.TempC,
		TemperatureF: *c.TempF,
		FeelsLikeC:   *c.FeelsLikeC,
		FeelsLikeF:   *c.FeelsLikeF,
		Humidity:     int(*c.Humidity),
		Condition:    c.Condition.toCondition(),
		WindKph:      *c.WindKph,
		WindDir:      *c.WindDir,
		PressureMb:   *c.PressureMb,
		UV:           *c.UV,
		VisibilityKm: *c.VisKm,
	}
	if aq := c.AirQuality; aq != nil {
		snap.AirQuality = &weather.AirQuality{
			CO:   *aq.CO,
			NO2:  *aq.NO2,
			O3:   *aq.O3,
			PM25: *aq.PM25,
			PM10: *aq.PM10,
		}
	}
	return snap
}

func (p *forecastPayload) toForecast() weather.Forecast {
	fc := weather.Forecast{
		Location: p.Location.toLocation(),
		Days:     make([]weather.DailyForecast, 0, len(p.Forecast.ForecastDay)),
	}
	for _, fd := range p.Forecast.ForecastDay {
		d := fd.Day
		day := weather.DailyForecast{
			Date:         *fd.Date,
			MinTempC:     *d.MinTempC,
			MaxTempC:     *d.MaxTempC,
			Condition:    d.Condition.toCondition(),
			ChanceOfRain: int(*d.ChanceOfRain),
			ChanceOfSnow: int(*d.ChanceOfSnow),
			MaxWindKph:   *d.MaxWindKph,
			AvgHumidity:  *d.AvgHumidity,
			UV:           *d.UV,
		}
		if t, ok := weather.ParseForecastDate(day.Date); ok {
			day.Day = t
		}
		fc.Days = append(fc.Days, day)
	}
	return fc
}
