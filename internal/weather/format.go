package weather

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AirQualityHeader opens the air-quality section of a detailed report.
const AirQualityHeader = "**🌫 Air quality**"

// DayBlockPrefix starts every day block of a weekly report.
const DayBlockPrefix = "🗓 "

const forecastDateLayout = "2006-01-02"

// FormatCurrent renders a CURRENT report.
func FormatCurrent(s WeatherSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Weather for %s, %s**\n", s.Location.Name, s.Location.Country)
	fmt.Fprintf(&b, "🌡 Temperature: %s°C (Feels like %s°C)\n", num(s.TemperatureC), num(s.FeelsLikeC))
	fmt.Fprintf(&b, "💧 Humidity: %d%%\n", s.Humidity)
	fmt.Fprintf(&b, "☁ Condition: %s\n", s.Condition.Text)
	fmt.Fprintf(&b, "[Icon](%s)", s.Condition.IconURL())
	return b.String()
}

// FormatToday renders a TODAY_DETAILED report. The air-quality section is
// present only when the snapshot carries air-quality data.
func FormatToday(s WeatherSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Today's weather for %s, %s, %s**\n", s.Location.Name, s.Location.Region, s.Location.Country)
	fmt.Fprintf(&b, "🕒 Local time: %s\n", s.Location.LocalTime)
	fmt.Fprintf(&b, "🌡 Temperature: %s°C / %s°F (Feels like %s°C / %s°F)\n",
		num(s.TemperatureC), num(s.TemperatureF), num(s.FeelsLikeC), num(s.FeelsLikeF))
	fmt.Fprintf(&b, "💧 Humidity: %d%%\n", s.Humidity)
	fmt.Fprintf(&b, "☁ Condition: %s\n", s.Condition.Text)
	fmt.Fprintf(&b, "👁 Visibility: %s km\n", num(s.VisibilityKm))
	fmt.Fprintf(&b, "💨 Wind: %s kph %s\n", num(s.WindKph), s.WindDir)
	fmt.Fprintf(&b, "🧭 Pressure: %s mb\n", num(s.PressureMb))
	fmt.Fprintf(&b, "🔆 UV index: %s\n", num(s.UV))
	fmt.Fprintf(&b, "[Icon](%s)", s.Condition.IconURL())

	if aq := s.AirQuality; aq != nil {
		b.WriteString("\n\n" + AirQualityHeader + "\n")
		fmt.Fprintf(&b, "CO: %.1f μg/m³\n", aq.CO)
		fmt.Fprintf(&b, "NO₂: %.1f μg/m³\n", aq.NO2)
		fmt.Fprintf(&b, "O₃: %.1f μg/m³\n", aq.O3)
		fmt.Fprintf(&b, "PM2.5: %.1f μg/m³\n", aq.PM25)
		fmt.Fprintf(&b, "PM10: %.1f μg/m³", aq.PM10)
	}
	return b.String()
}

// FormatWeekly renders a WEEKLY_FORECAST report, one block per day in input order.
func FormatWeekly(f Forecast) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**📅 %d-day forecast for %s, %s, %s**", len(f.Days), f.Location.Name, f.Location.Region, f.Location.Country)
	for _, d := range f.Days {
		b.WriteString("\n\n")
		b.WriteString(DayBlockPrefix + "**" + dayLabel(d) + "**\n")
		fmt.Fprintf(&b, "🌡 %s°C – %s°C\n", num(d.MinTempC), num(d.MaxTempC))
		fmt.Fprintf(&b, "☁ %s\n", d.Condition.Text)
		if d.ChanceOfRain > 0 {
			fmt.Fprintf(&b, "🌧 Chance of rain: %d%%\n", d.ChanceOfRain)
		}
		if d.ChanceOfSnow > 0 {
			fmt.Fprintf(&b, "❄ Chance of snow: %d%%\n", d.ChanceOfSnow)
		}
		fmt.Fprintf(&b, "💨 Wind: %s kph | 💧 Humidity: %s%% | 🔆 UV: %s", num(d.MaxWindKph), num(d.AvgHumidity), num(d.UV))
	}
	return b.String()
}

// ParseForecastDate parses a provider date ("2006-01-02"). ok is false when the
// format is not recognised; callers keep the raw string in that case.
func ParseForecastDate(raw string) (time.Time, bool) {
	t, err := time.Parse(forecastDateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func dayLabel(d DailyForecast) string {
	day := d.Day
	if day.IsZero() {
		parsed, ok := ParseForecastDate(d.Date)
		if !ok {
			return d.Date
		}
		day = parsed
	}
	return day.Format("Monday, Jan 2")
}

// num formats a float without trailing zeros ("18.5", "18").
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
