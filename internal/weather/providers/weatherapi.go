package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weatherapi-bot/internal/weather"
)

// DefaultWeatherAPIBaseURL is the WeatherAPI.com v1 root.
const DefaultWeatherAPIBaseURL = "https://api.weatherapi.com/v1"

var payloadValidate = newPayloadValidator()

// newPayloadValidator reports fields by their JSON names.
func newPayloadValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewWeatherAPIProvider creates a provider. An empty baseURL selects the public endpoint.
func NewWeatherAPIProvider(cfg HTTPClientConfig, apiKey, baseURL string) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherAPIBaseURL
	}
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: cfg,
		circuit: newBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// Current calls /current.json.
func (p *WeatherAPIProvider) Current(ctx context.Context, place string, withAirQuality bool) (weather.WeatherSnapshot, error) {
	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", place)
	values.Set("aqi", yesNo(withAirQuality))

	var payload currentPayload
	if err := p.get(ctx, place, "/current.json", values, &payload); err != nil {
		return weather.WeatherSnapshot{}, err
	}
	return payload.toSnapshot(), nil
}

// Forecast calls /forecast.json with air quality and alerts disabled.
func (p *WeatherAPIProvider) Forecast(ctx context.Context, place string, days int) (weather.Forecast, error) {
	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", place)
	values.Set("days", strconv.Itoa(days))
	values.Set("aqi", "no")
	values.Set("alerts", "no")

	var payload forecastPayload
	if err := p.get(ctx, place, "/forecast.json", values, &payload); err != nil {
		return weather.Forecast{}, err
	}
	return payload.toForecast(), nil
}

// get performs the single request and decodes + validates the JSON body into out.
func (p *WeatherAPIProvider) get(ctx context.Context, place, path string, values url.Values, out interface{}) error {
	u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, place, u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// A deadline hit while streaming the body is still a transport failure.
		if ctx.Err() != nil {
			return &weather.LookupError{Kind: weather.ErrKindTransport, Place: place, Err: sanitize(ctx.Err())}
		}
		return &weather.LookupError{Kind: weather.ErrKindMalformed, Place: place, Err: fmt.Errorf("%w: %v", weather.ErrMalformed, err)}
	}
	if err := payloadValidate.Struct(out); err != nil {
		return &weather.LookupError{Kind: weather.ErrKindMalformed, Place: place, Err: missingFields(err)}
	}
	return nil
}

// missingFields condenses validator output into "missing field(s): a, b".
func missingFields(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", weather.ErrMalformed, err)
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		// Drop the root type name.
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		names = append(names, ns)
	}
	return fmt.Errorf("%w: missing field(s) %s", weather.ErrMalformed, strings.Join(names, ", "))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
