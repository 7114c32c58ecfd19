package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weatherapi-bot/internal/weather"
)

// HTTPClientConfig bundles the HTTP client and the optional circuit breaker.
type HTTPClientConfig struct {
	Client *http.Client
	// BreakerEnabled guards the provider with a circuit breaker. Off by default;
	// an open breaker fails fast and never retries.
	BreakerEnabled bool
}

var (
	errNoHTTPClient = errors.New("http client not configured")
	errCircuitOpen  = errors.New("weather service temporarily unavailable")
)

// statusError carries a non-2xx provider status through the breaker.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Provider rejections (unknown place, bad key) say nothing about provider health.
		IsSuccessful: func(err error) bool {
			var se *statusError
			return err == nil || (errors.As(err, &se) && se.code < http.StatusInternalServerError)
		},
	})
}

// doRequest executes exactly one GET and classifies the outcome into a
// *weather.LookupError. The caller closes the returned body.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	place string,
	rawURL string,
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, &weather.LookupError{Kind: weather.ErrKindTransport, Place: place, Err: errNoHTTPClient}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &weather.LookupError{Kind: weather.ErrKindTransport, Place: place, Err: sanitize(err)}
	}
	req.Header.Set("Accept", "application/json")

	call := func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, &statusError{code: resp.StatusCode}
		}
		return resp, nil
	}

	var result interface{}
	if cfg.BreakerEnabled && cb != nil {
		result, err = cb.Execute(call)
	} else {
		result, err = call()
	}

	if err != nil {
		var se *statusError
		switch {
		case errors.As(err, &se):
			return nil, &weather.LookupError{
				Kind:       weather.ErrKindNotFound,
				Place:      place,
				StatusCode: se.code,
				Err:        fmt.Errorf("%w: %d", weather.ErrProviderStatus, se.code),
			}
		case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, &weather.LookupError{Kind: weather.ErrKindTransport, Place: place, Err: errCircuitOpen}
		default:
			return nil, &weather.LookupError{Kind: weather.ErrKindTransport, Place: place, Err: sanitize(err)}
		}
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, &weather.LookupError{Kind: weather.ErrKindTransport, Place: place, Err: errors.New("unexpected result type from circuit breaker")}
	}
	return resp, nil
}

// sanitize drops the request URL from transport errors; it carries the API key.
func sanitize(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		err = ue.Err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.New("request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return errors.New("request canceled")
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return errors.New("request timed out")
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("lookup %s: %s", dnsErr.Name, dnsErr.Err)
	}
	return err
}
