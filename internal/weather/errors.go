package weather

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a lookup did not produce a report.
type ErrorKind string

const (
	ErrKindInvalidPlace ErrorKind = "invalid_place"
	ErrKindNotFound     ErrorKind = "not_found" // provider answered with a non-2xx status
	ErrKindTransport    ErrorKind = "transport"
	ErrKindMalformed    ErrorKind = "malformed"
)

// Markers prefixing user-facing failure lines.
const (
	WarningMarker = "⚠️"
	ErrorMarker   = "❌"
)

var (
	ErrEmptyPlace     = errors.New("place must not be empty")
	ErrProviderStatus = errors.New("provider returned non-success status")
	ErrMalformed      = errors.New("malformed provider payload")
)

// LookupError is the typed failure returned by Facade.Lookup and providers.
type LookupError struct {
	Kind       ErrorKind
	Place      string
	StatusCode int // set for ErrKindNotFound
	Err        error
}

func (e *LookupError) Error() string {
	switch e.Kind {
	case ErrKindNotFound:
		return fmt.Sprintf("weather lookup for %q: status %d", e.Place, e.StatusCode)
	default:
		return fmt.Sprintf("weather lookup for %q: %s: %v", e.Place, e.Kind, e.Err)
	}
}

func (e *LookupError) Unwrap() error { return e.Err }

// UserMessage renders the error as a one-line reply safe to show to end users.
func (e *LookupError) UserMessage() string {
	switch e.Kind {
	case ErrKindInvalidPlace:
		return WarningMarker + " Please provide a city name."
	case ErrKindNotFound:
		return fmt.Sprintf("%s Could not fetch weather for **%s**.", WarningMarker, e.Place)
	default:
		detail := "unknown error"
		if e.Err != nil {
			detail = e.Err.Error()
		}
		return fmt.Sprintf("%s Error fetching weather: %s", ErrorMarker, detail)
	}
}

// KindOf reports the ErrorKind carried by err, or ErrKindTransport for foreign errors.
func KindOf(err error) ErrorKind {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ErrKindTransport
}

// UserMessage renders any error as a user-facing failure line.
func UserMessage(place string, err error) string {
	var le *LookupError
	if errors.As(err, &le) {
		return le.UserMessage()
	}
	return (&LookupError{Kind: ErrKindTransport, Place: place, Err: err}).UserMessage()
}
