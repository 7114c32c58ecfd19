package weather

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Default per-kind deadlines for the outbound provider call.
const (
	DefaultCurrentTimeout  = 5 * time.Second
	DefaultForecastTimeout = 10 * time.Second
)

// Options configures a Facade.
type Options struct {
	// Timeouts bounds the provider call per report kind. Missing kinds fall
	// back to the defaults above.
	Timeouts map[ReportKind]time.Duration
}

// Facade turns (place, kind) into a rendered report with exactly one provider call.
// It holds no mutable state and is safe for concurrent use.
type Facade struct {
	provider Provider
	timeouts map[ReportKind]time.Duration
}

// NewFacade creates a new Facade.
func NewFacade(provider Provider, opts Options) *Facade {
	timeouts := map[ReportKind]time.Duration{
		KindCurrent: DefaultCurrentTimeout,
		KindToday:   DefaultCurrentTimeout,
		KindWeekly:  DefaultForecastTimeout,
	}
	for k, d := range opts.Timeouts {
		if d > 0 {
			timeouts[k] = d
		}
	}
	return &Facade{
		provider: provider,
		timeouts: timeouts,
	}
}

// Timeout returns the provider deadline used for kind.
func (f *Facade) Timeout(kind ReportKind) time.Duration {
	if d, ok := f.timeouts[kind]; ok {
		return d
	}
	return DefaultCurrentTimeout
}

// Lookup fetches and renders a report. Failures are returned as *LookupError.
func (f *Facade) Lookup(ctx context.Context, place string, kind ReportKind) (Report, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return Report{}, &LookupError{Kind: ErrKindInvalidPlace, Err: ErrEmptyPlace}
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout(kind))
	defer cancel()

	report := Report{Kind: kind, Place: place}
	switch kind {
	case KindCurrent, KindToday:
		snap, err := f.provider.Current(ctx, place, kind == KindToday)
		if err != nil {
			return Report{}, err
		}
		report.Snapshot = &snap
		if kind == KindToday {
			report.Text = FormatToday(snap)
		} else {
			report.Text = FormatCurrent(snap)
		}
	case KindWeekly:
		fc, err := f.provider.Forecast(ctx, place, ForecastDays)
		if err != nil {
			return Report{}, err
		}
		report.Forecast = &fc
		report.Text = FormatWeekly(fc)
	default:
		return Report{}, &LookupError{Kind: ErrKindMalformed, Place: place, Err: fmt.Errorf("unsupported report kind %q", kind)}
	}
	return report, nil
}

// FetchReport always returns a non-empty reply: the rendered report or a
// one-line failure message. It never panics on provider misbehaviour.
func (f *Facade) FetchReport(ctx context.Context, place string, kind ReportKind) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = UserMessage(place, fmt.Errorf("%v", r))
		}
	}()

	report, err := f.Lookup(ctx, place, kind)
	if err != nil {
		return UserMessage(place, err)
	}
	return report.Text
}
