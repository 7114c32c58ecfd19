package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/weatherapi-bot/internal/history"
	"github.com/i474232898/weatherapi-bot/internal/metrics"
	"github.com/i474232898/weatherapi-bot/internal/weather"
)

// DefaultTimeout bounds a whole dispatch; it must exceed every facade timeout.
const DefaultTimeout = 15 * time.Second

// OutcomeOK marks a successful lookup; failures use the weather.ErrorKind value.
const OutcomeOK = "ok"

// ErrWrongGuild is returned when a request targets a guild the bot is not registered for.
var ErrWrongGuild = errors.New("commands are not registered for this guild")

// Reporter is the part of weather.Facade the dispatcher needs.
type Reporter interface {
	Lookup(ctx context.Context, place string, kind weather.ReportKind) (weather.Report, error)
}

// Request is one command invocation.
type Request struct {
	Command string `json:"command" form:"command" validate:"required"`
	Place   string `json:"place" form:"place"`
	GuildID string `json:"guild_id" form:"guild_id" validate:"required"`
	User    string `json:"user" form:"user"`
}

// Reply is the text sent back for a request.
type Reply struct {
	InteractionID string `json:"id"`
	Command       string `json:"command"`
	Outcome       string `json:"outcome"`
	Text          string `json:"reply"`
}

// Config configures a Dispatcher.
type Config struct {
	GuildID string
	Timeout time.Duration
}

// Dispatcher routes commands to the weather facade and records every interaction.
type Dispatcher struct {
	registry *Registry
	reporter Reporter
	history  *history.MemoryStore
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	guildID  string
	timeout  time.Duration

	// inflight counts deferred follow-ups still running.
	inflight sync.WaitGroup
}

// NewDispatcher creates a new Dispatcher. metrics may be nil.
func NewDispatcher(
	cfg Config,
	registry *Registry,
	reporter Reporter,
	hist *history.MemoryStore,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		registry: registry,
		reporter: reporter,
		history:  hist,
		metrics:  m,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
		guildID:  cfg.GuildID,
		timeout:  timeout,
	}
}

// Registry returns the command registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// GuildID returns the guild the commands are registered for.
func (d *Dispatcher) GuildID() string {
	return d.guildID
}

// Dispatch runs a command synchronously. The returned error is non-nil only for
// requests that cannot be routed (unknown command, wrong guild); lookup failures
// come back as a Reply with a failure outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, source string) (Reply, error) {
	cmd, err := d.route(req)
	if err != nil {
		return Reply{}, err
	}

	in := d.history.Begin(d.interaction(req, cmd, source))
	outcome, text := d.run(ctx, cmd, req.Place)
	if _, err := d.history.Complete(in.ID, outcome, text); err != nil {
		d.logger.Warn().Err(err).Str("interaction", in.ID).Msg("interaction evicted before completion")
	}

	return Reply{InteractionID: in.ID, Command: cmd.Name, Outcome: outcome, Text: text}, nil
}

// Defer acknowledges a command at once and produces the reply in the background.
// The follow-up is read back from history by interaction id.
func (d *Dispatcher) Defer(req Request, source string) (history.Interaction, error) {
	cmd, err := d.route(req)
	if err != nil {
		return history.Interaction{}, err
	}

	in := d.history.Begin(d.interaction(req, cmd, source))

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		outcome, text := d.run(context.Background(), cmd, req.Place)
		if _, err := d.history.Complete(in.ID, outcome, text); err != nil {
			d.logger.Warn().Err(err).Str("interaction", in.ID).Msg("interaction evicted before follow-up")
		}
	}()

	return in, nil
}

// Drain waits for deferred follow-ups to finish or for ctx to end.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Timeout returns the bound applied to a single dispatch.
func (d *Dispatcher) Timeout() time.Duration {
	return d.timeout
}

func (d *Dispatcher) route(req Request) (Command, error) {
	if d.guildID != "" && req.GuildID != d.guildID {
		return Command{}, fmt.Errorf("%w: %s", ErrWrongGuild, req.GuildID)
	}
	return d.registry.Get(req.Command)
}

func (d *Dispatcher) interaction(req Request, cmd Command, source string) history.Interaction {
	d.metrics.CountInteraction(cmd.Name, source)
	return history.Interaction{
		Command: cmd.Name,
		Place:   strings.TrimSpace(req.Place),
		GuildID: req.GuildID,
		User:    req.User,
		Source:  source,
	}
}

// run performs the lookup and always yields a non-empty reply.
func (d *Dispatcher) run(ctx context.Context, cmd Command, place string) (outcome, text string) {
	place = strings.TrimSpace(place)
	log := d.logger.With().Str("command", cmd.Name).Str("place", place).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("command failed unexpectedly")
			outcome = string(weather.ErrKindTransport)
			text = fmt.Sprintf("%s Unexpected error: %v", weather.ErrorMarker, r)
		}
	}()

	if place == "" {
		err := &weather.LookupError{Kind: weather.ErrKindInvalidPlace, Err: weather.ErrEmptyPlace}
		log.Debug().Msg("rejected command without a place")
		return string(err.Kind), err.UserMessage()
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	report, err := d.reporter.Lookup(ctx, place, cmd.Kind)
	elapsed := time.Since(start)

	if err != nil {
		kind := weather.KindOf(err)
		d.metrics.ObserveLookup(string(cmd.Kind), string(kind), elapsed)
		log.Warn().Err(err).Str("outcome", string(kind)).Dur("elapsed", elapsed).Msg("weather lookup failed")
		return string(kind), weather.UserMessage(place, err)
	}

	d.metrics.ObserveLookup(string(cmd.Kind), OutcomeOK, elapsed)
	log.Info().Dur("elapsed", elapsed).Msg("weather lookup served")
	return OutcomeOK, report.Text
}
