package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/weatherapi-bot/internal/commands"
)

// Dispatcher is the part of commands.Dispatcher the digest job needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, req commands.Request, source string) (commands.Reply, error)
}

// Sink receives digest replies.
type Sink interface {
	Deliver(ctx context.Context, place string, reply commands.Reply) error
}

// LogSink writes digest replies to the log.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Deliver(_ context.Context, place string, reply commands.Reply) error {
	s.Logger.Info().
		Str("place", place).
		Str("command", reply.Command).
		Str("outcome", reply.Outcome).
		Str("interaction", reply.InteractionID).
		Msg(reply.Text)
	return nil
}

// Config describes the digest job.
type Config struct {
	Places   []string
	Command  string
	GuildID  string
	Interval time.Duration
}

// Scheduler periodically sends a weather digest for configured places.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	dispatcher Dispatcher
	sink       Sink
	cfg        Config
	logger     zerolog.Logger
}

// New creates a new Scheduler.
func New(cfg Config, dispatcher Dispatcher, sink Sink, logger zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:  s,
		dispatcher: dispatcher,
		sink:       sink,
		cfg:        cfg,
		logger:     logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.cfg.Places) == 0 {
		s.logger.Info().Msg("no digest places configured; nothing to schedule")
		return nil
	}

	interval := s.cfg.Interval
	if interval < time.Minute {
		interval = time.Hour
	}

	_, err := s.scheduler.Every(interval).WaitForSchedule().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info().Strs("places", s.cfg.Places).Dur("interval", interval).Msg("digest scheduled")
	return nil
}

// RunOnce sends one digest round, one reply per place.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.logger.Debug().Msg("running weather digest job")

	var wg sync.WaitGroup
	for _, place := range s.cfg.Places {
		place := place
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := commands.Request{Command: s.cfg.Command, Place: place, GuildID: s.cfg.GuildID}
			reply, err := s.dispatcher.Dispatch(ctx, req, "digest")
			if err != nil {
				s.logger.Error().Err(err).Str("place", place).Msg("digest dispatch failed")
				return
			}
			if err := s.sink.Deliver(ctx, place, reply); err != nil {
				s.logger.Error().Err(err).Str("place", place).Msg("digest delivery failed")
			}
		}()
	}
	wg.Wait()
	s.logger.Debug().Msg("completed weather digest job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
