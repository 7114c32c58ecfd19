package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weatherapi-bot/internal/commands"
)

type fakeDispatcher struct {
	mu   sync.Mutex
	reqs []commands.Request
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req commands.Request, source string) (commands.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if req.Place == "broken" {
		return commands.Reply{}, errors.New("unroutable")
	}
	return commands.Reply{Command: req.Command, Outcome: commands.OutcomeOK, Text: "report " + req.Place + " via " + source}, nil
}

type recordingSink struct {
	mu      sync.Mutex
	replies map[string]string
}

func (s *recordingSink) Deliver(_ context.Context, place string, reply commands.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[place] = reply.Text
	return nil
}

func TestRunOnceDeliversOneReplyPerPlace(t *testing.T) {
	d := &fakeDispatcher{}
	sink := &recordingSink{replies: map[string]string{}}
	s := New(Config{Places: []string{"Paris", "London", "broken"}, Command: "today", GuildID: "42", Interval: time.Hour}, d, sink, zerolog.Nop())

	s.RunOnce(context.Background())

	assert.Equal(t, map[string]string{
		"Paris":  "report Paris via digest",
		"London": "report London via digest",
	}, sink.replies)

	require.Len(t, d.reqs, 3)
	places := []string{}
	for _, r := range d.reqs {
		assert.Equal(t, "today", r.Command)
		assert.Equal(t, "42", r.GuildID)
		places = append(places, r.Place)
	}
	sort.Strings(places)
	assert.Equal(t, []string{"London", "Paris", "broken"}, places)
}

func TestStartWithoutPlacesIsNoop(t *testing.T) {
	d := &fakeDispatcher{}
	s := New(Config{Command: "weather"}, d, LogSink{Logger: zerolog.Nop()}, zerolog.Nop())

	require.NoError(t, s.Start())
	s.Stop()
	assert.Empty(t, d.reqs)
}

func TestStartSchedulesWithoutRunningImmediately(t *testing.T) {
	d := &fakeDispatcher{}
	s := New(Config{Places: []string{"Paris"}, Command: "weather", Interval: time.Hour}, d, LogSink{Logger: zerolog.Nop()}, zerolog.Nop())

	require.NoError(t, s.Start())
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Empty(t, d.reqs)
}
