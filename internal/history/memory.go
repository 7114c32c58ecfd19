package history

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no interaction exists for a given id.
	ErrNotFound = errors.New("interaction not found")
)

// Status tracks a deferred interaction from acknowledgment to follow-up.
type Status string

const (
	StatusThinking Status = "thinking"
	StatusDone     Status = "done"
)

// Interaction is one command invocation and its reply.
type Interaction struct {
	ID          string     `json:"id"`
	Command     string     `json:"command"`
	Place       string     `json:"place"`
	GuildID     string     `json:"guildId,omitempty"`
	User        string     `json:"user,omitempty"`
	Source      string     `json:"source"`
	Status      Status     `json:"status"`
	Outcome     string     `json:"outcome,omitempty"`
	Reply       string     `json:"reply,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// MemoryStore is a concurrency-safe, bounded in-memory interaction log.
// Entries are kept in creation order.
type MemoryStore struct {
	mu sync.RWMutex

	entries []*Interaction
	byID    map[string]*Interaction

	// retention configuration
	maxEntries int           // max number of interactions kept
	maxAge     time.Duration // optional max age for interactions

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]*Interaction),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Begin records a new interaction in the thinking state and returns a copy of it.
func (s *MemoryStore) Begin(in Interaction) Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := in
	entry.ID = uuid.NewString()
	entry.Status = StatusThinking
	entry.CreatedAt = s.now().UTC()
	entry.CompletedAt = nil

	s.entries = append(s.entries, &entry)
	s.byID[entry.ID] = &entry
	s.enforceRetention()

	return entry
}

// Complete attaches the follow-up reply to an interaction.
func (s *MemoryStore) Complete(id, outcome, reply string) (Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.byID[id]
	if !ok {
		return Interaction{}, ErrNotFound
	}
	done := s.now().UTC()
	entry.Status = StatusDone
	entry.Outcome = outcome
	entry.Reply = reply
	entry.CompletedAt = &done
	return *entry, nil
}

// Get returns the interaction with the given id.
func (s *MemoryStore) Get(id string) (Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.byID[id]
	if !ok || s.expired(entry) {
		return Interaction{}, ErrNotFound
	}
	return *entry, nil
}

// Recent returns up to limit interactions, newest first. limit <= 0 returns all.
func (s *MemoryStore) Recent(limit int) []Interaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Interaction, 0, n)
	// Entries are in creation order, so the first expired one ends the walk.
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		if s.expired(s.entries[i]) {
			break
		}
		out = append(out, *s.entries[i])
	}
	return out
}

// expired reports whether e is past maxAge. Reads filter on it; Begin prunes.
func (s *MemoryStore) expired(e *Interaction) bool {
	return s.maxAge > 0 && e.CreatedAt.Before(s.now().Add(-s.maxAge))
}

// enforceRetention drops the oldest entries; callers hold the write lock.
func (s *MemoryStore) enforceRetention() {
	drop := 0

	// Enforce retention by count.
	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		drop = len(s.entries) - s.maxEntries
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		for drop < len(s.entries) && s.entries[drop].CreatedAt.Before(cutoff) {
			drop++
		}
	}

	if drop == 0 {
		return
	}
	for _, e := range s.entries[:drop] {
		delete(s.byID, e.ID)
	}
	s.entries = append([]*Interaction(nil), s.entries[drop:]...)
}
