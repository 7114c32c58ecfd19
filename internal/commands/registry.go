package commands

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/i474232898/weatherapi-bot/internal/weather"
)

// ErrUnknownCommand is returned for names that were never registered.
var ErrUnknownCommand = errors.New("unknown command")

// Command is a slash-style command bound to a report kind.
type Command struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Option      string             `json:"option"`
	Kind        weather.ReportKind `json:"kind"`
}

// Registry holds the commands offered to a guild, in registration order.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
	order    []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// DefaultRegistry registers weather, today and weekly.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Command{Name: "weather", Description: "Get current weather for a city", Option: "city", Kind: weather.KindCurrent})
	r.Register(Command{Name: "today", Description: "Get today's detailed weather and air quality for a city", Option: "city", Kind: weather.KindToday})
	r.Register(Command{Name: "weekly", Description: "Get the 7-day forecast for a city", Option: "city", Kind: weather.KindWeekly})
	return r
}

// Register adds or replaces a command.
func (r *Registry) Register(cmd Command) {
	name := strings.ToLower(strings.TrimSpace(cmd.Name))
	cmd.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; !exists {
		r.order = append(r.order, name)
	}
	r.commands[name] = cmd
}

// Get looks a command up by name, case-insensitively and with an optional leading slash.
func (r *Registry) Get(name string) (Command, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))

	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[key]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return cmd, nil
}

// List returns the registered commands in registration order.
func (r *Registry) List() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}
