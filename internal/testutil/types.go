package testutil

import (
	"errors"
	"sync"
)

// Common test errors
var (
	ErrTest        = errors.New("test error")
	ErrIntentional = errors.New("intentional error")
	ErrStop        = errors.New("stop")
)

// Journal records lifecycle events in the order they happen. A nil Journal
// discards events, so resources created without one stay usable.
type Journal struct {
	mu     sync.Mutex
	events []string
}

// NewJournal creates an empty Journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Record appends an event.
func (j *Journal) Record(event string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event)
}

// Events returns a copy of the recorded events.
func (j *Journal) Events() []string {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	result := make([]string, len(j.events))
	copy(result, j.events)
	return result
}

// Greeter is the interface most instrumentation tests wrap.
type Greeter interface {
	Greet(name string) string
}

// PrefixGreeter prefixes every greeting.
type PrefixGreeter struct {
	Prefix string
}

func (g *PrefixGreeter) Greet(name string) string {
	return g.Prefix + name
}

// TracingGreeter wraps a Greeter and tags every greeting with Tag.
type TracingGreeter struct {
	Next Greeter
	Tag  string
}

func (g *TracingGreeter) Greet(name string) string {
	return g.Tag + "(" + g.Next.Greet(name) + ")"
}
