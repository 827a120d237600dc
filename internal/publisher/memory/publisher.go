// Package memory contains an in-memory run-event publisher for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vagasfeed/ingestor/internal/pipeline"
)

// Event is one recorded run publication.
type Event struct {
	Topic  string
	Report pipeline.RunReport
}

// Publisher records run reports so tests can assert on what the pipeline
// published without a broker.
type Publisher struct {
	mu     sync.RWMutex
	events []Event
}

// New returns an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the report and returns a pseudo message id. The
// pipeline publishes nothing but run reports; any other payload is a
// wiring mistake and is rejected.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	report, ok := payload.(pipeline.RunReport)
	if !ok {
		return "", fmt.Errorf("unexpected payload type %T", payload)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Event{Topic: topic, Report: report})
	return fmt.Sprintf("memory-%d", len(p.events)), nil
}

// Events returns a copy of the recorded publications.
func (p *Publisher) Events() []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

var _ pipeline.Publisher = (*Publisher)(nil)
