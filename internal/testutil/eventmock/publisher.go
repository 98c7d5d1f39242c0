package eventmock

import (
	"context"
	"sync"

	"microloans-api/internal/domain/event"
)

var _ event.Publisher = (*Publisher)(nil)

// Publisher records published events. Err, when set, is returned from every call
// after the event has been recorded.
type Publisher struct {
	mu     sync.Mutex
	events []event.Event
	Err    error
}

func (p *Publisher) Publish(_ context.Context, e event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.Err
}

// Events returns a copy of everything published so far.
func (p *Publisher) Events() []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Event, len(p.events))
	copy(out, p.events)
	return out
}
