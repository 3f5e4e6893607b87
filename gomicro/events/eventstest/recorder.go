// Package eventstest provides an in-memory Publisher for tests.
package eventstest

import (
	"context"
	"sync"

	"github.com/nexzo/platform/gomicro/events"
)

// Published is one recorded event
type Published struct {
	Subject  string
	Envelope events.Envelope
}

// Recorder keeps every published event. Set Err to make Publish fail.
type Recorder struct {
	mu     sync.Mutex
	events []Published
	Err    error
}

// Publish implements events.Publisher
func (r *Recorder) Publish(_ context.Context, subject string, env events.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, Published{Subject: subject, Envelope: env})
	return nil
}

// Close implements events.Publisher
func (r *Recorder) Close() {}

// Events returns a copy of what was published
func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}
