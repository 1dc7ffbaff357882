package events

import (
	"context"
	"sync"
)

// Recorder keeps published events in memory, most recent last. Used by
// service tests to assert on emission counts and payloads.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// All returns every recorded event in publish order.
func (r *Recorder) All() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Last returns the most recent event, or nil if none were published.
func (r *Recorder) Last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

// CountTopic returns how many recorded events carry the given topic.
func (r *Recorder) CountTopic(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Topic() == topic {
			n++
		}
	}
	return n
}

// LastTopic returns the most recent event with the given topic.
func (r *Recorder) LastTopic(topic string) Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Topic() == topic {
			return r.events[i]
		}
	}
	return nil
}
