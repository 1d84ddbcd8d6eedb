package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/relay/topic"
)

// TopicError is the diagnostics channel. Both the bus's own failure path
// and the hook registry's failure path publish Failure payloads here;
// consumers (toast notifiers, telemetry exporters) subscribe like any
// other listener.
const TopicError = topic.Topic("error")

// Event is one occurrence delivered to listeners. Events are immutable
// once created; listeners observe the same payload value concurrently
// and must not mutate it.
type Event struct {
	// Topic is the concrete topic this event was emitted on.
	Topic topic.Topic

	// Payload is the topic-specific value.
	Payload any

	// Meta carries standard event information.
	Meta Metadata
}

// Metadata is standard information attached to every event.
type Metadata struct {
	// ID uniquely identifies this event instance.
	ID string

	// Time is when the event was emitted.
	Time time.Time

	// Source identifies the emitting bus.
	Source string
}

// newEvent stamps an event with fresh metadata.
func newEvent(t topic.Topic, payload any, source string) Event {
	return Event{
		Topic:   t,
		Payload: payload,
		Meta: Metadata{
			ID:     uuid.NewString(),
			Time:   time.Now(),
			Source: source,
		},
	}
}

// Failure is the payload published on TopicError when a listener or hook
// handler fails.
type Failure struct {
	// Origin is the topic or hook point whose handler failed.
	Origin topic.Topic

	// Err is the handler's error, including wrapped panics and timeouts.
	Err error

	// RegistrationID identifies the failing registration when known.
	RegistrationID uint64

	// Time is when the failure was observed.
	Time time.Time
}
