package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is one computed-quote notification carried to listeners.
type Event struct {
	ID         string
	Topic      string
	OccurredAt time.Time
	Payload    []byte
}

// Listener reacts to emitted events (metrics, logging, future sinks).
// Listeners are invoked synchronously, in registration order, immediately
// after the computation that produced the event.
type Listener interface {
	Notify(ctx context.Context, event Event) error
}

// Bus fans quote lifecycle events out to registered listeners.
type Bus struct {
	Listeners []Listener
	Now       func() time.Time
}

// Emit builds the event and dispatches it to every listener. Listener
// failures are joined and returned but never prevent later listeners from
// running.
func (b *Bus) Emit(ctx context.Context, topic string, payload any) (Event, error) {
	if b == nil {
		return Event{}, errors.New("events: bus not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Event{}, errors.New("events: topic is required")
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		return Event{}, fmt.Errorf("events: encode payload: %w", err)
	}
	ev := Event{
		ID:         uuid.NewString(),
		Topic:      topic,
		OccurredAt: b.now(),
		Payload:    encoded,
	}
	var joined error
	for _, l := range b.Listeners {
		if l == nil {
			continue
		}
		if notifyErr := l.Notify(ctx, ev); notifyErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: listener: %w", notifyErr))
		}
	}
	return ev, joined
}

func (b *Bus) now() time.Time {
	if b != nil && b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func encodePayload(payload any) ([]byte, error) {
	if payload == nil {
		return []byte("{}"), nil
	}
	switch v := payload.(type) {
	case []byte:
		if len(v) == 0 {
			return []byte("{}"), nil
		}
		return v, nil
	case json.RawMessage:
		if len(v) == 0 {
			return []byte("{}"), nil
		}
		return v, nil
	default:
		return json.Marshal(payload)
	}
}
