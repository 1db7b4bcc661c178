package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bakehouse/pricing-api/internal/events"
)

type captureListener struct {
	events []events.Event
	err    error
}

func (c *captureListener) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitFansOutToAllListeners(t *testing.T) {
	first := &captureListener{}
	second := &captureListener{}
	fixed := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	bus := &events.Bus{
		Listeners: []events.Listener{first, second},
		Now:       func() time.Time { return fixed },
	}

	ev, err := bus.Emit(context.Background(), events.TopicQuoteComputed, map[string]any{"total": "21.00"})
	require.NoError(t, err)
	require.Equal(t, events.TopicQuoteComputed, ev.Topic)
	require.Equal(t, fixed, ev.OccurredAt)
	require.NotEmpty(t, ev.ID)
	require.JSONEq(t, `{"total":"21.00"}`, string(ev.Payload))

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
}

func TestEmitListenerErrorDoesNotStopOthers(t *testing.T) {
	failing := &captureListener{err: errors.New("sink down")}
	healthy := &captureListener{}
	bus := &events.Bus{Listeners: []events.Listener{failing, healthy}}

	_, err := bus.Emit(context.Background(), events.TopicTaxUpdated, nil)
	require.Error(t, err)
	require.Len(t, healthy.events, 1)
}

func TestEmitRequiresTopic(t *testing.T) {
	bus := &events.Bus{}
	_, err := bus.Emit(context.Background(), "  ", nil)
	require.Error(t, err)
}
