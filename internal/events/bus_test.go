package events

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBus_SubscribeAndEmit tests typed subscription delivery
func TestBus_SubscribeAndEmit(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var received []*Event
	require.NoError(t, bus.Subscribe(RecordCreated, func(event *Event) {
		received = append(received, event)
	}))

	bus.Emit(RecordCreated, "ledger", map[string]interface{}{"id": "r1"})
	bus.Emit(RecordDeleted, "ledger", map[string]interface{}{"id": "r1"})

	require.Len(t, received, 1)
	assert.Equal(t, RecordCreated, received[0].Type)
	assert.Equal(t, "ledger", received[0].Module)
	assert.Equal(t, "r1", received[0].Data["id"])
	assert.False(t, received[0].Timestamp.IsZero())
}

// TestBus_SubscribeAll tests that a wildcard handler sees every event type
func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	count := 0
	require.NoError(t, bus.SubscribeAll(func(*Event) { count++ }))

	bus.Emit(SyncStarted, "sync", nil)
	bus.Emit(SyncCompleted, "sync", nil)
	bus.Emit(ConflictDetected, "sync", nil)

	assert.Equal(t, 3, count)
}

// TestBus_MultipleHandlers tests fan-out to several typed handlers
func TestBus_MultipleHandlers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	first, second := 0, 0
	require.NoError(t, bus.Subscribe(ConnectivityChanged, func(*Event) { first++ }))
	require.NoError(t, bus.Subscribe(ConnectivityChanged, func(*Event) { second++ }))

	bus.Emit(ConnectivityChanged, "sync", map[string]interface{}{"online": true})

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}
