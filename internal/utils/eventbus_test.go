package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEventBus_PublishDelivers(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	bus.Publish("board-1", "task-created", map[string]string{"id": "t1"})

	select {
	case e := <-bus.SubscribeCh():
		assert.Equal(t, "board-1", e.Room)
		assert.Equal(t, "task-created", e.Event)
	default:
		t.Fatal("expected an event")
	}
}

func TestEventBus_DropsWhenFullAndWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	bus := NewEventBus(zap.New(core))
	for i := 0; i < cap(bus.events)+10; i++ {
		bus.Publish("b", "e", i)
	}
	require.Len(t, bus.events, cap(bus.events))

	dropped := logs.FilterMessage("Event dropped, relay buffer full").All()
	require.Len(t, dropped, 10)
	fields := dropped[0].ContextMap()
	assert.Equal(t, "e", fields["event"])
	assert.Equal(t, "b", fields["board_id"])
}

func TestEventBus_NilIsNoop(t *testing.T) {
	var bus *EventBus
	assert.NotPanics(t, func() { bus.Publish("b", "e", nil) })
	assert.NotPanics(t, func() { NewEventBus(nil).Publish("b", "e", nil) })
}
