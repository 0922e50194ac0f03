package utils

import "go.uber.org/zap"

// Event is a server-side notification scoped to a board room.
type Event struct {
	Event string      `json:"event"`
	Room  string      `json:"boardId,omitempty"`
	Data  interface{} `json:"data"`
}

// EventBus hands events from services to the realtime hub. Publishing never
// blocks: when the buffer is full the event is dropped and a warning logged.
type EventBus struct {
	events chan Event
	logger *zap.SugaredLogger
}

func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		events: make(chan Event, 256),
		logger: logger.Sugar(),
	}
}

func (eb *EventBus) Publish(room, event string, data interface{}) {
	if eb == nil {
		return
	}
	e := Event{Event: event, Room: room, Data: data}
	select {
	case eb.events <- e:
	default:
		eb.logger.Warnw("Event dropped, relay buffer full", "event", event, "board_id", room, "buffer", cap(eb.events))
	}
}

func (eb *EventBus) SubscribeCh() <-chan Event {
	return eb.events
}
