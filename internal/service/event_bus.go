// internal/service/event_bus.go
package service

import (
	"sync"

	"go.uber.org/zap"

	"order-printer/internal/model"
)

const (
	eventBufferSize      = 1000
	subscriberBufferSize = 100
)

// EventBus fans printer and print events out to subscribers
type EventBus struct {
	subscribers map[int]*subscriber
	nextID      int
	events      chan model.Event
	closed      bool
	mutex       sync.RWMutex
	logger      *zap.Logger
}

type subscriber struct {
	types map[model.EventType]bool
	ch    chan model.Event
}

func (s *subscriber) wants(t model.EventType) bool {
	return len(s.types) == 0 || s.types[t]
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[int]*subscriber),
		events:      make(chan model.Event, eventBufferSize),
		logger:      logger.With(zap.String("component", "event-bus")),
	}
}

// Start distributes events until Stop is called. Subscriber channels are
// closed when it returns.
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distributeEvent(event)
	}

	eb.mutex.Lock()
	for id, sub := range eb.subscribers {
		close(sub.ch)
		delete(eb.subscribers, id)
	}
	eb.mutex.Unlock()
}

// Stop ends distribution. Events published afterwards are discarded.
func (eb *EventBus) Stop() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	if eb.closed {
		return
	}
	eb.closed = true
	close(eb.events)
}

// Publish queues an event without blocking. A full bus drops the event.
func (eb *EventBus) Publish(event model.Event) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()
	if eb.closed {
		return
	}

	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("printer_target", event.Target),
		)
	}
}

// Subscribe returns a channel receiving events of the given types, or of
// every type when none are given, and a function that ends the subscription.
func (eb *EventBus) Subscribe(types ...model.EventType) (<-chan model.Event, func()) {
	sub := &subscriber{
		types: make(map[model.EventType]bool, len(types)),
		ch:    make(chan model.Event, subscriberBufferSize),
	}
	for _, t := range types {
		sub.types[t] = true
	}

	eb.mutex.Lock()
	id := eb.nextID
	eb.nextID++
	eb.subscribers[id] = sub
	eb.mutex.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			eb.mutex.Lock()
			defer eb.mutex.Unlock()
			if _, ok := eb.subscribers[id]; ok {
				delete(eb.subscribers, id)
				close(sub.ch)
			}
		})
	}
}

// distributeEvent hands an event to every interested subscriber. Slow
// subscribers miss events rather than stall the bus.
func (eb *EventBus) distributeEvent(event model.Event) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for _, sub := range eb.subscribers {
		if !sub.wants(event.Type) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}
