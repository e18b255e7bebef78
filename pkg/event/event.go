// pkg/event/event.go
package event

import (
	"sync"
)

// Type represents the type of event
type Type string

// Physics event types
const (
	ContactBegan         Type = "contact_began"
	ContactEnded         Type = "contact_ended"
	NumericalInstability Type = "numerical_instability"
	BodyAdded            Type = "body_added"
	BodyRemoved          Type = "body_removed"
	WorldReset           Type = "world_reset"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// SubscriptionID identifies one registered handler
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Bus manages event subscriptions and dispatching.
// Handlers run synchronously on the publishing goroutine.
type Bus struct {
	handlers map[Type][]subscription
	nextID   SubscriptionID
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscription),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: b.nextID, handler: handler})
	return b.nextID
}

// Unsubscribe removes the handler registered under id.
// It reports whether a handler was removed.
func (b *Bus) Unsubscribe(eventType Type, id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.handlers[eventType]
	if !ok {
		return false
	}

	for i, s := range subs {
		if s.id == id {
			// copy so a Publish iterating the old slice is unaffected
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			b.handlers[eventType] = next
			return true
		}
	}
	return false
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs, ok := b.handlers[event.GetType()]
	b.mu.RUnlock()

	if !ok {
		return
	}

	for _, s := range subs {
		s.handler(event)
	}
}

// Specific event implementations

// ContactEvent reports a pair of entities that started or stopped touching.
// Normal and Penetration are in physical units and are zero for ContactEnded.
type ContactEvent struct {
	BaseEvent
	Tick        uint64
	EntityA     uint64
	EntityB     uint64
	NormalX     float64
	NormalY     float64
	Penetration float64
}

// NewContactEvent creates a new contact event
func NewContactEvent(eventType Type, source interface{}, tick, entityA, entityB uint64) *ContactEvent {
	return &ContactEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Tick:    tick,
		EntityA: entityA,
		EntityB: entityB,
	}
}

// InstabilityEvent reports a body whose state became NaN or infinite and was clamped
type InstabilityEvent struct {
	BaseEvent
	Tick   uint64
	Entity uint64
	Field  string
}

// NewInstabilityEvent creates a new numerical instability event
func NewInstabilityEvent(source interface{}, tick, entity uint64, field string) *InstabilityEvent {
	return &InstabilityEvent{
		BaseEvent: BaseEvent{
			EventType: NumericalInstability,
			Source:    source,
		},
		Tick:   tick,
		Entity: entity,
		Field:  field,
	}
}

// BodyEvent contains information about body registration changes
type BodyEvent struct {
	BaseEvent
	Entity   uint64
	BodyType string
}

// NewBodyEvent creates a new body event
func NewBodyEvent(eventType Type, source interface{}, entity uint64, bodyType string) *BodyEvent {
	return &BodyEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Entity:   entity,
		BodyType: bodyType,
	}
}
