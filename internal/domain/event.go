package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType описывает, что произошло с сущностью.
type EventType string

const (
	EventCreated           EventType = "created"
	EventUpdated           EventType = "updated"
	EventDeleted           EventType = "deleted"
	EventProductAdded      EventType = "product_added"
	EventWishlistConverted EventType = "converted_to_order"
)

// Имена сущностей для событий и логов.
const (
	EntityProduct  = "product"
	EntityCustomer = "customer"
	EntityOrder    = "order"
	EntityWishlist = "wishlist"
)

// Event публикуется после успешного коммита.
type Event struct {
	ID         string
	Entity     string
	EntityID   int64
	Type       EventType
	Attributes map[string]any
	OccurredAt time.Time
}

// NewEvent создаёт событие с текущим временем.
func NewEvent(entity string, id int64, eventType EventType, attrs map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Entity:     entity,
		EntityID:   id,
		Type:       eventType,
		Attributes: attrs,
		OccurredAt: time.Now().UTC(),
	}
}

// EventPublisher передаёт события наружу; вызывается только после коммита.
type EventPublisher interface {
	Publish(event Event) error
}
