package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// TopicDomainEvents используется, если топик не задан.
const TopicDomainEvents = "shop.domain.events"

// Kafka headers доменных событий
const (
	HeaderEventID   = "x-event-id"
	HeaderEventType = "x-event-type"
	HeaderEntity    = "x-entity"
)

// DomainEvent описывает JSON-представление доменного события в Kafka.
type DomainEvent struct {
	EventID    string         `json:"event_id"`
	EventType  string         `json:"event_type"`
	Entity     string         `json:"entity"`
	EntityID   int64          `json:"entity_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// NewDomainEvent создает сообщение из доменного события.
func NewDomainEvent(event domain.Event) *DomainEvent {
	timestamp := event.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	return &DomainEvent{
		EventID:    event.ID,
		EventType:  string(event.Type),
		Entity:     event.Entity,
		EntityID:   event.EntityID,
		Timestamp:  timestamp,
		Attributes: event.Attributes,
	}
}

// Key возвращает ключ партиционирования: события одной сущности идут в одну партицию.
func (e *DomainEvent) Key() string {
	return e.Entity + ":" + strconv.FormatInt(e.EntityID, 10)
}

// Message упаковывает событие в сообщение для topic.
func (e *DomainEvent) Message(topic string) (*sarama.ProducerMessage, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event %s: %w", e.Entity, e.EventID, err)
	}
	return &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(e.Key()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventID), Value: []byte(e.EventID)},
			{Key: []byte(HeaderEventType), Value: []byte(e.EventType)},
			{Key: []byte(HeaderEntity), Value: []byte(e.Entity)},
		},
		Timestamp: e.Timestamp,
	}, nil
}
