package kafka

import (
	"fmt"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const clientID = "shop"

// Producer публикует доменные события в один топик.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *log.Entry
}

// NewProducer подключается к brokers. Пустой topic заменяется на TopicDomainEvents.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(brokers, producerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return newProducer(producer, topic), nil
}

// producerConfig настраивает идемпотентный producer с подтверждением от всех реплик.
func producerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = clientID
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // обязательно при Idempotent
	return config
}

func newProducer(producer sarama.SyncProducer, topic string) *Producer {
	if topic == "" {
		topic = TopicDomainEvents
	}
	return &Producer{
		producer: producer,
		topic:    topic,
		logger:   log.WithFields(log.Fields{"component": "kafka-producer", "topic": topic}),
	}
}

// Publish синхронно отправляет событие и ждёт подтверждения брокера.
func (p *Producer) Publish(event domain.Event) error {
	message, err := NewDomainEvent(event).Message(p.topic)
	if err != nil {
		return err
	}

	entry := p.logger.WithFields(log.Fields{
		"event_id": event.ID,
		"event":    event.Type,
		"entity":   event.Entity,
	})
	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		entry.WithError(err).Error("failed to send domain event")
		return fmt.Errorf("send %s event for %s %d: %w", event.Type, event.Entity, event.EntityID, err)
	}

	entry.WithFields(log.Fields{"partition": partition, "offset": offset}).Debug("domain event sent")
	return nil
}

// Close закрывает producer
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}

var _ domain.EventPublisher = (*Producer)(nil)
