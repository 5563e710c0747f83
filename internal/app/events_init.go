package app

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
)

// events определяет, куда уходят доменные события после коммита.
type events struct {
	publisher domain.EventPublisher
	close     func() error
}

// logPublisher пишет события в лог, когда Kafka не настроена.
type logPublisher struct {
	logger *log.Entry
}

func (p logPublisher) Publish(event domain.Event) error {
	p.logger.WithFields(log.Fields{
		"event_id":  event.ID,
		"event":     event.Type,
		"entity":    event.Entity,
		"entity_id": event.EntityID,
	}).Debug("domain event")
	return nil
}

// initEvents подключает Kafka producer, если заданы брокеры.
// Недоступная Kafka не мешает старту: события тогда только логируются.
func initEvents(cfg Config, logger *log.Entry) *events {
	fallback := &events{
		publisher: logPublisher{logger: logger.WithField("component", "events")},
		close:     func() error { return nil },
	}

	brokers := kafkaBrokers(cfg.KafkaBrokers)
	if len(brokers) == 0 {
		return fallback
	}

	producer, err := kafka.NewProducer(brokers, cfg.KafkaTopic)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, domain events will only be logged")
		return fallback
	}

	logger.WithFields(log.Fields{"brokers": brokers, "topic": cfg.KafkaTopic}).Info("kafka producer initialized")
	return &events{publisher: producer, close: producer.Close}
}

// kafkaBrokers отбрасывает пустые адреса, которые даёт "a,,b" в окружении.
func kafkaBrokers(raw []string) []string {
	brokers := make([]string, 0, len(raw))
	for _, b := range raw {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
