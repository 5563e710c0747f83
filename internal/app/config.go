package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
)

// Поддерживаемые драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
)

// Config описывает настройки запуска, читается из переменных окружения SHOP_*.
type Config struct {
	StorageDriver  string        `env:"SHOP_STORAGE_DRIVER" envDefault:"memory"`
	DSN            string        `env:"SHOP_DSN"`
	AutoMigrate    bool          `env:"SHOP_AUTO_MIGRATE" envDefault:"true"`
	ConnectTimeout time.Duration `env:"SHOP_CONNECT_TIMEOUT" envDefault:"30s"`
	KafkaBrokers   []string      `env:"SHOP_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic     string        `env:"SHOP_KAFKA_TOPIC" envDefault:"shop.domain.events"`
	LogLevel       string        `env:"SHOP_LOG_LEVEL" envDefault:"info"`
}

// DefaultConfig возвращает настройки для локального запуска на in-memory хранилище.
func DefaultConfig() Config {
	return Config{
		StorageDriver:  StorageDriverMemory,
		AutoMigrate:    true,
		ConnectTimeout: 30 * time.Second,
		KafkaTopic:     kafka.TopicDomainEvents,
		LogLevel:       log.InfoLevel.String(),
	}
}

// LoadConfig читает Config из окружения.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config from env: %w", err)
	}
	return cfg, nil
}

// ConfigureLogging выставляет уровень и формат глобального logger-а.
func ConfigureLogging(cfg Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}
