package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
	"github.com/vladislavdragonenkov/shop/internal/storage/sqlstore"
	"github.com/vladislavdragonenkov/shop/internal/uow"
)

// storage хранит фабрику сессий выбранного хранилища и функцию освобождения ресурсов.
type storage struct {
	factory uow.SessionFactory
	close   func() error
}

func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*storage, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	switch driver {
	case "", StorageDriverMemory:
		logger.Info("using in-memory storage")
		return &storage{factory: memory.NewStore(), close: func() error { return nil }}, nil
	case StorageDriverPostgres, StorageDriverSQLite:
		return initSQLStorage(ctx, sqlstore.Dialect(driver), cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.StorageDriver)
	}
}

func initSQLStorage(ctx context.Context, dialect sqlstore.Dialect, cfg Config, logger *log.Entry) (*storage, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("SHOP_DSN is required for sql storage")
	}

	store, err := openWithRetry(ctx, dialect, dsn, cfg.ConnectTimeout, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}

	logger.WithField("dialect", dialect).Info("sql storage initialized")
	return &storage{factory: store, close: store.Close}, nil
}

// openWithRetry повторяет подключение с экспоненциальной задержкой, пока не истечёт timeout.
// Неподдерживаемый диалект не повторяется.
func openWithRetry(ctx context.Context, dialect sqlstore.Dialect, dsn string, timeout time.Duration, logger *log.Entry) (*sqlstore.Store, error) {
	attempt := 0
	operation := func() (*sqlstore.Store, error) {
		attempt++
		store, err := sqlstore.Open(ctx, dialect, dsn)
		if err != nil {
			if errors.Is(err, sqlstore.ErrUnsupportedDialect) {
				return nil, backoff.Permanent(err)
			}
			logger.WithError(err).WithField("attempt", attempt).Warn("sql storage is not reachable yet")
			return nil, err
		}
		return store, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	store, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxElapsedTime(timeout))
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", dialect, err)
	}
	return store, nil
}
