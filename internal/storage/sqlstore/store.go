// Package sqlstore реализует хранилище магазина поверх database/sql
// для PostgreSQL (pgx) и SQLite (go-sqlite3).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/uow"
)

// Dialect выбирает SQL-движок.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ErrUnsupportedDialect возвращается Open для неизвестного диалекта.
var ErrUnsupportedDialect = errors.New("unsupported sql dialect")

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
)

func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectPostgres:
		return "pgx", nil
	case DialectSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, string(d))
	}
}

// Store оборачивает SQL-подключение и выдаёт сессии unit of work.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *log.Entry
}

// Open открывает подключение и проверяет доступность базы.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	driver, err := dialect.driverName()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", dialect, err)
	}
	configurePool(db, dialect)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// Внешние ключи в SQLite включаются на соединение, а оно у пула одно.
		if _, err := db.ExecContext(pingCtx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}

	return &Store{
		db:      db,
		dialect: dialect,
		logger:  log.WithFields(log.Fields{"component": "sqlstore", "dialect": string(dialect)}),
	}, nil
}

func configurePool(db *sql.DB, dialect Dialect) {
	if dialect == DialectSQLite {
		// In-memory база живёт, пока открыто её единственное соединение.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
		return
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect возвращает диалект подключения.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sql store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// EnsureSchema применяет все up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Begin открывает сессию. Транзакция начнётся при первом обращении к репозиторию.
func (s *Store) Begin(_ context.Context) (uow.Session, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sql store is not initialized")
	}
	return newSession(s), nil
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ uow.SessionFactory = (*Store)(nil)
