package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/storage/sqlstore"
)

const (
	defaultTimeout = 30 * time.Second
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fail("%v", err)
	}
}

func run(args []string, out io.Writer) error {
	var (
		direction string
		steps     int
		dsn       string
		driver    string
	)

	flags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	flags.StringVar(&direction, "direction", "up", "migration direction: up|down|status")
	flags.IntVar(&steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	flags.StringVar(&dsn, "dsn", "", "database DSN (fallback: SHOP_DSN)")
	flags.StringVar(&driver, "driver", "", "sql dialect: postgres|sqlite (fallback: SHOP_STORAGE_DRIVER, default postgres)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("SHOP_DSN"))
	}
	if dsn == "" {
		return errors.New("SHOP_DSN (or -dsn) is required")
	}
	if strings.TrimSpace(driver) == "" {
		driver = strings.TrimSpace(os.Getenv("SHOP_STORAGE_DRIVER"))
	}
	if driver == "" {
		driver = string(sqlstore.DialectPostgres)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := sqlstore.Open(ctx, sqlstore.Dialect(strings.ToLower(driver)), dsn)
	if err != nil {
		return fmt.Errorf("open %s store: %w", driver, err)
	}
	defer store.Close()

	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "up":
		if err := store.MigrateUp(ctx, steps); err != nil {
			return fmt.Errorf("migrate up failed: %w", err)
		}
		return printStatus(ctx, store, out, "migrate up ok")
	case "down":
		if steps <= 0 {
			steps = 1
		}
		if err := store.MigrateDown(ctx, steps); err != nil {
			return fmt.Errorf("migrate down failed: %w", err)
		}
		return printStatus(ctx, store, out, "migrate down ok")
	case "status":
		return printStatus(ctx, store, out, "migration status")
	default:
		return fmt.Errorf("unsupported direction: %s (use up|down|status)", direction)
	}
}

func printStatus(ctx context.Context, store *sqlstore.Store, out io.Writer, prefix string) error {
	version, count, err := store.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	_, _ = fmt.Fprintf(out, "%s: version=%d applied=%d\n", prefix, version, count)
	return nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
