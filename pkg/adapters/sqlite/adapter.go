package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // cgo-free SQLite driver

	"github.com/ruslano69/tabsync/pkg/adapters"
	"github.com/ruslano69/tabsync/pkg/sqlrw"
)

// AdapterType identifies this connector in the factory registry.
const AdapterType = "sqlite"

// Connector implements the adapters.Connector interface for SQLite
// files. The DSN is a file path or a "file:path?mode=ro" URI. SQLite
// is mostly useful as a local staging target and as the backend the
// engine tests run against.
type Connector struct {
	db     *sql.DB
	config adapters.Config
}

func init() {
	// Register SQLite connector in factory
	adapters.Register(AdapterType, func() adapters.Connector {
		return &Connector{}
	})
}

// Connect implements adapters.Connector.
func (c *Connector) Connect(ctx context.Context, cfg adapters.Config) error {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.applyPragmas(ctx, db)

	c.db = db
	c.config = cfg
	return nil
}

// applyPragmas tunes the connection for bulk writes. Failures are
// ignored: read-only databases reject most of these but stay usable.
func (c *Connector) applyPragmas(ctx context.Context, db *sql.DB) {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		db.ExecContext(ctx, pragma)
	}
}

// Close implements adapters.Connector.
func (c *Connector) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Ping implements adapters.Connector.
func (c *Connector) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("not connected")
	}
	return c.db.PingContext(ctx)
}

// DB implements adapters.Connector.
func (c *Connector) DB() *sql.DB { return c.db }

// Dialect implements adapters.Connector.
func (c *Connector) Dialect() sqlrw.Dialect {
	return NewDialect()
}

var _ adapters.Connector = (*Connector)(nil)
