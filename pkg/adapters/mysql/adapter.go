package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/ruslano69/tabsync/pkg/adapters"
	"github.com/ruslano69/tabsync/pkg/sqlrw"
)

// AdapterType identifies this connector in the factory registry.
const AdapterType = "mysql"

// Connector implements the adapters.Connector interface for MySQL and
// MariaDB. DSNs follow the go-sql-driver format,
// "user:pass@tcp(host:3306)/dbname"; add parseTime=true so DATETIME
// columns scan as time.Time instead of raw bytes.
type Connector struct {
	db     *sql.DB
	config adapters.Config
}

func init() {
	// Register MySQL connector in factory
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

	db, err := sql.Open("mysql", cfg.DSN)
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

	c.db = db
	c.config = cfg
	return nil
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
	return NewDialect(c.config.Schema)
}

var _ adapters.Connector = (*Connector)(nil)
