package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb" // MS SQL Server driver

	"github.com/ruslano69/tabsync/pkg/adapters"
	"github.com/ruslano69/tabsync/pkg/sqlrw"
)

// AdapterType identifies this connector in the factory registry.
const AdapterType = "mssql"

// Connector implements the adapters.Connector interface for Microsoft
// SQL Server through the native go-mssqldb driver. DSNs may be
// sqlserver:// URLs or ADO-style strings; logins with integrated
// security must use the odbc connector instead.
type Connector struct {
	db     *sql.DB
	config adapters.Config
}

func init() {
	// Register MS SQL Server connector in factory
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

	// The legacy driver name keeps ? placeholders working; they are
	// rewritten to @pN positionally.
	db, err := sql.Open("mssql", cfg.DSN)
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
