package sqlrw

import (
	"context"
	"database/sql"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

// ConnectionProvider supplies the database handle the syncer works
// through. A write call checks a single connection out of the handle's
// pool and holds it until the call finishes, so batches and metadata
// queries of one call never interleave with other traffic.
type ConnectionProvider interface {
	DB() *sql.DB
}

// Querier is the query subset of database/sql shared by *sql.DB,
// *sql.Conn and *sql.Tx. Dialect metadata probes run through it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DBColumn describes a destination column as reported by the database
// metadata views.
type DBColumn struct {
	Name     string
	DBType   string // raw type name, e.g. "nvarchar"
	Length   int    // character length for text types, -1 for unbounded, 0 when not applicable
	Nullable bool
}

// Dialect encapsulates the SQL flavor of a destination database.
// Implementations live in pkg/adapters subpackages and are passed to
// New together with the matching connection provider.
type Dialect interface {
	// Name returns the dialect identifier ("mssql", "sqlite", ...).
	Name() string

	// QuoteIdent quotes an already validated identifier.
	QuoteIdent(name string) string

	// Placeholder returns the bind marker for the 1-based parameter n.
	Placeholder(n int) string

	// DataType renders the declared SQL type for a column.
	DataType(col dataset.Column) (string, error)

	// SemanticType maps a destination type name back onto the semantic
	// type set. ok is false when the type has no mapping.
	SemanticType(dbType string) (st dataset.SemanticType, ok bool)

	// DefaultSchema is used when WriteConfig.Schema is empty. May be "".
	DefaultSchema() string

	// TableExists probes the destination catalog for the table.
	TableExists(ctx context.Context, q Querier, schema, table string) (bool, error)

	// TableColumns lists destination columns in ordinal order.
	TableColumns(ctx context.Context, q Querier, schema, table string) ([]DBColumn, error)

	// IsPermissionDenied recognizes privilege errors of the underlying
	// driver, enabling the manual-script fallback for rejected DDL.
	IsPermissionDenied(err error) bool
}
