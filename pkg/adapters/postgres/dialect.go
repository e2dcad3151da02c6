package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
	"github.com/ruslano69/tabsync/pkg/sqlrw"
)

// Dialect implements sqlrw.Dialect for PostgreSQL.
type Dialect struct {
	schema string
}

// NewDialect returns the PostgreSQL dialect. An empty schema falls
// back to public.
func NewDialect(schema string) Dialect {
	return Dialect{schema: schema}
}

// Name implements sqlrw.Dialect.
func (Dialect) Name() string { return AdapterType }

// QuoteIdent implements sqlrw.Dialect.
func (Dialect) QuoteIdent(name string) string { return `"` + name + `"` }

// Placeholder implements sqlrw.Dialect.
func (Dialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

// DefaultSchema implements sqlrw.Dialect.
func (d Dialect) DefaultSchema() string {
	if d.schema != "" {
		return d.schema
	}
	return "public"
}

// DataType renders the forward type mapping. Postgres has a native
// boolean, so flags keep their type instead of collapsing to an
// integer column.
func (Dialect) DataType(col dataset.Column) (string, error) {
	switch col.Type {
	case dataset.TypeInteger:
		return "BIGINT", nil
	case dataset.TypeFloat:
		return "DOUBLE PRECISION", nil
	case dataset.TypeDatetime:
		return "TIMESTAMP", nil
	case dataset.TypeBoolean:
		return "BOOLEAN", nil
	case dataset.TypeText:
		if col.Length == dataset.UnboundedLength {
			return "TEXT", nil
		}
		length := col.Length
		if length <= 0 {
			length = sqlrw.DefaultTextLength
		}
		return fmt.Sprintf("VARCHAR(%d)", length), nil
	}
	return "", fmt.Errorf("no PostgreSQL mapping for semantic type %q", col.Type)
}

// SemanticType collapses information_schema data_type values onto the
// semantic set. Postgres reports verbose names ("character varying",
// "timestamp without time zone"), so matching goes by prefix families.
func (Dialect) SemanticType(dbType string) (dataset.SemanticType, bool) {
	t := strings.ToLower(strings.TrimSpace(dbType))
	switch t {
	case "character varying", "varchar", "character", "char", "text", "uuid", "json", "jsonb", "xml", "name":
		return dataset.TypeText, true
	case "date":
		return dataset.TypeDatetime, true
	case "smallint", "integer", "int", "bigint", "int2", "int4", "int8", "smallserial", "serial", "bigserial":
		return dataset.TypeInteger, true
	case "boolean", "bool":
		return dataset.TypeBoolean, true
	case "real", "double precision", "float4", "float8", "numeric", "decimal", "money":
		return dataset.TypeFloat, true
	}
	if strings.HasPrefix(t, "timestamp") || strings.HasPrefix(t, "time") {
		return dataset.TypeDatetime, true
	}
	return "", false
}

// TableExists implements sqlrw.Dialect via information_schema.
func (Dialect) TableExists(ctx context.Context, q sqlrw.Querier, schema, table string) (bool, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2`,
		schema, table)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

// TableColumns lists columns in ordinal order.
func (Dialect) TableColumns(ctx context.Context, q sqlrw.Querier, schema, table string) ([]sqlrw.DBColumn, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT column_name, data_type, COALESCE(character_maximum_length, 0), is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`,
		schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []sqlrw.DBColumn
	for rows.Next() {
		var (
			name, dbType, nullable string
			charLen                int64
		)
		if err := rows.Scan(&name, &dbType, &charLen, &nullable); err != nil {
			return nil, err
		}
		cols = append(cols, sqlrw.DBColumn{
			Name:     name,
			DBType:   dbType,
			Length:   int(charLen),
			Nullable: strings.EqualFold(nullable, "YES"),
		})
	}
	return cols, rows.Err()
}

// IsPermissionDenied implements sqlrw.Dialect. SQLSTATE 42501 is
// insufficient_privilege.
func (Dialect) IsPermissionDenied(err error) bool {
	var perr *pgconn.PgError
	if errors.As(err, &perr) {
		return perr.Code == "42501"
	}
	return strings.Contains(strings.ToLower(err.Error()), "permission denied")
}

var _ sqlrw.Dialect = Dialect{}
