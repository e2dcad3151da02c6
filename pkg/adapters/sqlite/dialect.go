package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlitedrv "modernc.org/sqlite"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
	"github.com/ruslano69/tabsync/pkg/sqlrw"
)

// Dialect implements sqlrw.Dialect for SQLite. The file has no schema
// namespaces, so statements stay unqualified and probes always look at
// the main database.
type Dialect struct{}

// NewDialect returns the SQLite dialect.
func NewDialect() Dialect {
	return Dialect{}
}

// Name implements sqlrw.Dialect.
func (Dialect) Name() string { return AdapterType }

// QuoteIdent implements sqlrw.Dialect.
func (Dialect) QuoteIdent(name string) string { return `"` + name + `"` }

// Placeholder implements sqlrw.Dialect.
func (Dialect) Placeholder(int) string { return "?" }

// DefaultSchema implements sqlrw.Dialect.
func (Dialect) DefaultSchema() string { return "" }

// DataType renders the forward type mapping. Declared lengths are not
// enforced by SQLite, but VARCHAR(n) keeps the length visible in
// table_info so later reconciliation sees the same bounds as on a
// strict server.
func (Dialect) DataType(col dataset.Column) (string, error) {
	switch col.Type {
	case dataset.TypeInteger:
		return "INTEGER", nil
	case dataset.TypeFloat:
		return "REAL", nil
	case dataset.TypeDatetime:
		return "DATETIME", nil
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
	return "", fmt.Errorf("no SQLite mapping for semantic type %q", col.Type)
}

// SemanticType collapses declared column types onto the semantic set.
// SQLite stores whatever type name the CREATE statement used, so the
// base type is extracted first ("VARCHAR(60)" matches as VARCHAR).
// Unknown and missing type names fall back to text, which is how the
// engine treats dynamically typed columns.
func (Dialect) SemanticType(dbType string) (dataset.SemanticType, bool) {
	base, _ := parseDeclaredType(dbType)
	switch base {
	case "INTEGER", "INT", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT":
		return dataset.TypeInteger, true
	case "REAL", "FLOAT", "DOUBLE", "NUMERIC", "DECIMAL":
		return dataset.TypeFloat, true
	case "BOOLEAN", "BOOL":
		return dataset.TypeBoolean, true
	case "DATE", "DATETIME", "TIMESTAMP":
		return dataset.TypeDatetime, true
	case "BLOB":
		return "", false
	}
	return dataset.TypeText, true
}

// TableExists implements sqlrw.Dialect.
func (Dialect) TableExists(ctx context.Context, q sqlrw.Querier, schema, table string) (bool, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT 1 FROM sqlite_master WHERE type='table' AND name = ?`, table)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

// TableColumns lists columns via PRAGMA table_info. Pragmas take no
// bind parameters, so the table name is validated before splicing.
func (d Dialect) TableColumns(ctx context.Context, q sqlrw.Querier, schema, table string) ([]sqlrw.DBColumn, error) {
	if err := sqlrw.ValidateIdent(table); err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", d.QuoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []sqlrw.DBColumn
	for rows.Next() {
		var (
			cid, notnull, pk int
			name, declType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &declType, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		col := sqlrw.DBColumn{
			Name:     name,
			DBType:   declType,
			Nullable: notnull == 0,
		}
		if base, length := parseDeclaredType(declType); length > 0 {
			switch base {
			case "VARCHAR", "CHAR", "NVARCHAR", "NCHAR", "TEXT":
				col.Length = length
			}
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// Result codes for rejected writes: access permission (3), readonly
// database (8), authorizer veto (23). Extended codes carry the primary
// code in the low byte.
func permissionCode(code int) bool {
	switch code & 0xff {
	case 3, 8, 23:
		return true
	}
	return false
}

// IsPermissionDenied implements sqlrw.Dialect.
func (Dialect) IsPermissionDenied(err error) bool {
	var serr *sqlitedrv.Error
	if errors.As(err, &serr) {
		return permissionCode(serr.Code())
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "readonly database") || strings.Contains(msg, "not authorized")
}

// parseDeclaredType splits a declared SQLite type into its base name
// and the first bracketed parameter ("VARCHAR(60)" gives VARCHAR, 60).
func parseDeclaredType(declType string) (string, int) {
	declType = strings.ToUpper(strings.TrimSpace(declType))
	base := declType
	length := 0
	if idx := strings.Index(declType, "("); idx != -1 {
		base = strings.TrimSpace(declType[:idx])
		params := strings.TrimSuffix(declType[idx+1:], ")")
		fmt.Sscanf(params, "%d", &length)
	}
	return base, length
}

var _ sqlrw.Dialect = Dialect{}
