package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mssqldb "github.com/denisenkom/go-mssqldb"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
	"github.com/ruslano69/tabsync/pkg/sqlrw"
)

// Dialect implements sqlrw.Dialect for Microsoft SQL Server.
type Dialect struct {
	schema string
}

// NewDialect returns the SQL Server dialect. An empty schema falls
// back to dbo.
func NewDialect(schema string) Dialect {
	return Dialect{schema: schema}
}

// Name implements sqlrw.Dialect.
func (Dialect) Name() string { return AdapterType }

// QuoteIdent implements sqlrw.Dialect.
func (Dialect) QuoteIdent(name string) string { return "[" + name + "]" }

// Placeholder implements sqlrw.Dialect.
func (Dialect) Placeholder(int) string { return "?" }

// DefaultSchema implements sqlrw.Dialect.
func (d Dialect) DefaultSchema() string {
	if d.schema != "" {
		return d.schema
	}
	return "dbo"
}

// DataType renders the forward type mapping. Booleans are stored as
// plain integers, matching how the rest of the pipeline treats flag
// columns.
func (Dialect) DataType(col dataset.Column) (string, error) {
	switch col.Type {
	case dataset.TypeInteger:
		return "BIGINT", nil
	case dataset.TypeFloat:
		return "FLOAT", nil
	case dataset.TypeDatetime:
		return "DATETIME", nil
	case dataset.TypeBoolean:
		return "INT", nil
	case dataset.TypeText:
		if col.Length == dataset.UnboundedLength {
			return "NVARCHAR(MAX)", nil
		}
		length := col.Length
		if length <= 0 {
			length = sqlrw.DefaultTextLength
		}
		return fmt.Sprintf("NVARCHAR(%d)", length), nil
	}
	return "", fmt.Errorf("no SQL Server mapping for semantic type %q", col.Type)
}

// SemanticType collapses the server's type names onto the semantic
// set.
func (Dialect) SemanticType(dbType string) (dataset.SemanticType, bool) {
	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case "char", "varchar", "text", "nchar", "nvarchar", "ntext", "uniqueidentifier", "xml":
		return dataset.TypeText, true
	case "date", "time", "datetime", "datetime2", "smalldatetime", "datetimeoffset":
		return dataset.TypeDatetime, true
	case "tinyint", "smallint", "int", "bigint":
		return dataset.TypeInteger, true
	case "bit":
		return dataset.TypeBoolean, true
	case "decimal", "numeric", "real", "float", "money", "smallmoney":
		return dataset.TypeFloat, true
	}
	return "", false
}

// TableExists implements sqlrw.Dialect via INFORMATION_SCHEMA.
func (Dialect) TableExists(ctx context.Context, q sqlrw.Querier, schema, table string) (bool, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT 1 FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?`,
		schema, table)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

// TableColumns lists columns in ordinal order.
// CHARACTER_MAXIMUM_LENGTH comes back as -1 for MAX types, which is
// exactly the unbounded marker the engine uses.
func (Dialect) TableColumns(ctx context.Context, q sqlrw.Querier, schema, table string) ([]sqlrw.DBColumn, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT COLUMN_NAME, DATA_TYPE, CHARACTER_MAXIMUM_LENGTH, IS_NULLABLE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`,
		schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []sqlrw.DBColumn
	for rows.Next() {
		var (
			name, dbType, nullable string
			charLen                sql.NullInt64
		)
		if err := rows.Scan(&name, &dbType, &charLen, &nullable); err != nil {
			return nil, err
		}
		col := sqlrw.DBColumn{
			Name:     name,
			DBType:   dbType,
			Nullable: strings.EqualFold(nullable, "YES"),
		}
		if charLen.Valid {
			col.Length = int(charLen.Int64)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// Server error numbers for rejected privileges: object access (229),
// column access (230), CREATE TABLE (262), ALTER (297).
var permissionErrorNumbers = map[int32]bool{
	229: true,
	230: true,
	262: true,
	297: true,
}

// IsPermissionNumber reports whether a server error number means a
// privilege rejection. Shared with the odbc dialect, which sees the
// same numbers as native diagnostics.
func IsPermissionNumber(n int32) bool {
	return permissionErrorNumbers[n]
}

// IsPermissionDenied implements sqlrw.Dialect.
func (Dialect) IsPermissionDenied(err error) bool {
	var serr mssqldb.Error
	if errors.As(err, &serr) {
		return IsPermissionNumber(serr.Number)
	}
	return strings.Contains(strings.ToLower(err.Error()), "permission denied")
}

var _ sqlrw.Dialect = Dialect{}
