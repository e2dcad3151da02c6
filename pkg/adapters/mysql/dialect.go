package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
	"github.com/ruslano69/tabsync/pkg/sqlrw"
)

// Dialect implements sqlrw.Dialect for MySQL and MariaDB.
type Dialect struct {
	schema string
}

// NewDialect returns the MySQL dialect. An empty schema means the
// database the connection is attached to.
func NewDialect(schema string) Dialect {
	return Dialect{schema: schema}
}

// Name implements sqlrw.Dialect.
func (Dialect) Name() string { return AdapterType }

// QuoteIdent implements sqlrw.Dialect.
func (Dialect) QuoteIdent(name string) string { return "`" + name + "`" }

// Placeholder implements sqlrw.Dialect.
func (Dialect) Placeholder(int) string { return "?" }

// DefaultSchema implements sqlrw.Dialect. MySQL has no fixed default
// schema, so an empty result keeps statements unqualified and lets the
// connection's database apply.
func (d Dialect) DefaultSchema() string { return d.schema }

// DataType renders the forward type mapping. Booleans become
// TINYINT(1), which is what MySQL itself aliases BOOLEAN to.
func (Dialect) DataType(col dataset.Column) (string, error) {
	switch col.Type {
	case dataset.TypeInteger:
		return "BIGINT", nil
	case dataset.TypeFloat:
		return "DOUBLE", nil
	case dataset.TypeDatetime:
		return "DATETIME", nil
	case dataset.TypeBoolean:
		return "TINYINT(1)", nil
	case dataset.TypeText:
		if col.Length == dataset.UnboundedLength {
			return "LONGTEXT", nil
		}
		length := col.Length
		if length <= 0 {
			length = sqlrw.DefaultTextLength
		}
		return fmt.Sprintf("VARCHAR(%d)", length), nil
	}
	return "", fmt.Errorf("no MySQL mapping for semantic type %q", col.Type)
}

// SemanticType collapses information_schema DATA_TYPE values onto the
// semantic set. TINYINT lands on integer even when the column was
// declared BOOLEAN, since DATA_TYPE does not carry the display width.
func (Dialect) SemanticType(dbType string) (dataset.SemanticType, bool) {
	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case "char", "varchar", "text", "tinytext", "mediumtext", "longtext", "enum", "set", "json":
		return dataset.TypeText, true
	case "date", "time", "datetime", "timestamp":
		return dataset.TypeDatetime, true
	case "tinyint", "smallint", "mediumint", "int", "bigint", "year":
		return dataset.TypeInteger, true
	case "float", "double", "decimal", "numeric":
		return dataset.TypeFloat, true
	}
	return "", false
}

// TableExists implements sqlrw.Dialect. An empty schema checks the
// connection's current database.
func (d Dialect) TableExists(ctx context.Context, q sqlrw.Querier, schema, table string) (bool, error) {
	var rows *sql.Rows
	var err error
	if schema == "" {
		rows, err = q.QueryContext(ctx,
			`SELECT 1 FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`,
			table)
	} else {
		rows, err = q.QueryContext(ctx,
			`SELECT 1 FROM information_schema.tables WHERE table_schema = ? AND table_name = ?`,
			schema, table)
	}
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

// TableColumns lists columns in ordinal order.
func (d Dialect) TableColumns(ctx context.Context, q sqlrw.Querier, schema, table string) ([]sqlrw.DBColumn, error) {
	const base = `SELECT column_name, data_type, COALESCE(character_maximum_length, 0), is_nullable
		FROM information_schema.columns
		WHERE %s AND table_name = ?
		ORDER BY ordinal_position`

	var rows *sql.Rows
	var err error
	if schema == "" {
		rows, err = q.QueryContext(ctx, fmt.Sprintf(base, "table_schema = DATABASE()"), table)
	} else {
		rows, err = q.QueryContext(ctx, fmt.Sprintf(base, "table_schema = ?"), schema, table)
	}
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

// Server error numbers for rejected privileges: database access
// (1044), table command (1142), missing privilege (1227), routine
// access (1370).
var permissionErrorNumbers = map[uint16]bool{
	1044: true,
	1142: true,
	1227: true,
	1370: true,
}

// IsPermissionDenied implements sqlrw.Dialect.
func (Dialect) IsPermissionDenied(err error) bool {
	var merr *mysqldrv.MySQLError
	if errors.As(err, &merr) {
		return permissionErrorNumbers[merr.Number]
	}
	return strings.Contains(strings.ToLower(err.Error()), "access denied")
}

var _ sqlrw.Dialect = Dialect{}
