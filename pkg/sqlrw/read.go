package sqlrw

import (
	"context"
	"errors"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

// Read runs a query and returns the rows as a dataset. Column semantic
// types come from the driver's reported database types; anything
// unrecognized degrades to text rather than failing, since a read
// result never feeds DDL.
func (s *Syncer) Read(ctx context.Context, query string, args ...any) (*dataset.Dataset, error) {
	db := s.provider.DB()
	if db == nil {
		return nil, &ConnectionError{Op: "read", Err: errors.New("connection provider has no database handle")}
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &ConnectionError{Op: "read", Err: err}
	}
	defer rows.Close()

	cts, err := rows.ColumnTypes()
	if err != nil {
		return nil, &ConnectionError{Op: "read", Err: err}
	}
	cols := make([]dataset.Column, len(cts))
	for i, ct := range cts {
		st, ok := s.dialect.SemanticType(ct.DatabaseTypeName())
		if !ok {
			st = dataset.TypeText
		}
		nullable, _ := ct.Nullable()
		cols[i] = dataset.Column{Name: ct.Name(), Type: st, Nullable: nullable}
	}

	out := dataset.New(cols...)
	for rows.Next() {
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &ConnectionError{Op: "read scan", Err: err}
		}
		for i := range cells {
			cells[i] = normalizeDBValue(cells[i])
		}
		out.Rows = append(out.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, &ConnectionError{Op: "read", Err: err}
	}
	return out, nil
}

// TableExists probes the destination catalog. An empty schema uses
// the dialect default.
func (s *Syncer) TableExists(ctx context.Context, schema, table string) (bool, error) {
	if err := ValidateIdent(table); err != nil {
		return false, err
	}
	if schema == "" {
		schema = s.dialect.DefaultSchema()
	}
	return s.dialect.TableExists(ctx, s.provider.DB(), schema, table)
}

// Columns returns destination column metadata in ordinal order.
func (s *Syncer) Columns(ctx context.Context, schema, table string) ([]DBColumn, error) {
	if err := ValidateIdent(table); err != nil {
		return nil, err
	}
	if schema == "" {
		schema = s.dialect.DefaultSchema()
	}
	return s.dialect.TableColumns(ctx, s.provider.DB(), schema, table)
}

// normalizeDBValue folds driver-specific scan types onto the dataset
// cell set.
func normalizeDBValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}
