package sqlrw

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

// reconcileOutcome is the schema phase result.
type reconcileOutcome struct {
	created bool
	pending bool // CREATE was denied; script holds it, nothing is writable yet
	added   []string
	script  []string
	diags   []string
	// columns are the effective write columns in dataset order, typed
	// after the destination where it already exists.
	columns []dataset.Column
}

// ensureSchema brings the destination table in line with the planned
// dataset columns. Reconciliation is additive-only: it creates the
// table or adds missing columns, and never drops, narrows or re-keys
// anything that already exists.
//
// DDL rejected for lack of privileges is collected as script text (a
// valid partial-success outcome), with the affected columns excluded
// from the write. Unmappable column types are skipped with a
// diagnostic. Connectivity failures abort.
func (s *Syncer) ensureSchema(ctx context.Context, conn *sql.Conn, schema, table string, planned []dataset.Column, keys []string) (reconcileOutcome, error) {
	var out reconcileOutcome

	exists, err := s.dialect.TableExists(ctx, conn, schema, table)
	if err != nil {
		return out, &ConnectionError{Op: "table probe", Err: err}
	}
	if !exists {
		return s.createTable(ctx, conn, schema, table, planned, keys)
	}

	dest, err := s.dialect.TableColumns(ctx, conn, schema, table)
	if err != nil {
		return out, &ConnectionError{Op: "column probe", Err: err}
	}
	destByName := make(map[string]DBColumn, len(dest))
	for _, c := range dest {
		destByName[strings.ToLower(c.Name)] = c
	}

	for _, col := range planned {
		dc, found := destByName[strings.ToLower(col.Name)]
		if found {
			st, known := s.dialect.SemanticType(dc.DBType)
			if !known {
				out.skip(s, &SchemaError{Column: col.Name, DBType: dc.DBType, Reason: "no semantic mapping"})
				continue
			}
			eff := col
			eff.Type = st
			eff.Length = dc.Length
			out.columns = append(out.columns, eff)
			continue
		}

		stmt, err := BuildAddColumn(s.dialect, schema, table, col)
		if err != nil {
			out.skip(s, &SchemaError{Column: col.Name, Reason: err.Error()})
			continue
		}
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			if s.dialect.IsPermissionDenied(err) {
				out.script = append(out.script, stmt)
				out.skip(s, &SchemaError{Column: col.Name,
					Reason: "insufficient privileges to add column; statement returned for manual execution"})
				continue
			}
			return out, fmt.Errorf("add column %s to %s: %w", col.Name, table, err)
		}
		out.added = append(out.added, col.Name)
		out.columns = append(out.columns, col)
	}
	return out, nil
}

// createTable synthesizes and applies the CREATE statement. When the
// connection lacks CREATE privilege the statement is returned as
// script text instead and the outcome is marked pending.
func (s *Syncer) createTable(ctx context.Context, conn *sql.Conn, schema, table string, planned []dataset.Column, keys []string) (reconcileOutcome, error) {
	var out reconcileOutcome

	usable := make([]dataset.Column, 0, len(planned))
	for _, col := range planned {
		if _, err := s.dialect.DataType(col); err != nil {
			out.skip(s, &SchemaError{Column: col.Name, Reason: err.Error()})
			continue
		}
		usable = append(usable, col)
	}
	if len(usable) == 0 {
		return out, fmt.Errorf("table %s: no columns with a usable type mapping", table)
	}
	for _, k := range keys {
		if !hasColumn(usable, k) {
			return out, fmt.Errorf("primary key column %q has no usable type mapping", k)
		}
	}

	stmt, err := BuildCreateTable(s.dialect, schema, table, usable, keys)
	if err != nil {
		return out, err
	}
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		if s.dialect.IsPermissionDenied(err) {
			out.pending = true
			out.script = append(out.script, stmt)
			out.diags = append(out.diags,
				fmt.Sprintf("insufficient privileges to create %s; statement returned for manual execution", table))
			return out, nil
		}
		return out, fmt.Errorf("create table %s: %w", table, err)
	}
	out.created = true
	out.columns = usable
	return out, nil
}

// skip records a per-column diagnostic and logs it.
func (o *reconcileOutcome) skip(s *Syncer, serr *SchemaError) {
	o.diags = append(o.diags, serr.Error())
	s.logf("schema: %v", serr)
}

func hasColumn(cols []dataset.Column, name string) bool {
	for _, c := range cols {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
