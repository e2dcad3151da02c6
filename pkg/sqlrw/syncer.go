package sqlrw

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

// phase names the stages of a write call, in execution order.
type phase string

const (
	phaseIdle     phase = "idle"
	phaseSchema   phase = "schema-checking"
	phaseCoercion phase = "type-coercing"
	phaseClassify phase = "classifying"
	phaseWriting  phase = "writing"
	phaseDone     phase = "done"
)

// Syncer writes tabular datasets into a relational destination and
// reads query results back out. It is synchronous and single-threaded
// per call; concurrent calls against the same table must be
// serialized by the caller.
type Syncer struct {
	provider ConnectionProvider
	dialect  Dialect
	logf     func(format string, args ...any)
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger routes diagnostics and verbose progress output.
// The default logger is log.Printf.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(s *Syncer) { s.logf = logf }
}

// New builds a Syncer from a connection provider and the dialect
// matching the destination database.
func New(provider ConnectionProvider, dialect Dialect, opts ...Option) *Syncer {
	s := &Syncer{provider: provider, dialect: dialect, logf: log.Printf}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Dialect returns the dialect the syncer was built with.
func (s *Syncer) Dialect() Dialect { return s.dialect }

// Write synchronizes ds into the destination table according to cfg.
//
// The call validates the configuration, reconciles the destination
// schema (creating the table or adding missing columns), coerces cell
// values to the destination column types, classifies rows against
// existing keys for update/skip modes, and writes the partitions in
// independently committed batches.
//
// The caller's dataset is never mutated: every transformation works
// on derived copies.
func (s *Syncer) Write(ctx context.Context, ds *dataset.Dataset, table string, cfg WriteConfig) (WriteResult, error) {
	var res WriteResult

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return res, err
	}
	if err := ValidateIdent(table); err != nil {
		return res, fmt.Errorf("table: %w", err)
	}
	if cfg.Schema == "" {
		cfg.Schema = s.dialect.DefaultSchema()
	}
	if cfg.Schema != "" {
		if err := ValidateIdent(cfg.Schema); err != nil {
			return res, fmt.Errorf("schema: %w", err)
		}
	}
	if len(ds.Columns) == 0 {
		return res, errors.New("dataset has no columns")
	}
	for _, c := range ds.Columns {
		if err := ValidateIdent(c.Name); err != nil {
			return res, fmt.Errorf("column: %w", err)
		}
	}
	for _, k := range cfg.PrimaryKey {
		if ds.ColumnIndex(k) < 0 {
			return res, fmt.Errorf("primary key column %q not present in dataset", k)
		}
	}

	db := s.provider.DB()
	if db == nil {
		return res, &ConnectionError{Op: "checkout", Err: errors.New("connection provider has no database handle")}
	}
	// One pooled connection is held for the whole call; metadata
	// queries, the key projection and every batch go through it.
	conn, err := db.Conn(ctx)
	if err != nil {
		return res, &ConnectionError{Op: "checkout", Err: err}
	}
	defer conn.Close()

	step := s.stepper(table, cfg.Verbose)

	step(phaseSchema)
	planned := planColumns(ds, ds.InferSchema())
	rec, err := s.ensureSchema(ctx, conn, cfg.Schema, table, planned, cfg.PrimaryKey)
	res.Created = rec.created
	res.AddedColumns = rec.added
	res.Script = strings.Join(rec.script, ";\n")
	res.Diagnostics = rec.diags
	if err != nil {
		return res, err
	}
	if rec.pending {
		// Nothing exists to write into yet; the caller applies the
		// returned script manually and re-runs.
		step(phaseDone)
		return res, nil
	}
	if len(rec.columns) == 0 {
		return res, fmt.Errorf("table %s: no writable columns left after reconciliation", table)
	}

	step(phaseCoercion)
	work := projectOnto(ds, rec.columns)
	if err := coerceDataset(work); err != nil {
		return WriteResult{}, err
	}

	var destKeys map[string]bool
	if cfg.Mode.NeedsKeys() && !work.Empty() {
		step(phaseClassify)
		for _, k := range cfg.PrimaryKey {
			if work.ColumnIndex(k) < 0 {
				return res, fmt.Errorf("primary key column %q was excluded during reconciliation", k)
			}
		}
		destKeys, err = s.destinationKeys(ctx, conn, cfg.Schema, table, cfg.PrimaryKey)
		if err != nil {
			return res, err
		}
	}
	toInsert, toUpdate, err := Classify(work, cfg.Mode, cfg.PrimaryKey, destKeys)
	if err != nil {
		return res, err
	}

	step(phaseWriting)
	if cfg.Mode == ModeOverwrite && !rec.created {
		if err := s.clearDestination(ctx, conn, cfg.Schema, table, cfg.ClearWhere, cfg.ClearArgs, cfg.Verbose); err != nil {
			return res, err
		}
	}

	if toInsert.Len() > 0 {
		order := make([]int, len(work.Columns))
		for i := range order {
			order[i] = i
		}
		stmt := BuildInsert(s.dialect, cfg.Schema, table, columnNames(work.Columns))
		n, b, err := s.writeBatches(ctx, conn, table, stmt, toInsert, order, cfg.BatchSize, cfg.Verbose)
		res.Inserted += n
		res.Batches += b
		if err != nil {
			return res, err
		}
	}

	if toUpdate.Len() > 0 {
		keySet := nameSet(cfg.PrimaryKey)
		var setIdx, whereIdx []int
		for i, c := range work.Columns {
			if keySet[strings.ToLower(c.Name)] {
				whereIdx = append(whereIdx, i)
			} else {
				setIdx = append(setIdx, i)
			}
		}
		if len(setIdx) == 0 {
			res.Diagnostics = append(res.Diagnostics, "update skipped: dataset has no non-key columns")
		} else {
			stmt := BuildUpdate(s.dialect, cfg.Schema, table,
				namesAt(work.Columns, setIdx), namesAt(work.Columns, whereIdx))
			order := append(append([]int{}, setIdx...), whereIdx...)
			n, b, err := s.writeBatches(ctx, conn, table, stmt, toUpdate, order, cfg.BatchSize, cfg.Verbose)
			res.Updated += n
			res.Batches += b
			if err != nil {
				return res, err
			}
		}
	}

	step(phaseDone)
	return res, nil
}

// destinationKeys fetches the current primary-key tuples via a single
// projection query over just the key columns.
func (s *Syncer) destinationKeys(ctx context.Context, q Querier, schema, table string, keyCols []string) (map[string]bool, error) {
	stmt := BuildKeySelect(s.dialect, schema, table, keyCols)
	rows, err := q.QueryContext(ctx, stmt)
	if err != nil {
		return nil, &ConnectionError{Op: "key query", Err: err}
	}
	defer rows.Close()

	keys := make(map[string]bool)
	cells := make([]any, len(keyCols))
	ptrs := make([]any, len(keyCols))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &ConnectionError{Op: "key scan", Err: err}
		}
		vals := make([]any, len(cells))
		for i, c := range cells {
			vals[i] = normalizeDBValue(c)
		}
		keys[KeyTuple(vals)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, &ConnectionError{Op: "key query", Err: err}
	}
	return keys, nil
}

// clearDestination empties the table ahead of an overwrite write,
// scoped by the caller predicate when one is set.
func (s *Syncer) clearDestination(ctx context.Context, conn *sql.Conn, schema, table, where string, args []any, verbose bool) error {
	stmt := BuildDelete(s.dialect, schema, table, where)
	result, err := conn.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if verbose {
		if n, err := result.RowsAffected(); err == nil {
			s.logf("table %s: cleared %d rows", table, n)
		}
	}
	return nil
}

// stepper logs phase transitions when verbose output is on.
func (s *Syncer) stepper(table string, verbose bool) func(phase) {
	if !verbose {
		return func(phase) {}
	}
	current := phaseIdle
	return func(next phase) {
		s.logf("sync %s: %s -> %s", table, current, next)
		current = next
	}
}

// projectOnto builds the derived working copy of ds holding exactly
// the effective columns, typed for the destination.
func projectOnto(ds *dataset.Dataset, cols []dataset.Column) *dataset.Dataset {
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = ds.ColumnIndex(c.Name)
	}
	work := ds.SelectColumns(idx)
	copy(work.Columns, cols)
	return work
}

func columnNames(cols []dataset.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func namesAt(cols []dataset.Column, idx []int) []string {
	names := make([]string, len(idx))
	for i, ci := range idx {
		names[i] = cols[ci].Name
	}
	return names
}
