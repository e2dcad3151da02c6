package sqlrw

import (
	"context"
	"database/sql"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

// writeBatches executes stmt once per partition row, grouping rows
// into contiguous batches of at most batchSize. Each batch commits in
// its own transaction, so a failure in batch N leaves batches 1..N-1
// durably applied and stops everything after it.
func (s *Syncer) writeBatches(ctx context.Context, conn *sql.Conn, table, stmt string, part *dataset.Dataset, colOrder []int, batchSize int, verbose bool) (rows, batches int, err error) {
	total := part.Len()
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		if err := s.writeBatch(ctx, conn, stmt, part, colOrder, start, end); err != nil {
			return rows, batches, &WriteError{Table: table, FirstRow: start, LastRow: end - 1, Err: err}
		}
		rows += end - start
		batches++
		if verbose {
			s.logf("table %s: batch %d committed (%d/%d rows)", table, batches, rows, total)
		}
	}
	return rows, batches, nil
}

func (s *Syncer) writeBatch(ctx context.Context, conn *sql.Conn, stmt string, part *dataset.Dataset, colOrder []int, start, end int) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	ps, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		tx.Rollback()
		return err
	}
	for ri := start; ri < end; ri++ {
		if _, err := ps.ExecContext(ctx, bindRow(part.Rows[ri], colOrder)...); err != nil {
			ps.Close()
			tx.Rollback()
			return err
		}
	}
	if err := ps.Close(); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// bindRow lays cells out in statement parameter order. nil cells pass
// through as explicit NULL parameters, so empty strings and zeros
// survive as real values rather than collapsing into null.
func bindRow(row []any, colOrder []int) []any {
	args := make([]any, len(colOrder))
	for i, ci := range colOrder {
		args[i] = row[ci]
	}
	return args
}
