package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
	"github.com/ruslano69/tabsync/pkg/etl"
	"github.com/ruslano69/tabsync/pkg/ingest/csv"
	"github.com/ruslano69/tabsync/pkg/ingest/fetch"
	"github.com/ruslano69/tabsync/pkg/ingest/geojson"
	"github.com/ruslano69/tabsync/pkg/ingest/xlsx"
	"github.com/ruslano69/tabsync/pkg/sqlrw"
)

// loadCSV loads a single CSV file (local or s3://)
func loadCSV(ctx context.Context, syncer *sqlrw.Syncer, path string, flags *Flags, cfg sqlrw.WriteConfig) error {
	data, err := fetch.Fetch(ctx, path)
	if err != nil {
		return err
	}
	raw, err := csv.Decompress(path, data)
	if err != nil {
		return err
	}

	opts := csv.Options{SplitOverflow: *flags.SplitOverflow}
	if *flags.Delimiter != "" {
		opts.Comma = []rune(*flags.Delimiter)[0]
	}
	ds, err := csv.Read(raw, opts)
	if err != nil {
		return err
	}

	return writeDataset(ctx, syncer, ds, targetTable(path, flags), cfg)
}

// loadCSVDir loads every CSV file in a directory, one table per file
func loadCSVDir(ctx context.Context, syncer *sqlrw.Syncer, dir string, flags *Flags, cfg sqlrw.WriteConfig) error {
	files, err := csv.Discover(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no CSV files found in %s", dir)
	}

	opts := csv.Options{SplitOverflow: *flags.SplitOverflow}
	if *flags.Delimiter != "" {
		opts.Comma = []rune(*flags.Delimiter)[0]
	}

	for _, f := range files {
		ds, err := csv.ReadFile(f.Path, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Path, err)
		}
		if err := writeDataset(ctx, syncer, ds, f.Table, cfg); err != nil {
			return fmt.Errorf("%s: %w", f.Path, err)
		}
	}
	fmt.Printf("Loaded %d files from %s\n", len(files), dir)
	return nil
}

// loadGeoJSON loads a GeoJSON FeatureCollection
func loadGeoJSON(ctx context.Context, syncer *sqlrw.Syncer, path string, flags *Flags, cfg sqlrw.WriteConfig) error {
	data, err := fetch.Fetch(ctx, path)
	if err != nil {
		return err
	}
	ds, err := geojson.Read(data, geojson.Options{})
	if err != nil {
		return err
	}
	return writeDataset(ctx, syncer, ds, targetTable(path, flags), cfg)
}

// loadXLSX loads a spreadsheet sheet
func loadXLSX(ctx context.Context, syncer *sqlrw.Syncer, path string, flags *Flags, cfg sqlrw.WriteConfig) error {
	ds, keys, err := xlsx.ReadFile(path, *flags.Sheet)
	if err != nil {
		return err
	}
	// Header-declared keys serve as the primary key unless -pk is set
	if len(cfg.PrimaryKey) == 0 {
		cfg.PrimaryKey = keys
	}
	return writeDataset(ctx, syncer, ds, targetTable(path, flags), cfg)
}

// runQuery executes a SELECT and writes the result to stdout or a file
func runQuery(ctx context.Context, syncer *sqlrw.Syncer, query, out string) error {
	ds, err := syncer.Read(ctx, query)
	if err != nil {
		return err
	}

	switch {
	case out == "":
		return printDataset(ds)
	case strings.HasSuffix(strings.ToLower(out), ".xlsx"):
		return xlsx.WriteFile(ds, out, "", nil)
	default:
		return csv.WriteFile(ds, out)
	}
}

// writeDataset runs one sync call and reports the outcome
func writeDataset(ctx context.Context, syncer *sqlrw.Syncer, ds *dataset.Dataset, table string, cfg sqlrw.WriteConfig) error {
	res, err := syncer.Write(ctx, ds, table, cfg)
	if err != nil {
		return err
	}

	if res.Created {
		fmt.Printf("Created table %s\n", table)
	}
	for _, col := range res.AddedColumns {
		fmt.Printf("Added column %s.%s\n", table, col)
	}
	for _, diag := range res.Diagnostics {
		fmt.Printf("Warning: %s\n", diag)
	}
	if res.Script != "" {
		fmt.Printf("No privilege to change the schema. Run this script manually, then re-run:\n%s\n", res.Script)
		return nil
	}
	fmt.Printf("Table %s: %d inserted, %d updated (%d batches)\n", table, res.Inserted, res.Updated, res.Batches)
	return nil
}

// printDataset renders a dataset as tab-separated text
func printDataset(ds *dataset.Dataset) error {
	fmt.Println(strings.Join(ds.ColumnNames(), "\t"))
	for _, row := range ds.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprintf("%v", v)
			}
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
	fmt.Printf("(%d rows)\n", ds.Len())
	return nil
}

// targetTable picks the destination table: -table flag or the file name
func targetTable(path string, flags *Flags) string {
	if *flags.Table != "" {
		return *flags.Table
	}
	return etl.DeriveTable(path)
}
