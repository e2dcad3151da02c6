package main

import "flag"

// Flags holds all command-line flags
type Flags struct {
	// Commands
	LoadCSV     *string
	LoadCSVDir  *string
	LoadGeoJSON *string
	LoadXLSX    *string
	Query       *string
	Pipeline    *string

	// Connection
	DBType *string
	DSN    *string
	Login  *string
	Schema *string

	// Write options
	Table         *string
	Mode          *string
	PK            *string
	Batch         *int
	SplitOverflow *bool

	// Format options
	Sheet     *string
	Delimiter *string
	Out       *string

	// Misc
	Verbose *bool
	Version *bool
	Help    *bool
}

// ParseFlags defines and parses all command-line flags
func ParseFlags() *Flags {
	f := &Flags{}

	// Commands
	f.LoadCSV = flag.String("load-csv", "", "Load a CSV file into the destination table (file path or s3:// URL)")
	f.LoadCSVDir = flag.String("load-csv-dir", "", "Load every CSV file in a directory, one table per file")
	f.LoadGeoJSON = flag.String("load-geojson", "", "Load a GeoJSON FeatureCollection into the destination table")
	f.LoadXLSX = flag.String("load-xlsx", "", "Load an XLSX sheet into the destination table")
	f.Query = flag.String("query", "", "Run a SQL query against the destination and print/export the result")
	f.Pipeline = flag.String("pipeline", "", "Execute a load pipeline from YAML config (file path)")

	// Connection
	f.DBType = flag.String("db-type", "", "Destination type: mssql, odbc, mysql, postgres, sqlite")
	f.DSN = flag.String("dsn", "", "Destination connection string")
	f.Login = flag.String("login", "", "Path to a key=value login file (mssql/odbc; alternative to -dsn)")
	f.Schema = flag.String("schema", "", "Destination schema (default: dialect default)")

	// Write options
	f.Table = flag.String("table", "", "Destination table name (default: derived from the file name)")
	f.Mode = flag.String("mode", "append", "Write mode: append, overwrite, update, skip")
	f.PK = flag.String("pk", "", "Primary key columns for update/skip mode (comma-separated)")
	f.Batch = flag.Int("batch", 0, "Batch size for writes (default 5000)")
	f.SplitOverflow = flag.Bool("split-overflow", false, "Split over-length text values across overflow columns")

	// Format options
	f.Sheet = flag.String("sheet", "", "Excel sheet name for -load-xlsx (default: first sheet)")
	f.Delimiter = flag.String("delimiter", "", "CSV field delimiter (default: comma)")
	f.Out = flag.String("out", "", "Output file for -query results: .csv or .xlsx (default: stdout)")

	// Misc
	f.Verbose = flag.Bool("verbose", false, "Log sync phases and batch progress")
	f.Version = flag.Bool("version", false, "Show version information")
	f.Help = flag.Bool("help", false, "Show detailed help with examples")

	flag.Parse()

	return f
}

// commandWasSpecified checks if any command was specified
func commandWasSpecified(flags *Flags) bool {
	return *flags.LoadCSV != "" ||
		*flags.LoadCSVDir != "" ||
		*flags.LoadGeoJSON != "" ||
		*flags.LoadXLSX != "" ||
		*flags.Query != "" ||
		*flags.Pipeline != ""
}
