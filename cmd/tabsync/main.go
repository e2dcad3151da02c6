package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ruslano69/tabsync/pkg/adapters"
	"github.com/ruslano69/tabsync/pkg/etl"
	"github.com/ruslano69/tabsync/pkg/sqlrw"

	// Register destination connectors
	_ "github.com/ruslano69/tabsync/pkg/adapters/mssql"
	_ "github.com/ruslano69/tabsync/pkg/adapters/mysql"
	_ "github.com/ruslano69/tabsync/pkg/adapters/odbc"
	_ "github.com/ruslano69/tabsync/pkg/adapters/postgres"
	_ "github.com/ruslano69/tabsync/pkg/adapters/sqlite"
)

func main() {
	ctx := context.Background()

	flags := ParseFlags()

	if *flags.Version {
		PrintVersion()
		os.Exit(0)
	}
	if *flags.Help {
		PrintHelp()
		os.Exit(0)
	}
	if !commandWasSpecified(flags) {
		PrintHelp()
		os.Exit(1)
	}

	// Pipeline brings its own destination config
	if *flags.Pipeline != "" {
		if err := runPipeline(ctx, *flags.Pipeline); err != nil {
			fatal("Pipeline failed: %v", err)
		}
		return
	}

	conn, err := connect(ctx, flags)
	if err != nil {
		fatal("Failed to connect: %v", err)
	}
	defer conn.Close()

	syncer := sqlrw.New(conn, conn.Dialect())

	writeCfg := sqlrw.WriteConfig{
		Schema:    *flags.Schema,
		Mode:      sqlrw.WriteMode(*flags.Mode),
		BatchSize: *flags.Batch,
		Verbose:   *flags.Verbose,
	}
	if *flags.PK != "" {
		writeCfg.PrimaryKey = splitList(*flags.PK)
	}

	var cmdErr error
	switch {
	case *flags.LoadCSV != "":
		cmdErr = loadCSV(ctx, syncer, *flags.LoadCSV, flags, writeCfg)
	case *flags.LoadCSVDir != "":
		cmdErr = loadCSVDir(ctx, syncer, *flags.LoadCSVDir, flags, writeCfg)
	case *flags.LoadGeoJSON != "":
		cmdErr = loadGeoJSON(ctx, syncer, *flags.LoadGeoJSON, flags, writeCfg)
	case *flags.LoadXLSX != "":
		cmdErr = loadXLSX(ctx, syncer, *flags.LoadXLSX, flags, writeCfg)
	case *flags.Query != "":
		cmdErr = runQuery(ctx, syncer, *flags.Query, *flags.Out)
	}

	if cmdErr != nil {
		fatal("Command failed: %v", cmdErr)
	}
}

// connect builds the destination connector from the connection flags.
// A login file implies mssql unless -db-type says otherwise.
func connect(ctx context.Context, flags *Flags) (adapters.Connector, error) {
	dbType := *flags.DBType
	dsn := *flags.DSN

	if *flags.Login != "" {
		if dsn != "" {
			return nil, fmt.Errorf("-dsn and -login are mutually exclusive")
		}
		if dbType == "" {
			dbType = "mssql"
		}
		resolved, err := etl.LoadLoginDSN(*flags.Login, dbType)
		if err != nil {
			return nil, err
		}
		dsn = resolved
	}

	if dbType == "" {
		return nil, fmt.Errorf("-db-type is required (one of: %s)", strings.Join(adapters.GetRegisteredTypes(), ", "))
	}
	if dsn == "" {
		return nil, fmt.Errorf("-dsn or -login is required")
	}

	return adapters.New(ctx, adapters.Config{
		Type:   dbType,
		DSN:    dsn,
		Schema: *flags.Schema,
	})
}

// runPipeline executes a YAML pipeline config
func runPipeline(ctx context.Context, configPath string) error {
	config, err := etl.LoadConfig(configPath)
	if err != nil {
		return err
	}

	result, err := etl.NewPipeline(config).Run(ctx)
	if result != nil {
		fmt.Printf("Pipeline %s: %d loaded, %d skipped, %d failed (%d inserted, %d updated)\n",
			result.Pipeline, result.Loaded, result.Skipped, result.Failed,
			result.RowsInserted, result.RowsUpdated)
	}
	return err
}

// splitList splits a comma-separated flag value
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// fatal prints error and exits
func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
