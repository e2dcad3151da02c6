package odbc

import (
	"errors"

	odbcdrv "github.com/alexbrainman/odbc"

	"github.com/ruslano69/tabsync/pkg/adapters/mssql"
	"github.com/ruslano69/tabsync/pkg/sqlrw"
)

// Dialect reuses the SQL Server dialect wholesale. The server behind
// the driver manager speaks the same T-SQL either way; only error
// reporting differs, because the driver surfaces diagnostics records
// instead of typed server errors.
type Dialect struct {
	mssql.Dialect
}

// NewDialect returns the ODBC dialect. An empty schema falls back to
// dbo.
func NewDialect(schema string) Dialect {
	return Dialect{mssql.NewDialect(schema)}
}

// Name implements sqlrw.Dialect.
func (Dialect) Name() string { return AdapterType }

// IsPermissionDenied implements sqlrw.Dialect. The server error number
// travels in the NativeError field of each diagnostic record.
func (d Dialect) IsPermissionDenied(err error) bool {
	var oerr *odbcdrv.Error
	if errors.As(err, &oerr) {
		for _, rec := range oerr.Diag {
			if mssql.IsPermissionNumber(int32(rec.NativeError)) {
				return true
			}
			if rec.State == "42501" {
				return true
			}
		}
		return false
	}
	return d.Dialect.IsPermissionDenied(err)
}

var _ sqlrw.Dialect = Dialect{}
