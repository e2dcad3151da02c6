package sqlrw

import (
	"fmt"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

// ConnectionError reports a failure to obtain or use the destination
// connection. It is fatal: the whole write call aborts.
type ConnectionError struct {
	Op  string // which step failed: "checkout", "table probe", "key query", ...
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SchemaError reports a column whose type has no mapping. The column
// is excluded from the operation with a diagnostic; everything else
// proceeds.
type SchemaError struct {
	Column string
	DBType string // destination type that failed the reverse mapping, if any
	Reason string
}

func (e *SchemaError) Error() string {
	if e.DBType != "" {
		return fmt.Sprintf("column %q: unsupported destination type %q: %s", e.Column, e.DBType, e.Reason)
	}
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

// PermissionError reports a DDL statement the server rejected for lack
// of privileges. The statement text is preserved so it can be handed
// over for manual execution.
type PermissionError struct {
	Statement string
	Err       error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("insufficient privileges: %v", e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// TypeCoercionError reports a value that cannot be cast to the
// destination column type, after the integer-to-float fallback has
// also been tried where applicable. The write call aborts with an
// empty result.
type TypeCoercionError struct {
	Column string
	Target dataset.SemanticType
	Value  any
}

func (e *TypeCoercionError) Error() string {
	return fmt.Sprintf("column %q: cannot coerce %v (%T) to %s", e.Column, e.Value, e.Value, e.Target)
}

// WriteError reports a failed batch. FirstRow and LastRow are 0-based
// positions within the written partition. Batches before this one are
// durably applied; this batch and everything after it are not.
type WriteError struct {
	Table    string
	FirstRow int
	LastRow  int
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write to %s failed on rows %d..%d: %v", e.Table, e.FirstRow, e.LastRow, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
