package sqlrw

import "fmt"

// WriteMode selects how incoming rows are applied to the destination
// table.
type WriteMode string

const (
	// ModeAppend inserts every row without consulting existing data.
	ModeAppend WriteMode = "append"
	// ModeOverwrite clears the destination, then inserts every row.
	ModeOverwrite WriteMode = "overwrite"
	// ModeUpdate updates rows whose key already exists and inserts the
	// rest.
	ModeUpdate WriteMode = "update"
	// ModeSkip inserts only rows whose key is absent; matching rows are
	// dropped.
	ModeSkip WriteMode = "skip"
)

// Valid reports whether the mode is one of the supported values.
func (m WriteMode) Valid() bool {
	switch m {
	case ModeAppend, ModeOverwrite, ModeUpdate, ModeSkip:
		return true
	}
	return false
}

// NeedsKeys reports whether the mode classifies rows by primary key.
func (m WriteMode) NeedsKeys() bool {
	return m == ModeUpdate || m == ModeSkip
}

// DefaultBatchSize is used when WriteConfig.BatchSize is unset.
const DefaultBatchSize = 5000

// WriteConfig controls a single write call.
type WriteConfig struct {
	// Schema is the destination schema name. Empty picks the dialect
	// default ("dbo" for MS SQL, "public" for PostgreSQL, ...).
	Schema string

	// PrimaryKey lists the key columns used for update/skip
	// classification and for the PRIMARY KEY clause of a created table.
	PrimaryKey []string

	// Mode defaults to ModeAppend.
	Mode WriteMode

	// BatchSize caps rows per committed batch. Defaults to
	// DefaultBatchSize.
	BatchSize int

	// Verbose routes phase and batch progress through the syncer logger.
	Verbose bool

	// ClearWhere optionally narrows the overwrite delete to a predicate
	// (written without the WHERE keyword, with dialect placeholders).
	// Empty clears the whole table.
	ClearWhere string
	// ClearArgs are bound to ClearWhere placeholders.
	ClearArgs []any
}

// SetDefaults fills zero values with the documented defaults
func (c *WriteConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = ModeAppend
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
}

// Validate checks the configuration once, before any destination work
// starts. Invalid values fail fast instead of degrading to another
// mode.
func (c *WriteConfig) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("unknown write mode %q", c.Mode)
	}
	if c.Mode.NeedsKeys() && len(c.PrimaryKey) == 0 {
		return fmt.Errorf("mode %q requires a non-empty primary key", c.Mode)
	}
	if c.ClearWhere != "" && c.Mode != ModeOverwrite {
		return fmt.Errorf("clear predicate is only valid in %q mode", ModeOverwrite)
	}
	for _, k := range c.PrimaryKey {
		if err := ValidateIdent(k); err != nil {
			return fmt.Errorf("primary key: %w", err)
		}
	}
	return nil
}

// WriteResult describes what a write call did.
type WriteResult struct {
	// Created is true when the destination table was created.
	Created bool
	// AddedColumns lists columns added to an existing table.
	AddedColumns []string
	// Script holds DDL returned for manual execution when the
	// connection lacked the privilege to apply it.
	Script string
	// Diagnostics collects recovered per-column issues.
	Diagnostics []string

	Inserted int
	Updated  int
	Batches  int
}
