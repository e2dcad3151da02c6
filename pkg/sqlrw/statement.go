package sqlrw

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

// identPattern is the allow-list for identifiers spliced into SQL
// text. Values never go through this path: they are always bound
// parameters.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdent rejects table, schema and column names that do not
// match the identifier allow-list.
func ValidateIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// QualifiedName renders schema.table with dialect quoting. An empty
// schema yields just the quoted table name.
func QualifiedName(d Dialect, schema, table string) string {
	if schema == "" {
		return d.QuoteIdent(table)
	}
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

// BuildCreateTable renders a CREATE TABLE statement. Key columns are
// declared NOT NULL and listed in a composite PRIMARY KEY constraint
// in declaration order; all other columns stay nullable so that later
// appends with sparse data do not fail.
func BuildCreateTable(d Dialect, schema, table string, cols []dataset.Column, keys []string) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("table %q: no columns to create from", table)
	}
	keySet := nameSet(keys)
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", QualifiedName(d, schema, table))
	for i, col := range cols {
		sqlType, err := d.DataType(col)
		if err != nil {
			return "", err
		}
		b.WriteString("    ")
		b.WriteString(d.QuoteIdent(col.Name))
		b.WriteString(" ")
		b.WriteString(sqlType)
		if keySet[strings.ToLower(col.Name)] {
			b.WriteString(" NOT NULL")
		}
		if i < len(cols)-1 || len(keys) > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	if len(keys) > 0 {
		quoted := make([]string, len(keys))
		for i, k := range keys {
			quoted[i] = d.QuoteIdent(k)
		}
		fmt.Fprintf(&b, "    CONSTRAINT %s PRIMARY KEY (%s)\n",
			d.QuoteIdent("PK_"+table), strings.Join(quoted, ", "))
	}
	b.WriteString(")")
	return b.String(), nil
}

// BuildAddColumn renders a single additive ALTER statement. The plain
// ADD form (without the COLUMN keyword) is accepted by every supported
// dialect.
func BuildAddColumn(d Dialect, schema, table string, col dataset.Column) (string, error) {
	sqlType, err := d.DataType(col)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD %s %s",
		QualifiedName(d, schema, table), d.QuoteIdent(col.Name), sqlType), nil
}

// BuildInsert renders a parameterized single-row INSERT for the given
// columns, in column order.
func BuildInsert(d Dialect, schema, table string, cols []string) string {
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdent(c)
		marks[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QualifiedName(d, schema, table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
}

// BuildUpdate renders a parameterized single-row UPDATE. SET
// parameters come first, WHERE key parameters follow; the batch writer
// binds rows in the same order.
func BuildUpdate(d Dialect, schema, table string, setCols, keyCols []string) string {
	n := 0
	sets := make([]string, len(setCols))
	for i, c := range setCols {
		n++
		sets[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(c), d.Placeholder(n))
	}
	wheres := make([]string, len(keyCols))
	for i, c := range keyCols {
		n++
		wheres[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(c), d.Placeholder(n))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		QualifiedName(d, schema, table), strings.Join(sets, ", "), strings.Join(wheres, " AND "))
}

// BuildDelete renders the overwrite-mode delete, optionally narrowed
// by a caller predicate.
func BuildDelete(d Dialect, schema, table, where string) string {
	stmt := "DELETE FROM " + QualifiedName(d, schema, table)
	if where != "" {
		stmt += " WHERE " + where
	}
	return stmt
}

// BuildKeySelect renders the key projection used by row
// classification. Only the key columns are fetched, never the full
// table.
func BuildKeySelect(d Dialect, schema, table string, keyCols []string) string {
	quoted := make([]string, len(keyCols))
	for i, c := range keyCols {
		quoted[i] = d.QuoteIdent(c)
	}
	return fmt.Sprintf("SELECT %s FROM %s",
		strings.Join(quoted, ", "), QualifiedName(d, schema, table))
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set
}
