package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
	"github.com/ruslano69/tabsync/pkg/sqlrw"
)

func TestDialect_DataType(t *testing.T) {
	d := NewDialect("")

	tests := []struct {
		name string
		col  dataset.Column
		want string
	}{
		{"integer", dataset.Column{Type: dataset.TypeInteger}, "BIGINT"},
		{"float", dataset.Column{Type: dataset.TypeFloat}, "DOUBLE PRECISION"},
		{"datetime", dataset.Column{Type: dataset.TypeDatetime}, "TIMESTAMP"},
		{"boolean", dataset.Column{Type: dataset.TypeBoolean}, "BOOLEAN"},
		{"text with length", dataset.Column{Type: dataset.TypeText, Length: 60}, "VARCHAR(60)"},
		{"text unbounded", dataset.Column{Type: dataset.TypeText, Length: dataset.UnboundedLength}, "TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.DataType(tt.col)
			if err != nil {
				t.Fatalf("DataType failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDialect_SemanticType(t *testing.T) {
	d := NewDialect("")

	tests := []struct {
		dbType string
		want   dataset.SemanticType
		ok     bool
	}{
		{"character varying", dataset.TypeText, true},
		{"text", dataset.TypeText, true},
		{"uuid", dataset.TypeText, true},
		{"jsonb", dataset.TypeText, true},
		{"timestamp without time zone", dataset.TypeDatetime, true},
		{"timestamp with time zone", dataset.TypeDatetime, true},
		{"time without time zone", dataset.TypeDatetime, true},
		{"date", dataset.TypeDatetime, true},
		{"integer", dataset.TypeInteger, true},
		{"bigint", dataset.TypeInteger, true},
		{"boolean", dataset.TypeBoolean, true},
		{"double precision", dataset.TypeFloat, true},
		{"numeric", dataset.TypeFloat, true},
		{"bytea", "", false},
		{"point", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			got, ok := d.SemanticType(tt.dbType)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDialect_Placeholders(t *testing.T) {
	d := NewDialect("")

	stmt := sqlrw.BuildUpdate(d, "public", "users", []string{"name", "age"}, []string{"id"})
	want := `UPDATE "public"."users" SET "name" = $1, "age" = $2 WHERE "id" = $3`
	if stmt != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, stmt)
	}
}

func TestDialect_DefaultSchema(t *testing.T) {
	if got := NewDialect("").DefaultSchema(); got != "public" {
		t.Errorf("Expected public, got %s", got)
	}
	if got := NewDialect("stage").DefaultSchema(); got != "stage" {
		t.Errorf("Expected stage, got %s", got)
	}
}

func TestIsPermissionDenied(t *testing.T) {
	d := NewDialect("")

	denied := &pgconn.PgError{Code: "42501", Message: "permission denied for schema public"}
	if !d.IsPermissionDenied(denied) {
		t.Error("Expected SQLSTATE 42501 to be recognized as permission denied")
	}

	if d.IsPermissionDenied(&pgconn.PgError{Code: "42P01", Message: "relation does not exist"}) {
		t.Error("Expected undefined table (42P01) to not be permission denied")
	}
	if d.IsPermissionDenied(errors.New("context canceled")) {
		t.Error("Expected generic error to not be permission denied")
	}
}
