package mssql

import (
	"errors"
	"fmt"
	"testing"

	mssqldb "github.com/denisenkom/go-mssqldb"

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
		{"float", dataset.Column{Type: dataset.TypeFloat}, "FLOAT"},
		{"datetime", dataset.Column{Type: dataset.TypeDatetime}, "DATETIME"},
		{"boolean", dataset.Column{Type: dataset.TypeBoolean}, "INT"},
		{"text with length", dataset.Column{Type: dataset.TypeText, Length: 60}, "NVARCHAR(60)"},
		{"text default length", dataset.Column{Type: dataset.TypeText}, "NVARCHAR(255)"},
		{"text unbounded", dataset.Column{Type: dataset.TypeText, Length: dataset.UnboundedLength}, "NVARCHAR(MAX)"},
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

func TestDialect_DataTypeUnknown(t *testing.T) {
	d := NewDialect("")
	if _, err := d.DataType(dataset.Column{Type: "geometry"}); err == nil {
		t.Error("Expected error for unknown semantic type")
	}
}

func TestDialect_SemanticType(t *testing.T) {
	d := NewDialect("")

	tests := []struct {
		dbType string
		want   dataset.SemanticType
		ok     bool
	}{
		{"nvarchar", dataset.TypeText, true},
		{"VARCHAR", dataset.TypeText, true},
		{"text", dataset.TypeText, true},
		{"uniqueidentifier", dataset.TypeText, true},
		{"datetime", dataset.TypeDatetime, true},
		{"datetime2", dataset.TypeDatetime, true},
		{"date", dataset.TypeDatetime, true},
		{"smalldatetime", dataset.TypeDatetime, true},
		{"bigint", dataset.TypeInteger, true},
		{"int", dataset.TypeInteger, true},
		{"tinyint", dataset.TypeInteger, true},
		{"bit", dataset.TypeBoolean, true},
		{"float", dataset.TypeFloat, true},
		{"decimal", dataset.TypeFloat, true},
		{"money", dataset.TypeFloat, true},
		{"geography", "", false},
		{"varbinary", "", false},
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

func TestDialect_DefaultSchema(t *testing.T) {
	if got := NewDialect("").DefaultSchema(); got != "dbo" {
		t.Errorf("Expected dbo, got %s", got)
	}
	if got := NewDialect("reports").DefaultSchema(); got != "reports" {
		t.Errorf("Expected reports, got %s", got)
	}
}

func TestDialect_CreateTableDDL(t *testing.T) {
	d := NewDialect("")
	cols := []dataset.Column{
		{Name: "id", Type: dataset.TypeInteger},
		{Name: "name", Type: dataset.TypeText, Length: 60},
		{Name: "created", Type: dataset.TypeDatetime},
	}

	got, err := sqlrw.BuildCreateTable(d, "dbo", "demo", cols, []string{"id"})
	if err != nil {
		t.Fatalf("BuildCreateTable failed: %v", err)
	}

	want := "CREATE TABLE [dbo].[demo] (\n" +
		"    [id] BIGINT NOT NULL,\n" +
		"    [name] NVARCHAR(60),\n" +
		"    [created] DATETIME,\n" +
		"    CONSTRAINT [PK_demo] PRIMARY KEY ([id])\n" +
		")"
	if got != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestIsPermissionDenied(t *testing.T) {
	d := NewDialect("")

	for _, num := range []int32{229, 230, 262, 297} {
		err := mssqldb.Error{Number: num, Message: "permission was denied"}
		if !d.IsPermissionDenied(err) {
			t.Errorf("Expected number %d to be recognized as permission denied", num)
		}
	}

	wrapped := fmt.Errorf("create table: %w", mssqldb.Error{Number: 262})
	if !d.IsPermissionDenied(wrapped) {
		t.Error("Expected wrapped driver error to be recognized")
	}

	if d.IsPermissionDenied(mssqldb.Error{Number: 208}) {
		t.Error("Expected invalid object name (208) to not be permission denied")
	}
	if d.IsPermissionDenied(errors.New("connection reset")) {
		t.Error("Expected generic error to not be permission denied")
	}
}
