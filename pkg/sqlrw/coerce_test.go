package sqlrw

import (
	"errors"
	"testing"
	"time"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

func coerceSingle(t *testing.T, target dataset.SemanticType, values ...any) *dataset.Dataset {
	t.Helper()
	d := dataset.New(dataset.Column{Name: "v", Type: target})
	for _, v := range values {
		d.AppendRow(v)
	}
	if err := coerceDataset(d); err != nil {
		t.Fatalf("coerceDataset failed: %v", err)
	}
	return d
}

func TestCoerce_StringsToInteger(t *testing.T) {
	d := coerceSingle(t, dataset.TypeInteger, "42", int64(7), nil, float64(3))
	if d.Rows[0][0] != int64(42) || d.Rows[1][0] != int64(7) || d.Rows[3][0] != int64(3) {
		t.Errorf("Integer coercion produced %v", d.Rows)
	}
	if d.Rows[2][0] != nil {
		t.Error("Null must survive coercion")
	}
}

func TestCoerce_IntegerFallsBackToFloat(t *testing.T) {
	d := dataset.New(dataset.Column{Name: "v", Type: dataset.TypeInteger})
	d.AppendRow("1")
	d.AppendRow("2.5")

	if err := coerceDataset(d); err != nil {
		t.Fatalf("Expected float fallback, got error: %v", err)
	}
	if d.Columns[0].Type != dataset.TypeFloat {
		t.Errorf("Expected column retyped to float, got %s", d.Columns[0].Type)
	}
	if d.Rows[0][0] != float64(1) || d.Rows[1][0] != float64(2.5) {
		t.Errorf("Float fallback produced %v", d.Rows)
	}
}

func TestCoerce_FailureAborts(t *testing.T) {
	d := dataset.New(dataset.Column{Name: "age", Type: dataset.TypeInteger})
	d.AppendRow("abc")

	err := coerceDataset(d)
	if err == nil {
		t.Fatal("Expected coercion error")
	}
	var cerr *TypeCoercionError
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected TypeCoercionError, got %T", err)
	}
	if cerr.Column != "age" {
		t.Errorf("Expected failing column 'age', got %q", cerr.Column)
	}
}

func TestCoerce_EmptyStringStaysEmpty(t *testing.T) {
	d := coerceSingle(t, dataset.TypeText, "", nil)
	if d.Rows[0][0] != "" {
		t.Error("Empty string must not collapse into null")
	}
	if d.Rows[1][0] != nil {
		t.Error("Null must stay null")
	}
}

func TestCoerce_BooleanForms(t *testing.T) {
	d := coerceSingle(t, dataset.TypeBoolean, true, "false", int64(1), "0")
	want := []any{true, false, true, false}
	for i, w := range want {
		if d.Rows[i][0] != w {
			t.Errorf("Row %d: expected %v, got %v", i, w, d.Rows[i][0])
		}
	}
}

func TestCoerce_DatetimeFromString(t *testing.T) {
	d := coerceSingle(t, dataset.TypeDatetime, "2024-03-01 12:00:00")
	ts, ok := d.Rows[0][0].(time.Time)
	if !ok {
		t.Fatalf("Expected time.Time, got %T", d.Rows[0][0])
	}
	if ts.Year() != 2024 || ts.Month() != 3 || ts.Hour() != 12 {
		t.Errorf("Unexpected parsed time: %v", ts)
	}
}

func TestCoerce_NumbersToText(t *testing.T) {
	d := coerceSingle(t, dataset.TypeText, int64(5), float64(2.5), true)
	want := []any{"5", "2.5", "true"}
	for i, w := range want {
		if d.Rows[i][0] != w {
			t.Errorf("Row %d: expected %q, got %q", i, w, d.Rows[i][0])
		}
	}
}

func TestCoerce_BoolToInteger(t *testing.T) {
	d := coerceSingle(t, dataset.TypeInteger, true, false)
	if d.Rows[0][0] != int64(1) || d.Rows[1][0] != int64(0) {
		t.Errorf("Boolean to integer produced %v", d.Rows)
	}
}
