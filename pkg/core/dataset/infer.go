package dataset

import (
	"strconv"
	"strings"
	"time"
)

// Форматы дат, распознаваемые при выводе типа из строковых значений.
// Порядок важен: более специфичные раньше.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006",
}

// InferSchema выводит семантический тип и nullable для каждого столбца
// по фактическим значениям. Исходный набор не изменяется: возвращается
// копия списка столбцов с заполненными Type и Nullable. Столбец с уже
// заданным корректным типом сохраняет его; столбец без единого
// значения считается текстовым.
func (d *Dataset) InferSchema() []Column {
	cols := make([]Column, len(d.Columns))
	copy(cols, d.Columns)
	for i := range cols {
		t, nullable := inferColumn(d.Rows, i)
		if !cols[i].Type.Valid() {
			cols[i].Type = t
		}
		cols[i].Nullable = nullable
	}
	return cols
}

func inferColumn(rows [][]any, col int) (SemanticType, bool) {
	var (
		current  SemanticType
		seen     bool
		nullable bool
	)
	for _, row := range rows {
		v := row[col]
		if v == nil {
			nullable = true
			continue
		}
		t := cellType(v)
		if !seen {
			current, seen = t, true
			continue
		}
		current = mergeTypes(current, t)
	}
	if !seen {
		return TypeText, true
	}
	return current, nullable
}

// mergeTypes объединяет тип столбца с типом очередной ячейки.
// Единственное допустимое смешение — целые и дробные числа,
// любое другое разночтение деградирует до текста.
func mergeTypes(a, b SemanticType) SemanticType {
	if a == b {
		return a
	}
	if a.Numeric() && b.Numeric() {
		return TypeFloat
	}
	return TypeText
}

func cellType(v any) SemanticType {
	switch x := v.(type) {
	case int64, int, int32, int16, int8, uint64, uint, uint32, uint16, uint8:
		return TypeInteger
	case float64, float32:
		return TypeFloat
	case bool:
		return TypeBoolean
	case time.Time:
		return TypeDatetime
	case string:
		return stringType(x)
	default:
		return TypeText
	}
}

// stringType классифицирует строковое значение: целое, дробное,
// дата/время, логическое, иначе текст.
func stringType(s string) SemanticType {
	if _, ok := ParseInt(s); ok {
		return TypeInteger
	}
	if _, ok := ParseFloat(s); ok {
		return TypeFloat
	}
	if _, ok := ParseTime(s); ok {
		return TypeDatetime
	}
	if _, ok := ParseBool(s); ok {
		return TypeBoolean
	}
	return TypeText
}

// ParseInt разбирает строку как целое число
func ParseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseFloat разбирает строку как число с плавающей точкой
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseTime разбирает строку в одном из поддерживаемых форматов даты
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseBool разбирает строку как логическое значение.
// Числовые формы ("0", "1") сюда не попадают: они выводятся как целые.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
