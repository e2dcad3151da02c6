package dataset

// SemanticType определяет семантический тип столбца набора данных.
// Выводится один раз за вызов записи и остается стабильным внутри вызова.
type SemanticType string

const (
	TypeInteger  SemanticType = "integer"
	TypeFloat    SemanticType = "float"
	TypeText     SemanticType = "text"
	TypeDatetime SemanticType = "datetime"
	TypeBoolean  SemanticType = "boolean"
)

// UnboundedLength — маркер неограниченной длины текстового столбца
// (NVARCHAR(MAX) в MS SQL, TEXT в остальных СУБД).
const UnboundedLength = -1

// Valid проверяет, что тип входит в множество поддерживаемых
func (t SemanticType) Valid() bool {
	switch t {
	case TypeInteger, TypeFloat, TypeText, TypeDatetime, TypeBoolean:
		return true
	}
	return false
}

// Numeric сообщает, является ли тип числовым
func (t SemanticType) Numeric() bool {
	return t == TypeInteger || t == TypeFloat
}

// Column описывает один столбец набора данных.
//
// Length имеет смысл только для текстовых столбцов:
//
//	 0 — длина вычисляется по фактическим значениям
//	>0 — объявленная длина (в символах UTF-16)
//	-1 — без ограничения (UnboundedLength)
type Column struct {
	Name     string
	Type     SemanticType
	Length   int
	Nullable bool
}
