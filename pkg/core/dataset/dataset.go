package dataset

import (
	"fmt"
	"strings"
)

// Dataset — упорядоченный набор именованных столбцов с типизированными
// nullable-значениями. Ячейка хранит nil (NULL) либо одно из значений:
// int64, float64, string, bool, time.Time. Источники данных (CSV, GeoJSON,
// XLSX, память) приводят свои значения к этому представлению до записи.
type Dataset struct {
	Columns []Column
	Rows    [][]any
}

// New создает пустой набор данных с заданными столбцами
func New(columns ...Column) *Dataset {
	d := &Dataset{Columns: make([]Column, len(columns))}
	copy(d.Columns, columns)
	return d
}

// Len возвращает количество строк
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Empty сообщает, пуст ли набор данных
func (d *Dataset) Empty() bool {
	return len(d.Rows) == 0
}

// ColumnNames возвращает имена столбцов в порядке их объявления
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex ищет столбец по имени без учета регистра.
// Возвращает -1, если столбец не найден.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// AppendRow добавляет строку. Количество ячеек должно совпадать
// с количеством столбцов.
func (d *Dataset) AppendRow(cells ...any) error {
	if len(cells) != len(d.Columns) {
		return fmt.Errorf("строка содержит %d ячеек, ожидается %d", len(cells), len(d.Columns))
	}
	row := make([]any, len(cells))
	copy(row, cells)
	d.Rows = append(d.Rows, row)
	return nil
}

// AddColumn добавляет столбец со значениями для каждой существующей строки.
// Длина values должна совпадать с количеством строк.
func (d *Dataset) AddColumn(col Column, values []any) error {
	if idx := d.ColumnIndex(col.Name); idx >= 0 {
		return fmt.Errorf("столбец %q уже существует", col.Name)
	}
	if len(values) != len(d.Rows) {
		return fmt.Errorf("столбец %q: %d значений на %d строк", col.Name, len(values), len(d.Rows))
	}
	d.Columns = append(d.Columns, col)
	for i := range d.Rows {
		d.Rows[i] = append(d.Rows[i], values[i])
	}
	return nil
}

// Clone возвращает глубокую копию набора данных. Ячейки копируются
// по значению: все поддерживаемые типы ячеек неизменяемы.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Columns: make([]Column, len(d.Columns)),
		Rows:    make([][]any, len(d.Rows)),
	}
	copy(out.Columns, d.Columns)
	for i, row := range d.Rows {
		out.Rows[i] = make([]any, len(row))
		copy(out.Rows[i], row)
	}
	return out
}

// Subset возвращает новый набор с теми же столбцами и строками
// по заданным индексам, в порядке перечисления индексов.
func (d *Dataset) Subset(rowIndexes []int) *Dataset {
	out := &Dataset{
		Columns: make([]Column, len(d.Columns)),
		Rows:    make([][]any, 0, len(rowIndexes)),
	}
	copy(out.Columns, d.Columns)
	for _, ri := range rowIndexes {
		row := make([]any, len(d.Rows[ri]))
		copy(row, d.Rows[ri])
		out.Rows = append(out.Rows, row)
	}
	return out
}

// SelectColumns возвращает новый набор из указанных столбцов
// (по индексам), в заданном порядке. Строки копируются.
func (d *Dataset) SelectColumns(indexes []int) *Dataset {
	out := &Dataset{
		Columns: make([]Column, len(indexes)),
		Rows:    make([][]any, len(d.Rows)),
	}
	for i, ci := range indexes {
		out.Columns[i] = d.Columns[ci]
	}
	for ri, row := range d.Rows {
		cells := make([]any, len(indexes))
		for i, ci := range indexes {
			cells[i] = row[ci]
		}
		out.Rows[ri] = cells
	}
	return out
}

// Cell возвращает значение ячейки (строка, столбец)
func (d *Dataset) Cell(row, col int) any {
	return d.Rows[row][col]
}
