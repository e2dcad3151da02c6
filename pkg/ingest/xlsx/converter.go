// Package xlsx reads and writes datasets as Excel workbooks.
//
// Headers carry the column type in parentheses ("price (FLOAT)") and
// key columns are marked with a trailing asterisk, so a workbook
// written by WriteFile reads back with the same column types and keys
// without re-inference.
package xlsx

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

// WriteFile - write a dataset to an XLSX file
//
// Creates an Excel file with formatted headers and typed cells.
// Headers show column names with types (e.g., "customer_name (TEXT)").
// Columns listed in keys are marked with *.
//
// Example:
//
//	err := xlsx.WriteFile(ds, "output.xlsx", "Orders", []string{"id"})
func WriteFile(ds *dataset.Dataset, filePath string, sheetName string, keys []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = "Sheet1"
	}

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// Fill in column types from the data before rendering headers,
	// the same way the write engine does.
	cols := ds.InferSchema()

	for col, c := range cols {
		cell := columnName(col+1) + "1"
		header := fmt.Sprintf("%s (%s)", c.Name, strings.ToUpper(string(c.Type)))
		if isKey(c.Name, keys) {
			header += " *"
		}
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range ds.Rows {
		for col := range cols {
			if col >= len(row) || row[col] == nil {
				continue
			}
			cell := columnName(col+1) + strconv.Itoa(rowIdx+2)
			f.SetCellValue(sheetName, cell, cellToExcel(row[col]))
		}
	}

	for col := range cols {
		colName := columnName(col + 1)
		f.SetColWidth(sheetName, colName, colName, 15)
	}

	return f.SaveAs(filePath)
}

// ReadFile - read an XLSX file into a dataset
//
// Expects headers in format "column_name (TYPE)" or "column_name (TYPE) *"
// for keys. Headers without a type annotation yield text columns. Returns
// the dataset and the names of the key columns, in header order.
//
// Example:
//
//	ds, keys, err := xlsx.ReadFile("input.xlsx", "Orders")
func ReadFile(filePath string, sheetName string) (*dataset.Dataset, []string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %q has no header row", sheetName)
	}

	headerRow := rows[0]
	columns := make([]dataset.Column, 0, len(headerRow))
	var keys []string
	for _, header := range headerRow {
		name, colType, key := parseHeader(header)
		columns = append(columns, dataset.Column{Name: name, Type: colType})
		if key {
			keys = append(keys, name)
		}
	}

	ds := dataset.New(columns...)
	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		dataRow := rows[rowIdx]
		cells := make([]any, len(columns))
		for col, c := range columns {
			// GetRows trims trailing empty cells.
			if col >= len(dataRow) {
				cells[col] = nil
				continue
			}
			cells[col] = cellFromExcel(dataRow[col], c.Type)
		}
		if err := ds.AppendRow(cells...); err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", rowIdx+1, err)
		}
	}

	return ds, keys, nil
}

// parseHeader - parse header string "column_name (TYPE)" or "column_name (TYPE) *"
func parseHeader(header string) (name string, colType dataset.SemanticType, key bool) {
	name = strings.TrimSpace(header)
	colType = dataset.TypeText
	key = false

	if strings.HasSuffix(name, " *") {
		key = true
		name = strings.TrimSuffix(name, " *")
	}

	if idx := strings.LastIndex(name, "("); idx > 0 {
		if endIdx := strings.LastIndex(name, ")"); endIdx > idx {
			typeStr := dataset.SemanticType(strings.ToLower(strings.TrimSpace(name[idx+1 : endIdx])))
			if typeStr.Valid() {
				name = strings.TrimSpace(name[:idx])
				colType = typeStr
			}
		}
	}

	return name, colType, key
}

// cellToExcel converts a dataset cell to a value for excelize.
// Booleans and timestamps are written as text so they read back
// unambiguously regardless of the viewer's locale formatting.
func cellToExcel(v any) any {
	switch x := v.(type) {
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	default:
		return v
	}
}

// cellFromExcel converts an Excel cell string back to a typed dataset
// value. An empty cell is NULL. A cell that does not parse as the
// column's type is kept as text for the write engine to report.
func cellFromExcel(value string, colType dataset.SemanticType) any {
	if value == "" {
		return nil
	}

	switch colType {
	case dataset.TypeInteger:
		if n, ok := dataset.ParseInt(value); ok {
			return n
		}
	case dataset.TypeFloat:
		if f, ok := dataset.ParseFloat(value); ok {
			return f
		}
	case dataset.TypeBoolean:
		switch value {
		case "TRUE", "true", "1":
			return true
		case "FALSE", "false", "0":
			return false
		}
	case dataset.TypeDatetime:
		if t, ok := dataset.ParseTime(value); ok {
			return t
		}
	}

	return value
}

// isKey - report whether name is one of the key columns
func isKey(name string, keys []string) bool {
	for _, k := range keys {
		if k == name {
			return true
		}
	}
	return false
}

// columnName - convert column index to Excel column name (1 → A, 27 → AA)
func columnName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}
