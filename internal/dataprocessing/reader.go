package dataprocessing

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "pivotcli/internal/errors"
)

// RawTable is one sheet of the raw export. Columns holds the header row and
// each entry of Rows holds the cells below it. Rows may be shorter than
// Columns when trailing cells are empty.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the named column or -1.
func (t *RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed value at row, col. Missing trailing cells are
// reported as blank.
func (t *RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// RawCell is Cell without trimming, for values compared as-is.
func (t *RawTable) RawCell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// excelErrors are the literals excelize reports for error cells.
var excelErrors = map[string]struct{}{
	"#NULL!":        {},
	"#DIV/0!":       {},
	"#VALUE!":       {},
	"#REF!":         {},
	"#NAME?":        {},
	"#NUM!":         {},
	"#N/A":          {},
	"#GETTING_DATA": {},
	"#SPILL!":       {},
	"#CALC!":        {},
}

// IsMissing reports whether a cell value counts as no value at all: blank or
// an Excel error.
func IsMissing(v string) bool {
	if v == "" {
		return true
	}
	_, ok := excelErrors[v]
	return ok
}

// ReadWorkbook loads the given sheet of an .xlsx file. The first row is the
// header. Rows[i] is sheet row i+2.
func ReadWorkbook(path, sheet string) (*RawTable, error) {
	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err).
			WithContext("file", path)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %q has no header row", sheet), nil).
			WithContext("file", path)
	}

	table := &RawTable{
		Columns: make([]string, len(rows[0])),
		Rows:    make([][]string, 0, len(rows)-1),
	}
	for i, h := range rows[0] {
		table.Columns[i] = strings.TrimSpace(h)
	}
	table.Rows = append(table.Rows, rows[1:]...)

	return table, nil
}
