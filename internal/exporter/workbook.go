package exporter

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	apperrors "pivotcli/internal/errors"
	"pivotcli/internal/files"
)

// WriteWorkbook writes table to path as a single sheet: a header row with the
// index column and value columns, then one row per pivot row. Cells are
// stored as text. The file is replaced atomically.
func WriteWorkbook(fm *files.Manager, path, sheet string, table *FormattedTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("invalid sheet name %q", sheet), err)
	}

	header := table.Header()
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return apperrors.NewStorageError("failed to write header row", err)
	}

	for i, r := range table.Rows {
		row := make([]interface{}, 0, len(r.Cells)+1)
		row = append(row, r.Key)
		for _, c := range r.Cells {
			row = append(row, c)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewStorageError("failed to address row", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write row %d", i+2), err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return apperrors.NewStorageError("failed to encode workbook", err)
	}
	if err := fm.WriteAtomic(path, buf.Bytes()); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", path), err)
	}

	slog.Debug("Pivot workbook written",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("rows", len(table.Rows)))
	return nil
}

// ReadWorkbook loads a table written by WriteWorkbook.
func ReadWorkbook(path, sheet string) (*FormattedTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	if len(rows) == 0 || len(rows[0]) < 2 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %q has no pivot header", sheet), nil).
			WithContext("file", path)
	}

	table := &FormattedTable{
		Index:   rows[0][0],
		Columns: rows[0][1:],
		Rows:    make([]FormattedRow, 0, len(rows)-1),
	}
	width := len(table.Columns)
	for _, r := range rows[1:] {
		if len(r) == 0 {
			continue
		}
		cells := make([]string, width)
		if len(r) > 1 {
			copy(cells, r[1:])
		}
		table.Rows = append(table.Rows, FormattedRow{Key: r[0], Cells: cells})
	}

	return table, nil
}
