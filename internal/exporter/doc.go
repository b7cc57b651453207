// Package exporter renders a numeric pivot for people and for storage.
//
// FormatPivot converts every sum to a fixed-decimal display string, with an
// optional currency symbol on selected columns. The result is a
// FormattedTable, a separate type from dataprocessing.Pivot so display
// strings are never mistaken for numbers.
//
// WriteWorkbook and ReadWorkbook move a FormattedTable to and from a single
// sheet .xlsx file; RenderSummary prints it as a console table.
package exporter
