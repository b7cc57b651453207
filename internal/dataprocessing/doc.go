// Package dataprocessing turns the raw marketing export into a numeric pivot.
//
// The package has two parts:
//
//  1. Reader: ReadWorkbook loads one sheet of an .xlsx file into a RawTable
//     using raw cell values, so numbers are never run through display formats.
//  2. Aggregator: Aggregate groups the table by a categorical column and sums
//     the requested measures with exact decimal arithmetic.
//
// # Usage
//
//	table, err := dataprocessing.ReadWorkbook("skill_test_data.xlsx", "data")
//	if err != nil {
//	    return err
//	}
//	pivot, err := dataprocessing.Aggregate(table, dataprocessing.PivotSpec{
//	    Index:  "Platform (Northbeam)",
//	    Values: []string{"Spend", "Attributed Rev (1d)"},
//	    SortBy: "Attributed Rev (1d)",
//	    Prefix: "Sum of ",
//	})
//
// # Aggregation rules
//
// Rows with a blank categorical value are dropped. Blank numeric cells count
// as zero. Any other cell that does not parse as a number fails the whole
// aggregation with a TYPE_MISMATCH error that names the column and the
// 1-based sheet row. Groups are produced in ascending key order and then
// stable-sorted by the SortBy measure, largest first, so equal totals keep
// their key order.
//
// The returned Pivot is numeric. Rendering to display strings is the job of
// the exporter package, which keeps formatted values in a separate type.
package dataprocessing
