package dataprocessing

import (
	"fmt"
	"slices"
	"sort"

	"github.com/shopspring/decimal"

	apperrors "pivotcli/internal/errors"
)

// PivotSpec describes the grouping. Values fixes the output column order and
// SortBy must be one of Values.
type PivotSpec struct {
	Index  string
	Values []string
	SortBy string
	Prefix string
}

// PivotRow is one group: the categorical key and one exact sum per value
// column, in PivotSpec.Values order.
type PivotRow struct {
	Key    string
	Values []decimal.Decimal
}

// Pivot is the numeric aggregate. Columns are already renamed with the
// prefix; Index keeps the name of the grouping column.
type Pivot struct {
	Index   string
	Columns []string
	Rows    []PivotRow
}

// Column returns the values of the named (renamed) column in row order.
func (p *Pivot) Column(name string) ([]decimal.Decimal, bool) {
	idx := slices.Index(p.Columns, name)
	if idx < 0 {
		return nil, false
	}
	out := make([]decimal.Decimal, len(p.Rows))
	for i, r := range p.Rows {
		out[i] = r.Values[idx]
	}
	return out, true
}

// Validate checks s before any data is touched.
func (s PivotSpec) Validate() error {
	if s.Index == "" {
		return apperrors.NewAppValidationError("pivot index column is required")
	}
	if len(s.Values) == 0 {
		return apperrors.NewAppValidationError("at least one value column is required")
	}
	if !slices.Contains(s.Values, s.SortBy) {
		return apperrors.NewAppValidationError(fmt.Sprintf("sort column %q is not a value column", s.SortBy))
	}
	return nil
}

// Aggregate groups table by spec.Index and sums every spec.Values column per
// group. The table is only read.
func Aggregate(table *RawTable, spec PivotSpec) (*Pivot, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	keyCol := table.ColumnIndex(spec.Index)
	if keyCol < 0 {
		return nil, apperrors.NewMissingColumnError(spec.Index)
	}
	valueCols := make([]int, len(spec.Values))
	for i, name := range spec.Values {
		valueCols[i] = table.ColumnIndex(name)
		if valueCols[i] < 0 {
			return nil, apperrors.NewMissingColumnError(name)
		}
	}

	sums := make(map[string][]decimal.Decimal)
	for r := range table.Rows {
		// keys group verbatim; "Meta" and "Meta " are distinct
		key := table.RawCell(r, keyCol)
		if IsMissing(key) {
			continue
		}

		acc, ok := sums[key]
		if !ok {
			acc = make([]decimal.Decimal, len(valueCols))
			sums[key] = acc
		}

		for i, col := range valueCols {
			raw := table.Cell(r, col)
			if IsMissing(raw) {
				continue
			}
			v, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, apperrors.NewTypeMismatchError(spec.Values[i], r+2, raw, err)
			}
			acc[i] = acc[i].Add(v)
		}
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pivot := &Pivot{
		Index:   spec.Index,
		Columns: make([]string, len(spec.Values)),
		Rows:    make([]PivotRow, len(keys)),
	}
	for i, name := range spec.Values {
		pivot.Columns[i] = spec.Prefix + name
	}
	for i, k := range keys {
		pivot.Rows[i] = PivotRow{Key: k, Values: sums[k]}
	}

	sortIdx := slices.Index(spec.Values, spec.SortBy)
	sort.SliceStable(pivot.Rows, func(i, j int) bool {
		return pivot.Rows[i].Values[sortIdx].GreaterThan(pivot.Rows[j].Values[sortIdx])
	})

	return pivot, nil
}
