package exporter

import (
	"math/big"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"pivotcli/internal/dataprocessing"
)

// FormatOptions controls how sums become display strings.
// CurrencyColumns are matched against the pivot's renamed headers.
type FormatOptions struct {
	DecimalPlaces      int32
	CurrencySymbol     string
	CurrencyColumns    []string
	ThousandsSeparator bool
}

// FormattedRow is one display row: the key and one cell per column.
type FormattedRow struct {
	Key   string
	Cells []string
}

// FormattedTable is the presentation form of a pivot.
type FormattedTable struct {
	Index   string
	Columns []string
	Rows    []FormattedRow
}

// Header returns the index column name followed by the value columns.
func (t *FormattedTable) Header() []string {
	return append([]string{t.Index}, t.Columns...)
}

// FormatPivot renders every value of pivot. Row and column order is kept.
func FormatPivot(pivot *dataprocessing.Pivot, opts FormatOptions) *FormattedTable {
	currency := make([]bool, len(pivot.Columns))
	for i, c := range pivot.Columns {
		currency[i] = slices.Contains(opts.CurrencyColumns, c)
	}

	out := &FormattedTable{
		Index:   pivot.Index,
		Columns: slices.Clone(pivot.Columns),
		Rows:    make([]FormattedRow, len(pivot.Rows)),
	}
	for i, r := range pivot.Rows {
		cells := make([]string, len(r.Values))
		for j, v := range r.Values {
			s := formatDecimal(v, opts.DecimalPlaces, opts.ThousandsSeparator)
			if currency[j] {
				s = opts.CurrencySymbol + s
			}
			cells[j] = s
		}
		out.Rows[i] = FormattedRow{Key: r.Key, Cells: cells}
	}

	return out
}

// formatDecimal renders v with exactly places decimals, rounding half away
// from zero, and optionally groups the integer part with commas.
func formatDecimal(v decimal.Decimal, places int32, grouped bool) string {
	s := v.StringFixed(places)
	if !grouped {
		return s
	}

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	n, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return sign + s
	}
	if frac != "" {
		return sign + humanize.BigComma(n) + "." + frac
	}
	return sign + humanize.BigComma(n)
}
