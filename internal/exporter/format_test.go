package exporter

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pivotcli/internal/dataprocessing"
)

var displayPattern = regexp.MustCompile(`^\$?\d+\.\d{2}$`)

func defaultOptions() FormatOptions {
	return FormatOptions{
		DecimalPlaces:   2,
		CurrencySymbol:  "$",
		CurrencyColumns: []string{"Sum of Spend", "Sum of Attributed Rev (1d)"},
	}
}

func samplePivot(values ...[3]string) *dataprocessing.Pivot {
	p := &dataprocessing.Pivot{
		Index:   "Platform (Northbeam)",
		Columns: []string{"Sum of Spend", "Sum of Attributed Rev (1d)", "Sum of Imprs"},
	}
	keys := []string{"Google", "Meta", "TikTok", "Bing"}
	for i, v := range values {
		row := dataprocessing.PivotRow{Key: keys[i]}
		for _, s := range v {
			row.Values = append(row.Values, decimal.RequireFromString(s))
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}

func TestFormatPivot(t *testing.T) {
	pivot := samplePivot(
		[3]string{"200", "300", "2000"},
		[3]string{"150", "75", "1234.5"},
	)

	got := FormatPivot(pivot, defaultOptions())

	assert.Equal(t, "Platform (Northbeam)", got.Index)
	assert.Equal(t, pivot.Columns, got.Columns)
	assert.Equal(t, []FormattedRow{
		{Key: "Google", Cells: []string{"$200.00", "$300.00", "2000.00"}},
		{Key: "Meta", Cells: []string{"$150.00", "$75.00", "1234.50"}},
	}, got.Rows)

	for _, r := range got.Rows {
		for _, c := range r.Cells {
			assert.Regexp(t, displayPattern, c)
		}
	}
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		in      string
		places  int32
		grouped bool
		want    string
	}{
		{"0", 2, false, "0.00"},
		{"0.005", 2, false, "0.01"},
		{"1234567.891", 2, false, "1234567.89"},
		{"1234567.891", 2, true, "1,234,567.89"},
		{"999.999", 2, true, "1,000.00"},
		{"-1234.5", 2, true, "-1,234.50"},
		{"42", 0, true, "42"},
		{"12345678901234567890.1", 2, true, "12,345,678,901,234,567,890.10"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := formatDecimal(decimal.RequireFromString(tt.in), tt.places, tt.grouped)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPivot_ThousandsSeparator(t *testing.T) {
	opts := defaultOptions()
	opts.ThousandsSeparator = true

	got := FormatPivot(samplePivot([3]string{"12500.5", "300", "1000000"}), opts)

	require.Len(t, got.Rows, 1)
	assert.Equal(t, []string{"$12,500.50", "$300.00", "1,000,000.00"}, got.Rows[0].Cells)
}

func TestFormatPivot_DoesNotShareColumns(t *testing.T) {
	pivot := samplePivot([3]string{"1", "2", "3"})
	got := FormatPivot(pivot, defaultOptions())

	got.Columns[0] = "changed"
	assert.Equal(t, "Sum of Spend", pivot.Columns[0])
}
