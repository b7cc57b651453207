package dataprocessing

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pivotcli/internal/errors"
)

var allMeasures = []string{
	"Spend", "Attributed Rev (1d)", "Imprs", "Visits",
	"New Visits", "Transactions (1d)", "Email Signups (1d)",
}

func exportSpec() PivotSpec {
	return PivotSpec{
		Index:  "Platform (Northbeam)",
		Values: allMeasures,
		SortBy: "Attributed Rev (1d)",
		Prefix: "Sum of ",
	}
}

// exportTable builds a table with the full export header and the given rows,
// each given as platform, spend, revenue; the remaining measures are 1.
func exportTable(rows ...[3]string) *RawTable {
	t := &RawTable{Columns: append([]string{"Date", "Platform (Northbeam)"}, allMeasures...)}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{"2024-01-01", r[0], r[1], r[2], "1", "1", "1", "1", "1"})
	}
	return t
}

func TestAggregate_MetaGoogle(t *testing.T) {
	table := exportTable(
		[3]string{"Meta", "100", "50"},
		[3]string{"Meta", "50", "25"},
		[3]string{"Google", "200", "300"},
	)

	pivot, err := Aggregate(table, exportSpec())
	require.NoError(t, err)

	require.Len(t, pivot.Rows, 2)
	assert.Equal(t, "Platform (Northbeam)", pivot.Index)
	assert.Equal(t, []string{
		"Sum of Spend", "Sum of Attributed Rev (1d)", "Sum of Imprs", "Sum of Visits",
		"Sum of New Visits", "Sum of Transactions (1d)", "Sum of Email Signups (1d)",
	}, pivot.Columns)

	assert.Equal(t, "Google", pivot.Rows[0].Key)
	assert.True(t, decimal.NewFromInt(200).Equal(pivot.Rows[0].Values[0]))
	assert.True(t, decimal.NewFromInt(300).Equal(pivot.Rows[0].Values[1]))

	assert.Equal(t, "Meta", pivot.Rows[1].Key)
	assert.True(t, decimal.NewFromInt(150).Equal(pivot.Rows[1].Values[0]))
	assert.True(t, decimal.NewFromInt(75).Equal(pivot.Rows[1].Values[1]))
	assert.True(t, decimal.NewFromInt(2).Equal(pivot.Rows[1].Values[2]))
}

func TestAggregate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		table    *RawTable
		spec     func() PivotSpec
		wantType apperrors.ErrorType
		wantMsg  string
	}{
		{
			name: "missing categorical column",
			table: &RawTable{
				Columns: allMeasures,
				Rows:    [][]string{{"1", "1", "1", "1", "1", "1", "1"}},
			},
			spec:     exportSpec,
			wantType: apperrors.ErrTypeMissingColumn,
			wantMsg:  "Platform (Northbeam)",
		},
		{
			name: "missing measure column",
			table: &RawTable{
				Columns: []string{"Platform (Northbeam)", "Spend", "Attributed Rev (1d)", "Imprs", "Visits", "New Visits", "Transactions (1d)"},
				Rows:    [][]string{{"Meta", "1", "1", "1", "1", "1", "1"}},
			},
			spec:     exportSpec,
			wantType: apperrors.ErrTypeMissingColumn,
			wantMsg:  "Email Signups (1d)",
		},
		{
			name:     "non-numeric measure",
			table:    exportTable([3]string{"Meta", "100", "50"}, [3]string{"Google", "lots", "1"}),
			spec:     exportSpec,
			wantType: apperrors.ErrTypeTypeMismatch,
			wantMsg:  "Spend",
		},
		{
			name:  "sort column outside values",
			table: exportTable([3]string{"Meta", "1", "1"}),
			spec: func() PivotSpec {
				s := exportSpec()
				s.SortBy = "Clicks"
				return s
			},
			wantType: apperrors.ErrTypeValidation,
			wantMsg:  "Clicks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pivot, err := Aggregate(tt.table, tt.spec())
			require.Error(t, err)
			assert.Nil(t, pivot)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestAggregate_TypeMismatchNamesRow(t *testing.T) {
	table := exportTable([3]string{"Meta", "100", "50"}, [3]string{"Google", "1", "tbd"})

	_, err := Aggregate(table, exportSpec())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Attributed Rev (1d)", appErr.Context["column"])
	assert.Equal(t, 3, appErr.Context["row"])
}

func TestAggregate_BlankCells(t *testing.T) {
	table := exportTable(
		[3]string{"Meta", "", "10"},
		[3]string{"Meta", "5", " "},
		[3]string{"", "1000", "1000"},
	)
	// short row: trailing measures missing entirely
	table.Rows = append(table.Rows, []string{"2024-01-02", "Meta", "1"})

	pivot, err := Aggregate(table, exportSpec())
	require.NoError(t, err)

	require.Len(t, pivot.Rows, 1)
	assert.Equal(t, "Meta", pivot.Rows[0].Key)
	assert.True(t, decimal.NewFromInt(6).Equal(pivot.Rows[0].Values[0]))
	assert.True(t, decimal.NewFromInt(10).Equal(pivot.Rows[0].Values[1]))
	assert.True(t, decimal.NewFromInt(2).Equal(pivot.Rows[0].Values[2]))
}

func TestAggregate_WhitespaceKeysStayDistinct(t *testing.T) {
	table := exportTable(
		[3]string{"Meta", "1", "1"},
		[3]string{"Meta ", "2", "2"},
		[3]string{"Google", "3", "3"},
		[3]string{"   ", "4", "4"},
	)

	pivot, err := Aggregate(table, exportSpec())
	require.NoError(t, err)

	keys := make([]string, len(pivot.Rows))
	for i, r := range pivot.Rows {
		keys[i] = r.Key
	}
	assert.Equal(t, []string{"   ", "Google", "Meta ", "Meta"}, keys)
	assert.True(t, decimal.NewFromInt(2).Equal(pivot.Rows[2].Values[0]))
	assert.True(t, decimal.NewFromInt(1).Equal(pivot.Rows[3].Values[0]))
}

func TestAggregate_ExcelErrorCellsCountAsBlank(t *testing.T) {
	table := exportTable(
		[3]string{"Meta", "10", "5"},
		[3]string{"Meta", "#N/A", "#DIV/0!"},
		[3]string{"#REF!", "1000", "1000"},
	)

	pivot, err := Aggregate(table, exportSpec())
	require.NoError(t, err)

	require.Len(t, pivot.Rows, 1)
	assert.Equal(t, "Meta", pivot.Rows[0].Key)
	assert.True(t, decimal.NewFromInt(10).Equal(pivot.Rows[0].Values[0]))
	assert.True(t, decimal.NewFromInt(5).Equal(pivot.Rows[0].Values[1]))
	assert.True(t, decimal.NewFromInt(2).Equal(pivot.Rows[0].Values[2]))
}

func TestIsMissing(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"#N/A", true},
		{"#VALUE!", true},
		{"0", false},
		{" ", false},
		{"n/a", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, IsMissing(tt.in))
		})
	}
}

func TestAggregate_TiesKeepKeyOrder(t *testing.T) {
	table := exportTable(
		[3]string{"TikTok", "1", "40"},
		[3]string{"Bing", "1", "40"},
		[3]string{"Meta", "1", "90"},
		[3]string{"Google", "1", "40"},
	)

	pivot, err := Aggregate(table, exportSpec())
	require.NoError(t, err)

	keys := make([]string, len(pivot.Rows))
	for i, r := range pivot.Rows {
		keys[i] = r.Key
	}
	assert.Equal(t, []string{"Meta", "Bing", "Google", "TikTok"}, keys)
}

func TestAggregate_ExactDecimalSums(t *testing.T) {
	table := exportTable(
		[3]string{"Meta", "0.1", "0.1"},
		[3]string{"Meta", "0.2", "0.2"},
		[3]string{"Meta", "1.5E2", "0"},
	)

	pivot, err := Aggregate(table, exportSpec())
	require.NoError(t, err)

	assert.Equal(t, "150.3", pivot.Rows[0].Values[0].String())
	assert.Equal(t, "0.3", pivot.Rows[0].Values[1].String())
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	table := exportTable([3]string{"Meta", "100", "50"}, [3]string{"Google", "200", "300"})
	before := &RawTable{Columns: slices.Clone(table.Columns)}
	for _, r := range table.Rows {
		before.Rows = append(before.Rows, slices.Clone(r))
	}

	_, err := Aggregate(table, exportSpec())
	require.NoError(t, err)
	assert.Equal(t, before, table)
}

func TestAggregate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	platforms := []string{"Meta", "Google", "TikTok", "Pinterest", "Bing", "Snapchat"}

	for run := 0; run < 20; run++ {
		table := &RawTable{Columns: append([]string{"Platform (Northbeam)"}, allMeasures...)}
		want := map[string][]decimal.Decimal{}

		for i := 0; i < 50+rng.Intn(100); i++ {
			p := platforms[rng.Intn(len(platforms))]
			row := []string{p}
			if _, ok := want[p]; !ok {
				want[p] = make([]decimal.Decimal, len(allMeasures))
			}
			for m := range allMeasures {
				cents := rng.Int63n(1_000_000)
				v := decimal.New(cents, -2)
				want[p][m] = want[p][m].Add(v)
				row = append(row, v.String())
			}
			table.Rows = append(table.Rows, row)
		}

		pivot, err := Aggregate(table, exportSpec())
		require.NoError(t, err)

		require.Len(t, pivot.Rows, len(want), "run %d", run)
		for i, r := range pivot.Rows {
			for m := range allMeasures {
				assert.True(t, want[r.Key][m].Equal(r.Values[m]),
					fmt.Sprintf("run %d key %s measure %s", run, r.Key, allMeasures[m]))
			}
			if i > 0 {
				assert.False(t, r.Values[1].GreaterThan(pivot.Rows[i-1].Values[1]), "run %d not sorted", run)
			}
		}
	}
}

func TestPivot_Column(t *testing.T) {
	pivot, err := Aggregate(exportTable([3]string{"Meta", "100", "50"}, [3]string{"Google", "200", "300"}), exportSpec())
	require.NoError(t, err)

	rev, ok := pivot.Column("Sum of Attributed Rev (1d)")
	require.True(t, ok)
	require.Len(t, rev, 2)
	assert.True(t, decimal.NewFromInt(300).Equal(rev[0]))

	_, ok = pivot.Column("Attributed Rev (1d)")
	assert.False(t, ok)
}
