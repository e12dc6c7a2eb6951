package table

import (
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/require"
)

func salesFrame() dataframe.DataFrame {
	return dataframe.New(
		series.New([]string{"2023", "2023", "2024", "2024"}, series.String, "year"),
		series.New([]string{"north", "south", "north", "south"}, series.String, "region"),
		series.New([]float64{10, 20, 30, 40}, series.Float, "amount"),
	)
}

func TestGroupAggSingleKey(t *testing.T) {
	p, err := GroupAgg(salesFrame(), []string{"year"}, []string{"amount"}, AggSum)
	require.NoError(t, err)

	rows, cols := p.Shape()
	require.Equal(t, 2, rows)
	require.Equal(t, 1, cols)
	require.False(t, p.MultiIndex())
	require.Equal(t, [][]string{{"2023"}, {"2024"}}, p.RowKeys)
	require.Equal(t, 30.0, p.Cells[0][0])
	require.Equal(t, 70.0, p.Cells[1][0])
}

func TestGroupAggTwoKeys(t *testing.T) {
	p, err := GroupAgg(salesFrame(), []string{"year", "region"}, []string{"amount"}, AggMean)
	require.NoError(t, err)

	require.True(t, p.MultiIndex())
	rows, _ := p.Shape()
	require.Equal(t, 4, rows)

	levels := p.IndexLevels()
	require.Len(t, levels, 2)
	require.Equal(t, "year", levels[0].Name)
	require.Equal(t, []string{"2023", "2024"}, levels[0].Values)
	require.Equal(t, []string{"north", "south"}, levels[1].Values)
}

func TestGroupAggUnknownColumn(t *testing.T) {
	_, err := GroupAgg(salesFrame(), []string{"missing"}, []string{"amount"}, AggSum)
	require.Error(t, err)
}

func TestPivotTable(t *testing.T) {
	p, err := PivotTable(salesFrame(), []string{"region"}, "year", []string{"amount"}, AggMean)
	require.NoError(t, err)

	require.True(t, p.MultiColumns())
	rows, cols := p.Shape()
	require.Equal(t, 2, rows)
	require.Equal(t, 2, cols)
	require.Equal(t, []string{"amount_2023", "amount_2024"}, p.FlatColumns())

	// north: 2023=10, 2024=30
	require.Equal(t, [][]string{{"north"}, {"south"}}, p.RowKeys)
	require.Equal(t, 10.0, p.Cells[0][0])
	require.Equal(t, 30.0, p.Cells[0][1])
}

func TestPivotTableMissingCell(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"2023", "2024"}, series.String, "year"),
		series.New([]string{"north", "south"}, series.String, "region"),
		series.New([]float64{10, 40}, series.Float, "amount"),
	)

	p, err := PivotTable(df, []string{"region"}, "year", []string{"amount"}, AggSum)
	require.NoError(t, err)

	// south has no 2023 sales; that cell is absent, not zero.
	require.Nil(t, p.Cells[1][0])
	require.Equal(t, 40.0, p.Cells[1][1])
}
