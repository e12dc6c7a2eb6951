package serialize

import (
	"math"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/require"

	"github.com/nauqh/cseassessment/internal/table"
)

func TestValueScalars(t *testing.T) {
	require.Equal(t, 42, Value(42))
	require.Equal(t, 1.5, Value(1.5))
	require.Equal(t, true, Value(true))
	require.Equal(t, "x", Value("x"))
	require.Nil(t, Value(nil))
	require.Nil(t, Value(math.NaN()))
	require.Nil(t, Value(math.Inf(1)))
	require.Nil(t, Value(math.Inf(-1)))
	require.Nil(t, Value(float32(math.NaN())))
}

func TestValueTime(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, ts.String(), Value(ts))
	require.Equal(t, "1m0s", Value(time.Minute))
}

func TestValueCollections(t *testing.T) {
	require.Equal(t, []any{1, 2, 3}, Value([]int{1, 2, 3}))
	require.Equal(t, []any{[]any{1.0, nil}}, Value([][]float64{{1.0, math.NaN()}}))

	m := Value(map[int]string{1: "a"}).(map[string]any)
	require.Equal(t, "a", m["1"])

	set := Value(map[string]struct{}{"a": {}}).([]any)
	require.Len(t, set, 1)
	require.Equal(t, "a", set[0])
}

func TestValueFallbackString(t *testing.T) {
	type opaque struct{ A int }
	require.Equal(t, "{7}", Value(opaque{A: 7}))
}

func TestResultScalar(t *testing.T) {
	out := Result(3.5)
	require.Equal(t, "value", out["type"])
	require.Equal(t, 3.5, out["data"])
}

func TestResultFrame(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"a", "b"}, series.String, "name"),
		series.New([]float64{1, math.NaN()}, series.Float, "score"),
	)

	out := Result(df)
	require.Equal(t, "dataframe", out["type"])

	rows := out["data"].([]map[string]any)
	require.Len(t, rows, 2)
	require.Equal(t, "a", rows[0]["name"])
	require.Equal(t, 1.0, rows[0]["score"])
	require.Nil(t, rows[1]["score"], "NaN cell must serialize as null")
}

func TestResultEmptyFrame(t *testing.T) {
	df := dataframe.New(series.New([]string{}, series.String, "name"))
	out := Result(df)
	require.Equal(t, []any{}, out["data"])
}

func TestResultSeries(t *testing.T) {
	s := series.New([]float64{1.5, 2.5}, series.Float, "v")
	out := Result(s)
	require.Equal(t, "series", out["type"])

	data := out["data"].(map[string]any)
	require.Equal(t, 1.5, data["0"])
	require.Equal(t, 2.5, data["1"])
}

func TestResultLabels(t *testing.T) {
	out := Result(table.Labels{"id", "name"})
	require.Equal(t, "index", out["type"])
	data := out["data"].(map[string]any)
	require.Equal(t, "id", data["0"])
	require.Equal(t, "name", data["1"])
}

func TestResultPivot(t *testing.T) {
	p := table.Pivot{
		IndexNames:  []string{"year", "region"},
		ColumnNames: []string{""},
		RowKeys:     [][]string{{"2023", "north"}, {"2023", "south"}, {"2024", "north"}},
		ColKeys:     [][]string{{"amount"}, {"units"}},
		Cells: [][]any{
			{10.0, 1.0},
			{20.0, 2.0},
			{30.0, 3.0},
		},
	}

	out := Result(p)
	require.Equal(t, "pivot_table", out["type"])

	data := out["data"].(map[string]any)
	flat := data["flat"].([]map[string]any)
	require.Len(t, flat, 3)
	require.Equal(t, 10.0, flat[0]["amount"])

	structured := data["structured"].([]map[string]any)
	require.Equal(t, "2023", structured[0]["year"])
	require.Equal(t, "north", structured[0]["region"])
	require.Equal(t, 10.0, structured[0]["amount"])

	nested := data["nested"].(map[string]any)
	y2023 := nested["2023"].(map[string]any)
	north := y2023["north"].(map[string]any)
	require.Equal(t, 10.0, north["amount"])

	meta := out["metadata"].(map[string]any)
	require.Equal(t, []int{3, 2}, meta["shape"])
	require.Equal(t, []string{"amount", "units"}, meta["columns"])

	hierarchy := meta["index_hierarchy"].([]map[string]any)
	require.Equal(t, "year", hierarchy[0]["name"])
	require.Equal(t, []string{"2023", "2024"}, hierarchy[0]["values"])
}

func TestResultPivotSingleColumnSeries(t *testing.T) {
	p := table.Pivot{
		IndexNames:  []string{"year", "region"},
		ColumnNames: []string{""},
		RowKeys:     [][]string{{"2023", "north"}, {"2024", "south"}},
		ColKeys:     [][]string{{"amount"}},
		Cells:       [][]any{{10.0}, {40.0}},
	}

	out := Result(p)
	require.Equal(t, "series", out["type"])
	require.Contains(t, out, "note")

	data := out["data"].(map[string]any)
	require.Equal(t, 10.0, data["2023_north"])
	require.Equal(t, 40.0, data["2024_south"])
}

func TestLazyPlaceholder(t *testing.T) {
	out := Lazy("use an aggregation", "grouped data")
	require.Equal(t, "groupby_object", out["type"])
	require.Equal(t, "use an aggregation", out["message"])
}
