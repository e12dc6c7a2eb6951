package oracle

import (
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/require"
)

func TestEqualNumericTolerance(t *testing.T) {
	require.True(t, Equal(1.0, 1.0))
	require.True(t, Equal(1.0, 1.0+5e-7))
	require.False(t, Equal(1.0, 1.0+2e-6))
	require.True(t, Equal(3, 3.0))
	require.True(t, Equal(int64(7), 7))
}

func TestEqualNaN(t *testing.T) {
	require.True(t, Equal(math.NaN(), math.NaN()))
	require.False(t, Equal(math.NaN(), 1.0))
}

func TestEqualNilNeverMatches(t *testing.T) {
	require.False(t, Equal(nil, nil))
	require.False(t, Equal(1.0, nil))
	require.False(t, Equal(nil, "x"))
}

func TestEqualSequences(t *testing.T) {
	require.True(t, Equal([]float64{1, 2, 3}, []float64{1, 2, 3}))
	require.True(t, Equal([]int{1, 2}, []float64{1, 2}))
	require.False(t, Equal([]float64{1, 2}, []float64{1, 2, 3}))
	require.False(t, Equal([]float64{1, 2}, []float64{1, 2.5}))
	require.True(t, Equal([]string{"a", "b"}, []string{"a", "b"}))
	require.False(t, Equal([]string{"a", "b"}, []string{"b", "a"}))
}

func TestEqualMixedTypesFallThrough(t *testing.T) {
	require.False(t, Equal("1", 1))
	require.True(t, Equal("abc", "abc"))
	require.True(t, Equal(true, true))
	require.False(t, Equal(true, false))
}

func TestSeriesEqualNumeric(t *testing.T) {
	a := series.New([]float64{1, 2, math.NaN()}, series.Float, "a")
	b := series.New([]float64{1, 2 + 1e-7, math.NaN()}, series.Float, "b")
	require.True(t, SeriesEqual(a, b))

	c := series.New([]float64{1, 2, 3}, series.Float, "c")
	require.False(t, SeriesEqual(a, c))
}

func TestSeriesEqualStringsWithMissing(t *testing.T) {
	a := series.New([]string{"x", "", "z"}, series.String, "a")
	b := series.New([]string{"x", "", "z"}, series.String, "b")
	require.True(t, SeriesEqual(a, b))

	c := series.New([]string{"x", "y", "z"}, series.String, "c")
	require.False(t, SeriesEqual(a, c))
}

func TestFrameEqual(t *testing.T) {
	a := dataframe.New(
		series.New([]int{1, 2}, series.Int, "id"),
		series.New([]string{"a", "b"}, series.String, "name"),
	)
	b := dataframe.New(
		series.New([]int{1, 2}, series.Int, "id"),
		series.New([]string{"a", "b"}, series.String, "name"),
	)

	require.True(t, FrameEqual(a, b, true))
	require.True(t, FrameEqual(a, a, true), "reflexive")
	require.True(t, FrameEqual(b, a, true), "symmetric")
}

func TestFrameEqualColumnNameLeniency(t *testing.T) {
	a := dataframe.New(series.New([]int{1, 2}, series.Int, "total"))
	b := dataframe.New(series.New([]int{1, 2}, series.Int, "count(*)"))

	require.False(t, FrameEqual(a, b, true))
	require.True(t, FrameEqual(a, b, false))
}

func TestFrameEqualShapeMismatch(t *testing.T) {
	a := dataframe.New(series.New([]int{1, 2}, series.Int, "id"))
	b := dataframe.New(series.New([]int{1, 2, 3}, series.Int, "id"))

	require.False(t, FrameEqual(a, b, true))
}

func TestEqualFrames(t *testing.T) {
	a := dataframe.New(series.New([]float64{1.5, 2.5}, series.Float, "v"))
	b := dataframe.New(series.New([]float64{1.5, 2.5}, series.Float, "v"))

	require.True(t, Equal(a, b))
	require.False(t, Equal(a, 1.5))
}
