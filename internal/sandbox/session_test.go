package sandbox

import (
	"context"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, bindings map[string]any) *Session {
	t.Helper()
	s, err := NewSession(bindings)
	require.NoError(t, err)
	return s
}

func TestEvalExpression(t *testing.T) {
	s := newTestSession(t, nil)

	v, err := s.Eval("1 + 1")
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestEvalSyntaxError(t *testing.T) {
	s := newTestSession(t, nil)

	_, err := s.Eval("1 +")
	require.Error(t, err)
}

func TestBindings(t *testing.T) {
	s := newTestSession(t, map[string]any{"x": 41})

	v, err := s.Eval("x + 1")
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestBindingFrame(t *testing.T) {
	df := dataframe.New(series.New([]int{1, 2, 3}, series.Int, "id"))
	s := newTestSession(t, TabularBindings(df))

	v, err := s.Eval("df.Nrow()")
	require.NoError(t, err)
	require.Equal(t, 3, v)
}

func TestCallDefinedFunction(t *testing.T) {
	s := newTestSession(t, nil)

	_, err := s.Eval("func double(x int) int { return x * 2 }")
	require.NoError(t, err)

	v, err := s.Call("double", []any{21})
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestCallConvertsArguments(t *testing.T) {
	s := newTestSession(t, nil)

	_, err := s.Eval("func half(x float64) float64 { return x / 2 }")
	require.NoError(t, err)

	// JSON-decoded test arguments arrive as float64 or as ints; both must
	// reach a float64 parameter.
	v, err := s.Call("half", []any{5})
	require.NoError(t, err)
	require.Equal(t, 2.5, v)
}

func TestCallUndefined(t *testing.T) {
	s := newTestSession(t, nil)

	_, err := s.Call("missing", nil)
	require.Error(t, err)
}

func TestRunSingleExpression(t *testing.T) {
	s := newTestSession(t, nil)

	out := s.Run(context.Background(), "1 + 1")
	require.True(t, out.Success)
	require.Equal(t, map[string]any{"type": "value", "data": 2}, out.Output)
}

func TestRunCapturesStdout(t *testing.T) {
	s := newTestSession(t, nil)

	out := s.Run(context.Background(), `fmt.Println("hello")`)
	require.True(t, out.Success)
	require.Contains(t, out.Stdout, "hello")
}

func TestRunMultiStatementTrailingExpression(t *testing.T) {
	s := newTestSession(t, nil)

	out := s.Run(context.Background(), "x := 2\ny := x * 3\nx + y")
	require.True(t, out.Success)
	require.Equal(t, map[string]any{"type": "value", "data": 8}, out.Output)
}

func TestRunMultiStatementResultVariable(t *testing.T) {
	s := newTestSession(t, nil)

	out := s.Run(context.Background(), "result := 7\nother := 1\nother = other + 1")
	require.True(t, out.Success)
	require.Equal(t, map[string]any{"type": "value", "data": 7}, out.Output)
}

func TestRunLastTabularBinding(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"a", "b"}, series.String, "name"),
		series.New([]float64{1, 2}, series.Float, "score"),
	)
	s := newTestSession(t, TabularBindings(df))

	out := s.Run(context.Background(), "small := df.Select([]string{\"name\"})\ncount := small.Nrow()\ncount = count + 0")
	require.True(t, out.Success)

	envelope, ok := out.Output.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "dataframe", envelope["type"])
}

func TestRunReportsErrors(t *testing.T) {
	s := newTestSession(t, nil)

	out := s.Run(context.Background(), "undefinedIdentifier + 1")
	require.False(t, out.Success)
	require.NotEmpty(t, out.Err)
}

func TestRunEmptyCode(t *testing.T) {
	s := newTestSession(t, nil)

	out := s.Run(context.Background(), "   \n  ")
	require.False(t, out.Success)
}

func TestRunLazyGroupPlaceholder(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"x", "x", "y"}, series.String, "k"),
		series.New([]float64{1, 2, 3}, series.Float, "v"),
	)
	s := newTestSession(t, TabularBindings(df))

	out := s.Run(context.Background(), `df.GroupBy("k")`)
	require.True(t, out.Success)

	envelope, ok := out.Output.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "groupby_object", envelope["type"])
	require.Contains(t, envelope["message"], "aggregation")
}

func TestRunLazyGroupInBlockKeepsPlaceholder(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"x", "x", "y"}, series.String, "k"),
		series.New([]float64{1, 2, 3}, series.Float, "v"),
	)
	s := newTestSession(t, TabularBindings(df))

	// The trailing statements must not leak into the result: the grouped
	// binding is what extraction recovers, and it stays a placeholder.
	out := s.Run(context.Background(), "g := df.GroupBy(\"k\")\ncount := 1\ncount = count + 1")
	require.True(t, out.Success)

	envelope, ok := out.Output.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "groupby_object", envelope["type"])
	require.Contains(t, envelope["message"], "aggregation")
}

func TestRunGroupAggHelper(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"x", "x", "y"}, series.String, "k"),
		series.New([]float64{1, 2, 3}, series.Float, "v"),
	)
	s := newTestSession(t, TabularBindings(df))

	out := s.Run(context.Background(), `groupAgg(df, []string{"k"}, []string{"v"}, "sum")`)
	require.True(t, out.Success)

	envelope, ok := out.Output.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "pivot_table", envelope["type"])
}

func TestDedent(t *testing.T) {
	code := "\t\tx := 1\n\t\tx + 1"
	require.Equal(t, "x := 1\nx + 1", Dedent(code))
}
