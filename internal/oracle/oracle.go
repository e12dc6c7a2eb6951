package oracle

import (
	"fmt"
	"math"
	"reflect"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Tolerance is the absolute margin within which two numbers are considered equal.
const Tolerance = 1e-6

// missingToken stands in for missing values when comparing string columns,
// so that two missing cells compare equal.
const missingToken = "NAN_VALUE"

type config struct {
	sameColNames bool
}

// Option adjusts how structured values are compared.
type Option func(*config)

// SameColumnNames controls whether frame comparison requires identical column
// labels. It defaults to true; query results are compared with it disabled
// because SQL aliases may legitimately differ.
func SameColumnNames(v bool) Option {
	return func(c *config) { c.sameColNames = v }
}

// Close reports whether two floats are equal within Tolerance. Two NaNs are
// considered equal to each other.
func Close(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) <= Tolerance
}

// Equal reports whether a submitted value matches a reference value. It is a
// pure function and never mutates its inputs. Absence (nil) never matches.
func Equal(a, b any, opts ...Option) bool {
	cfg := config{sameColNames: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if a == nil || b == nil {
		return false
	}

	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return Close(af, bf)
		}
		return false
	}

	switch av := a.(type) {
	case series.Series:
		if bv, ok := b.(series.Series); ok {
			return SeriesEqual(av, bv)
		}
		return false
	case dataframe.DataFrame:
		if bv, ok := b.(dataframe.DataFrame); ok {
			return FrameEqual(av, bv, cfg.sameColNames)
		}
		return false
	}

	if aItems, ok := toSlice(a); ok {
		bItems, bok := toSlice(b)
		if !bok {
			return false
		}
		return sliceEqual(aItems, bItems)
	}

	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}

	return reflect.DeepEqual(a, b)
}

// SeriesEqual applies one-dimensional array equality: numeric columns compare
// element-wise within Tolerance, everything else compares as exact strings
// with missing cells replaced by a sentinel on both sides.
func SeriesEqual(a, b series.Series) bool {
	if a.Len() != b.Len() {
		return false
	}

	if isNumericType(a.Type()) && isNumericType(b.Type()) {
		af := a.Float()
		bf := b.Float()
		for i := range af {
			if !Close(af[i], bf[i]) {
				return false
			}
		}
		return true
	}

	for i := 0; i < a.Len(); i++ {
		if stringCell(a, i) != stringCell(b, i) {
			return false
		}
	}

	return true
}

// FrameEqual reports whether two frames hold the same data: shapes must
// match, column labels must match when sameColNames is set, and every
// positional column pair must satisfy SeriesEqual.
func FrameEqual(a, b dataframe.DataFrame, sameColNames bool) bool {
	if a.Nrow() != b.Nrow() || a.Ncol() != b.Ncol() {
		return false
	}

	aNames := a.Names()
	bNames := b.Names()

	if sameColNames {
		for i := range aNames {
			if aNames[i] != bNames[i] {
				return false
			}
		}
	}

	for i := range aNames {
		if !SeriesEqual(a.Col(aNames[i]), b.Col(bNames[i])) {
			return false
		}
	}

	return true
}

func stringCell(s series.Series, i int) string {
	elem := s.Elem(i)
	if elem.IsNA() {
		return missingToken
	}
	return elem.String()
}

func isNumericType(t series.Type) bool {
	return t == series.Int || t == series.Float
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toSlice(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func sliceEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}

	numeric := true
	for _, v := range append(append([]any{}, a...), b...) {
		if v == nil {
			continue
		}
		if _, ok := toFloat(v); !ok {
			numeric = false
			break
		}
	}

	for i := range a {
		if numeric {
			af, aok := elemFloat(a[i])
			bf, bok := elemFloat(b[i])
			if aok != bok {
				return false
			}
			if !Close(af, bf) {
				return false
			}
			continue
		}
		if stringElem(a[i]) != stringElem(b[i]) {
			return false
		}
	}

	return true
}

func elemFloat(v any) (float64, bool) {
	if v == nil {
		return math.NaN(), false
	}
	f, ok := toFloat(v)
	if !ok {
		return math.NaN(), false
	}
	return f, true
}

func stringElem(v any) string {
	if v == nil {
		return missingToken
	}
	return fmt.Sprint(v)
}
