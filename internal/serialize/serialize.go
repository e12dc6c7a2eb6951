// Package serialize converts heterogeneous computed results into JSON-safe
// structures: plain scalars, nested lists and maps, and typed envelopes for
// tabular shapes. NaN and infinite values never reach the wire; they become
// null.
package serialize

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/nauqh/cseassessment/internal/table"
)

// Value recursively converts a value into a JSON-compatible representation.
func Value(v any) any {
	switch c := v.(type) {
	case nil:
		return nil
	case bool, string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return c
	case float64:
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil
		}
		return c
	case float32:
		return Value(float64(c))
	case time.Time:
		return c.String()
	case time.Duration:
		return c.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Value(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Value(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		// Sets (struct{}-valued maps) flatten to element lists.
		if rv.Type().Elem().Kind() == reflect.Struct && rv.Type().Elem().NumField() == 0 {
			out := make([]any, 0, rv.Len())
			for _, key := range rv.MapKeys() {
				out = append(out, Value(key.Interface()))
			}
			return out
		}
		out := make(map[string]any, rv.Len())
		for _, key := range rv.MapKeys() {
			out[fmt.Sprint(key.Interface())] = Value(rv.MapIndex(key).Interface())
		}
		return out
	}

	// Anything without a direct JSON representation degrades to its string
	// form rather than failing serialization.
	return fmt.Sprint(v)
}

// Result wraps a computed value in a typed envelope describing its shape, so
// clients can render frames, series, pivot tables and plain values
// differently.
func Result(v any) map[string]any {
	switch c := v.(type) {
	case dataframe.DataFrame:
		return frameResult(c)
	case series.Series:
		return seriesResult(c)
	case table.Pivot:
		return pivotResult(c)
	case table.Labels:
		data := make(map[string]any, len(c))
		for i, label := range c {
			data[strconv.Itoa(i)] = Value(label)
		}
		return map[string]any{"type": "index", "data": data}
	}

	return map[string]any{"type": "value", "data": Value(v)}
}

// Lazy describes a deferred grouped-aggregation result that could not be
// resolved into a concrete table.
func Lazy(message, repr string) map[string]any {
	return map[string]any{
		"type":    "groupby_object",
		"message": message,
		"data":    repr,
	}
}

// Frame converts a flat frame into an ordered list of row objects.
func Frame(df dataframe.DataFrame) []map[string]any {
	names := df.Names()
	rows := make([]map[string]any, 0, df.Nrow())
	for r := 0; r < df.Nrow(); r++ {
		row := make(map[string]any, len(names))
		for c, name := range names {
			row[name] = cell(df.Elem(r, c))
		}
		rows = append(rows, row)
	}
	return rows
}

func frameResult(df dataframe.DataFrame) map[string]any {
	if df.Nrow() == 0 {
		return map[string]any{"type": "dataframe", "data": []any{}}
	}
	return map[string]any{"type": "dataframe", "data": Frame(df)}
}

func seriesResult(s series.Series) map[string]any {
	if s.Len() == 0 {
		return map[string]any{"type": "series", "data": map[string]any{}}
	}
	data := make(map[string]any, s.Len())
	for i := 0; i < s.Len(); i++ {
		data[strconv.Itoa(i)] = cell(s.Elem(i))
	}
	return map[string]any{"type": "series", "data": data}
}

func cell(e series.Element) any {
	if e.IsNA() {
		return nil
	}
	return Value(e.Val())
}
