// Package table provides the hierarchical tabular results the grading engine
// works with: pivot tables with multi-level row and column labels, built on
// top of gota frames, plus loading of SQL results into frames.
package table

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

// Labels is an ordered label sequence, the index-like result shape (for
// example a frame's column names).
type Labels []string

// Agg names an aggregation applied while grouping.
type Agg string

// Supported aggregations.
const (
	AggMean  Agg = "mean"
	AggSum   Agg = "sum"
	AggMax   Agg = "max"
	AggMin   Agg = "min"
	AggCount Agg = "count"
)

// Level describes one level of a hierarchical axis: its name and the distinct
// values it takes, in first-seen order.
type Level struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Pivot is a two-dimensional table whose row index and columns may each carry
// multiple label levels. It is the lazy-aggregation result shape produced by
// GroupAgg and PivotTable.
type Pivot struct {
	IndexNames  []string
	ColumnNames []string
	RowKeys     [][]string
	ColKeys     [][]string
	Cells       [][]any
}

// Shape returns (rows, columns) of the data area.
func (p Pivot) Shape() (int, int) {
	return len(p.RowKeys), len(p.ColKeys)
}

// MultiIndex reports whether the row index has more than one level.
func (p Pivot) MultiIndex() bool {
	return len(p.IndexNames) > 1
}

// MultiColumns reports whether the columns carry more than one level.
func (p Pivot) MultiColumns() bool {
	return len(p.ColumnNames) > 1
}

// IndexLevels describes each row-index level with its distinct values.
func (p Pivot) IndexLevels() []Level {
	return levels(p.IndexNames, p.RowKeys, "index")
}

// ColumnLevels describes each column level with its distinct values.
func (p Pivot) ColumnLevels() []Level {
	return levels(p.ColumnNames, p.ColKeys, "columns")
}

// FlatColumns joins multi-level column keys into single underscore-separated
// labels.
func (p Pivot) FlatColumns() []string {
	flat := make([]string, len(p.ColKeys))
	for i, key := range p.ColKeys {
		flat[i] = JoinKey(key)
	}
	return flat
}

// JoinKey flattens a multi-level label into one string key.
func JoinKey(parts []string) string {
	return strings.Join(parts, "_")
}

func levels(names []string, keys [][]string, fallback string) []Level {
	out := make([]Level, len(names))
	for lvl, name := range names {
		if name == "" {
			name = fmt.Sprintf("level_%d", lvl)
			if len(names) == 1 {
				name = fallback
			}
		}
		seen := map[string]bool{}
		var values []string
		for _, key := range keys {
			if lvl < len(key) && !seen[key[lvl]] {
				seen[key[lvl]] = true
				values = append(values, key[lvl])
			}
		}
		out[lvl] = Level{Name: name, Values: values}
	}
	return out
}

// GroupAgg groups a frame by one or more key columns and aggregates each
// value column, producing a pivot whose row index has one level per key
// column and whose columns carry the value-column names.
func GroupAgg(df dataframe.DataFrame, by []string, values []string, agg Agg) (Pivot, error) {
	if df.Err != nil {
		return Pivot{}, df.Err
	}
	if len(by) == 0 {
		return Pivot{}, fmt.Errorf("group aggregation requires at least one key column")
	}

	keyCols, err := recordColumns(df, by)
	if err != nil {
		return Pivot{}, err
	}
	valueCols, err := floatColumns(df, values)
	if err != nil {
		return Pivot{}, err
	}

	type bucket struct {
		key  []string
		vals [][]float64
	}

	order := []string{}
	buckets := map[string]*bucket{}
	for r := 0; r < df.Nrow(); r++ {
		key := make([]string, len(by))
		for i := range by {
			key[i] = keyCols[i][r]
		}
		flat := JoinKey(key)
		b, ok := buckets[flat]
		if !ok {
			b = &bucket{key: key, vals: make([][]float64, len(values))}
			buckets[flat] = b
			order = append(order, flat)
		}
		for i := range values {
			b.vals[i] = append(b.vals[i], valueCols[i][r])
		}
	}
	sort.Strings(order)

	p := Pivot{
		IndexNames:  append([]string{}, by...),
		ColumnNames: []string{""},
	}
	for _, name := range values {
		p.ColKeys = append(p.ColKeys, []string{name})
	}
	for _, flat := range order {
		b := buckets[flat]
		row := make([]any, len(values))
		for i := range values {
			row[i] = aggregate(b.vals[i], agg)
		}
		p.RowKeys = append(p.RowKeys, b.key)
		p.Cells = append(p.Cells, row)
	}

	return p, nil
}

// PivotTable builds a spreadsheet-style pivot: rows keyed by the index
// columns, columns keyed by (value column, column value) pairs, cells
// aggregated from the value columns.
func PivotTable(df dataframe.DataFrame, index []string, column string, values []string, agg Agg) (Pivot, error) {
	if df.Err != nil {
		return Pivot{}, df.Err
	}
	if len(index) == 0 || column == "" {
		return Pivot{}, fmt.Errorf("pivot requires index and column names")
	}

	idxCols, err := recordColumns(df, index)
	if err != nil {
		return Pivot{}, err
	}
	colCol, err := recordColumns(df, []string{column})
	if err != nil {
		return Pivot{}, err
	}
	valueCols, err := floatColumns(df, values)
	if err != nil {
		return Pivot{}, err
	}

	var colValues []string
	seenCol := map[string]bool{}
	for _, v := range colCol[0] {
		if !seenCol[v] {
			seenCol[v] = true
			colValues = append(colValues, v)
		}
	}
	sort.Strings(colValues)

	rowOrder := []string{}
	rowKeys := map[string][]string{}
	cells := map[string]map[string][]float64{}
	for r := 0; r < df.Nrow(); r++ {
		key := make([]string, len(index))
		for i := range index {
			key[i] = idxCols[i][r]
		}
		flat := JoinKey(key)
		if _, ok := rowKeys[flat]; !ok {
			rowKeys[flat] = key
			rowOrder = append(rowOrder, flat)
			cells[flat] = map[string][]float64{}
		}
		for i, value := range values {
			cellKey := value + "\x00" + colCol[0][r]
			cells[flat][cellKey] = append(cells[flat][cellKey], valueCols[i][r])
		}
	}
	sort.Strings(rowOrder)

	p := Pivot{
		IndexNames:  append([]string{}, index...),
		ColumnNames: []string{"", column},
	}
	for _, value := range values {
		for _, cv := range colValues {
			p.ColKeys = append(p.ColKeys, []string{value, cv})
		}
	}
	for _, flat := range rowOrder {
		row := make([]any, 0, len(p.ColKeys))
		for _, value := range values {
			for _, cv := range colValues {
				samples := cells[flat][value+"\x00"+cv]
				if len(samples) == 0 {
					row = append(row, nil)
					continue
				}
				row = append(row, aggregate(samples, agg))
			}
		}
		p.RowKeys = append(p.RowKeys, rowKeys[flat])
		p.Cells = append(p.Cells, row)
	}

	return p, nil
}

func aggregate(samples []float64, agg Agg) float64 {
	if agg == AggCount {
		return float64(len(samples))
	}
	if len(samples) == 0 {
		return 0
	}
	switch agg {
	case AggSum, AggMean:
		sum := 0.0
		for _, v := range samples {
			sum += v
		}
		if agg == AggSum {
			return sum
		}
		return sum / float64(len(samples))
	case AggMax:
		max := samples[0]
		for _, v := range samples[1:] {
			if v > max {
				max = v
			}
		}
		return max
	case AggMin:
		min := samples[0]
		for _, v := range samples[1:] {
			if v < min {
				min = v
			}
		}
		return min
	}
	return 0
}

func recordColumns(df dataframe.DataFrame, names []string) ([][]string, error) {
	cols := make([][]string, len(names))
	for i, name := range names {
		s := df.Col(name)
		if s.Err != nil {
			return nil, fmt.Errorf("column %q: %w", name, s.Err)
		}
		cols[i] = s.Records()
	}
	return cols, nil
}

func floatColumns(df dataframe.DataFrame, names []string) ([][]float64, error) {
	cols := make([][]float64, len(names))
	for i, name := range names {
		s := df.Col(name)
		if s.Err != nil {
			return nil, fmt.Errorf("column %q: %w", name, s.Err)
		}
		cols[i] = s.Float()
	}
	return cols, nil
}
