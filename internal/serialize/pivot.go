package serialize

import (
	"github.com/nauqh/cseassessment/internal/table"
)

// pivotResult emits the three parallel representations of a hierarchical
// table (flat, structured, nested) plus axis metadata. A multi-level-index
// pivot with a single data column is a series in disguise and is flattened
// into one, with a note that the index levels were joined.
func pivotResult(p table.Pivot) map[string]any {
	rows, cols := p.Shape()
	if rows == 0 {
		return map[string]any{"type": "pivot_table", "data": []any{}}
	}

	if p.MultiIndex() && !p.MultiColumns() && cols == 1 {
		data := make(map[string]any, rows)
		for r, key := range p.RowKeys {
			data[table.JoinKey(key)] = Value(p.Cells[r][0])
		}
		return map[string]any{
			"type": "series",
			"data": data,
			"note": "multi-level index was flattened for serialization",
		}
	}

	flatCols := p.FlatColumns()
	indexLevels := p.IndexLevels()

	flat := make([]map[string]any, rows)
	structured := make([]map[string]any, rows)
	for r := range p.RowKeys {
		flatRow := make(map[string]any, cols)
		for c, name := range flatCols {
			flatRow[name] = Value(p.Cells[r][c])
		}
		flat[r] = flatRow

		structRow := make(map[string]any, cols+len(p.IndexNames))
		for lvl, level := range indexLevels {
			structRow[level.Name] = p.RowKeys[r][lvl]
		}
		for name, v := range flatRow {
			structRow[name] = v
		}
		structured[r] = structRow
	}

	nested := map[string]any{}
	for r, key := range p.RowKeys {
		current := nested
		for _, part := range key[:len(key)-1] {
			next, ok := current[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				current[part] = next
			}
			current = next
		}
		row := make(map[string]any, cols)
		for c, name := range flatCols {
			row[name] = Value(p.Cells[r][c])
		}
		current[key[len(key)-1]] = row
	}

	columnLevels := p.ColumnLevels()
	indexHierarchy := make([]map[string]any, len(indexLevels))
	for i, level := range indexLevels {
		indexHierarchy[i] = map[string]any{"level": i, "name": level.Name, "values": level.Values}
	}
	columnHierarchy := make([]map[string]any, len(columnLevels))
	for i, level := range columnLevels {
		columnHierarchy[i] = map[string]any{"level": i, "name": level.Name, "values": level.Values}
	}

	indexKeys := make([]string, rows)
	for r, key := range p.RowKeys {
		indexKeys[r] = table.JoinKey(key)
	}

	return map[string]any{
		"type": "pivot_table",
		"data": map[string]any{
			"flat":       flat,
			"structured": structured,
			"nested":     nested,
		},
		"metadata": map[string]any{
			"index_hierarchy":  indexHierarchy,
			"column_hierarchy": columnHierarchy,
			"shape":            []int{rows, cols},
			"columns":          flatCols,
			"index":            indexKeys,
		},
	}
}
