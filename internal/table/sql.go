package table

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gorm.io/gorm"
)

// ReadSQL runs a query against the given connection and loads the result set
// into a frame. NULL cells become missing values; column types are detected
// from the data, so numeric aggregates compare numerically.
func ReadSQL(db *gorm.DB, query string) (dataframe.DataFrame, error) {
	rows, err := db.Raw(query).Rows()
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	records := [][]string{columns}
	values := make([]any, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return dataframe.DataFrame{}, err
		}
		record := make([]string, len(columns))
		for i, v := range values {
			record[i] = cellString(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return dataframe.DataFrame{}, err
	}

	if len(records) == 1 {
		return emptyFrame(columns), nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}

	return df, nil
}

func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return "NaN"
	case []byte:
		return string(c)
	default:
		return fmt.Sprint(c)
	}
}

func emptyFrame(columns []string) dataframe.DataFrame {
	cols := make([]series.Series, len(columns))
	for i, name := range columns {
		cols[i] = series.New([]string{}, series.String, name)
	}
	return dataframe.New(cols...)
}
