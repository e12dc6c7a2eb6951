package resource

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// loadDataframe fetches a CSV source, verifies its content type and applies
// the spec's preprocessing steps.
func loadDataframe(ctx context.Context, store Store, spec DataframeSpec) (dataframe.DataFrame, error) {
	data, err := fetchSource(ctx, store, spec.Source)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	mtype := mimetype.Detect(data)
	if !mtype.Is("text/csv") && !mtype.Is("text/plain") && !mtype.Is("application/csv") {
		return dataframe.DataFrame{}, fmt.Errorf("dataframe source %s: unexpected content type %s", spec.Source, mtype)
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read dataframe source %s: %w", spec.Source, df.Err)
	}

	return Preprocess(df, spec.Preprocess)
}

// Preprocess applies the declared transformation steps to a loaded frame.
func Preprocess(df dataframe.DataFrame, steps []PreprocessStep) (dataframe.DataFrame, error) {
	for _, step := range steps {
		switch step.Type {
		case "drop_columns":
			df = df.Drop(step.Columns)
			if df.Err != nil {
				return dataframe.DataFrame{}, fmt.Errorf("drop_columns: %w", df.Err)
			}
		case "title_case":
			for _, name := range step.Columns {
				col := df.Col(name)
				if col.Err != nil {
					return dataframe.DataFrame{}, fmt.Errorf("title_case: %w", col.Err)
				}
				records := col.Records()
				for i, v := range records {
					records[i] = titleCase(v)
				}
				df = df.Mutate(series.New(records, series.String, name))
				if df.Err != nil {
					return dataframe.DataFrame{}, fmt.Errorf("title_case: %w", df.Err)
				}
			}
		default:
			return dataframe.DataFrame{}, fmt.Errorf("unknown preprocess step %q", step.Type)
		}
	}
	return df, nil
}

// titleCase capitalizes the first letter of every space-separated word and
// lowercases the rest.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
