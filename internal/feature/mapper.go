package feature

import (
	"fmt"

	"github.com/oakmont-ai/scorecard/internal/model"
)

// Mapper expands a complete feature vector into the one-hot column layout
// a model bundle expects. It owns no state beyond the encoding rules; the
// bundle's column list drives the final row shape.
type Mapper struct{}

// NewMapper creates a feature mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Encode converts a complete vector into named model columns: numeric
// fields pass through, categorical fields become prefixed indicator
// columns (prefix_VALUE = 1). Absent label combinations are implicitly
// zero and appear only after Fill.
func (m *Mapper) Encode(vec model.FeatureVector) map[string]float64 {
	row := make(map[string]float64, len(vec.Numeric)+len(vec.Categorical))
	for field, val := range vec.Numeric {
		row[field] = val
	}
	for field, label := range vec.Categorical {
		if label == "" {
			continue
		}
		row[IndicatorColumn(field, label)] = 1
	}
	return row
}

// Fill projects an encoded row onto exactly the expected columns, in the
// bundle's original order, substituting 0 for anything the row did not
// produce and silently dropping anything extra. This keeps old bundles
// scorable after the column set evolves, and new bundles tolerant of old
// callers.
func (m *Mapper) Fill(row map[string]float64, expected []string) []float64 {
	full := make([]float64, len(expected))
	for idx, col := range expected {
		full[idx] = row[col]
	}
	return full
}

// IndicatorColumn names the one-hot column for a categorical field/label
// pair, using the bundle's historical prefixes.
func IndicatorColumn(field, label string) string {
	return fmt.Sprintf("%s_%s", EncodedPrefix(field), label)
}
