package retrain

import (
	"math"
	"sort"

	"github.com/oakmont-ai/scorecard/internal/feature"
	"github.com/oakmont-ai/scorecard/internal/model"
)

// discoverColumns derives the encoded column layout from the union of all
// records: every numeric field seen, then one indicator column per
// categorical field/label pair actually present. Unseen categories simply
// produce new indicator columns; nothing is rejected. Order is
// deterministic (sorted) so a retrained bundle's column list is stable.
func discoverColumns(records []model.PredictionRecord) []string {
	numSet := make(map[string]bool)
	indSet := make(map[string]bool)

	for i := range records {
		for field := range records[i].Features.Numeric {
			numSet[field] = true
		}
		for field, label := range records[i].Features.Categorical {
			if label == "" {
				continue
			}
			indSet[feature.IndicatorColumn(field, label)] = true
		}
	}

	numeric := make([]string, 0, len(numSet))
	for field := range numSet {
		numeric = append(numeric, field)
	}
	sort.Strings(numeric)

	indicators := make([]string, 0, len(indSet))
	for col := range indSet {
		indicators = append(indicators, col)
	}
	sort.Strings(indicators)

	return append(numeric, indicators...)
}

// encodeMatrix re-derives the full encoded feature matrix for the given
// records against a fixed column layout, plus the label vector.
func encodeMatrix(records []model.PredictionRecord, columns []string, mapper *feature.Mapper) (x [][]float64, y []int) {
	x = make([][]float64, 0, len(records))
	y = make([]int, 0, len(records))
	for i := range records {
		if records[i].ActualOutcome == nil {
			continue
		}
		row := mapper.Encode(records[i].Features)
		x = append(x, mapper.Fill(row, columns))
		y = append(y, *records[i].ActualOutcome)
	}
	return x, y
}

// computeStats builds the baseline statistic table from the training
// records' numeric fields.
func computeStats(records []model.PredictionRecord) map[string]model.FeatureStats {
	values := make(map[string][]float64)
	for i := range records {
		for field, val := range records[i].Features.Numeric {
			values[field] = append(values[field], val)
		}
	}

	stats := make(map[string]model.FeatureStats, len(values))
	for field, vals := range values {
		if len(vals) == 0 {
			continue
		}

		st := model.FeatureStats{Min: vals[0], Max: vals[0]}
		var sum float64
		for _, v := range vals {
			if v < st.Min {
				st.Min = v
			}
			if v > st.Max {
				st.Max = v
			}
			sum += v
		}
		st.Mean = sum / float64(len(vals))

		var variance float64
		for _, v := range vals {
			d := v - st.Mean
			variance += d * d
		}
		st.Std = math.Sqrt(variance / float64(len(vals)))

		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			st.Median = (sorted[mid-1] + sorted[mid]) / 2
		} else {
			st.Median = sorted[mid]
		}

		stats[field] = st
	}
	return stats
}

// categoricalModes returns the most frequent label per categorical field,
// feeding the imputer's historical-mode strategy.
func categoricalModes(records []model.PredictionRecord) map[string]string {
	counts := make(map[string]map[string]int)
	for i := range records {
		for field, label := range records[i].Features.Categorical {
			if label == "" {
				continue
			}
			if counts[field] == nil {
				counts[field] = make(map[string]int)
			}
			counts[field][label]++
		}
	}

	modes := make(map[string]string, len(counts))
	for field, labels := range counts {
		best, bestCount := "", -1
		names := make([]string, 0, len(labels))
		for label := range labels {
			names = append(names, label)
		}
		sort.Strings(names) // deterministic tie-break
		for _, label := range names {
			if labels[label] > bestCount {
				best, bestCount = label, labels[label]
			}
		}
		modes[field] = best
	}
	return modes
}
