package feature

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/oakmont-ai/scorecard/internal/model"
)

// Imputer fills missing or derivable application fields. Strategy
// priority per field: derive from other present fields, substitute the
// reference-corpus median or mode, then a fixed domain-safe default.
// Imputation never fails; an entirely empty input still yields a
// complete, valid vector.
type Imputer struct {
	stats map[string]model.FeatureStats
	modes map[string]string
}

// NewImputer creates an imputer without reference statistics; every
// substitution falls through to the domain defaults.
func NewImputer() *Imputer {
	return &Imputer{}
}

// NewImputerWithStats creates an imputer backed by per-field reference
// statistics (medians for numeric fields) and categorical modes. Either
// map may be nil.
func NewImputerWithStats(stats map[string]model.FeatureStats, modes map[string]string) *Imputer {
	return &Imputer{stats: stats, modes: modes}
}

// Impute produces a complete feature vector from a partial application,
// returning the vector and a human-readable trace of every substitution.
// Imputing an already-complete application returns it unchanged with an
// empty trace.
func (i *Imputer) Impute(app model.Application) (model.FeatureVector, []string) {
	app = app.Normalized()
	vec := model.NewFeatureVector()
	var trace []string

	for _, field := range NumericFields {
		if val, ok := numericValue(app[field]); ok {
			vec.Numeric[field] = val
			continue
		}

		if field == FieldLoanPercentIncome {
			if ratio, ok := deriveLoanPercentIncome(app); ok {
				vec.Numeric[field] = ratio
				trace = append(trace, fmt.Sprintf("%s: derived from %s/%s", field, FieldLoanAmount, FieldPersonIncome))
				continue
			}
		}

		if st, ok := i.stats[field]; ok && !math.IsNaN(st.Median) {
			vec.Numeric[field] = st.Median
			trace = append(trace, fmt.Sprintf("%s: historical median", field))
			continue
		}

		vec.Numeric[field] = numericDefaults[field]
		trace = append(trace, fmt.Sprintf("%s: safe default", field))
	}

	for _, field := range CategoricalFields {
		if s, ok := app[field].(string); ok && s != "" {
			vec.Categorical[field] = s
			continue
		}

		if mode, ok := i.modes[field]; ok && mode != "" {
			vec.Categorical[field] = mode
			trace = append(trace, fmt.Sprintf("%s: historical mode", field))
			continue
		}

		vec.Categorical[field] = categoricalDefaults[field]
		trace = append(trace, fmt.Sprintf("%s: safe default", field))
	}

	if len(trace) > 0 {
		slog.Debug("Imputed missing fields", "count", len(trace))
	}

	return vec, trace
}

// Validate returns advisory warnings about the raw input. Warnings never
// block scoring; missing fields are imputed regardless.
func (i *Imputer) Validate(app model.Application) []string {
	app = app.Normalized()
	var warnings []string

	if len(app) == 0 {
		return []string{"no input data provided: all values will be imputed"}
	}

	for _, field := range []string{FieldPersonIncome, FieldLoanAmount} {
		if _, ok := numericValue(app[field]); !ok {
			warnings = append(warnings, fmt.Sprintf("critical field %s missing (will be imputed)", field))
		}
	}

	if age, ok := numericValue(app[FieldPersonAge]); ok && (age < 18 || age > 100) {
		warnings = append(warnings, fmt.Sprintf("%s (%g) outside valid range [18, 100]", FieldPersonAge, age))
	}
	if ratio, ok := numericValue(app[FieldLoanPercentIncome]); ok && ratio > 1 {
		warnings = append(warnings, fmt.Sprintf("%s (%g) greater than 1", FieldLoanPercentIncome, ratio))
	}

	for _, field := range NumericFields {
		if field == FieldPersonAge {
			continue
		}
		if val, ok := numericValue(app[field]); ok && val < 0 {
			warnings = append(warnings, fmt.Sprintf("%s is negative: %g", field, val))
		}
	}

	return warnings
}

// deriveLoanPercentIncome computes the loan-to-income ratio when both
// inputs are present and income is strictly positive.
func deriveLoanPercentIncome(app model.Application) (float64, bool) {
	amount, okAmount := numericValue(app[FieldLoanAmount])
	income, okIncome := numericValue(app[FieldPersonIncome])
	if !okAmount || !okIncome || income <= 0 {
		return 0, false
	}
	return amount / income, true
}

// numericValue coerces the loosely-typed application values (JSON
// numbers, ints, numeric strings) into a finite float64.
func numericValue(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
