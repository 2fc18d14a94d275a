// Package drift compares live applicant inputs against the statistical
// ranges observed during training. Warnings are purely advisory and never
// block scoring.
package drift

import (
	"fmt"
	"sort"

	"github.com/oakmont-ai/scorecard/internal/model"
)

// Warning describes one out-of-distribution field value.
type Warning struct {
	Field   string  `json:"field"`
	Kind    string  `json:"kind"` // "range" or "sigma"
	Message string  `json:"message"`
	Value   float64 `json:"value"`
}

// Detector checks numeric fields against a baseline statistic table. The
// baseline is computed once per training cycle and read-only here.
type Detector struct {
	baseline map[string]model.FeatureStats
}

// NewDetector creates a detector over a baseline table. A nil or empty
// baseline disables detection (Check returns no warnings).
func NewDetector(baseline map[string]model.FeatureStats) *Detector {
	return &Detector{baseline: baseline}
}

// Check flags every numeric field present in both the vector and the
// baseline whose value falls strictly outside the observed [min, max],
// or otherwise strictly outside mean plus/minus three standard
// deviations. Boundary values are not flagged. Output order is stable.
func (d *Detector) Check(vec model.FeatureVector) []Warning {
	if len(d.baseline) == 0 {
		return nil
	}

	fields := make([]string, 0, len(vec.Numeric))
	for field := range vec.Numeric {
		if _, ok := d.baseline[field]; ok {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	var warnings []Warning
	for _, field := range fields {
		st := d.baseline[field]
		val := vec.Numeric[field]

		if val < st.Min || val > st.Max {
			warnings = append(warnings, Warning{
				Field: field,
				Kind:  "range",
				Value: val,
				Message: fmt.Sprintf("%s=%g outside training range [%g, %g]",
					field, val, st.Min, st.Max),
			})
			continue
		}

		low := st.Mean - 3*st.Std
		high := st.Mean + 3*st.Std
		if val < low || val > high {
			warnings = append(warnings, Warning{
				Field: field,
				Kind:  "sigma",
				Value: val,
				Message: fmt.Sprintf("%s=%g outside 3-sigma band [%g, %g]",
					field, val, low, high),
			})
		}
	}

	return warnings
}
