package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont-ai/scorecard/internal/model"
)

func baseline() map[string]model.FeatureStats {
	return map[string]model.FeatureStats{
		"person_age":    {Min: 20, Max: 60, Mean: 40, Std: 5},
		"person_income": {Min: 10000, Max: 200000, Mean: 60000, Std: 20000},
	}
}

func vec(fields map[string]float64) model.FeatureVector {
	v := model.NewFeatureVector()
	for k, val := range fields {
		v.Numeric[k] = val
	}
	return v
}

func TestCheckBoundariesNotFlagged(t *testing.T) {
	d := NewDetector(baseline())

	warnings := d.Check(vec(map[string]float64{
		"person_age":    20, // exactly min
		"person_income": 200000,
	}))
	assert.Empty(t, warnings)
}

func TestCheckRangeViolation(t *testing.T) {
	d := NewDetector(baseline())

	warnings := d.Check(vec(map[string]float64{"person_age": 19}))
	require.Len(t, warnings, 1)
	assert.Equal(t, "person_age", warnings[0].Field)
	assert.Equal(t, "range", warnings[0].Kind)
	assert.Equal(t, 19.0, warnings[0].Value)
	assert.Contains(t, warnings[0].Message, "outside training range")
}

func TestCheckSigmaViolation(t *testing.T) {
	d := NewDetector(baseline())

	// 56 is inside [20, 60] but outside 40 +/- 15.
	warnings := d.Check(vec(map[string]float64{"person_age": 56}))
	require.Len(t, warnings, 1)
	assert.Equal(t, "sigma", warnings[0].Kind)

	// Exactly 3 sigma is not flagged.
	warnings = d.Check(vec(map[string]float64{"person_age": 55}))
	assert.Empty(t, warnings)
}

func TestCheckRangeTakesPrecedenceOverSigma(t *testing.T) {
	d := NewDetector(baseline())

	warnings := d.Check(vec(map[string]float64{"person_age": 300}))
	require.Len(t, warnings, 1)
	assert.Equal(t, "range", warnings[0].Kind)
}

func TestCheckUnknownFieldsIgnored(t *testing.T) {
	d := NewDetector(baseline())

	warnings := d.Check(vec(map[string]float64{"brand_new_field": 1e12}))
	assert.Empty(t, warnings)
}

func TestCheckStableOrder(t *testing.T) {
	d := NewDetector(baseline())

	v := vec(map[string]float64{
		"person_income": 1,
		"person_age":    300,
	})
	for i := 0; i < 5; i++ {
		warnings := d.Check(v)
		require.Len(t, warnings, 2)
		assert.Equal(t, "person_age", warnings[0].Field)
		assert.Equal(t, "person_income", warnings[1].Field)
	}
}

func TestCheckNilBaseline(t *testing.T) {
	d := NewDetector(nil)
	assert.Empty(t, d.Check(vec(map[string]float64{"person_age": 999})))
}
