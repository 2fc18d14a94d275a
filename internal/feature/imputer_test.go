package feature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont-ai/scorecard/internal/model"
)

func TestImputeDerivesLoanPercentIncome(t *testing.T) {
	imputer := NewImputer()

	vec, trace := imputer.Impute(model.Application{
		"person_income": 80000.0,
		"loan_amnt":     20000.0,
	})

	assert.InDelta(t, 0.25, vec.Numeric[FieldLoanPercentIncome], 1e-9)

	found := false
	for _, entry := range trace {
		if strings.HasPrefix(entry, FieldLoanPercentIncome+": derived") {
			found = true
		}
	}
	assert.True(t, found, "derivation should be logged, got trace %v", trace)
}

func TestImputeZeroIncomeGuardsDerivation(t *testing.T) {
	imputer := NewImputer()

	vec, trace := imputer.Impute(model.Application{
		"person_income": 0.0,
		"loan_amnt":     20000.0,
	})

	// Division guard: falls back to the default instead of deriving.
	assert.InDelta(t, 0.25, vec.Numeric[FieldLoanPercentIncome], 1e-9)
	for _, entry := range trace {
		assert.NotContains(t, entry, "derived", "no derivation should happen with zero income")
	}
}

func TestImputeEmptyInputYieldsCompleteVector(t *testing.T) {
	vec, trace := NewImputer().Impute(model.Application{})

	require.Len(t, vec.Numeric, len(NumericFields))
	require.Len(t, vec.Categorical, len(CategoricalFields))
	for _, field := range NumericFields {
		_, ok := vec.Numeric[field]
		assert.True(t, ok, "missing numeric field %s", field)
	}
	for _, field := range CategoricalFields {
		assert.NotEmpty(t, vec.Categorical[field], "empty categorical field %s", field)
	}
	assert.NotEmpty(t, trace)
}

func TestImputeIsIdempotent(t *testing.T) {
	complete := model.Application{
		"person_age":                 30.0,
		"person_income":              60000.0,
		"person_emp_length":          36.0,
		"loan_amnt":                  15000.0,
		"loan_int_rate":              9.5,
		"loan_percent_income":        0.25,
		"cb_person_cred_hist_length": 7.0,
		"home_ownership":             "MORTGAGE",
		"loan_intent":                "EDUCATION",
		"loan_grade":                 "B",
		"default_on_file":            "N",
	}

	imputer := NewImputer()
	vec, trace := imputer.Impute(complete)
	assert.Empty(t, trace, "complete input must produce no imputation entries")

	// Re-imputing the produced vector changes nothing.
	again := model.Application{}
	for k, v := range vec.Numeric {
		again[k] = v
	}
	for k, v := range vec.Categorical {
		again[k] = v
	}
	vec2, trace2 := imputer.Impute(again)
	assert.Empty(t, trace2)
	assert.Equal(t, vec, vec2)
}

func TestImputeUsesHistoricalStats(t *testing.T) {
	stats := map[string]model.FeatureStats{
		FieldPersonIncome: {Median: 72000},
	}
	modes := map[string]string{
		FieldLoanGrade: "A",
	}

	vec, trace := NewImputerWithStats(stats, modes).Impute(model.Application{})

	assert.InDelta(t, 72000, vec.Numeric[FieldPersonIncome], 1e-9)
	assert.Equal(t, "A", vec.Categorical[FieldLoanGrade])
	assert.Contains(t, trace, "person_income: historical median")
	assert.Contains(t, trace, "loan_grade: historical mode")
}

func TestImputeNormalizesCategoricalCase(t *testing.T) {
	vec, _ := NewImputer().Impute(model.Application{
		"home_ownership": "rent",
	})
	assert.Equal(t, "RENT", vec.Categorical[FieldHomeOwnership])
}

func TestValidate(t *testing.T) {
	imputer := NewImputer()

	tests := []struct {
		name     string
		app      model.Application
		contains string
	}{
		{
			name:     "empty input",
			app:      model.Application{},
			contains: "no input data",
		},
		{
			name:     "missing critical field",
			app:      model.Application{"person_age": 40.0},
			contains: "person_income",
		},
		{
			name:     "age out of range",
			app:      model.Application{"person_age": 15.0, "person_income": 1000.0, "loan_amnt": 100.0},
			contains: "outside valid range",
		},
		{
			name:     "negative amount",
			app:      model.Application{"person_income": 1000.0, "loan_amnt": -5.0},
			contains: "negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := imputer.Validate(tt.app)
			require.NotEmpty(t, warnings)
			joined := strings.Join(warnings, "; ")
			assert.Contains(t, joined, tt.contains)
		})
	}

	t.Run("clean input has no warnings", func(t *testing.T) {
		warnings := imputer.Validate(model.Application{
			"person_income": 50000.0,
			"loan_amnt":     10000.0,
		})
		assert.Empty(t, warnings)
	})
}
