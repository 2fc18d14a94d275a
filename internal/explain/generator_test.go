package explain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oakmont-ai/scorecard/internal/model"
)

type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (g *fakeGenerator) Generate(_ context.Context, _ Request) (string, error) {
	g.calls++
	return g.response, g.err
}

func TestExplainUsesGeneratorOutput(t *testing.T) {
	gen := &fakeGenerator{response: `{"text": "Custom explanation."}`}
	svc := NewService(gen)

	got := svc.Explain(context.Background(), Request{Category: model.RiskLow})
	assert.Equal(t, "Custom explanation.", got)
	assert.Equal(t, 1, gen.calls)
}

func TestExplainFallsBackOnGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream unavailable")}
	svc := NewService(gen)

	req := Request{Category: model.RiskHigh, Probability: 0.8}
	got := svc.Explain(context.Background(), req)
	assert.Equal(t, RuleBased(req), got)
	assert.Equal(t, 2, gen.calls, "generator retried before falling back")
}

func TestExplainFallsBackOnUnparsableOutput(t *testing.T) {
	gen := &fakeGenerator{response: `{"unknown_shape": 42}`}
	svc := NewService(gen)

	req := Request{Category: model.RiskBorderline, Probability: 0.5}
	assert.Equal(t, RuleBased(req), svc.Explain(context.Background(), req))
}

func TestExplainNilGenerator(t *testing.T) {
	svc := NewService(nil)
	req := Request{Category: model.RiskLow, Probability: 0.1}
	assert.Equal(t, RuleBased(req), svc.Explain(context.Background(), req))
}

func TestRuleBased(t *testing.T) {
	req := Request{
		Category:    model.RiskHigh,
		Probability: 0.75,
		Attribution: map[string]float64{
			"loan_percent_income": 1.2,
			"person_income":       -0.9,
			"loan_grade_D":        0.7,
			"person_age":          0.1,
		},
	}

	text := RuleBased(req)
	assert.Contains(t, text, "high risk")
	assert.Contains(t, text, "75.0%")
	assert.Contains(t, text, "loan_percent_income (increasing risk)")
	assert.Contains(t, text, "person_income (decreasing risk)")
	assert.NotContains(t, text, "person_age", "only the top three factors appear")
}

func TestRuleBasedDeterministicTies(t *testing.T) {
	req := Request{
		Category:    model.RiskLow,
		Probability: 0.2,
		Attribution: map[string]float64{
			"b_field": 0.5,
			"a_field": 0.5,
			"c_field": 0.5,
			"d_field": 0.5,
		},
	}

	first := RuleBased(req)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, RuleBased(req))
	}
	assert.Contains(t, first, "a_field")
	assert.NotContains(t, first, "d_field")
}
