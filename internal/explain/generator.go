// Package explain produces natural-language explanations for scoring
// decisions. The language model itself is an external collaborator behind
// the Generator interface; this package owns prompt assembly, tolerant
// response parsing and the deterministic rule-based fallback.
package explain

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/oakmont-ai/scorecard/internal/common"
	"github.com/oakmont-ai/scorecard/internal/model"
)

// Generator is an external explanation provider. The core supplies an
// attribution map and risk category and receives an opaque string back.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request carries everything a generator needs for one explanation.
type Request struct {
	Attribution map[string]float64
	Category    model.RiskCategory
	Probability float64
}

// Service wraps a generator with retries and the rule-based terminal
// fallback: explanation generation can degrade but never fails a scoring
// response.
type Service struct {
	generator Generator
	retry     common.RetryOptions
}

// NewService creates an explanation service. A nil generator means every
// explanation comes from the rule-based fallback.
func NewService(generator Generator) *Service {
	return &Service{
		generator: generator,
		retry:     common.RetryOptions{MaxAttempts: 2},
	}
}

// Explain returns the best available explanation text. External output is
// passed through the parser chain; any failure falls back to the
// deterministic rule-based text.
func (s *Service) Explain(ctx context.Context, req Request) string {
	if s.generator == nil {
		return RuleBased(req)
	}

	var raw string
	err := common.WithRetry(ctx, func() error {
		var genErr error
		raw, genErr = s.generator.Generate(ctx, req)
		return genErr
	}, s.retry)
	if err != nil {
		common.LogError(err, "Explanation generator failed, using rule-based fallback", nil)
		return RuleBased(req)
	}

	text, ok := ParseResponse(raw)
	if !ok {
		return RuleBased(req)
	}
	return text
}

// RuleBased generates a deterministic explanation from the risk category
// and the strongest attributions. It is the terminal strategy of the
// parser chain and the whole story when no generator is configured.
func RuleBased(req Request) string {
	var b strings.Builder
	switch req.Category {
	case model.RiskHigh:
		b.WriteString("This application was flagged as high risk")
	case model.RiskBorderline:
		b.WriteString("This application was flagged as borderline risk")
	default:
		b.WriteString("This application was assessed as low risk")
	}
	fmt.Fprintf(&b, " with an estimated default probability of %.1f%%.", req.Probability*100)

	top := topFactors(req.Attribution, 3)
	if len(top) > 0 {
		b.WriteString(" The most influential factors were: ")
		parts := make([]string, len(top))
		for i, f := range top {
			direction := "decreasing"
			if f.value > 0 {
				direction = "increasing"
			}
			parts[i] = fmt.Sprintf("%s (%s risk)", f.name, direction)
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(".")
	}
	return b.String()
}

type factor struct {
	name  string
	value float64
}

// topFactors returns the n attributions with the largest magnitude, ties
// broken by name for determinism.
func topFactors(attribution map[string]float64, n int) []factor {
	factors := make([]factor, 0, len(attribution))
	for name, value := range attribution {
		factors = append(factors, factor{name: name, value: value})
	}
	sort.Slice(factors, func(a, b int) bool {
		av, bv := abs(factors[a].value), abs(factors[b].value)
		if av != bv {
			return av > bv
		}
		return factors[a].name < factors[b].name
	})
	if len(factors) > n {
		factors = factors[:n]
	}
	return factors
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
