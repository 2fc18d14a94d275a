// Package model defines the core domain models used throughout the application.
package model

import "strings"

// Application is the raw, possibly-partial input for a single loan
// application. Keys are schema field names; any subset of the known
// schema is accepted. It is transient and never persisted as-is.
type Application map[string]any

// Normalized returns a copy of the application with categorical string
// values upper-cased and surrounding whitespace removed. Nil values are
// dropped so that downstream imputation treats them as absent.
func (a Application) Normalized() Application {
	out := make(Application, len(a))
	for k, v := range a {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s == "" {
				continue
			}
			out[k] = s
			continue
		}
		out[k] = v
	}
	return out
}

// FeatureVector is a complete applicant feature set produced by
// imputation. Every known numeric field has a finite value and every
// known categorical field has a non-empty label.
type FeatureVector struct {
	Numeric     map[string]float64 `json:"numeric"`
	Categorical map[string]string  `json:"categorical"`
}

// NewFeatureVector returns an empty vector with allocated maps.
func NewFeatureVector() FeatureVector {
	return FeatureVector{
		Numeric:     make(map[string]float64),
		Categorical: make(map[string]string),
	}
}

// Clone returns a deep copy of the vector.
func (v FeatureVector) Clone() FeatureVector {
	out := NewFeatureVector()
	for k, val := range v.Numeric {
		out.Numeric[k] = val
	}
	for k, val := range v.Categorical {
		out.Categorical[k] = val
	}
	return out
}
