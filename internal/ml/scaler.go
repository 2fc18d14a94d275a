package ml

import "math"

// Scaler standardizes encoded rows to zero mean and unit variance per
// column, matching the scaling applied at training time. A fitted scaler
// is part of every artifact bundle and is never refit at serving time.
type Scaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

// FitScaler computes per-column means and standard deviations from a
// training matrix. Columns with zero variance scale by 1 so transformed
// values stay finite.
func FitScaler(x [][]float64) *Scaler {
	if len(x) == 0 {
		return &Scaler{}
	}

	width := len(x[0])
	s := &Scaler{
		Means: make([]float64, width),
		Stds:  make([]float64, width),
	}
	n := float64(len(x))

	for _, row := range x {
		for j, v := range row {
			s.Means[j] += v
		}
	}
	for j := range s.Means {
		s.Means[j] /= n
	}

	for _, row := range x {
		for j, v := range row {
			d := v - s.Means[j]
			s.Stds[j] += d * d
		}
	}
	for j := range s.Stds {
		s.Stds[j] = math.Sqrt(s.Stds[j] / n)
		if s.Stds[j] == 0 {
			s.Stds[j] = 1
		}
	}

	return s
}

// Transform standardizes a single row. Columns beyond the fitted width
// pass through unchanged.
func (s *Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		if j < len(s.Means) {
			out[j] = (v - s.Means[j]) / s.Stds[j]
			continue
		}
		out[j] = v
	}
	return out
}

// TransformAll standardizes every row of a matrix.
func (s *Scaler) TransformAll(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = s.Transform(row)
	}
	return out
}
