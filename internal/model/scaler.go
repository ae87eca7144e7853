package model

import "fmt"

// Scaler standardizes raw feature vectors with the per-feature center and
// scale fitted at training time.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *Scaler) validate() error {
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("scaler dimensions mismatch: %d means, %d scales", len(s.Mean), len(s.Scale))
	}
	for i, scale := range s.Scale {
		if scale == 0 {
			return fmt.Errorf("scaler has zero scale at feature %d", i)
		}
	}
	return nil
}

// Dim returns the feature dimension the scaler was fitted on
func (s *Scaler) Dim() int {
	return len(s.Mean)
}

// Transform standardizes one raw feature vector, returning a new slice.
// The input length must equal the fitted dimension.
func (s *Scaler) Transform(raw []float64) ([]float64, error) {
	if len(raw) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(raw))
	}

	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}
