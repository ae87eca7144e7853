package scoring

import "math"

// normCDF evaluates the standard normal CDF via the error function.
func normCDF(z float64) float64 {
	return 0.5 * (1.0 + math.Erf(z/math.Sqrt2))
}

// ProbGE returns P(points >= k) under Normal(mu, sigma) with a half-point
// continuity correction, since points are effectively discrete.
func ProbGE(mu, sigma float64, k int) float64 {
	if sigma < 1e-6 {
		sigma = 1e-6
	}
	z := (float64(k) - 0.5 - mu) / sigma
	return 1.0 - normCDF(z)
}

// clampSigma bounds a model's predicted standard deviation to the operating
// range, limiting how much an under- or over-confident model can sway the
// threshold probabilities and confidence scores.
func clampSigma(sigma, lo, hi float64) float64 {
	if sigma < lo {
		return lo
	}
	if sigma > hi {
		return hi
	}
	return sigma
}
