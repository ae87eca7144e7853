package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbGEReferenceScenario(t *testing.T) {
	// mu=22, sigma=6.7: z = (20 - 0.5 - 22) / 6.7, P(points >= 20) ≈ 0.6455.
	p := ProbGE(22.0, 6.7, 20)
	assert.InDelta(t, 0.6455, p, 0.0005)
}

func TestProbGEMonotonicDecreasingInThreshold(t *testing.T) {
	thresholds := []int{15, 20, 25, 30}
	prev := 1.1
	for _, k := range thresholds {
		p := ProbGE(22.0, 6.7, k)
		assert.Less(t, p, prev, "P(>=%d) should be below P at the previous threshold", k)
		prev = p
	}
}

func TestProbGEMonotonicIncreasingInMean(t *testing.T) {
	low := ProbGE(18.0, 6.7, 20)
	high := ProbGE(26.0, 6.7, 20)
	assert.Greater(t, high, low)
}

func TestProbGEBounds(t *testing.T) {
	cases := []struct {
		mu, sigma float64
		k         int
	}{
		{0, 1, 30},
		{60, 1, 15},
		{22, 25, 20},
		{22, 1, 20},
	}
	for _, c := range cases {
		p := ProbGE(c.mu, c.sigma, c.k)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestProbGEContinuityCorrection(t *testing.T) {
	// With mu exactly at k - 0.5 the corrected z is zero.
	p := ProbGE(19.5, 5.0, 20)
	assert.InDelta(t, 0.5, p, 1e-12)
}

func TestProbGETinySigma(t *testing.T) {
	// Degenerate sigma is floored instead of dividing by zero.
	p := ProbGE(25.0, 0.0, 20)
	assert.InDelta(t, 1.0, p, 1e-9)

	p = ProbGE(10.0, 0.0, 20)
	assert.InDelta(t, 0.0, p, 1e-9)
}

func TestClampSigma(t *testing.T) {
	assert.Equal(t, 1.0, clampSigma(0.2, 1.0, 25.0))
	assert.Equal(t, 25.0, clampSigma(40.0, 1.0, 25.0))
	assert.Equal(t, 6.7, clampSigma(6.7, 1.0, 25.0))
}
