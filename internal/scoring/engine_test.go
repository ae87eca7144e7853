package scoring

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/augur/internal/model"
	"github.com/fortuna/augur/internal/store"
)

// passthroughArtifact builds a single-feature artifact whose mean head echoes
// rolling_pts_10 and whose log-variance head is the constant logVar.
func passthroughArtifact(logVar float64) *model.Artifact {
	return &model.Artifact{
		Version:      "test_passthrough",
		FeatureNames: []string{"rolling_pts_10"},
		Scaler: &model.Scaler{
			Mean:  []float64{0},
			Scale: []float64{1},
		},
		Network: &model.Network{
			MuHead:     model.Layer{Weights: [][]float64{{1}}, Bias: []float64{0}},
			LogVarHead: model.Layer{Weights: [][]float64{{0}}, Bias: []float64{logVar}},
		},
	}
}

func featureRow(gameID string, playerID int64, rollingPts float64) store.FeatureRow {
	return store.FeatureRow{
		AsOfDate:     time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		GameID:       gameID,
		PlayerID:     playerID,
		HomeFlag:     1,
		RollingPts10: sql.NullFloat64{Float64: rollingPts, Valid: true},
	}
}

func TestScoreRowsReferenceScenario(t *testing.T) {
	// log-variance chosen so sigma equals the reference sigma exactly.
	artifact := passthroughArtifact(2 * math.Log(6.7))
	rows := []store.FeatureRow{featureRow("g1", 1, 22.0)}

	out, err := ScoreRows(artifact, rows, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, out, 1)

	p := out[0]
	assert.InDelta(t, 22.0, p.MuPts, 1e-9)
	assert.InDelta(t, 6.7, p.SigmaPts, 1e-9)
	assert.InDelta(t, 0.6455, p.P20, 0.0005)

	// At the reference sigma the confidence weight is 1.
	assert.InDelta(t, 100.0*p.P20, p.Conf20, 1e-9)
	assert.InDelta(t, 64.55, p.Conf20, 0.05)

	assert.Equal(t, "test_passthrough", p.ModelVersion)
	assert.Equal(t, rows[0].AsOfDate, p.AsOfDate)
	assert.Equal(t, "g1", p.GameID)
	assert.Equal(t, int64(1), p.PlayerID)
}

func TestScoreRowsThresholdOrdering(t *testing.T) {
	artifact := passthroughArtifact(2 * math.Log(6.7))
	out, err := ScoreRows(artifact, []store.FeatureRow{featureRow("g1", 1, 24.0)}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, out, 1)

	p := out[0]
	assert.Greater(t, p.P15, p.P20)
	assert.Greater(t, p.P20, p.P25)
	assert.Greater(t, p.P25, p.P30)
}

func TestScoreRowsSigmaClampedHigh(t *testing.T) {
	// exp(10/2) ≈ 148, far above the cap.
	artifact := passthroughArtifact(10.0)
	out, err := ScoreRows(artifact, []store.FeatureRow{featureRow("g1", 1, 20.0)}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.InDelta(t, 25.0, out[0].SigmaPts, 1e-9)
}

func TestScoreRowsSigmaClampedLow(t *testing.T) {
	// exp(-10/2) ≈ 0.0067, below the floor.
	artifact := passthroughArtifact(-10.0)
	out, err := ScoreRows(artifact, []store.FeatureRow{featureRow("g1", 1, 20.0)}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.InDelta(t, 1.0, out[0].SigmaPts, 1e-9)
}

func TestScoreRowsConfidenceWeighting(t *testing.T) {
	// sigma = 13.4, twice the reference: confidence is half the raw percent.
	artifact := passthroughArtifact(2 * math.Log(13.4))
	out, err := ScoreRows(artifact, []store.FeatureRow{featureRow("g1", 1, 22.0)}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, out, 1)

	p := out[0]
	assert.InDelta(t, 100.0*p.P20*0.5, p.Conf20, 1e-9)
	assert.InDelta(t, 100.0*p.P25*0.5, p.Conf25, 1e-9)
	assert.InDelta(t, 100.0*p.P30*0.5, p.Conf30, 1e-9)
}

func TestScoreRowsMissingFeatureFailsBatch(t *testing.T) {
	artifact := passthroughArtifact(2 * math.Log(6.7))
	artifact.FeatureNames = []string{"rest_days"}
	artifact.Scaler = &model.Scaler{Mean: []float64{0}, Scale: []float64{1}}

	rows := []store.FeatureRow{featureRow("g1", 7, 22.0)} // rest_days left null

	out, err := ScoreRows(artifact, rows, DefaultConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingFeature)
	assert.Nil(t, out)
}

func TestScoreRowsUnknownFeatureName(t *testing.T) {
	artifact := passthroughArtifact(0)
	artifact.FeatureNames = []string{"three_point_rate"}

	_, err := ScoreRows(artifact, []store.FeatureRow{featureRow("g1", 1, 22.0)}, DefaultConfig())
	assert.ErrorIs(t, err, ErrMissingFeature)
}

func TestScoreRowsStandardization(t *testing.T) {
	artifact := passthroughArtifact(2 * math.Log(6.7))
	artifact.Scaler = &model.Scaler{Mean: []float64{20}, Scale: []float64{4}}

	out, err := ScoreRows(artifact, []store.FeatureRow{featureRow("g1", 1, 28.0)}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, out, 1)

	// (28 - 20) / 4 = 2 flows through the identity mean head.
	assert.InDelta(t, 2.0, out[0].MuPts, 1e-9)
}

func TestScoreRowsEmptyInput(t *testing.T) {
	artifact := passthroughArtifact(0)
	out, err := ScoreRows(artifact, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, out)
}
