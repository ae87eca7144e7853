package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifactFile(t *testing.T, dir, name string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

// writeValidArtifact lays down a consistent 2-feature artifact with one
// hidden layer and returns its directory.
func writeValidArtifact(t *testing.T, version string) string {
	t.Helper()
	dir := t.TempDir()

	writeArtifactFile(t, dir, version+".features.json", []string{"rolling_pts_10", "rest_days"})
	writeArtifactFile(t, dir, version+".scaler.json", map[string][]float64{
		"mean":  {20.0, 1.5},
		"scale": {5.0, 0.8},
	})
	writeArtifactFile(t, dir, version+".model.json", map[string]interface{}{
		"hidden": []map[string]interface{}{
			{
				"weights":    [][]float64{{0.5, -0.2}, {0.1, 0.3}, {-0.4, 0.7}},
				"bias":       []float64{0.1, -0.1, 0.0},
				"activation": "relu",
			},
		},
		"mu": map[string]interface{}{
			"weights":    [][]float64{{1.0, 0.5, -0.5}},
			"bias":       []float64{0.2},
			"activation": "linear",
		},
		"log_var": map[string]interface{}{
			"weights":    [][]float64{{0.0, 0.0, 0.0}},
			"bias":       []float64{3.0},
			"activation": "linear",
		},
	})

	return dir
}

func TestLoadValidArtifact(t *testing.T) {
	dir := writeValidArtifact(t, "v1_test")

	artifact, err := Load(dir, "v1_test")
	require.NoError(t, err)

	assert.Equal(t, "v1_test", artifact.Version)
	assert.Equal(t, []string{"rolling_pts_10", "rest_days"}, artifact.FeatureNames)
	assert.Equal(t, 2, artifact.Scaler.Dim())
	assert.Equal(t, 2, artifact.Network.InputDim())

	// The loaded network must run end to end.
	// relu([0.8, -0.3, -1.1]) = [0.8, 0, 0], mu = 0.8 + 0.2.
	mu, logVar, err := artifact.Network.Predict([]float64{1.0, -1.0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mu, 1e-9)
	assert.InDelta(t, 3.0, logVar, 1e-9)
}

func TestLoadMissingFile(t *testing.T) {
	dir := writeValidArtifact(t, "v1_test")
	require.NoError(t, os.Remove(filepath.Join(dir, "v1_test.scaler.json")))

	_, err := Load(dir, "v1_test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scaler")
}

func TestLoadWrongVersion(t *testing.T) {
	dir := writeValidArtifact(t, "v1_test")

	_, err := Load(dir, "v2_missing")
	assert.Error(t, err)
}

func TestLoadScalerDimensionMismatch(t *testing.T) {
	dir := writeValidArtifact(t, "v1_test")
	writeArtifactFile(t, dir, "v1_test.scaler.json", map[string][]float64{
		"mean":  {20.0, 1.5, 0.0},
		"scale": {5.0, 0.8, 1.0},
	})

	_, err := Load(dir, "v1_test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestLoadZeroScaleRejected(t *testing.T) {
	dir := writeValidArtifact(t, "v1_test")
	writeArtifactFile(t, dir, "v1_test.scaler.json", map[string][]float64{
		"mean":  {20.0, 1.5},
		"scale": {5.0, 0.0},
	})

	_, err := Load(dir, "v1_test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero scale")
}

func TestLoadEmptyFeatureManifest(t *testing.T) {
	dir := writeValidArtifact(t, "v1_test")
	writeArtifactFile(t, dir, "v1_test.features.json", []string{})

	_, err := Load(dir, "v1_test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestLoadMalformedJSON(t *testing.T) {
	dir := writeValidArtifact(t, "v1_test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v1_test.model.json"), []byte("{not json"), 0o644))

	_, err := Load(dir, "v1_test")
	assert.Error(t, err)
}

func TestScalerTransform(t *testing.T) {
	s := &Scaler{Mean: []float64{10, 20}, Scale: []float64{2, 4}}

	out, err := s.Transform([]float64{14, 12})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out[0], 1e-9)
	assert.InDelta(t, -2.0, out[1], 1e-9)
}

func TestScalerTransformWrongLength(t *testing.T) {
	s := &Scaler{Mean: []float64{10, 20}, Scale: []float64{2, 4}}

	_, err := s.Transform([]float64{1})
	assert.Error(t, err)
}

func TestNetworkForwardRelu(t *testing.T) {
	n := &Network{
		Hidden: []Layer{{
			Weights:    [][]float64{{1}, {-1}},
			Bias:       []float64{0, 0},
			Activation: "relu",
		}},
		MuHead:     Layer{Weights: [][]float64{{1, 1}}, Bias: []float64{0}},
		LogVarHead: Layer{Weights: [][]float64{{0, 0}}, Bias: []float64{1.5}},
	}

	// Input 2: hidden = relu([2, -2]) = [2, 0], mu = 2.
	mu, logVar, err := n.Predict([]float64{2})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, mu, 1e-9)
	assert.InDelta(t, 1.5, logVar, 1e-9)

	// Input -2: hidden = relu([-2, 2]) = [0, 2], mu = 2 again.
	mu, _, err = n.Predict([]float64{-2})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, mu, 1e-9)
}

func TestNetworkPredictWrongInputLength(t *testing.T) {
	n := &Network{
		MuHead:     Layer{Weights: [][]float64{{1, 1}}, Bias: []float64{0}},
		LogVarHead: Layer{Weights: [][]float64{{0, 0}}, Bias: []float64{0}},
	}

	_, _, err := n.Predict([]float64{1})
	assert.Error(t, err)
}

func TestLoadRejectsMultiOutputHead(t *testing.T) {
	dir := writeValidArtifact(t, "v1_test")
	writeArtifactFile(t, dir, "v1_test.model.json", map[string]interface{}{
		"hidden": []map[string]interface{}{},
		"mu": map[string]interface{}{
			"weights": [][]float64{{1, 0}, {0, 1}},
			"bias":    []float64{0, 0},
		},
		"log_var": map[string]interface{}{
			"weights": [][]float64{{0, 0}},
			"bias":    []float64{0},
		},
	})

	_, err := Load(dir, "v1_test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 1 output")
}
