package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact bundles the three co-versioned resources the training
// collaborator publishes: the fitted network, the input standardizer, and
// the ordered feature-name manifest. It is loaded once per run and passed by
// reference; nothing mutates it after Load returns.
type Artifact struct {
	Version      string
	FeatureNames []string
	Scaler       *Scaler
	Network      *Network
}

// Load reads the artifact files for a version from dir:
// <version>.model.json, <version>.scaler.json and <version>.features.json.
// Any missing file or internal dimension mismatch is a hard error; scoring
// must abort before any write rather than run against a partial artifact.
func Load(dir, version string) (*Artifact, error) {
	artifact := &Artifact{Version: version}

	if err := readJSON(filepath.Join(dir, version+".features.json"), &artifact.FeatureNames); err != nil {
		return nil, fmt.Errorf("load feature manifest: %w", err)
	}
	if len(artifact.FeatureNames) == 0 {
		return nil, fmt.Errorf("feature manifest for %s is empty", version)
	}

	artifact.Scaler = &Scaler{}
	if err := readJSON(filepath.Join(dir, version+".scaler.json"), artifact.Scaler); err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}
	if err := artifact.Scaler.validate(); err != nil {
		return nil, fmt.Errorf("scaler for %s: %w", version, err)
	}

	artifact.Network = &Network{}
	if err := readJSON(filepath.Join(dir, version+".model.json"), artifact.Network); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if err := artifact.Network.validate(); err != nil {
		return nil, fmt.Errorf("model for %s: %w", version, err)
	}

	// The three resources must agree on the feature dimension.
	d := len(artifact.FeatureNames)
	if artifact.Scaler.Dim() != d {
		return nil, fmt.Errorf("scaler dimension %d does not match %d declared features", artifact.Scaler.Dim(), d)
	}
	if artifact.Network.InputDim() != d {
		return nil, fmt.Errorf("model input dimension %d does not match %d declared features", artifact.Network.InputDim(), d)
	}

	return artifact, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}
