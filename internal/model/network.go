package model

import (
	"fmt"
	"math"
)

// Layer is one dense layer: out = activation(W·x + b). Weights are stored
// row-major, one row per output unit.
type Layer struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

// Network is a feed-forward regression network with two linear heads: a
// predicted mean and a predicted log-variance per input. It is stateless and
// deterministic; Predict is safe for concurrent use.
type Network struct {
	Hidden     []Layer `json:"hidden"`
	MuHead     Layer   `json:"mu"`
	LogVarHead Layer   `json:"log_var"`
}

// InputDim returns the feature dimension the network expects
func (n *Network) InputDim() int {
	if len(n.Hidden) > 0 {
		return inputDim(&n.Hidden[0])
	}
	return inputDim(&n.MuHead)
}

func inputDim(l *Layer) int {
	if len(l.Weights) == 0 {
		return 0
	}
	return len(l.Weights[0])
}

func (n *Network) validate() error {
	dim := n.InputDim()
	if dim == 0 {
		return fmt.Errorf("network has no layers")
	}

	for i := range n.Hidden {
		var err error
		dim, err = validateLayer(&n.Hidden[i], dim, fmt.Sprintf("hidden[%d]", i))
		if err != nil {
			return err
		}
	}

	for _, head := range []struct {
		name  string
		layer *Layer
	}{{"mu", &n.MuHead}, {"log_var", &n.LogVarHead}} {
		out, err := validateLayer(head.layer, dim, head.name)
		if err != nil {
			return err
		}
		if out != 1 {
			return fmt.Errorf("%s head must have exactly 1 output, got %d", head.name, out)
		}
	}

	return nil
}

func validateLayer(l *Layer, inDim int, name string) (int, error) {
	if len(l.Weights) == 0 {
		return 0, fmt.Errorf("layer %s has no weights", name)
	}
	if len(l.Bias) != len(l.Weights) {
		return 0, fmt.Errorf("layer %s: %d bias terms for %d units", name, len(l.Bias), len(l.Weights))
	}
	for i, row := range l.Weights {
		if len(row) != inDim {
			return 0, fmt.Errorf("layer %s unit %d expects %d inputs, got %d", name, i, inDim, len(row))
		}
	}
	switch l.Activation {
	case "relu", "linear", "":
	default:
		return 0, fmt.Errorf("layer %s: unsupported activation %q", name, l.Activation)
	}
	return len(l.Weights), nil
}

// Predict runs the forward pass for one standardized feature vector,
// returning the predicted mean and log-variance.
func (n *Network) Predict(x []float64) (mu, logVar float64, err error) {
	if len(x) != n.InputDim() {
		return 0, 0, fmt.Errorf("network expects %d features, got %d", n.InputDim(), len(x))
	}

	h := x
	for i := range n.Hidden {
		h = forward(&n.Hidden[i], h)
	}

	mu = forward(&n.MuHead, h)[0]
	logVar = forward(&n.LogVarHead, h)[0]

	if math.IsNaN(mu) || math.IsInf(mu, 0) || math.IsNaN(logVar) || math.IsInf(logVar, 0) {
		return 0, 0, fmt.Errorf("network produced non-finite output (mu=%v log_var=%v)", mu, logVar)
	}

	return mu, logVar, nil
}

func forward(l *Layer, in []float64) []float64 {
	out := make([]float64, len(l.Weights))
	for i, row := range l.Weights {
		sum := l.Bias[i]
		for j, w := range row {
			sum += w * in[j]
		}
		if l.Activation == "relu" && sum < 0 {
			sum = 0
		}
		out[i] = sum
	}
	return out
}
