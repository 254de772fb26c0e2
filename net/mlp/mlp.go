// Package mlp implements the feed-forward regression network: dense
// layers with ReLU hidden activations, a linear output layer and
// inverted dropout. The backward pass computes mean-squared-error
// gradients for exactly this architecture.
package mlp

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Config fixes the network architecture.
type Config struct {
	Inputs  int     `json:"inputs"`
	Outputs int     `json:"outputs"`
	Layers  int     `json:"layers"`  // hidden layer count
	Neurons int     `json:"neurons"` // per hidden layer
	Dropout float64 `json:"dropout"`
}

// Validate checks the architecture for usable shapes.
func (c Config) Validate() error {
	if c.Inputs <= 0 || c.Outputs <= 0 {
		return fmt.Errorf("mlp: inputs=%d outputs=%d must be positive", c.Inputs, c.Outputs)
	}
	if c.Layers <= 0 || c.Neurons <= 0 {
		return fmt.Errorf("mlp: layers=%d neurons=%d must be positive", c.Layers, c.Neurons)
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return fmt.Errorf("mlp: dropout=%v outside [0, 1)", c.Dropout)
	}
	return nil
}

// Network is a fully connected feed-forward regression network.
type Network struct {
	cfg     Config
	weights []*mat.Dense // layer l: fanIn x fanOut
	biases  []*mat.Dense // layer l: 1 x fanOut
}

// New creates a network with He-initialized weights and zero biases.
// The same seed always produces the same initial weights.
func New(cfg Config, seed int64) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))

	dims := layerDims(cfg)
	n := &Network{cfg: cfg}
	for l := 0; l+1 < len(dims); l++ {
		fanIn, fanOut := dims[l], dims[l+1]
		w := mat.NewDense(fanIn, fanOut, nil)
		scale := math.Sqrt(2.0 / float64(fanIn))
		for i := 0; i < fanIn; i++ {
			for j := 0; j < fanOut; j++ {
				w.Set(i, j, rng.NormFloat64()*scale)
			}
		}
		n.weights = append(n.weights, w)
		n.biases = append(n.biases, mat.NewDense(1, fanOut, nil))
	}
	return n, nil
}

func layerDims(cfg Config) []int {
	dims := make([]int, 0, cfg.Layers+2)
	dims = append(dims, cfg.Inputs)
	for l := 0; l < cfg.Layers; l++ {
		dims = append(dims, cfg.Neurons)
	}
	return append(dims, cfg.Outputs)
}

// Config returns the architecture.
func (n *Network) Config() Config { return n.cfg }

// NumLayers returns the number of weight layers (hidden + output).
func (n *Network) NumLayers() int { return len(n.weights) }

// ParamCount returns the total number of trainable parameters.
func (n *Network) ParamCount() int {
	count := 0
	for l := range n.weights {
		r, c := n.weights[l].Dims()
		count += r*c + c
	}
	return count
}

// ParamTensors returns the raw backing slices of all weights and
// biases, in a fixed order matching Gradients.Tensors. Mutating the
// slices mutates the network.
func (n *Network) ParamTensors() [][]float64 {
	tensors := make([][]float64, 0, 2*len(n.weights))
	for l := range n.weights {
		tensors = append(tensors, n.weights[l].RawMatrix().Data)
		tensors = append(tensors, n.biases[l].RawMatrix().Data)
	}
	return tensors
}

// CloneParams returns a deep copy of all parameter tensors.
func (n *Network) CloneParams() [][]float64 {
	src := n.ParamTensors()
	dst := make([][]float64, len(src))
	for i := range src {
		dst[i] = append([]float64(nil), src[i]...)
	}
	return dst
}

// SetParams copies previously cloned parameter tensors back in.
func (n *Network) SetParams(params [][]float64) error {
	dst := n.ParamTensors()
	if len(params) != len(dst) {
		return errors.New("mlp: parameter tensor count mismatch")
	}
	for i := range dst {
		if len(params[i]) != len(dst[i]) {
			return fmt.Errorf("mlp: tensor %d has %d values, want %d", i, len(params[i]), len(dst[i]))
		}
		copy(dst[i], params[i])
	}
	return nil
}

// Predict runs the forward pass without dropout. x is batch x inputs,
// the result is batch x outputs.
func (n *Network) Predict(x *mat.Dense) *mat.Dense {
	out, _ := n.forward(x, nil)
	return out
}

// forward runs the pass, keeping per-layer activations when acts is
// non-nil (training mode). Dropout masks are stored alongside.
func (n *Network) forward(x *mat.Dense, tr *trace) (*mat.Dense, *trace) {
	a := x
	for l := range n.weights {
		rows, _ := a.Dims()
		_, fanOut := n.weights[l].Dims()
		z := mat.NewDense(rows, fanOut, nil)
		z.Mul(a, n.weights[l])
		addRowVector(z, n.biases[l])

		last := l == len(n.weights)-1
		if !last {
			relu(z)
			if tr != nil && n.cfg.Dropout > 0 {
				tr.masks[l] = dropout(z, n.cfg.Dropout, tr.rng)
			}
		}
		if tr != nil {
			tr.acts[l] = a
		}
		a = z
	}
	return a, tr
}

// trace keeps forward-pass intermediates for the backward pass.
type trace struct {
	acts  []*mat.Dense // input of each layer
	masks []*mat.Dense // dropout masks (nil when unused)
	rng   *rand.Rand
}

func addRowVector(z *mat.Dense, b *mat.Dense) {
	rows, cols := z.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			z.Set(i, j, z.At(i, j)+b.At(0, j))
		}
	}
}

func relu(z *mat.Dense) {
	raw := z.RawMatrix().Data
	for i, v := range raw {
		if v < 0 {
			raw[i] = 0
		}
	}
}

// dropout applies inverted dropout in place and returns the mask.
func dropout(z *mat.Dense, rate float64, rng *rand.Rand) *mat.Dense {
	rows, cols := z.Dims()
	mask := mat.NewDense(rows, cols, nil)
	keep := 1 - rate
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if rng.Float64() < keep {
				mask.Set(i, j, 1/keep)
			}
		}
	}
	z.MulElem(z, mask)
	return mask
}
