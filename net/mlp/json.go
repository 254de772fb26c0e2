package mlp

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// Snapshot is the serializable form of a network: the architecture and
// every weight and bias matrix, flattened row-major.
type Snapshot struct {
	Config  Config      `json:"config"`
	Weights [][]float64 `json:"weights"`
	Biases  [][]float64 `json:"biases"`
}

// Snapshot captures the current parameters.
func (n *Network) Snapshot() Snapshot {
	s := Snapshot{Config: n.cfg}
	for l := range n.weights {
		s.Weights = append(s.Weights, append([]float64(nil), n.weights[l].RawMatrix().Data...))
		s.Biases = append(s.Biases, append([]float64(nil), n.biases[l].RawMatrix().Data...))
	}
	return s
}

// FromSnapshot rebuilds a network from a snapshot.
func FromSnapshot(s Snapshot) (*Network, error) {
	n, err := New(s.Config, 0)
	if err != nil {
		return nil, err
	}
	if len(s.Weights) != len(n.weights) || len(s.Biases) != len(n.biases) {
		return nil, fmt.Errorf("mlp: snapshot has %d weight and %d bias tensors, want %d",
			len(s.Weights), len(s.Biases), len(n.weights))
	}
	for l := range n.weights {
		if err := fill(n.weights[l].RawMatrix().Data, s.Weights[l], l); err != nil {
			return nil, err
		}
		if err := fill(n.biases[l].RawMatrix().Data, s.Biases[l], l); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func fill(dst, src []float64, layer int) error {
	if len(src) != len(dst) {
		return fmt.Errorf("mlp: layer %d tensor has %d values, want %d", layer, len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

// WriteWeights writes the snapshot as JSON.
func (n *Network) WriteWeights(w io.Writer) error {
	return json.NewEncoder(w).Encode(n.Snapshot())
}

// ReadWeights replaces the network with one decoded from JSON.
func ReadWeights(r io.Reader) (*Network, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, err
	}
	return FromSnapshot(s)
}
