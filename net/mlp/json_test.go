package mlp

import (
	"bytes"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestWriteReadWeights(t *testing.T) {
	cfg := Config{Inputs: 2, Outputs: 1, Layers: 1, Neurons: 4, Dropout: 0.1}
	n, err := New(cfg, 21)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := n.WriteWeights(&buf); err != nil {
		t.Fatalf("WriteWeights: %v", err)
	}
	restored, err := ReadWeights(&buf)
	if err != nil {
		t.Fatalf("ReadWeights: %v", err)
	}
	if restored.Config() != cfg {
		t.Errorf("Config = %+v, want %+v", restored.Config(), cfg)
	}
	x := mat.NewDense(3, 2, []float64{0, 1, -1, 0.5, 2, -2})
	if !mat.EqualApprox(n.Predict(x), restored.Predict(x), 0) {
		t.Error("decoded network predicts differently")
	}
}

func TestReadWeightsGarbage(t *testing.T) {
	if _, err := ReadWeights(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
