package mlp

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func testConfig() Config {
	return Config{Inputs: 3, Outputs: 2, Layers: 2, Neurons: 8}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero inputs", func(c *Config) { c.Inputs = 0 }, true},
		{"zero outputs", func(c *Config) { c.Outputs = 0 }, true},
		{"zero layers", func(c *Config) { c.Layers = 0 }, true},
		{"zero neurons", func(c *Config) { c.Neurons = 0 }, true},
		{"negative dropout", func(c *Config) { c.Dropout = -0.1 }, true},
		{"full dropout", func(c *Config) { c.Dropout = 1 }, true},
		{"half dropout", func(c *Config) { c.Dropout = 0.5 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewDeterministic(t *testing.T) {
	a, err := New(testConfig(), 11)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(testConfig(), 11)
	if err != nil {
		t.Fatal(err)
	}
	pa, pb := a.ParamTensors(), b.ParamTensors()
	for i := range pa {
		for j := range pa[i] {
			if pa[i][j] != pb[i][j] {
				t.Fatalf("same seed gave different weights at tensor %d index %d", i, j)
			}
		}
	}
}

func TestPredictShapes(t *testing.T) {
	n, err := New(testConfig(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if n.NumLayers() != 3 {
		t.Errorf("NumLayers() = %d, want 3", n.NumLayers())
	}
	// 3*8+8 + 8*8+8 + 8*2+2 parameters.
	if got := n.ParamCount(); got != 122 {
		t.Errorf("ParamCount() = %d, want 122", got)
	}
	x := mat.NewDense(5, 3, nil)
	out := n.Predict(x)
	rows, cols := out.Dims()
	if rows != 5 || cols != 2 {
		t.Errorf("Predict dims = (%d, %d), want (5, 2)", rows, cols)
	}
}

func TestCloneAndSetParams(t *testing.T) {
	n, err := New(testConfig(), 3)
	if err != nil {
		t.Fatal(err)
	}
	saved := n.CloneParams()
	for _, tensor := range n.ParamTensors() {
		for i := range tensor {
			tensor[i] += 1
		}
	}
	if err := n.SetParams(saved); err != nil {
		t.Fatalf("SetParams: %v", err)
	}
	for i, tensor := range n.ParamTensors() {
		for j := range tensor {
			if tensor[j] != saved[i][j] {
				t.Fatalf("tensor %d index %d = %v, want %v", i, j, tensor[j], saved[i][j])
			}
		}
	}
}

func TestSetParamsMismatch(t *testing.T) {
	n, err := New(testConfig(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := n.SetParams([][]float64{{1}}); err == nil {
		t.Fatal("expected error for tensor count mismatch")
	}
	bad := n.CloneParams()
	bad[0] = bad[0][:1]
	if err := n.SetParams(bad); err == nil {
		t.Fatal("expected error for tensor length mismatch")
	}
}

func TestPredictDeterministicWithDropoutOff(t *testing.T) {
	cfg := testConfig()
	cfg.Dropout = 0.5
	n, err := New(cfg, 1)
	if err != nil {
		t.Fatal(err)
	}
	x := mat.NewDense(2, 3, []float64{1, -1, 0.5, 0, 2, -0.5})
	a := n.Predict(x)
	b := n.Predict(x)
	if !mat.EqualApprox(a, b, 0) {
		t.Error("Predict is not deterministic; dropout must be inference-disabled")
	}
}

func TestReluNonNegativeHidden(t *testing.T) {
	z := mat.NewDense(1, 4, []float64{-2, -0.1, 0, 3})
	relu(z)
	want := []float64{0, 0, 0, 3}
	for i, v := range z.RawMatrix().Data {
		if v != want[i] {
			t.Errorf("relu[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
