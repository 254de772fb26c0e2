package mlp

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func batchMSE(n *Network, x, y *mat.Dense) float64 {
	out := n.Predict(x)
	rows, cols := out.Dims()
	var loss float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d := out.At(i, j) - y.At(i, j)
			loss += d * d
		}
	}
	return loss / float64(rows*cols)
}

// TestGradientsNumerically compares the analytic gradients against
// central finite differences on a dropout-free network.
func TestGradientsNumerically(t *testing.T) {
	cfg := Config{Inputs: 2, Outputs: 2, Layers: 2, Neurons: 4}
	n, err := New(cfg, 5)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(9))
	x := mat.NewDense(6, 2, nil)
	y := mat.NewDense(6, 2, nil)
	for i := 0; i < 6; i++ {
		x.Set(i, 0, rng.NormFloat64())
		x.Set(i, 1, rng.NormFloat64())
		y.Set(i, 0, rng.Float64())
		y.Set(i, 1, rng.Float64())
	}

	_, grads := n.TrainStep(x, y, rng)

	const eps = 1e-6
	params := n.ParamTensors()
	for ti, tensor := range params {
		for pi := range tensor {
			orig := tensor[pi]
			tensor[pi] = orig + eps
			up := batchMSE(n, x, y)
			tensor[pi] = orig - eps
			down := batchMSE(n, x, y)
			tensor[pi] = orig

			numeric := (up - down) / (2 * eps)
			if math.Abs(numeric-grads[ti][pi]) > 1e-5 {
				t.Fatalf("tensor %d param %d: analytic %v, numeric %v", ti, pi, grads[ti][pi], numeric)
			}
		}
	}
}

func TestTrainStepLossMatchesMSE(t *testing.T) {
	cfg := Config{Inputs: 2, Outputs: 1, Layers: 1, Neurons: 4}
	n, err := New(cfg, 2)
	if err != nil {
		t.Fatal(err)
	}
	x := mat.NewDense(3, 2, []float64{0.5, 1, -1, 0.2, 0.3, -0.7})
	y := mat.NewDense(3, 1, []float64{0.1, 0.9, 0.4})
	loss, _ := n.TrainStep(x, y, rand.New(rand.NewSource(0)))
	if !approxEqual(loss, batchMSE(n, x, y), 1e-12) {
		t.Errorf("TrainStep loss = %v, Predict MSE = %v", loss, batchMSE(n, x, y))
	}
}

// TestGradientDescentReducesLoss takes plain SGD steps with the
// returned gradients and expects the loss to drop.
func TestGradientDescentReducesLoss(t *testing.T) {
	cfg := Config{Inputs: 1, Outputs: 1, Layers: 2, Neurons: 8}
	n, err := New(cfg, 7)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(7))
	x := mat.NewDense(16, 1, nil)
	y := mat.NewDense(16, 1, nil)
	for i := 0; i < 16; i++ {
		v := float64(i)/15 - 0.5
		x.Set(i, 0, v)
		y.Set(i, 0, 0.5+0.4*math.Sin(3*v))
	}

	first, _ := n.TrainStep(x, y, rng)
	var last float64
	for step := 0; step < 200; step++ {
		loss, grads := n.TrainStep(x, y, rng)
		last = loss
		for ti, tensor := range n.ParamTensors() {
			for pi := range tensor {
				tensor[pi] -= 0.1 * grads[ti][pi]
			}
		}
	}
	if last >= first {
		t.Errorf("loss did not decrease: first %v, last %v", first, last)
	}
	if last > first/2 {
		t.Errorf("loss only fell from %v to %v", first, last)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := Config{Inputs: 3, Outputs: 2, Layers: 2, Neurons: 6, Dropout: 0.2}
	n, err := New(cfg, 13)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := FromSnapshot(n.Snapshot())
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	x := mat.NewDense(4, 3, []float64{
		1, 0, -1,
		0.5, 0.5, 0.5,
		-2, 1, 0,
		0, 0, 0,
	})
	if !mat.EqualApprox(n.Predict(x), restored.Predict(x), 0) {
		t.Error("restored network predicts differently")
	}
}

func TestFromSnapshotMismatch(t *testing.T) {
	n, err := New(testConfig(), 1)
	if err != nil {
		t.Fatal(err)
	}
	s := n.Snapshot()
	s.Weights = s.Weights[:1]
	if _, err := FromSnapshot(s); err == nil {
		t.Fatal("expected error for missing weight tensors")
	}
	s = n.Snapshot()
	s.Biases[0] = s.Biases[0][:2]
	if _, err := FromSnapshot(s); err == nil {
		t.Fatal("expected error for short bias tensor")
	}
}
