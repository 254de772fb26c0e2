package mlp

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// TrainStep runs one forward/backward pass over a mini-batch and
// returns the batch MSE on the scaled targets together with the
// gradient tensors, ordered like ParamTensors. rng drives the dropout
// masks; pass a seeded source for reproducible training.
func (n *Network) TrainStep(x, y *mat.Dense, rng *rand.Rand) (loss float64, grads [][]float64) {
	tr := &trace{
		acts:  make([]*mat.Dense, len(n.weights)),
		masks: make([]*mat.Dense, len(n.weights)),
		rng:   rng,
	}
	out, _ := n.forward(x, tr)

	batch, cols := out.Dims()
	delta := mat.NewDense(batch, cols, nil)
	delta.Sub(out, y)
	for _, d := range delta.RawMatrix().Data {
		loss += d * d
	}
	norm := float64(batch * cols)
	loss /= norm
	delta.Scale(2/norm, delta)

	gradW := make([]*mat.Dense, len(n.weights))
	gradB := make([]*mat.Dense, len(n.weights))
	for l := len(n.weights) - 1; l >= 0; l-- {
		fanIn, fanOut := n.weights[l].Dims()

		gw := mat.NewDense(fanIn, fanOut, nil)
		gw.Mul(tr.acts[l].T(), delta)
		gradW[l] = gw

		gb := mat.NewDense(1, fanOut, nil)
		rows, _ := delta.Dims()
		for j := 0; j < fanOut; j++ {
			var sum float64
			for i := 0; i < rows; i++ {
				sum += delta.At(i, j)
			}
			gb.Set(0, j, sum)
		}
		gradB[l] = gb

		if l == 0 {
			break
		}
		// Backpropagate through layer l-1's ReLU and dropout. The
		// stored input of layer l is that layer's post-activation
		// output, so its zeros mark both dead units and dropped units.
		up := mat.NewDense(rows, fanIn, nil)
		up.Mul(delta, n.weights[l].T())
		if mask := tr.masks[l-1]; mask != nil {
			up.MulElem(up, mask)
		}
		outPrev := tr.acts[l].RawMatrix().Data
		raw := up.RawMatrix().Data
		for i := range raw {
			if outPrev[i] <= 0 {
				raw[i] = 0
			}
		}
		delta = up
	}

	grads = make([][]float64, 0, 2*len(n.weights))
	for l := range n.weights {
		grads = append(grads, gradW[l].RawMatrix().Data)
		grads = append(grads, gradB[l].RawMatrix().Data)
	}
	return loss, grads
}
