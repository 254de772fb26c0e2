package trainer

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/meshpred/regressor/net/mlp"
)

// Evaluate computes MSE and MAE of the network on the given inputs and
// scaled targets, without dropout.
func Evaluate(net *mlp.Network, x, y *mat.Dense) (mse, mae float64) {
	pred := net.Predict(x)
	rows, cols := y.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d := pred.At(i, j) - y.At(i, j)
			mse += d * d
			mae += math.Abs(d)
		}
	}
	n := float64(rows * cols)
	return mse / n, mae / n
}
