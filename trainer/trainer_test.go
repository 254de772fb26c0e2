package trainer

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/meshpred/regressor/dataset"
	"github.com/meshpred/regressor/net/mlp"
)

// synthDataset builds a preprocessed dataset in memory: one standardized
// process parameter, one position attribute and one smooth target.
func synthDataset(n int) *dataset.Dataset {
	ds := &dataset.Dataset{
		Preprocessor: dataset.Preprocessor{
			Schema: dataset.Schema{
				Index:             "doe_id",
				ProcessParameters: []string{"p"},
				Position:          []string{"x"},
				Output:            []string{"y"},
				PositionScaler:    dataset.ScalerNormal,
			},
			Stats: map[string]dataset.ColumnStats{
				"p": {Mean: 0, Std: 1, Min: -1, Max: 1},
				"x": {Mean: 0.5, Std: 0.3, Min: 0, Max: 1},
				"y": {Mean: 0.5, Std: 0.2, Min: 0, Max: 1},
			},
			Encoder: dataset.Encoder{},
		},
		X:      mat.NewDense(n, 2, nil),
		Y:      mat.NewDense(n, 1, nil),
		DoeIDs: make([]int, n),
	}
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		p := math.Mod(float64(i), 4)/2 - 1
		ds.X.Set(i, 0, p)
		ds.X.Set(i, 1, (x-0.5)/0.3)
		ds.Y.Set(i, 0, 0.5+0.3*math.Sin(4*x)+0.1*p)
		ds.DoeIDs[i] = i/10 + 1
	}
	return ds
}

func synthSplit(ds *dataset.Dataset) dataset.Split {
	var s dataset.Split
	for i := 0; i < ds.Len(); i++ {
		if i%5 == 4 {
			s.Val = append(s.Val, i)
		} else {
			s.Train = append(s.Train, i)
		}
	}
	return s
}

func newNet(t *testing.T, ds *dataset.Dataset, seed int64) *mlp.Network {
	t.Helper()
	net, err := mlp.New(mlp.Config{
		Inputs:  ds.FeatureDim(),
		Outputs: ds.OutputDim(),
		Layers:  2,
		Neurons: 16,
	}, seed)
	if err != nil {
		t.Fatal(err)
	}
	return net
}

func TestFitLearns(t *testing.T) {
	ds := synthDataset(100)
	split := synthSplit(ds)
	net := newNet(t, ds, 1)

	valX, valY := ds.Batch(split.Val)
	before, _ := Evaluate(net, valX, valY)

	res, err := Fit(context.Background(), net, ds, split, Config{Epochs: 200, Seed: 1}, nil, nil)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if res.Epochs != 200 {
		t.Errorf("Epochs = %d, want 200", res.Epochs)
	}
	if len(res.ValLoss) != res.Epochs {
		t.Errorf("len(ValLoss) = %d, want %d", len(res.ValLoss), res.Epochs)
	}
	if res.FinalValLoss >= before/2 {
		t.Errorf("validation loss only fell from %v to %v", before, res.FinalValLoss)
	}
	if res.FinalValMAE <= 0 {
		t.Errorf("FinalValMAE = %v, want positive", res.FinalValMAE)
	}
}

func TestFitKeepsBestEpoch(t *testing.T) {
	ds := synthDataset(60)
	split := synthSplit(ds)
	net := newNet(t, ds, 3)

	res, err := Fit(context.Background(), net, ds, split, Config{Epochs: 40, Seed: 3}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	valX, valY := ds.Batch(split.Val)
	got, _ := Evaluate(net, valX, valY)
	want := res.ValLoss[res.BestEpoch]
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("restored loss = %v, best epoch loss = %v", got, want)
	}
	for _, v := range res.ValLoss {
		if v < want {
			t.Errorf("epoch loss %v beats recorded best %v", v, want)
		}
	}
}

func TestFitDeterministic(t *testing.T) {
	ds := synthDataset(60)
	split := synthSplit(ds)
	cfg := Config{Epochs: 10, Seed: 42}

	a := newNet(t, ds, 42)
	resA, err := Fit(context.Background(), a, ds, split, cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	b := newNet(t, ds, 42)
	resB, err := Fit(context.Background(), b, ds, split, cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resA.FinalValLoss != resB.FinalValLoss {
		t.Errorf("same seed gave losses %v and %v", resA.FinalValLoss, resB.FinalValLoss)
	}
	pa, pb := a.ParamTensors(), b.ParamTensors()
	for i := range pa {
		for j := range pa[i] {
			if pa[i][j] != pb[i][j] {
				t.Fatalf("same seed gave different parameters at tensor %d index %d", i, j)
			}
		}
	}
}

func TestFitEarlyStopping(t *testing.T) {
	ds := synthDataset(60)
	split := synthSplit(ds)
	net := newNet(t, ds, 5)

	res, err := Fit(context.Background(), net, ds, split, Config{Epochs: 500, Patience: 5, Seed: 5}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Epochs == 500 {
		t.Error("patience never triggered over 500 epochs")
	}
	if res.Epochs < res.BestEpoch+1 {
		t.Errorf("Epochs = %d before BestEpoch = %d", res.Epochs, res.BestEpoch)
	}
}

func TestFitObserverStops(t *testing.T) {
	ds := synthDataset(60)
	split := synthSplit(ds)
	net := newNet(t, ds, 7)

	var calls int
	obs := func(epoch int, valLoss float64) bool {
		calls++
		return epoch >= 2
	}
	res, err := Fit(context.Background(), net, ds, split, Config{Epochs: 100, Seed: 7}, obs, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Pruned {
		t.Error("Pruned = false, want true")
	}
	if res.Epochs != 3 || calls != 3 {
		t.Errorf("Epochs = %d, observer calls = %d, want 3 and 3", res.Epochs, calls)
	}
}

func TestFitCancelled(t *testing.T) {
	ds := synthDataset(60)
	split := synthSplit(ds)
	net := newNet(t, ds, 9)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Fit(ctx, net, ds, split, Config{Epochs: 100, Seed: 9}, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if res == nil || res.Epochs != 0 {
		t.Errorf("result = %+v, want zero epochs", res)
	}
}

func TestFitCancelledMidRun(t *testing.T) {
	ds := synthDataset(60)
	split := synthSplit(ds)
	net := newNet(t, ds, 11)

	ctx, cancel := context.WithCancel(context.Background())
	obs := func(epoch int, valLoss float64) bool {
		if epoch == 1 {
			cancel()
		}
		return false
	}
	res, err := Fit(ctx, net, ds, split, Config{Epochs: 100, Seed: 11}, obs, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if res.Epochs != 2 {
		t.Errorf("Epochs = %d, want 2 before the cancellation took effect", res.Epochs)
	}
}

func TestBatchCount(t *testing.T) {
	tests := []struct {
		rows, batch, want int
	}{
		{60, 32, 2},
		{64, 32, 2},
		{65, 32, 3},
		{1, 32, 1},
		{32, 32, 1},
	}
	for _, tt := range tests {
		if got := batchCount(tt.rows, tt.batch); got != tt.want {
			t.Errorf("batchCount(%d, %d) = %d, want %d", tt.rows, tt.batch, got, tt.want)
		}
	}
}

func TestFitEmptySplits(t *testing.T) {
	ds := synthDataset(20)
	net := newNet(t, ds, 1)

	_, err := Fit(context.Background(), net, ds, dataset.Split{Val: []int{0}}, Config{}, nil, nil)
	if !errors.Is(err, ErrNoTrainingRows) {
		t.Errorf("error = %v, want ErrNoTrainingRows", err)
	}
	_, err = Fit(context.Background(), net, ds, dataset.Split{Train: []int{0}}, Config{}, nil, nil)
	if err == nil {
		t.Error("expected error for empty validation split")
	}
}

func TestEvaluate(t *testing.T) {
	ds := synthDataset(20)
	net := newNet(t, ds, 1)
	mse, mae := Evaluate(net, ds.X, ds.Y)
	if mse < 0 || mae < 0 {
		t.Errorf("Evaluate = (%v, %v), want non-negative", mse, mae)
	}
	if mae*mae > mse+1e-12 {
		t.Errorf("MAE^2 = %v exceeds MSE = %v", mae*mae, mse)
	}
}
