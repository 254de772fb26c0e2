package trainer

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/meshpred/regressor/dataset"
	"github.com/meshpred/regressor/net/mlp"
)

// ErrNoTrainingRows is returned when the split leaves nothing to train on.
var ErrNoTrainingRows = errors.New("trainer: empty training split")

// Config configures one training run.
// Zero values are replaced with sensible defaults.
type Config struct {
	Epochs       int     `json:"epochs"`        // default 50
	BatchSize    int     `json:"batch_size"`    // default 32
	LearningRate float64 `json:"learning_rate"` // default 1e-3
	Patience     int     `json:"patience"`      // early stopping, 0 disables
	Seed         int64   `json:"seed"`
}

func (c Config) withDefaults() Config {
	if c.Epochs == 0 {
		c.Epochs = 50
	}
	if c.BatchSize == 0 {
		c.BatchSize = 32
	}
	if c.LearningRate == 0 {
		c.LearningRate = 1e-3
	}
	return c
}

// Observer receives the validation loss after every epoch. Returning
// true stops the run early (used by the study pruner).
type Observer func(epoch int, valLoss float64) bool

// Result describes a finished (or stopped) training run.
type Result struct {
	Epochs       int       `json:"epochs"`
	BestEpoch    int       `json:"best_epoch"`
	TrainLoss    []float64 `json:"train_loss"`
	ValLoss      []float64 `json:"val_loss"`
	FinalValLoss float64   `json:"final_val_loss"`
	FinalValMAE  float64   `json:"final_val_mae"`
	Pruned       bool      `json:"pruned"`
}

// Fit trains the network on the train rows of the split with
// mini-batch gradient descent (Adam, cosine annealing) and scores it
// on the validation rows after every epoch. The parameters of the best
// validation epoch are restored before returning, so a longer run can
// never leave the network worse than its best epoch.
//
// Training is deterministic for a fixed seed. The context is honored
// between batches; on cancellation the best parameters so far are kept
// and the context error is returned alongside the partial result.
func Fit(ctx context.Context, net *mlp.Network, ds *dataset.Dataset, split dataset.Split, cfg Config, obs Observer, log *zap.Logger) (*Result, error) {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	if len(split.Train) == 0 {
		return nil, ErrNoTrainingRows
	}
	if len(split.Val) == 0 {
		return nil, errors.New("trainer: empty validation split")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	valX, valY := ds.Batch(split.Val)

	adam := NewAdam(cfg.LearningRate)
	ca := NewCosineAnnealing(cfg.LearningRate, batchCount(len(split.Train), cfg.BatchSize)*cfg.Epochs)

	params := net.ParamTensors()
	best := net.CloneParams()
	bestLoss := math.Inf(1)
	res := &Result{}
	sinceBest := 0

	order := make([]int, len(split.Train))
	copy(order, split.Train)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			restore(net, best)
			return res, err
		}

		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var epochLoss float64
		var batches int
		for at := 0; at < len(order); at += cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				restore(net, best)
				return res, err
			}
			end := at + cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}
			bx, by := ds.Batch(order[at:end])
			loss, grads := net.TrainStep(bx, by, rng)
			adam.SetLR(ca.LR())
			adam.Update(params, grads)
			ca.Step()
			epochLoss += loss
			batches++
		}

		valLoss, _ := Evaluate(net, valX, valY)
		res.Epochs = epoch + 1
		res.TrainLoss = append(res.TrainLoss, epochLoss/float64(batches))
		res.ValLoss = append(res.ValLoss, valLoss)

		if valLoss < bestLoss {
			bestLoss = valLoss
			best = net.CloneParams()
			res.BestEpoch = epoch
			sinceBest = 0
		} else {
			sinceBest++
		}

		log.Debug("epoch finished",
			zap.Int("epoch", epoch),
			zap.Float64("train_loss", epochLoss/float64(batches)),
			zap.Float64("val_loss", valLoss))

		if obs != nil && obs(epoch, valLoss) {
			res.Pruned = true
			break
		}
		if cfg.Patience > 0 && sinceBest >= cfg.Patience {
			log.Debug("early stopping", zap.Int("epoch", epoch), zap.Int("best_epoch", res.BestEpoch))
			break
		}
	}

	restore(net, best)
	res.FinalValLoss, res.FinalValMAE = Evaluate(net, valX, valY)
	return res, nil
}

// batchCount returns the number of mini-batches per epoch, so the
// cosine schedule reaches its floor on the last step of the last epoch.
func batchCount(rows, batch int) int {
	return (rows + batch - 1) / batch
}

func restore(net *mlp.Network, params [][]float64) {
	// SetParams only fails on shape mismatch, which cannot happen for
	// a clone of the same network.
	_ = net.SetParams(params)
}
