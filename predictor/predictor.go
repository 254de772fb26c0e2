// Package predictor provides the two user-facing regressors: 1D cuts
// and 2D projections of FEM simulation outputs, predicted from process
// parameters. Both wrap the same pipeline of dataset loading, network
// training, hyperparameter search and artifact persistence.
package predictor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/meshpred/regressor/dataset"
	"github.com/meshpred/regressor/net/mlp"
	"github.com/meshpred/regressor/study"
	"github.com/meshpred/regressor/trainer"
)

var (
	// ErrNoData is returned when a predictor is used before LoadData.
	ErrNoData = errors.New("predictor: no data loaded")

	// ErrNotTrained is returned when predictions are requested before
	// Train, Autotune or loading an artifact.
	ErrNotTrained = errors.New("predictor: no model trained")

	// ErrUnknownExperiment is returned by Compare for a doe ID that is
	// not in the dataset.
	ErrUnknownExperiment = errors.New("predictor: experiment not in dataset")
)

// LoadOptions are the dataset arguments shared by both predictors.
type LoadOptions struct {
	DOE  string // design-of-experiments CSV
	Data string // experiment CSV

	Index             string // join column, default "doe_id"
	ProcessParameters []string
	Categorical       []string
	Output            []string
	ExcludeIDs        []int

	ValidationSplit  float64             // default 0.1
	ValidationMethod dataset.SplitMethod // default random
	PositionScaler   dataset.PositionScaler
	Seed             int64
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.Index == "" {
		o.Index = "doe_id"
	}
	if o.ValidationSplit == 0 {
		o.ValidationSplit = 0.1
	}
	if o.ValidationMethod == "" {
		o.ValidationMethod = dataset.SplitRandom
	}
	return o
}

// Predictor holds the state shared by CutPredictor and
// ProjectionPredictor.
type Predictor struct {
	kind string

	pre   *dataset.Preprocessor
	ds    *dataset.Dataset
	split dataset.Split

	net    *mlp.Network
	params study.TrialParams
	batch  int
	seed   int64
	log    *zap.Logger
}

func newPredictor(kind string, log *zap.Logger) Predictor {
	if log == nil {
		log = zap.NewNop()
	}
	return Predictor{kind: kind, batch: 32, log: log}
}

// Preprocessor exposes the fitted scaling so callers (the HTTP
// explorer) can present parameter ranges. Nil before data or an
// artifact is loaded.
func (p *Predictor) Preprocessor() *dataset.Preprocessor { return p.pre }

// Hyperparameters returns the configuration of the current network.
func (p *Predictor) Hyperparameters() study.TrialParams { return p.params }

func (p *Predictor) loadData(opts LoadOptions, position []string, angle bool) error {
	opts = opts.withDefaults()
	schema := dataset.Schema{
		Index:             opts.Index,
		ProcessParameters: opts.ProcessParameters,
		Categorical:       opts.Categorical,
		Position:          position,
		Output:            opts.Output,
		PositionScaler:    opts.PositionScaler,
		Angle:             angle,
	}
	ds, err := dataset.Load(opts.DOE, opts.Data, schema, opts.ExcludeIDs)
	if err != nil {
		return err
	}
	split, err := ds.Split(opts.ValidationSplit, opts.ValidationMethod, opts.Seed)
	if err != nil {
		return err
	}
	p.ds = ds
	p.pre = &ds.Preprocessor
	p.split = split
	p.seed = opts.Seed
	p.log.Info("dataset loaded",
		zap.Int("rows", ds.Len()),
		zap.Int("features", ds.FeatureDim()),
		zap.Int("train_rows", len(split.Train)),
		zap.Int("val_rows", len(split.Val)))
	return nil
}

// TrainConfig is a single-configuration training request.
type TrainConfig struct {
	Layers  int     `json:"layers"`
	Neurons int     `json:"neurons"`
	Dropout float64 `json:"dropout"`

	trainer.Config
}

// Train fits one network with the given architecture and returns the
// training result. The fitted network replaces any previous one.
func (p *Predictor) Train(ctx context.Context, cfg TrainConfig) (*trainer.Result, error) {
	if p.ds == nil {
		return nil, ErrNoData
	}
	net, err := mlp.New(mlp.Config{
		Inputs:  p.pre.FeatureDim(),
		Outputs: p.pre.OutputDim(),
		Layers:  cfg.Layers,
		Neurons: cfg.Neurons,
		Dropout: cfg.Dropout,
	}, cfg.Seed)
	if err != nil {
		return nil, err
	}
	res, err := trainer.Fit(ctx, net, p.ds, p.split, cfg.Config, nil, p.log)
	if err != nil {
		return nil, err
	}
	p.net = net
	p.params = study.TrialParams{
		Layers:       cfg.Layers,
		Neurons:      cfg.Neurons,
		Dropout:      cfg.Dropout,
		LearningRate: cfg.Config.LearningRate,
	}
	if cfg.BatchSize > 0 {
		p.batch = cfg.BatchSize
	}
	p.log.Info("training finished",
		zap.Int("best_epoch", res.BestEpoch),
		zap.Float64("val_loss", res.FinalValLoss),
		zap.Float64("val_mae", res.FinalValMAE))
	return res, nil
}

// AutotuneOptions configures a hyperparameter search.
type AutotuneOptions struct {
	Trials    int
	MaxEpochs int
	BatchSize int
	Workers   int
	Name      string
	SavePath  string // artifact written here when non-empty
	Storage   string // SQLite study database, optional
}

// Autotune searches the space, retrains the best configuration and
// keeps it as the predictor's model. The best parameters are returned;
// when SavePath is set, the retrained model is saved there.
func (p *Predictor) Autotune(ctx context.Context, space study.Space, opts AutotuneOptions) (study.TrialParams, error) {
	if p.ds == nil {
		return study.TrialParams{}, ErrNoData
	}
	if opts.MaxEpochs == 0 {
		opts.MaxEpochs = 50
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = p.batch
	}

	var store *study.Store
	if opts.Storage != "" {
		var err error
		if store, err = study.Open(opts.Storage); err != nil {
			return study.TrialParams{}, err
		}
	}

	objective := func(ctx context.Context, number int, tp study.TrialParams, report func(int, float64) bool) (float64, error) {
		net, err := mlp.New(mlp.Config{
			Inputs:  p.pre.FeatureDim(),
			Outputs: p.pre.OutputDim(),
			Layers:  tp.Layers,
			Neurons: tp.Neurons,
			Dropout: tp.Dropout,
		}, p.seed+int64(number))
		if err != nil {
			return 0, err
		}
		res, err := trainer.Fit(ctx, net, p.ds, p.split, trainer.Config{
			Epochs:       opts.MaxEpochs,
			BatchSize:    opts.BatchSize,
			LearningRate: tp.LearningRate,
			Seed:         p.seed + int64(number),
		}, trainer.Observer(report), nil)
		if err != nil {
			return 0, err
		}
		return res.FinalValLoss, nil
	}

	res, err := study.Run(ctx, objective, space, study.Options{
		Name:    opts.Name,
		Trials:  opts.Trials,
		Workers: opts.Workers,
		Seed:    p.seed,
		Pruner:  study.NewMedianPruner(5),
		Store:   store,
		Logger:  p.log,
	})
	if err != nil {
		return study.TrialParams{}, err
	}
	p.log.Info("study finished",
		zap.Int("trials", len(res.Trials)),
		zap.Int("best_trial", res.BestNumber),
		zap.Float64("best_value", res.BestValue))

	// Retrain the winner; trials are seeded per number, so this
	// reproduces the trial's network exactly.
	if _, err := p.Train(ctx, TrainConfig{
		Layers:  res.BestParams.Layers,
		Neurons: res.BestParams.Neurons,
		Dropout: res.BestParams.Dropout,
		Config: trainer.Config{
			Epochs:       opts.MaxEpochs,
			BatchSize:    opts.BatchSize,
			LearningRate: res.BestParams.LearningRate,
			Seed:         p.seed + int64(res.BestNumber),
		},
	}); err != nil {
		return study.TrialParams{}, err
	}

	if opts.SavePath != "" {
		if err := p.Save(opts.SavePath); err != nil {
			return study.TrialParams{}, fmt.Errorf("predictor: saving best model: %w", err)
		}
	}
	return res.BestParams, nil
}

// predictAt runs the network on explicit raw positions and returns the
// de-normalized outputs.
func (p *Predictor) predictAt(params map[string]float64, positions [][]float64) (*mat.Dense, error) {
	if p.pre == nil {
		return nil, ErrNoData
	}
	if p.net == nil {
		return nil, ErrNotTrained
	}
	x, err := p.pre.Features(params, positions)
	if err != nil {
		return nil, err
	}
	y := p.net.Predict(x)
	p.pre.RescaleOutputs(y)
	return y, nil
}

// Comparison aligns ground truth and predictions for one experiment.
type Comparison struct {
	DoeID     int
	Positions [][]float64 // raw position values per row
	Truth     *mat.Dense  // de-normalized measured outputs
	Predicted *mat.Dense  // de-normalized model outputs
}

// Compare evaluates the model on all rows of one training experiment.
func (p *Predictor) Compare(doeID int) (*Comparison, error) {
	if p.ds == nil {
		return nil, ErrNoData
	}
	if p.net == nil {
		return nil, ErrNotTrained
	}
	rows := p.ds.RowsOf(doeID)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownExperiment, doeID)
	}
	x, truth := p.ds.Batch(rows)
	pred := p.net.Predict(x)
	p.pre.RescaleOutputs(truth)
	p.pre.RescaleOutputs(pred)
	return &Comparison{
		DoeID:     doeID,
		Positions: p.pre.InversePositions(x),
		Truth:     truth,
		Predicted: pred,
	}, nil
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
