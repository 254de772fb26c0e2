package study

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/meshpred/regressor/parallel"
)

// Objective trains one configuration and returns its validation score
// (lower is better). report receives intermediate values after every
// epoch; when it returns true the objective should stop early and
// return its current score, which is then recorded as pruned.
type Objective func(ctx context.Context, number int, p TrialParams, report func(epoch int, value float64) bool) (float64, error)

// Options configures a study run.
// Zero values are replaced with sensible defaults.
type Options struct {
	Name    string
	Trials  int // default 25
	Workers int // concurrent trials, default 1
	Seed    int64
	Pruner  *MedianPruner // nil disables pruning
	Store   *Store        // nil keeps the study in memory only
	Logger  *zap.Logger
}

// TrialResult is the in-memory outcome of one trial.
type TrialResult struct {
	Number int
	Params TrialParams
	Value  float64
	State  TrialState
	Err    string
}

// Result is the outcome of a whole study.
type Result struct {
	StudyID    string
	BestNumber int
	BestParams TrialParams
	BestValue  float64
	Trials     []TrialResult
}

// Run samples opts.Trials configurations from the space, evaluates
// each with the objective and returns the best completed trial. Trials
// run concurrently on opts.Workers goroutines; each trial samples from
// its own seeded generator, so results do not depend on scheduling.
//
// A failing trial is recorded and skipped, never aborting the study.
// Cancelling the context stops the remaining trials; the best trial
// found so far is still returned alongside the context error if at
// least one trial completed.
func Run(ctx context.Context, objective Objective, space Space, opts Options) (*Result, error) {
	if err := space.Validate(); err != nil {
		return nil, err
	}
	if opts.Trials == 0 {
		opts.Trials = 25
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	res := &Result{BestValue: math.Inf(1), BestNumber: -1}
	if opts.Store != nil {
		rec, err := opts.Store.CreateStudy(opts.Name)
		if err != nil {
			return nil, err
		}
		res.StudyID = rec.ID
	}

	var mu sync.Mutex
	parallel.ForEach(opts.Trials, opts.Workers, func(i int) {
		if ctx.Err() != nil {
			return
		}
		rng := rand.New(rand.NewSource(opts.Seed + int64(i)*0x9E3779B9))
		params := space.Sample(rng)

		var trialID string
		if opts.Store != nil {
			if rec, err := opts.Store.CreateTrial(res.StudyID, i, params); err == nil {
				trialID = rec.ID
			} else {
				log.Warn("persisting trial failed", zap.Int("trial", i), zap.Error(err))
			}
		}

		var rec *TrialRecorder
		if opts.Pruner != nil {
			rec = opts.Pruner.StartTrial()
		}
		pruned := false
		report := func(epoch int, value float64) bool {
			if rec != nil && rec.Report(epoch, value) {
				pruned = true
				return true
			}
			return ctx.Err() != nil
		}

		value, err := objective(ctx, i, params, report)

		tr := TrialResult{Number: i, Params: params, Value: value}
		switch {
		case err != nil:
			tr.State = TrialFailed
			tr.Err = err.Error()
			log.Warn("trial failed", zap.Int("trial", i), zap.Error(err))
		case pruned:
			tr.State = TrialPruned
			log.Info("trial pruned", zap.Int("trial", i), zap.Float64("value", value))
		default:
			tr.State = TrialComplete
			if rec != nil {
				rec.Finish()
			}
			log.Info("trial complete",
				zap.Int("trial", i),
				zap.Float64("value", value),
				zap.Int("layers", params.Layers),
				zap.Int("neurons", params.Neurons),
				zap.Float64("dropout", params.Dropout),
				zap.Float64("learning_rate", params.LearningRate))
		}

		mu.Lock()
		res.Trials = append(res.Trials, tr)
		if tr.State == TrialComplete && tr.Value < res.BestValue {
			res.BestValue = tr.Value
			res.BestParams = tr.Params
			res.BestNumber = tr.Number
		}
		mu.Unlock()

		if opts.Store != nil && trialID != "" {
			if err := opts.Store.FinishTrial(trialID, tr.Value, tr.State, tr.Err); err != nil {
				log.Warn("updating trial failed", zap.Int("trial", i), zap.Error(err))
			}
		}
	})

	sort.Slice(res.Trials, func(a, b int) bool { return res.Trials[a].Number < res.Trials[b].Number })
	if res.BestNumber < 0 {
		return res, ErrNoCompletedTrials
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}
