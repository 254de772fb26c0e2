package study

import (
	"sort"
	"sync"
)

// MedianPruner stops a trial whose intermediate validation loss is
// worse than the median of the losses that completed trials reported at
// the same epoch. Values from pruned or failed trials never enter the
// history, and no trial is ever pruned before WarmupTrials trials have
// finished.
type MedianPruner struct {
	WarmupTrials int

	mu       sync.Mutex
	finished int
	byEpoch  map[int][]float64 // values of finished trials only
}

// NewMedianPruner creates a pruner that stays silent for the first
// warmup finished trials.
func NewMedianPruner(warmup int) *MedianPruner {
	return &MedianPruner{
		WarmupTrials: warmup,
		byEpoch:      make(map[int][]float64),
	}
}

// StartTrial returns the recorder for one trial. Recorders are safe to
// use from concurrent trials.
func (p *MedianPruner) StartTrial() *TrialRecorder {
	return &TrialRecorder{pruner: p, values: make(map[int]float64)}
}

// TrialRecorder buffers one trial's intermediate values until the trial
// completes.
type TrialRecorder struct {
	pruner *MedianPruner
	values map[int]float64
}

// Report records one intermediate value and reports whether the trial
// should be pruned.
func (t *TrialRecorder) Report(epoch int, value float64) bool {
	t.values[epoch] = value

	p := t.pruner
	p.mu.Lock()
	defer p.mu.Unlock()
	prior := p.byEpoch[epoch]
	return p.finished >= p.WarmupTrials && len(prior) > 0 && value > median(prior)
}

// Finish folds the trial's values into the shared history. Call it only
// for completed trials.
func (t *TrialRecorder) Finish() {
	p := t.pruner
	p.mu.Lock()
	p.finished++
	for epoch, value := range t.values {
		p.byEpoch[epoch] = append(p.byEpoch[epoch], value)
	}
	p.mu.Unlock()
}

func median(values []float64) float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}
