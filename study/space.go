// Package study implements the hyperparameter search: bounded search
// spaces, random sampling, median pruning of hopeless trials and
// SQLite-backed persistence of every trial.
package study

import (
	"fmt"
	"math"
	"math/rand"
)

// Space bounds the sampled hyperparameters. The field shapes mirror
// the autotune call: a closed range for the hidden layer count,
// min/max/step grids for neurons and dropout, and log-uniform bounds
// for the learning rate.
type Space struct {
	Layers       [2]int     `json:"layers"`
	Neurons      [3]int     `json:"neurons"`
	Dropout      [3]float64 `json:"dropout"`
	LearningRate [2]float64 `json:"learning_rate"`
}

// Validate checks the bounds.
func (s Space) Validate() error {
	if s.Layers[0] <= 0 || s.Layers[1] < s.Layers[0] {
		return fmt.Errorf("study: bad layer range %v", s.Layers)
	}
	if s.Neurons[0] <= 0 || s.Neurons[1] < s.Neurons[0] {
		return fmt.Errorf("study: bad neuron range %v", s.Neurons)
	}
	if s.Neurons[1] > s.Neurons[0] && s.Neurons[2] <= 0 {
		return fmt.Errorf("study: neuron range %v needs a positive step", s.Neurons)
	}
	if s.Dropout[0] < 0 || s.Dropout[1] < s.Dropout[0] || s.Dropout[1] >= 1 {
		return fmt.Errorf("study: bad dropout range %v", s.Dropout)
	}
	if s.Dropout[1] > s.Dropout[0] && s.Dropout[2] <= 0 {
		return fmt.Errorf("study: dropout range %v needs a positive step", s.Dropout)
	}
	if s.LearningRate[0] <= 0 || s.LearningRate[1] < s.LearningRate[0] {
		return fmt.Errorf("study: bad learning rate range %v", s.LearningRate)
	}
	return nil
}

// TrialParams is one sampled configuration.
type TrialParams struct {
	Layers       int     `json:"layers"`
	Neurons      int     `json:"neurons"`
	Dropout      float64 `json:"dropout"`
	LearningRate float64 `json:"learning_rate"`
}

// Sample draws one configuration. Layer count is uniform over the
// closed range, neurons and dropout are uniform over their step grids
// and the learning rate is log-uniform.
func (s Space) Sample(rng *rand.Rand) TrialParams {
	p := TrialParams{
		Layers:  s.Layers[0] + rng.Intn(s.Layers[1]-s.Layers[0]+1),
		Neurons: s.Neurons[0],
		Dropout: s.Dropout[0],
	}
	if s.Neurons[1] > s.Neurons[0] {
		steps := (s.Neurons[1]-s.Neurons[0])/s.Neurons[2] + 1
		p.Neurons = s.Neurons[0] + s.Neurons[2]*rng.Intn(steps)
	}
	if s.Dropout[1] > s.Dropout[0] {
		steps := int(math.Round((s.Dropout[1]-s.Dropout[0])/s.Dropout[2])) + 1
		p.Dropout = s.Dropout[0] + s.Dropout[2]*float64(rng.Intn(steps))
	}
	lo, hi := math.Log(s.LearningRate[0]), math.Log(s.LearningRate[1])
	p.LearningRate = math.Exp(lo + rng.Float64()*(hi-lo))
	return p
}
