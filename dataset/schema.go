// Package dataset loads design-of-experiments tables and FEM experiment
// results from CSV and turns them into normalized training matrices.
package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when a schema column is absent from a table.
	ErrMissingColumn = errors.New("dataset: column not found")

	// ErrUnknownCategory is returned when a categorical value was never
	// seen in the design-of-experiments table.
	ErrUnknownCategory = errors.New("dataset: unknown categorical value")

	// ErrMissingParameter is returned when a prediction request omits a
	// process parameter required by the schema.
	ErrMissingParameter = errors.New("dataset: missing process parameter")
)

// PositionScaler selects how position attributes are normalized.
type PositionScaler string

const (
	// ScalerNormal standardizes positions with the column mean and std.
	ScalerNormal PositionScaler = "normal"

	// ScalerMinMax rescales positions into [0, 1] with the column min and max.
	ScalerMinMax PositionScaler = "minmax"
)

// Schema names the columns of the doe and experiment tables and fixes
// how each group of attributes is encoded. Position attributes always
// come last in the feature vector.
type Schema struct {
	// Index is the column joining both tables (experiment ID).
	Index string `json:"index"`

	// ProcessParameters are the doe-table inputs, in feature order.
	ProcessParameters []string `json:"process_parameters"`

	// Categorical is the subset of ProcessParameters that is one-hot encoded.
	Categorical []string `json:"categorical"`

	// Position holds one column for 1D cuts, two for 2D projections.
	Position []string `json:"position"`

	// Output holds the predicted quantities.
	Output []string `json:"output"`

	// PositionScaler is either ScalerNormal or ScalerMinMax.
	PositionScaler PositionScaler `json:"position_scaler"`

	// Angle replaces a single position attribute by its cosine and sine.
	Angle bool `json:"angle"`
}

// Validate checks the schema for internal consistency.
func (s *Schema) Validate() error {
	if s.Index == "" {
		return errors.New("dataset: schema needs an index column")
	}
	if len(s.ProcessParameters) == 0 {
		return errors.New("dataset: schema needs at least one process parameter")
	}
	if len(s.Position) < 1 || len(s.Position) > 2 {
		return fmt.Errorf("dataset: schema needs one or two position attributes, got %d", len(s.Position))
	}
	if s.Angle && len(s.Position) != 1 {
		return errors.New("dataset: angle encoding needs exactly one position attribute")
	}
	if len(s.Output) == 0 {
		return errors.New("dataset: schema needs at least one output attribute")
	}
	switch s.PositionScaler {
	case ScalerNormal, ScalerMinMax:
	case "":
		s.PositionScaler = ScalerNormal
	default:
		return fmt.Errorf("dataset: unknown position scaler %q", s.PositionScaler)
	}
	params := make(map[string]struct{}, len(s.ProcessParameters))
	for _, p := range s.ProcessParameters {
		params[p] = struct{}{}
	}
	for _, c := range s.Categorical {
		if _, ok := params[c]; !ok {
			return fmt.Errorf("dataset: categorical %q is not a process parameter", c)
		}
	}
	return nil
}

// IsCategorical reports whether attr is one-hot encoded.
func (s *Schema) IsCategorical(attr string) bool {
	for _, c := range s.Categorical {
		if c == attr {
			return true
		}
	}
	return false
}
