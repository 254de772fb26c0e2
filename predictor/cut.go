package predictor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// CutPredictor predicts 1D cuts: one position attribute along the cut,
// one or more output quantities per position.
type CutPredictor struct {
	Predictor

	position string
	angle    bool
}

// NewCutPredictor creates an empty cut predictor. The logger may be nil.
func NewCutPredictor(log *zap.Logger) *CutPredictor {
	return &CutPredictor{Predictor: newPredictor(KindCut, log)}
}

// CutOptions extends LoadOptions with the cut position attribute.
type CutOptions struct {
	LoadOptions

	// Position is the column holding the 1D position along the cut.
	Position string

	// Angle treats the position as an angle and feeds its cosine and
	// sine to the network instead of the scaled value.
	Angle bool
}

// LoadData reads and preprocesses the doe and experiment tables.
func (c *CutPredictor) LoadData(opts CutOptions) error {
	if opts.Position == "" {
		return errors.New("predictor: cut needs a position attribute")
	}
	if err := c.loadData(opts.LoadOptions, []string{opts.Position}, opts.Angle); err != nil {
		return err
	}
	c.position = opts.Position
	c.angle = opts.Angle
	return nil
}

// Predict evaluates the model over points positions uniformly spaced
// across the training range of the position attribute. It returns the
// raw positions and the de-normalized outputs (points x outputs).
func (c *CutPredictor) Predict(params map[string]float64, points int) ([]float64, *mat.Dense, error) {
	if c.pre == nil {
		return nil, nil, ErrNoData
	}
	if points < 1 {
		return nil, nil, fmt.Errorf("predictor: %d points is an empty cut", points)
	}
	lo, hi := c.pre.PositionRange(0)
	positions := linspace(lo, hi, points)
	rows := make([][]float64, points)
	for i, v := range positions {
		rows[i] = []float64{v}
	}
	y, err := c.predictAt(params, rows)
	if err != nil {
		return nil, nil, err
	}
	return positions, y, nil
}

// PredictAt evaluates the model at explicit positions.
func (c *CutPredictor) PredictAt(params map[string]float64, positions []float64) (*mat.Dense, error) {
	rows := make([][]float64, len(positions))
	for i, v := range positions {
		rows[i] = []float64{v}
	}
	return c.predictAt(params, rows)
}
