package predictor

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// ProjectionPredictor predicts 2D projections: two position attributes
// spanning a surface, one or more output quantities per point.
type ProjectionPredictor struct {
	Predictor

	position [2]string
}

// NewProjectionPredictor creates an empty projection predictor. The
// logger may be nil.
func NewProjectionPredictor(log *zap.Logger) *ProjectionPredictor {
	return &ProjectionPredictor{Predictor: newPredictor(KindProjection, log)}
}

// ProjectionOptions extends LoadOptions with the two position attributes.
type ProjectionOptions struct {
	LoadOptions

	// Position holds the two columns spanning the projection surface.
	Position [2]string
}

// LoadData reads and preprocesses the doe and experiment tables.
func (p *ProjectionPredictor) LoadData(opts ProjectionOptions) error {
	if opts.Position[0] == "" || opts.Position[1] == "" {
		return fmt.Errorf("predictor: projection needs two position attributes, got %q", opts.Position)
	}
	if err := p.loadData(opts.LoadOptions, opts.Position[:], false); err != nil {
		return err
	}
	p.position = opts.Position
	return nil
}

// Predict evaluates the model on an nx by ny grid spanning the
// training ranges of both position attributes. The returned positions
// have nx*ny rows of two values, ordered with the first attribute
// outermost; outputs align row for row.
func (p *ProjectionPredictor) Predict(params map[string]float64, nx, ny int) ([][]float64, *mat.Dense, error) {
	if p.pre == nil {
		return nil, nil, ErrNoData
	}
	if nx < 1 || ny < 1 {
		return nil, nil, fmt.Errorf("predictor: grid %dx%d is empty", nx, ny)
	}
	lo0, hi0 := p.pre.PositionRange(0)
	lo1, hi1 := p.pre.PositionRange(1)
	xs := linspace(lo0, hi0, nx)
	ys := linspace(lo1, hi1, ny)

	rows := make([][]float64, 0, nx*ny)
	for _, x := range xs {
		for _, y := range ys {
			rows = append(rows, []float64{x, y})
		}
	}
	out, err := p.predictAt(params, rows)
	if err != nil {
		return nil, nil, err
	}
	return rows, out, nil
}

// PredictAt evaluates the model at explicit (N, 2) positions.
func (p *ProjectionPredictor) PredictAt(params map[string]float64, positions [][]float64) (*mat.Dense, error) {
	for i, pos := range positions {
		if len(pos) != 2 {
			return nil, fmt.Errorf("predictor: position row %d has %d values, want 2", i, len(pos))
		}
	}
	return p.predictAt(params, positions)
}
