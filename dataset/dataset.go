package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Dataset is a fully preprocessed training set: the normalized feature
// matrix X, the [0,1]-scaled target matrix Y, and the experiment ID of
// every row.
type Dataset struct {
	Preprocessor

	X      *mat.Dense
	Y      *mat.Dense
	DoeIDs []int
}

// Load reads the design-of-experiments table and the experiment table,
// joins them on the schema index column and assembles the training
// matrices. Experiments listed in excludeIDs are dropped entirely.
//
// Scaling statistics for the process parameters come from the doe
// table; position and output statistics come from the kept experiment
// rows. The same statistics are applied again at inference time.
func Load(doePath, dataPath string, schema Schema, excludeIDs []int) (*Dataset, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	doe, err := ReadTable(doePath)
	if err != nil {
		return nil, err
	}
	data, err := ReadTable(dataPath)
	if err != nil {
		return nil, err
	}

	excluded := make(map[int]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	// Process parameters per experiment, keyed by doe ID.
	doeIDs, err := doe.FloatColumn(schema.Index)
	if err != nil {
		return nil, err
	}
	experiments := make(map[int]map[string]float64, doe.Len())
	for i := range doeIDs {
		params := make(map[string]float64, len(schema.ProcessParameters))
		for _, attr := range schema.ProcessParameters {
			v, err := doe.Float(i, attr)
			if err != nil {
				return nil, err
			}
			params[attr] = v
		}
		experiments[int(doeIDs[i])] = params
	}

	stats := make(map[string]ColumnStats)
	for _, attr := range schema.ProcessParameters {
		if schema.IsCategorical(attr) {
			continue
		}
		col, err := doe.FloatColumn(attr)
		if err != nil {
			return nil, err
		}
		stats[attr] = computeStats(col)
	}

	encoder, err := newEncoder(&schema, doe)
	if err != nil {
		return nil, err
	}

	// Kept experiment rows with raw positions and outputs.
	rowIDs, err := data.FloatColumn(schema.Index)
	if err != nil {
		return nil, err
	}
	var (
		keep      []int
		positions [][]float64
		outputs   [][]float64
	)
	for i := range rowIDs {
		id := int(rowIDs[i])
		if _, drop := excluded[id]; drop {
			continue
		}
		if _, ok := experiments[id]; !ok {
			return nil, fmt.Errorf("dataset: experiment %d in %s has no doe entry", id, dataPath)
		}
		pos := make([]float64, len(schema.Position))
		for j, attr := range schema.Position {
			if pos[j], err = data.Float(i, attr); err != nil {
				return nil, err
			}
		}
		out := make([]float64, len(schema.Output))
		for j, attr := range schema.Output {
			if out[j], err = data.Float(i, attr); err != nil {
				return nil, err
			}
		}
		keep = append(keep, id)
		positions = append(positions, pos)
		outputs = append(outputs, out)
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("dataset: no experiment rows left after exclusions")
	}

	for j, attr := range schema.Position {
		col := make([]float64, len(positions))
		for i := range positions {
			col[i] = positions[i][j]
		}
		stats[attr] = computeStats(col)
	}
	for j, attr := range schema.Output {
		col := make([]float64, len(outputs))
		for i := range outputs {
			col[i] = outputs[i][j]
		}
		stats[attr] = computeStats(col)
	}

	ds := &Dataset{
		Preprocessor: Preprocessor{
			Schema:  schema,
			Stats:   stats,
			Encoder: encoder,
		},
		DoeIDs: keep,
	}

	n := len(keep)
	ds.X = mat.NewDense(n, ds.FeatureDim(), nil)
	ds.Y = mat.NewDense(n, ds.OutputDim(), nil)
	for i := 0; i < n; i++ {
		if err := ds.encodeRow(ds.X.RawRowView(i), experiments[keep[i]], positions[i]); err != nil {
			return nil, err
		}
		for j := range schema.Output {
			ds.Y.Set(i, j, ds.ScaleOutput(j, outputs[i][j]))
		}
	}
	return ds, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.DoeIDs) }

// RowsOf returns the indices of all rows belonging to one experiment.
func (d *Dataset) RowsOf(doeID int) []int {
	var rows []int
	for i, id := range d.DoeIDs {
		if id == doeID {
			rows = append(rows, i)
		}
	}
	return rows
}

// HasExperiment reports whether any row belongs to doeID.
func (d *Dataset) HasExperiment(doeID int) bool {
	return len(d.RowsOf(doeID)) > 0
}
