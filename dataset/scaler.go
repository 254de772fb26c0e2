package dataset

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ColumnStats are the moments and bounds of one numeric column,
// computed once at load time and reused verbatim at inference time.
type ColumnStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

func computeStats(values []float64) ColumnStats {
	st := ColumnStats{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range values {
		st.Mean += v
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
	}
	st.Mean /= float64(len(values))
	for _, v := range values {
		st.Std += (v - st.Mean) * (v - st.Mean)
	}
	st.Std = math.Sqrt(st.Std / float64(len(values)))
	return st
}

// standardize maps v to (v-mean)/std. A constant column passes through
// centered only, so it cannot blow up the features.
func (st ColumnStats) standardize(v float64) float64 {
	if st.Std == 0 {
		return v - st.Mean
	}
	return (v - st.Mean) / st.Std
}

// minmax maps v into [0, 1] over the column range.
func (st ColumnStats) minmax(v float64) float64 {
	if st.Max == st.Min {
		return 0
	}
	return (v - st.Min) / (st.Max - st.Min)
}

// Encoder holds the sorted category dictionaries of the one-hot
// encoded process parameters.
type Encoder map[string][]float64

func newEncoder(schema *Schema, doe *Table) (Encoder, error) {
	enc := make(Encoder, len(schema.Categorical))
	for _, attr := range schema.Categorical {
		col, err := doe.FloatColumn(attr)
		if err != nil {
			return nil, err
		}
		seen := make(map[float64]struct{}, len(col))
		for _, v := range col {
			seen[v] = struct{}{}
		}
		values := make([]float64, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Float64s(values)
		enc[attr] = values
	}
	return enc, nil
}

// OneHot returns the dictionary index of value v for attribute attr.
func (e Encoder) OneHot(attr string, v float64) (int, error) {
	values, ok := e[attr]
	if !ok {
		return 0, fmt.Errorf("%w: %s is not categorical", ErrUnknownCategory, attr)
	}
	for i, c := range values {
		if c == v {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s=%v", ErrUnknownCategory, attr, v)
}

// Preprocessor is the part of a loaded dataset that must travel with
// the trained model: it maps raw process parameters and positions into
// network inputs and network outputs back into physical units.
type Preprocessor struct {
	Schema  Schema                 `json:"schema"`
	Stats   map[string]ColumnStats `json:"stats"`
	Encoder Encoder                `json:"encoder"`
}

// FeatureDim returns the width of the assembled feature vector.
func (p *Preprocessor) FeatureDim() int {
	dim := 0
	for _, attr := range p.Schema.ProcessParameters {
		if p.Schema.IsCategorical(attr) {
			dim += len(p.Encoder[attr])
		} else {
			dim++
		}
	}
	if p.Schema.Angle {
		dim += 2
	} else {
		dim += len(p.Schema.Position)
	}
	return dim
}

// OutputDim returns the number of predicted quantities.
func (p *Preprocessor) OutputDim() int { return len(p.Schema.Output) }

// encodeRow writes one feature row. Process parameters come first
// (one-hot or standardized), position attributes last.
func (p *Preprocessor) encodeRow(dst []float64, params map[string]float64, pos []float64) error {
	k := 0
	for _, attr := range p.Schema.ProcessParameters {
		v, ok := params[attr]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingParameter, attr)
		}
		if p.Schema.IsCategorical(attr) {
			idx, err := p.Encoder.OneHot(attr, v)
			if err != nil {
				return err
			}
			for i := range p.Encoder[attr] {
				dst[k] = 0
				if i == idx {
					dst[k] = 1
				}
				k++
			}
		} else {
			dst[k] = p.Stats[attr].standardize(v)
			k++
		}
	}
	if p.Schema.Angle {
		dst[k] = math.Cos(pos[0])
		dst[k+1] = math.Sin(pos[0])
		return nil
	}
	for i, attr := range p.Schema.Position {
		st := p.Stats[attr]
		if p.Schema.PositionScaler == ScalerMinMax {
			dst[k+i] = st.minmax(pos[i])
		} else {
			dst[k+i] = st.standardize(pos[i])
		}
	}
	return nil
}

// Features assembles the network input matrix for fixed process
// parameters and a list of raw positions (one row per position).
func (p *Preprocessor) Features(params map[string]float64, positions [][]float64) (*mat.Dense, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("dataset: no positions given")
	}
	x := mat.NewDense(len(positions), p.FeatureDim(), nil)
	for i, pos := range positions {
		if len(pos) != len(p.Schema.Position) {
			return nil, fmt.Errorf("dataset: position row %d has %d values, schema needs %d",
				i, len(pos), len(p.Schema.Position))
		}
		if err := p.encodeRow(x.RawRowView(i), params, pos); err != nil {
			return nil, err
		}
	}
	return x, nil
}

// ScaleOutput maps a raw output value of attribute j into [0, 1].
func (p *Preprocessor) ScaleOutput(j int, v float64) float64 {
	return p.Stats[p.Schema.Output[j]].minmax(v)
}

// RescaleOutput maps a network output of attribute j back into
// physical units.
func (p *Preprocessor) RescaleOutput(j int, v float64) float64 {
	st := p.Stats[p.Schema.Output[j]]
	return st.Min + v*(st.Max-st.Min)
}

// RescaleOutputs de-normalizes a whole prediction matrix in place.
func (p *Preprocessor) RescaleOutputs(y *mat.Dense) {
	rows, cols := y.Dims()
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			y.Set(i, j, p.RescaleOutput(j, y.At(i, j)))
		}
	}
}

// InversePositions recovers the raw position values from the trailing
// position columns of an encoded feature matrix.
func (p *Preprocessor) InversePositions(x *mat.Dense) [][]float64 {
	rows, cols := x.Dims()
	width := len(p.Schema.Position)
	if p.Schema.Angle {
		width = 2
	}
	offset := cols - width

	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		if p.Schema.Angle {
			out[i] = []float64{math.Atan2(x.At(i, offset+1), x.At(i, offset))}
			continue
		}
		pos := make([]float64, width)
		for j, attr := range p.Schema.Position {
			st := p.Stats[attr]
			v := x.At(i, offset+j)
			if p.Schema.PositionScaler == ScalerMinMax {
				pos[j] = st.Min + v*(st.Max-st.Min)
			} else if st.Std == 0 {
				pos[j] = v + st.Mean
			} else {
				pos[j] = st.Mean + v*st.Std
			}
		}
		out[i] = pos
	}
	return out
}

// PositionRange returns the raw training range of the i-th position attribute.
func (p *Preprocessor) PositionRange(i int) (lo, hi float64) {
	st := p.Stats[p.Schema.Position[i]]
	return st.Min, st.Max
}
