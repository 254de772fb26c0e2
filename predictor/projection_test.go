package predictor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshpred/regressor/trainer"
)

// writeProjectionTables writes tables with a 2D deviation field sampled
// on a 6x6 grid per experiment.
func writeProjectionTables(t *testing.T) (doePath, dataPath string) {
	t.Helper()
	dir := t.TempDir()

	var doe strings.Builder
	doe.WriteString("doe_id,force\n")
	for id := 1; id <= 4; id++ {
		fmt.Fprintf(&doe, "%d,%d\n", id, 10+5*id)
	}

	var data strings.Builder
	data.WriteString("doe_id,u,v,deviation\n")
	for id := 1; id <= 4; id++ {
		force := float64(10 + 5*id)
		for i := 0; i < 6; i++ {
			for j := 0; j < 6; j++ {
				u := float64(i) / 5
				v := float64(j) / 5
				d := 0.001 * force * (u*u + v)
				fmt.Fprintf(&data, "%d,%g,%g,%g\n", id, u, v, d)
			}
		}
	}

	doePath = filepath.Join(dir, "doe.csv")
	dataPath = filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(doePath, []byte(doe.String()), 0o644))
	require.NoError(t, os.WriteFile(dataPath, []byte(data.String()), 0o644))
	return doePath, dataPath
}

func trainedProjection(t *testing.T) *ProjectionPredictor {
	t.Helper()
	p := NewProjectionPredictor(nil)
	doePath, dataPath := writeProjectionTables(t)
	require.NoError(t, p.LoadData(ProjectionOptions{
		LoadOptions: LoadOptions{
			DOE:               doePath,
			Data:              dataPath,
			ProcessParameters: []string{"force"},
			Output:            []string{"deviation"},
			ValidationSplit:   0.2,
			Seed:              2,
		},
		Position: [2]string{"u", "v"},
	}))
	_, err := p.Train(context.Background(), TrainConfig{
		Layers:  2,
		Neurons: 16,
		Config:  trainer.Config{Epochs: 20, Seed: 2},
	})
	require.NoError(t, err)
	return p
}

func TestProjectionLoadDataValidation(t *testing.T) {
	p := NewProjectionPredictor(nil)
	err := p.LoadData(ProjectionOptions{Position: [2]string{"u", ""}})
	assert.Error(t, err)
}

func TestProjectionPredictGrid(t *testing.T) {
	p := trainedProjection(t)
	params := map[string]float64{"force": 20}

	positions, out, err := p.Predict(params, 4, 5)
	require.NoError(t, err)
	require.Len(t, positions, 20)
	rows, cols := out.Dims()
	assert.Equal(t, 20, rows)
	assert.Equal(t, 1, cols)

	// First attribute outermost: the first ny rows share u.
	for i := 0; i < 5; i++ {
		assert.InDelta(t, 0, positions[i][0], 1e-12)
	}
	assert.InDelta(t, 1, positions[19][0], 1e-12)
	assert.InDelta(t, 0, positions[0][1], 1e-12)
	assert.InDelta(t, 1, positions[4][1], 1e-12)

	_, _, err = p.Predict(params, 0, 5)
	assert.Error(t, err)
}

func TestProjectionPredictAt(t *testing.T) {
	p := trainedProjection(t)
	params := map[string]float64{"force": 20}

	out, err := p.PredictAt(params, [][]float64{{0.2, 0.3}, {0.8, 0.1}})
	require.NoError(t, err)
	rows, _ := out.Dims()
	assert.Equal(t, 2, rows)

	_, err = p.PredictAt(params, [][]float64{{0.2}})
	assert.Error(t, err)
}

func TestProjectionSaveLoadRoundTrip(t *testing.T) {
	p := trainedProjection(t)
	path := filepath.Join(t.TempDir(), "proj.json.lzw")
	require.NoError(t, p.Save(path))

	loaded, err := LoadProjection(path, nil)
	require.NoError(t, err)
	params := map[string]float64{"force": 25}
	_, want, err := p.Predict(params, 3, 3)
	require.NoError(t, err)
	_, got, err := loaded.Predict(params, 3, 3)
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		assert.Equal(t, want.At(i, 0), got.At(i, 0))
	}

	_, err = LoadCut(path, nil)
	assert.Error(t, err, "a projection artifact must not load as a cut")
}
