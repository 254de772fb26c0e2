package predictor

import (
	"compress/lzw"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/meshpred/regressor/dataset"
	"github.com/meshpred/regressor/net/mlp"
	"github.com/meshpred/regressor/study"
)

// Artifact kinds.
const (
	KindCut        = "cut"
	KindProjection = "projection"
)

// Artifact is the complete saved form of a trained predictor: the
// fitted preprocessing, the network weights and the hyperparameters
// that produced them. An artifact is immutable once written; loading
// it reproduces the exact training-time predictions.
type Artifact struct {
	Kind            string               `json:"kind"`
	Preprocessor    dataset.Preprocessor `json:"preprocessor"`
	Network         mlp.Snapshot         `json:"network"`
	Hyperparameters study.TrialParams    `json:"hyperparameters"`
	BatchSize       int                  `json:"batch_size"`
}

// Save writes the trained predictor to path. A path ending in ".lzw"
// is LZW-compressed, anything else is plain JSON.
func (p *Predictor) Save(path string) error {
	if p.pre == nil {
		return ErrNoData
	}
	if p.net == nil {
		return ErrNotTrained
	}
	art := Artifact{
		Kind:            p.kind,
		Preprocessor:    *p.pre,
		Network:         p.net.Snapshot(),
		Hyperparameters: p.params,
		BatchSize:       p.batch,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var w io.Writer = file
	var lw io.WriteCloser
	if strings.HasSuffix(path, ".lzw") {
		lw = lzw.NewWriter(file, lzw.LSB, 8)
		w = lw
	}
	if err := json.NewEncoder(w).Encode(art); err != nil {
		return err
	}
	if lw != nil {
		if err := lw.Close(); err != nil {
			return err
		}
	}
	return file.Close()
}

// LoadArtifact reads an artifact of any kind from path.
func LoadArtifact(path string) (*Artifact, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(path, ".lzw") {
		lr := lzw.NewReader(file, lzw.LSB, 8)
		defer lr.Close()
		r = lr
	}
	var art Artifact
	if err := json.NewDecoder(r).Decode(&art); err != nil {
		return nil, fmt.Errorf("predictor: decoding %s: %w", path, err)
	}
	return &art, nil
}

// restore installs an artifact into the embedded predictor state.
func (p *Predictor) restore(art *Artifact) error {
	net, err := mlp.FromSnapshot(art.Network)
	if err != nil {
		return err
	}
	pre := art.Preprocessor
	p.pre = &pre
	p.net = net
	p.params = art.Hyperparameters
	if art.BatchSize > 0 {
		p.batch = art.BatchSize
	}
	return nil
}

// LoadCut loads a saved cut model. The logger may be nil.
func LoadCut(path string, log *zap.Logger) (*CutPredictor, error) {
	art, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	if art.Kind != KindCut {
		return nil, fmt.Errorf("predictor: %s holds a %q model, want %q", path, art.Kind, KindCut)
	}
	c := NewCutPredictor(log)
	if err := c.restore(art); err != nil {
		return nil, err
	}
	c.position = art.Preprocessor.Schema.Position[0]
	c.angle = art.Preprocessor.Schema.Angle
	return c, nil
}

// LoadProjection loads a saved projection model. The logger may be nil.
func LoadProjection(path string, log *zap.Logger) (*ProjectionPredictor, error) {
	art, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	if art.Kind != KindProjection {
		return nil, fmt.Errorf("predictor: %s holds a %q model, want %q", path, art.Kind, KindProjection)
	}
	pp := NewProjectionPredictor(log)
	if err := pp.restore(art); err != nil {
		return nil, err
	}
	pos := art.Preprocessor.Schema.Position
	pp.position = [2]string{pos[0], pos[1]}
	return pp, nil
}
