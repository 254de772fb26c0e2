package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/meshpred/regressor/logger"
	"github.com/meshpred/regressor/predictor"
)

// paramFlags collects repeated -p name=value flags.
type paramFlags map[string]float64

func (p paramFlags) String() string {
	parts := make([]string, 0, len(p))
	for k, v := range p {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ",")
}

func (p paramFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", s, err)
	}
	p[name] = v
	return nil
}

func main() {
	model := flag.String("model", "", "saved projection model file")
	nx := flag.Int("nx", 100, "grid points along the first position attribute")
	ny := flag.Int("ny", 100, "grid points along the second position attribute")
	out := flag.String("out", "-", "output CSV file, - for stdout")
	prod := flag.Bool("prod", false, "JSON logs")
	params := paramFlags{}
	flag.Var(params, "p", "process parameter as name=value (repeatable)")
	flag.Parse()

	log, sync := logger.New(*prod)
	defer sync()

	if *model == "" {
		log.Fatal("missing -model")
	}
	reg, err := predictor.LoadProjection(*model, log)
	if err != nil {
		log.Fatal("loading model", zap.Error(err))
	}

	positions, outputs, err := reg.Predict(params, *nx, *ny)
	if err != nil {
		log.Fatal("prediction failed", zap.Error(err))
	}

	dst := os.Stdout
	if *out != "-" {
		if dst, err = os.Create(*out); err != nil {
			log.Fatal("creating output", zap.Error(err))
		}
		defer dst.Close()
	}

	schema := reg.Preprocessor().Schema
	w := csv.NewWriter(dst)
	header := append(append([]string{}, schema.Position...), schema.Output...)
	if err := w.Write(header); err != nil {
		log.Fatal("writing output", zap.Error(err))
	}
	_, cols := outputs.Dims()
	for i, pos := range positions {
		row := make([]string, 0, 2+cols)
		row = append(row,
			strconv.FormatFloat(pos[0], 'g', -1, 64),
			strconv.FormatFloat(pos[1], 'g', -1, 64))
		for j := 0; j < cols; j++ {
			row = append(row, strconv.FormatFloat(outputs.At(i, j), 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			log.Fatal("writing output", zap.Error(err))
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatal("writing output", zap.Error(err))
	}
}
