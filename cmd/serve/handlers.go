package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meshpred/regressor/dataset"
	"github.com/meshpred/regressor/predictor"
)

// explorer serves the interactive prediction page for one loaded model.
type explorer struct {
	kind string
	cut  *predictor.CutPredictor
	proj *predictor.ProjectionPredictor
	pre  *dataset.Preprocessor
	log  *zap.Logger
}

func newRouter(e *explorer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/", e.page)
	router.GET("/api/meta", e.meta)
	router.GET("/api/predict", e.predict)
	return router
}

// paramMeta describes one slider (numeric) or selector (categorical).
type paramMeta struct {
	Name        string    `json:"name"`
	Categorical bool      `json:"categorical"`
	Values      []float64 `json:"values,omitempty"`
	Min         float64   `json:"min,omitempty"`
	Max         float64   `json:"max,omitempty"`
	Default     float64   `json:"default"`
}

func (e *explorer) page(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

func (e *explorer) meta(c *gin.Context) {
	schema := e.pre.Schema
	params := make([]paramMeta, 0, len(schema.ProcessParameters))
	for _, attr := range schema.ProcessParameters {
		if schema.IsCategorical(attr) {
			values := e.pre.Encoder[attr]
			params = append(params, paramMeta{
				Name:        attr,
				Categorical: true,
				Values:      values,
				Default:     values[0],
			})
			continue
		}
		st := e.pre.Stats[attr]
		params = append(params, paramMeta{
			Name:    attr,
			Min:     st.Min,
			Max:     st.Max,
			Default: st.Mean,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"kind":       e.kind,
		"position":   schema.Position,
		"outputs":    schema.Output,
		"parameters": params,
	})
}

func (e *explorer) predict(c *gin.Context) {
	params := make(map[string]float64, len(e.pre.Schema.ProcessParameters))
	for _, attr := range e.pre.Schema.ProcessParameters {
		raw, ok := c.GetQuery(attr)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing parameter " + attr})
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "parameter " + attr + ": " + err.Error()})
			return
		}
		params[attr] = v
	}

	switch e.kind {
	case predictor.KindCut:
		points := intQuery(c, "points", 200)
		positions, outputs, err := e.cut.Predict(params, points)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"positions": positions,
			"outputs":   matrixColumns(outputs),
		})
	default:
		nx := intQuery(c, "nx", 50)
		ny := intQuery(c, "ny", 50)
		positions, outputs, err := e.proj.Predict(params, nx, ny)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"nx":        nx,
			"ny":        ny,
			"positions": positions,
			"outputs":   matrixColumns(outputs),
		})
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw, ok := c.GetQuery(name)
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// matrixColumns splits an (n, outputs) matrix into per-output slices.
func matrixColumns(m interface {
	Dims() (int, int)
	At(i, j int) float64
}) [][]float64 {
	rows, cols := m.Dims()
	out := make([][]float64, cols)
	for j := 0; j < cols; j++ {
		col := make([]float64, rows)
		for i := 0; i < rows; i++ {
			col[i] = m.At(i, j)
		}
		out[j] = col
	}
	return out
}
