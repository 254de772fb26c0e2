// Package config loads and validates the YAML experiment
// configuration shared by the training and serving commands.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/meshpred/regressor/study"
)

// Data names the input tables.
type Data struct {
	DOE         string `mapstructure:"doe" validate:"required"`
	Experiments string `mapstructure:"experiments" validate:"required"`
	Index       string `mapstructure:"index"`
	ExcludeIDs  []int  `mapstructure:"exclude_ids"`
}

// Validation configures the held-out split.
type Validation struct {
	Split  float64 `mapstructure:"split" validate:"gt=0,lt=1"`
	Method string  `mapstructure:"method" validate:"oneof=random leaveoneout"`
}

// Training configures a single-configuration run and the architecture
// used when no search is requested.
type Training struct {
	MaxEpochs    int     `mapstructure:"max_epochs" validate:"gt=0"`
	BatchSize    int     `mapstructure:"batch_size" validate:"gte=0"`
	LearningRate float64 `mapstructure:"learning_rate" validate:"gte=0"`
	Layers       int     `mapstructure:"layers" validate:"gt=0"`
	Neurons      int     `mapstructure:"neurons" validate:"gt=0"`
	Dropout      float64 `mapstructure:"dropout" validate:"gte=0,lt=1"`
	Patience     int     `mapstructure:"patience" validate:"gte=0"`
	Seed         int64   `mapstructure:"seed"`
}

// Search configures the hyperparameter study.
type Search struct {
	Trials       int       `mapstructure:"trials" validate:"gte=0"`
	Workers      int       `mapstructure:"workers" validate:"gte=0"`
	Layers       []int     `mapstructure:"layers" validate:"omitempty,len=2"`
	Neurons      []int     `mapstructure:"neurons" validate:"omitempty,len=3"`
	Dropout      []float64 `mapstructure:"dropout" validate:"omitempty,len=3"`
	LearningRate []float64 `mapstructure:"learning_rate" validate:"omitempty,len=2"`
	Storage      string    `mapstructure:"storage"`
}

// Space converts the configured ranges into a search space, falling
// back to the historical defaults for ranges left unset.
func (s Search) Space() study.Space {
	sp := study.Space{
		Layers:       [2]int{4, 6},
		Neurons:      [3]int{64, 256, 64},
		Dropout:      [3]float64{0.0, 0.5, 0.1},
		LearningRate: [2]float64{1e-5, 1e-3},
	}
	if len(s.Layers) == 2 {
		sp.Layers = [2]int{s.Layers[0], s.Layers[1]}
	}
	if len(s.Neurons) == 3 {
		sp.Neurons = [3]int{s.Neurons[0], s.Neurons[1], s.Neurons[2]}
	}
	if len(s.Dropout) == 3 {
		sp.Dropout = [3]float64{s.Dropout[0], s.Dropout[1], s.Dropout[2]}
	}
	if len(s.LearningRate) == 2 {
		sp.LearningRate = [2]float64{s.LearningRate[0], s.LearningRate[1]}
	}
	return sp
}

// Config is one experiment: which tables to learn from, which columns
// mean what, how to validate, and how to train or search.
type Config struct {
	Data Data `mapstructure:"data"`

	ProcessParameters []string `mapstructure:"process_parameters" validate:"min=1"`
	Categorical       []string `mapstructure:"categorical"`
	Position          []string `mapstructure:"position" validate:"min=1,max=2"`
	Output            []string `mapstructure:"output" validate:"min=1"`
	Angle             bool     `mapstructure:"angle"`
	PositionScaler    string   `mapstructure:"position_scaler" validate:"oneof=normal minmax"`

	Validation Validation `mapstructure:"validation"`
	Training   Training   `mapstructure:"training"`
	Search     Search     `mapstructure:"search"`

	Model  string `mapstructure:"model" validate:"required"`
	Listen string `mapstructure:"listen"`
}

// Load reads the configuration at path, applies defaults and validates
// the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("data.index", "doe_id")
	v.SetDefault("position_scaler", "normal")
	v.SetDefault("validation.split", 0.1)
	v.SetDefault("validation.method", "random")
	v.SetDefault("training.max_epochs", 50)
	v.SetDefault("training.batch_size", 32)
	v.SetDefault("training.learning_rate", 1e-3)
	v.SetDefault("training.layers", 4)
	v.SetDefault("training.neurons", 128)
	v.SetDefault("listen", ":8080")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if len(cfg.Position) == 2 && cfg.Angle {
		return nil, fmt.Errorf("config: %s: angle mode needs a single position attribute", path)
	}
	return &cfg, nil
}
