package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/meshpred/regressor/config"
	"github.com/meshpred/regressor/dataset"
	"github.com/meshpred/regressor/logger"
	"github.com/meshpred/regressor/predictor"
	"github.com/meshpred/regressor/trainer"
)

func main() {
	cfgPath := flag.String("config", "experiment.yaml", "experiment configuration file")
	trials := flag.Int("trials", -1, "override the search trial count (0 trains a single configuration)")
	dstmodel := flag.String("dstmodel", "", "override the model destination file")
	prod := flag.Bool("prod", false, "JSON logs")
	flag.Parse()

	log, sync := logger.New(*prod)
	defer sync()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal("loading configuration", zap.Error(err))
	}
	if len(cfg.Position) != 1 {
		log.Fatal("cut models need a single position attribute",
			zap.Strings("position", cfg.Position))
	}
	if *trials >= 0 {
		cfg.Search.Trials = *trials
	}
	if *dstmodel != "" {
		cfg.Model = *dstmodel
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := predictor.NewCutPredictor(log)
	err = reg.LoadData(predictor.CutOptions{
		LoadOptions: predictor.LoadOptions{
			DOE:               cfg.Data.DOE,
			Data:              cfg.Data.Experiments,
			Index:             cfg.Data.Index,
			ProcessParameters: cfg.ProcessParameters,
			Categorical:       cfg.Categorical,
			Output:            cfg.Output,
			ExcludeIDs:        cfg.Data.ExcludeIDs,
			ValidationSplit:   cfg.Validation.Split,
			ValidationMethod:  dataset.SplitMethod(cfg.Validation.Method),
			PositionScaler:    dataset.PositionScaler(cfg.PositionScaler),
			Seed:              cfg.Training.Seed,
		},
		Position: cfg.Position[0],
		Angle:    cfg.Angle,
	})
	if err != nil {
		log.Fatal("loading data", zap.Error(err))
	}

	if cfg.Search.Trials > 0 {
		best, err := reg.Autotune(ctx, cfg.Search.Space(), predictor.AutotuneOptions{
			Trials:    cfg.Search.Trials,
			MaxEpochs: cfg.Training.MaxEpochs,
			BatchSize: cfg.Training.BatchSize,
			Workers:   cfg.Search.Workers,
			Name:      *cfgPath,
			SavePath:  cfg.Model,
			Storage:   cfg.Search.Storage,
		})
		if err != nil {
			log.Fatal("autotune failed", zap.Error(err))
		}
		log.Info("best configuration",
			zap.Int("layers", best.Layers),
			zap.Int("neurons", best.Neurons),
			zap.Float64("dropout", best.Dropout),
			zap.Float64("learning_rate", best.LearningRate))
		return
	}

	res, err := reg.Train(ctx, predictor.TrainConfig{
		Layers:  cfg.Training.Layers,
		Neurons: cfg.Training.Neurons,
		Dropout: cfg.Training.Dropout,
		Config: trainer.Config{
			Epochs:       cfg.Training.MaxEpochs,
			BatchSize:    cfg.Training.BatchSize,
			LearningRate: cfg.Training.LearningRate,
			Patience:     cfg.Training.Patience,
			Seed:         cfg.Training.Seed,
		},
	})
	if err != nil {
		log.Fatal("training failed", zap.Error(err))
	}
	if err := reg.Save(cfg.Model); err != nil {
		log.Fatal("saving model", zap.Error(err))
	}
	log.Info("model saved",
		zap.String("path", cfg.Model),
		zap.Float64("val_loss", res.FinalValLoss))
}
