package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meshpred/regressor/logger"
	"github.com/meshpred/regressor/predictor"
)

func main() {
	model := flag.String("model", "", "saved model file")
	listen := flag.String("listen", ":8080", "listen address")
	prod := flag.Bool("prod", false, "JSON logs and gin release mode")
	flag.Parse()

	log, sync := logger.New(*prod)
	defer sync()

	if *model == "" {
		log.Fatal("missing -model")
	}
	art, err := predictor.LoadArtifact(*model)
	if err != nil {
		log.Fatal("loading model", zap.Error(err))
	}

	srv := &explorer{log: log}
	switch art.Kind {
	case predictor.KindCut:
		if srv.cut, err = predictor.LoadCut(*model, log); err != nil {
			log.Fatal("loading model", zap.Error(err))
		}
		srv.pre = srv.cut.Preprocessor()
	case predictor.KindProjection:
		if srv.proj, err = predictor.LoadProjection(*model, log); err != nil {
			log.Fatal("loading model", zap.Error(err))
		}
		srv.pre = srv.proj.Preprocessor()
	default:
		log.Fatal("unknown model kind", zap.String("kind", art.Kind))
	}
	srv.kind = art.Kind

	if *prod {
		gin.SetMode(gin.ReleaseMode)
	}
	httpSrv := &http.Server{Addr: *listen, Handler: newRouter(srv)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("explorer listening", zap.String("addr", *listen), zap.String("kind", srv.kind))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
}
