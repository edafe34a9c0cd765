// Package main provides the entry point for the HemoLens serving process.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hemolens/internal/api"
	"hemolens/internal/config"
	"hemolens/internal/eye"
	"hemolens/internal/inference"
	"hemolens/internal/logging"
	"hemolens/internal/observability"
	"hemolens/internal/pipeline"
	"hemolens/internal/version"
)

func main() {
	cfg := config.Load()
	logger, logFile := logging.Init(cfg.LogDir)
	if logFile != nil {
		defer logFile.Close()
	}

	logger.Info("starting hemolens", "version", version.Version, "addr", cfg.HTTPAddr)

	detector, err := eye.New(eye.DefaultParams().WithCascadeDir(cfg.CascadeDir))
	if err != nil {
		logger.Error("failed to initialize eye detector", "error", err)
		os.Exit(1)
	}
	defer detector.Close()

	deps := api.Deps{
		Cfg: cfg,
		Log: logger,
		Met: observability.NewMetrics(),
	}

	// A missing or corrupt model artifact is not a crash: the process serves
	// /health as unhealthy and refuses predictions until restarted with a
	// valid artifact.
	engine, err := inference.NewEngineFromFile(cfg.ModelPath)
	if err != nil {
		logger.Error("model artifact unavailable; serving unhealthy", "path", cfg.ModelPath, "error", err)
	} else {
		logger.Info("model loaded", "algorithm", engine.Algorithm(), "path", cfg.ModelPath)
		deps.Eng = engine
		deps.Pipe = pipeline.New(detector, engine, cfg.MaxImageDim)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(deps).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
