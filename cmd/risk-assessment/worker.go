package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"risk-assessment/internal/common/camunda"
	"risk-assessment/internal/common/config"
	"risk-assessment/internal/common/observability"
	"risk-assessment/internal/pipeline"
	riskassessment "risk-assessment/internal/workers/risk-assessment"
)

const shutdownTimeout = 30 * time.Second

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Serve risk-assessment jobs from a Zeebe broker",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	a := application

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ready atomic.Bool
	srv := newHealthServer(a.cfg.Metrics.ListenAddr, &ready)
	go func() {
		a.log.Info("health server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("health server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("health server shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	obs := observability.New(a.cfg.App.Name, nil, a.log)
	defer obs.Shutdown()

	retrievers := a.retrievers(ctx)
	r, err := retrievers(a.cfg.Data.Source, a.cfg.Data.Path)
	if err != nil {
		return fmt.Errorf("data source %s: %w", a.cfg.Data.Source, err)
	}

	gen, sampleRows := a.generator(ctx, a.profile(a.cfg.Model.Path))
	p := pipeline.New(r, gen, a.log,
		pipeline.WithPublisher(a.publisher(ctx)),
		pipeline.WithObservability(obs),
	)

	hcfg := riskassessment.LoadConfig(a.cfg)
	hcfg.SampleRows = sampleRows
	handler := riskassessment.NewHandler(hcfg, p, retrievers, obs, a.log)

	zb, err := camunda.Connect(ctx, a.cfg.Camunda, nil, a.log)
	if err != nil {
		return err
	}
	defer zb.Close()

	wcfg := config.GetWorkerConfig(a.cfg, riskassessment.TaskType)
	jw := camunda.StartWorker(zb, riskassessment.TaskType, wcfg, handler.Handle, a.log)
	if jw == nil {
		return fmt.Errorf("worker %s is disabled", riskassessment.TaskType)
	}
	ready.Store(true)

	<-ctx.Done()
	a.log.Info("shutting down worker", nil)
	ready.Store(false)
	jw.Close()
	jw.AwaitClose()
	return nil
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
