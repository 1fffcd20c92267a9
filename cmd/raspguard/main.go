package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"raspguard/internal/alert"
	"raspguard/internal/detection"
	"raspguard/internal/metrics"
	"raspguard/internal/policy"
	"raspguard/internal/server"
	"raspguard/internal/threat"
)

func main() {
	if err := run(); err != nil {
		slog.Error("raspguard failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	mode, _ := detection.ParseMode(cfg.EngineMode)
	engine, err := detection.New(mode, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	bus := alert.NewBus(alert.WithDropHook(rec.AlertDropped))
	store := threat.NewMemoryStore(0)
	reporter := threat.NewReporter(bus, store, threat.WithMetrics(rec), threat.WithLogger(logger))

	srv := server.New(server.Deps{
		Engine:  engine,
		Policy:  policy.NewEngine(cfg.Policy()),
		Metrics: rec,
		Bus:     bus,
		Store:   store,
		Logger:  logger,
	}, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := reporter.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("alert reporter stopped", "err", err)
		}
	}()

	metricsSrv := srv.StartMetrics(cfg.MetricsAddr, reg)

	go func() {
		logger.Info("grpc listening", "addr", cfg.GRPCAddr)
		if err := srv.StartGRPC(cfg.GRPCAddr); err != nil {
			logger.Error("grpc server error", "err", err)
			stop()
		}
	}()

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Router(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "engine_mode", mode, "block_on_detection", cfg.BlockOnDetection)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.StopGRPC()
	bus.Close()
	return errors.Join(httpSrv.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
}
