package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nicktill/tinyrec/pkg/config"
	"github.com/nicktill/tinyrec/pkg/logging"
	"github.com/nicktill/tinyrec/pkg/resource"
	"github.com/nicktill/tinyrec/pkg/server"
	"github.com/nicktill/tinyrec/pkg/server/monitor"
)

const (
	serverReadTimeout  = 10 * time.Second
	serverWriteTimeout = 30 * time.Second
)

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "tinyrec",
		Short:         "Log and resource usage recorder",
		Long:          "tinyrec keeps a bounded ring of log lines and 5-minute resource usage cells, persisted as snapshots.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       server.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv(config.EnvPrefix+"_CONFIG"), "path to a YAML config file")
	cmd.AddCommand(newSnapshotCommand(&configPath))
	return cmd
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("Starting tinyrec server",
		zap.String("version", server.Version),
		zap.String("snapshot_backend", cfg.SnapshotBackend),
		zap.Int("log_capacity", cfg.LogCapacity),
		zap.Duration("sample_interval", cfg.SampleInterval),
		zap.Duration("checkpoint_interval", cfg.CheckpointInterval),
	)

	store, err := server.InitializeSnapshotStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize snapshot store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Snapshot store close failed", zap.Error(err))
		}
	}()

	supplier := resource.NewSupplier(cfg.ResourceBudgetBytes())
	logger.Debug("Resource supplier ready", zap.Uint64("budget_bytes", supplier.Budget()))

	recorder, err := server.InitializeRecorder(context.Background(), store, cfg,
		resource.SystemClock{}, supplier, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize recorder: %w", err)
	}
	host := server.NewHost(recorder)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := server.NewMetrics(registry, host)

	checkpointMonitor := monitor.NewCheckpointMonitor(server.CheckpointStaleAfter(cfg.CheckpointInterval))
	checkpointer := server.NewCheckpointer(host, store, checkpointMonitor, metrics, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	hub := server.NewLogHub(logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()

	stopSampler := make(chan bool)
	wg.Add(1)
	go server.RunSampler(host, metrics, cfg.SampleInterval, logger.Named("sampler"), stopSampler, &wg)

	stopCheckpoints := make(chan bool)
	wg.Add(1)
	go server.RunCheckpoints(checkpointer, cfg.CheckpointInterval, stopCheckpoints, &wg)

	stopGC := make(chan bool)
	wg.Add(1)
	go server.RunBadgerGC(store, logger.Named("gc"), stopGC, &wg)

	router := mux.NewRouter()
	handler := server.NewHandler(host, hub, checkpointer, metrics, logger)
	server.SetupRoutes(router, handler, hub, store, checkpointMonitor, registry, cfg.Port)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serveErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()

	// Stop taking requests before the final checkpoint so it sees every write
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown warning", zap.Error(err))
	}

	cancel()
	close(stopSampler)
	close(stopCheckpoints)
	close(stopGC)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("All background tasks stopped cleanly")
	case <-shutdownCtx.Done():
		logger.Warn("Some background tasks did not stop in time")
	}

	logger.Info("tinyrec server exited")
	return runErr
}
