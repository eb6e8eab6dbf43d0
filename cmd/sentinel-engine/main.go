package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/pulseguard/pulse-sentinel/internal/alerts"
	"github.com/pulseguard/pulse-sentinel/internal/api"
	"github.com/pulseguard/pulse-sentinel/internal/config"
	"github.com/pulseguard/pulse-sentinel/internal/detectors"
	"github.com/pulseguard/pulse-sentinel/internal/engine"
	"github.com/pulseguard/pulse-sentinel/internal/metrics"
	"github.com/pulseguard/pulse-sentinel/internal/models"
	"github.com/pulseguard/pulse-sentinel/internal/notify"
	"github.com/pulseguard/pulse-sentinel/internal/telemetry"
	"github.com/pulseguard/pulse-sentinel/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting pulse-sentinel", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var notifier alerts.Notifier = notify.NoopNotifier{}
	if cfg.Notifier.Enabled && cfg.Notifier.Addr != "" {
		valkey, err := notify.NewValkeyNotifier(notify.ValkeyConfig{
			Addr:         cfg.Notifier.Addr,
			Username:     cfg.Notifier.Username,
			Password:     cfg.Notifier.Password,
			DB:           cfg.Notifier.DB,
			Channel:      cfg.Notifier.Channel,
			DialTimeout:  cfg.Notifier.DialTimeout,
			ReadTimeout:  cfg.Notifier.ReadTimeout,
			WriteTimeout: cfg.Notifier.WriteTimeout,
			MaxRetries:   cfg.Notifier.MaxRetries,
			TLS:          cfg.Notifier.TLS,
		})
		if err != nil {
			logger.Warn("valkey notifier unavailable", slog.Any("error", err))
		} else {
			notifier = valkey
			defer valkey.Close()
		}
	}

	alertManager := alerts.NewManager(logger, notifier, cfg.Alerts.Retention)
	registry := telemetry.NewRegistry(cfg.Buffer.Capacity)
	eng := engine.New(logger, registry, buildDetectors(cfg.Detectors, logger), alertManager)

	hub := api.NewHub(logger)
	handlers := api.NewHandlers(logger, eng, alertManager, hub)
	server, err := api.NewServer(cfg.Server, handlers)
	if err != nil {
		logger.Error("failed to create HTTP server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	background, bgCtx := errgroup.WithContext(ctx)
	background.Go(func() error {
		alertManager.Run(bgCtx, cfg.Alerts.SweepInterval)
		return nil
	})
	background.Go(func() error {
		monitorHealth(bgCtx, logger, eng, hub, cfg.Monitor.HealthInterval)
		return nil
	})

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("HTTP server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	_ = background.Wait()
	logger.Info("pulse-sentinel stopped")
}

func buildDetectors(cfg config.DetectorsConfig, logger *slog.Logger) []detectors.Detector {
	var dets []detectors.Detector
	if cfg.SystemOutlier {
		dets = append(dets, detectors.NewSystemOutlierDetector(logger))
	}
	if cfg.NetworkOutlier {
		dets = append(dets, detectors.NewNetworkOutlierDetector(logger))
	}
	if cfg.Threshold {
		dets = append(dets, detectors.NewThresholdDetector(detectors.Limits{
			CPU:            cfg.Limits.CPUHigh,
			CPUCritical:    cfg.Limits.CPUCritical,
			Memory:         cfg.Limits.MemoryHigh,
			MemoryCritical: cfg.Limits.MemoryCritical,
			Disk:           cfg.Limits.DiskHigh,
			DiskCritical:   cfg.Limits.DiskCritical,
			NetworkLatency: cfg.Limits.LatencyMs,
		}))
	}
	if cfg.Trend {
		dets = append(dets, detectors.NewTrendDetector())
	}
	return dets
}

// monitorHealth periodically gauges every known source and pushes the
// reports to dashboards. Critical reports are also logged so they surface
// without a connected dashboard.
func monitorHealth(ctx context.Context, logger *slog.Logger, eng *engine.Engine, hub *api.Hub, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, sourceID := range eng.Sources() {
				report := eng.HealthScore(sourceID)
				hub.Broadcast(api.EventHealthUpdate, report)
				if report.Status == models.HealthCritical {
					hub.Broadcast(api.EventCriticalAlert, report)
					logger.Warn("source in critical health",
						slog.String("source_id", sourceID),
						slog.Int("score", report.OverallScore))
				}
			}
		}
	}
}
