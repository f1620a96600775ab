package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	api "todolist/internal/adapter/http"
	"todolist/internal/adapter/telemetry"
	"todolist/pkg/config"
	"todolist/pkg/logger"
)

var version = "dev"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()

	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	cfg.WithDevelopmentSecrets()

	lokiLogger, err := logger.NewLokiLogger(cfg.Telemetry.ServiceName, cfg.Telemetry.LokiURL)

	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}

	defer lokiLogger.Sync()

	telemetryContainer, err := telemetry.NewContainer(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Environment,
		MetricsPort:    cfg.Telemetry.MetricsPort,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
	}, lokiLogger.Zap())

	if err != nil {
		lokiLogger.Zap().Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	defer telemetryContainer.Shutdown(context.Background())

	metrics := telemetryContainer.AppMetrics
	metrics.StartSystemMetrics(ctx)

	probe := telemetryContainer.NewTelemetryProbe(lokiLogger.Zap())

	if err := api.StartServerWithConfig(ctx, cfg, lokiLogger, metrics, probe); err != nil {
		lokiLogger.Zap().Error("Server stopped with error", zap.Error(err))
	}
}
