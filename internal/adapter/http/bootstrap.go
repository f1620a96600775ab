package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todolist/internal/adapter/http/routes"
	"todolist/internal/core/port"
	"todolist/internal/core/telemetry"
	"todolist/pkg/config"
	"todolist/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// StartServerWithConfig serves the API until SIGINT or SIGTERM, then drains
// in-flight requests and closes the container.
func StartServerWithConfig(ctx context.Context, cfg *config.AppConfig, log *logger.LokiLogger, metrics *telemetry.AppMetrics, probe port.Telemetry) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	container, err := NewContainer(ctx, cfg, log, metrics, probe)

	if err != nil {
		return err
	}

	defer container.Close(context.Background())

	router := routes.SetupRouterWithConfig(container.Handlers(), metrics, log, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      routes.WithCORS(router, cfg.CORSOrigin),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Zap().Info("Server starting",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("database", cfg.Database.Driver),
		zap.Bool("rate_limit_enabled", cfg.RateLimitEnabled),
		zap.Bool("https_enforced", cfg.EnforceHTTPS || cfg.IsProduction()))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}

		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Zap().Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
