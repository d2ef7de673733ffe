package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"TickPull/internal/usecase"
	"TickPull/pkg/logger"
)

// StatusServer exposes progress and metrics for a running backfill. A
// multi-year range keeps the process busy for hours; this is how you watch it.
type StatusServer struct {
	echo            *echo.Echo
	port            int
	shutdownTimeout time.Duration
	log             *logger.Logger
}

// NewStatusServer creates the status HTTP surface.
func NewStatusServer(progress *usecase.Progress, port int, shutdownTimeout time.Duration, log *logger.Logger) *StatusServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/progress", func(c echo.Context) error {
		return c.JSON(http.StatusOK, progress.Get())
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &StatusServer{
		echo:            e,
		port:            port,
		shutdownTimeout: shutdownTimeout,
		log:             log,
	}
}

// Start serves in the background.
func (s *StatusServer) Start() {
	addr := fmt.Sprintf(":%d", s.port)
	go func() {
		s.log.Info("status server listening", logger.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("status server", logger.Error(err))
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *StatusServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Warn("status server shutdown", logger.Error(err))
	}
}
