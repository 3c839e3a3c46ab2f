package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DataRozhlas/covid-obce/internal/domain"
)

// SnapshotSource returns the snapshot the API serves.
type SnapshotSource interface {
	Latest() (*domain.Snapshot, error)
}

// Server exposes the dashboard API plus health, readiness, and metrics endpoints.
type Server struct {
	echo      *echo.Echo
	addr      string
	snapshots SnapshotSource
	logger    *slog.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(addr string, allowOrigins []string, ready sharedobs.ReadinessChecker, snapshots SnapshotSource, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 10 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	s := &Server{
		echo:      e,
		addr:      addr,
		snapshots: snapshots,
		logger:    logger,
	}

	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))
	if len(allowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: allowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		}))
	}

	e.GET("/healthz", echo.WrapHandler(sharedobs.LivenessHandler()))
	e.GET("/readyz", echo.WrapHandler(sharedobs.ReadinessHandler(ready)))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.GET("/meta", s.handleMeta)
	api.GET("/districts", s.handleDistricts)
	api.GET("/districts/:name", s.handleDistrict)
	api.GET("/municipalities", s.handleMunicipalities)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.addr)
	return s.echo.Start(s.addr)
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

type errorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		msg = fmt.Sprint(he.Message)
	case errors.Is(err, domain.ErrNoSnapshot):
		code = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidQuery):
		code = http.StatusBadRequest
	}

	if code >= http.StatusInternalServerError && !errors.Is(err, domain.ErrNoSnapshot) {
		s.logger.Error("request failed", "uri", c.Request().RequestURI, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorResponse{Message: msg, Code: code})
}
