package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Sweeper     Sweeper
	Reviews     ReviewGenerator
	Subscribers SubscriberManager
	CronSecret  string
}

type Server struct {
	addr   string
	echo   *echo.Echo
	logger *logrus.Entry
}

func NewServer(addr string, deps Deps, logger *logrus.Entry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))

	registerRoutes(e, deps)

	return &Server{addr: addr, echo: e, logger: logger}
}

func registerRoutes(e *echo.Echo, deps Deps) {
	h := &handler{sweeper: deps.Sweeper, reviews: deps.Reviews, subscribers: deps.Subscribers}

	e.GET("/healthz", healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	{
		api.GET("/descriptors", h.ListDescriptors)
		api.POST("/reviews", h.GenerateReview)
		api.POST("/subscribers", h.Subscribe)
		api.PUT("/subscribers/:id/preferences", h.UpdatePreferences)
		api.POST("/subscribers/deactivate", h.Deactivate)
		api.POST("/subscriptions/complete", h.CompleteSubscription)
	}

	// Trigger for external schedulers.
	api.POST("/notifications/due", h.ProcessDueNotifications, bearerAuth(deps.CronSecret))
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.addr).Info("Starting HTTP server")
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}
