// Package server is the HTTP layer: echo routing, bearer-token auth
// middleware and handlers over the track engine and report aggregator.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/tickbook/tickbook/internal/logger"
	"github.com/tickbook/tickbook/internal/report"
	"github.com/tickbook/tickbook/internal/store"
	"github.com/tickbook/tickbook/internal/track"
)

// Server is the tickbook API server.
type Server struct {
	store  *store.Store
	engine *track.Engine
	agg    *report.Aggregator
	echo   *echo.Echo
	log    zerolog.Logger
}

// New wires the HTTP layer over an opened store.
func New(st *store.Store, clock track.Clock) *Server {
	s := &Server{
		store:  st,
		engine: track.NewEngine(st, clock),
		agg:    report.NewAggregator(st, clock),
		log:    logger.With("server"),
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true

	e.Use(s.requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", s.handleHealth)

	api := e.Group("/api/v1")

	// Auth endpoints (public)
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)

	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.POST("/logout", s.handleLogout)
	protected.GET("/me", s.handleMe)

	protected.GET("/clients", s.handleListClients)
	protected.POST("/clients", s.handleCreateClient)
	protected.GET("/clients/:id", s.handleShowClient)
	protected.PUT("/clients/:id", s.handleUpdateClient)
	protected.DELETE("/clients/:id", s.handleDeleteClient)

	protected.GET("/projects", s.handleListProjects)
	protected.POST("/projects", s.handleCreateProject)
	protected.GET("/projects/:id", s.handleShowProject)
	protected.PUT("/projects/:id", s.handleUpdateProject)
	protected.DELETE("/projects/:id", s.handleDeleteProject)

	protected.GET("/timelogs", s.handleListTimeLogs)
	protected.POST("/timelogs", s.handleCreateTimeLog)
	protected.GET("/timelogs/total-hours", s.handleTotalHours)
	protected.GET("/timelogs/:id", s.handleShowTimeLog)
	protected.PUT("/timelogs/:id", s.handleUpdateTimeLog)
	protected.DELETE("/timelogs/:id", s.handleDeleteTimeLog)
	protected.POST("/timelogs/:id/start", s.handleStartTimeLog)
	protected.POST("/timelogs/:id/stop", s.handleStopTimeLog)

	protected.GET("/report", s.handleReport)
	protected.GET("/report/export", s.handleReportExport)

	s.echo = e
}

// requestLogger emits one structured line per request with a generated
// request id.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()
		requestID := uuid.New().String()
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		res := c.Response()
		s.log.Info().
			Str("request_id", requestID).
			Str("method", req.Method).
			Str("uri", req.RequestURI).
			Str("remote", c.RealIP()).
			Int("status", res.Status).
			Int64("size", res.Size).
			Dur("duration", time.Since(start)).
			Msg("request")
		return nil
	}
}

// Router returns the HTTP handler, for tests.
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
