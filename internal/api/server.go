// Package api serves goalkeeper over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/julianstephens/goalkeeper/internal/config"
	"github.com/julianstephens/goalkeeper/internal/feed"
	"github.com/julianstephens/goalkeeper/internal/goalstore"
	"github.com/julianstephens/goalkeeper/internal/llm"
	"github.com/julianstephens/goalkeeper/internal/logger"
	"github.com/julianstephens/goalkeeper/internal/planner"
	"github.com/julianstephens/goalkeeper/internal/webhook"
)

// Deps are the services the handlers call. NATS may be nil, which disables
// the community stream.
type Deps struct {
	Repo      goalstore.Repository
	Sessions  *goalstore.Sessions
	Feed      *feed.Service
	NATS      *nats.Conn
	Generator planner.PlanGenerator
	LLM       llm.Completer
	Webhook   *webhook.Handler
	Now       func() time.Time
}

type Server struct {
	echo    *echo.Echo
	cfg     config.ServerConfig
	deps    Deps
	limiter *ipLimiter
}

func NewServer(cfg config.ServerConfig, deps Deps) (*Server, error) {
	if deps.Repo == nil || deps.Sessions == nil {
		return nil, errors.New("goal repository and sessions are required")
	}
	if deps.Feed == nil {
		return nil, errors.New("feed service is required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger)
	e.Use(recordMetrics)

	s := &Server{
		echo:    e,
		cfg:     cfg,
		deps:    deps,
		limiter: newIPLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
	}
	s.registerRoutes()
	return s, nil
}

// Echo exposes the router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	public := s.echo.Group("/api")
	public.POST("/generate-goal-plan", s.handleGeneratePlan, s.limiter.middleware)
	public.POST("/llama", s.handleLlama, s.limiter.middleware)
	public.POST("/webhooks/identity", s.handleIdentityWebhook, s.limiter.middleware)

	v1 := s.echo.Group("/api/v1", requireUser(s.cfg.UserHeader))

	v1.GET("/goals", s.handleListGoals)
	v1.POST("/goals", s.handleCreateGoal)
	v1.GET("/goals/:id", s.handleGetGoal)
	v1.PATCH("/goals/:id", s.handleUpdateGoal)
	v1.DELETE("/goals/:id", s.handleDeleteGoal)
	v1.POST("/goals/:id/milestones", s.handleAddMilestone)
	v1.PATCH("/milestones/:id", s.handleUpdateMilestone)
	v1.DELETE("/milestones/:id", s.handleDeleteMilestone)

	v1.GET("/tasks", s.handleListTasks)
	v1.POST("/tasks", s.handleCreateTask)
	v1.POST("/tasks/:id/toggle", s.handleToggleTask)
	v1.DELETE("/tasks/:id", s.handleDeleteTask)

	v1.POST("/plans/confirm", s.handleConfirmPlan)
	v1.GET("/calendar", s.handleCalendar)
	v1.GET("/analytics/completion", s.handleAnalytics)

	v1.GET("/reflections", s.handleListReflections)
	v1.POST("/reflections", s.handleAddReflection)
	v1.GET("/resources", s.handleListResources)
	v1.POST("/resources", s.handleAddResource)

	v1.GET("/communities", s.handleListCommunities)
	v1.POST("/communities/:id/membership", s.handleToggleMembership)
	v1.GET("/communities/:id/posts", s.handleListPosts)
	v1.POST("/communities/:id/posts", s.handleCreatePost)
	v1.GET("/communities/:id/stream", s.handleStream)
	v1.POST("/posts/:id/like", s.handleToggleLike)
	v1.GET("/posts/:id/comments", s.handleListComments)
	v1.POST("/posts/:id/comments", s.handleAddComment)
}

type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	addr := s.cfg.Addr()
	logger.Info("Starting HTTP server", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}
