package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viant/turnflow/progress"
	"github.com/viant/turnflow/runtime/controller"
)

// Server implements the admin HTTP API
type Server struct {
	controller *controller.Controller
	progress   *progress.Progress
	gatherer   prometheus.Gatherer
	logger     *slog.Logger
	startedAt  time.Time
	httpServer *http.Server
}

// ErrorResponse is returned for failed requests
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

const shutdownTimeout = 5 * time.Second

// NewServer creates an admin server; gatherer may be nil to disable /metrics
func NewServer(ctrl *controller.Controller, p *progress.Progress, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		controller: ctrl,
		progress:   p,
		gatherer:   gatherer,
		logger:     logger,
		startedAt:  time.Now(),
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return s.logger
		}),
	))

	router.GET("/health", s.handleHealth)
	router.GET("/flows", s.listFlows)
	router.GET("/flows/:flowID", s.getFlow)
	router.GET("/conversations/:conversationID", s.getConversation)
	router.DELETE("/conversations/:conversationID", s.resetConversation)
	router.GET("/stats", s.handleStats)
	if s.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	return router
}

// ListenAndServe serves the API on addr until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.SetupRoutes()}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin API listening", slog.String("addr", addr))
		errCh <- s.httpServer.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func errorJSON(c *gin.Context, status int, err error) {
	c.JSON(status, ErrorResponse{Error: err.Error(), Status: status})
}
