package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"propertyhub/internal/config"
	"propertyhub/internal/handlers"
	"propertyhub/internal/metrics"
	"propertyhub/internal/middleware"
	"propertyhub/internal/render"
	"propertyhub/internal/validate"
)

type HTTPServer struct {
	engine *gin.Engine
	server *http.Server
	log    zerolog.Logger
	cfg    *config.AppConfig
}

// NewEngine builds the router with the middleware chain, the /api routes and /metrics.
func NewEngine(cfg *config.AppConfig, log zerolog.Logger, handlerSet handlers.HandlerSet) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validate.Setup()

	engine := gin.New()
	engine.RedirectTrailingSlash = true
	engine.HandleMethodNotAllowed = true

	httpMetrics := metrics.NewHTTP()

	engine.Use(
		middleware.RequestID(log),
		middleware.Logger(),
		middleware.Recovery(log),
		middleware.CORS(cfg.AllowCORSOrigins),
		httpMetrics.Middleware(),
	)

	engine.NoRoute(func(c *gin.Context) {
		render.Error(c, http.StatusNotFound, "Not found")
	})
	engine.NoMethod(func(c *gin.Context) {
		render.Error(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	engine.GET("/metrics", gin.WrapH(httpMetrics.Handler()))
	handlerSet.Register(engine.Group("/api"))

	return engine
}

func NewHTTPServer(cfg *config.AppConfig, log zerolog.Logger, handlerSet handlers.HandlerSet) *HTTPServer {
	engine := NewEngine(cfg, log, handlerSet)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &HTTPServer{
		engine: engine,
		server: srv,
		log:    log,
		cfg:    cfg,
	}
}

func (s *HTTPServer) Start() error {
	s.log.Info().
		Str("addr", s.server.Addr).
		Msg("http server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}
