package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "jan-chat/docs/swagger"
	"jan-chat/internal/config"
	"jan-chat/internal/infrastructure"
	"jan-chat/internal/interfaces/httpserver/handlers/authhandler"
	"jan-chat/internal/interfaces/httpserver/middlewares"
	"jan-chat/internal/interfaces/httpserver/routes"
)

const shutdownTimeout = 15 * time.Second

type HTTPServer struct {
	engine      *gin.Engine
	infra       *infrastructure.Infrastructure
	route       *routes.Route
	authHandler *authhandler.AuthHandler
	config      *config.Config
}

func (httpServer *HTTPServer) bindSwagger() {
	httpServer.engine.GET("/api/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func NewHttpServer(
	route *routes.Route,
	authHandler *authhandler.AuthHandler,
	infra *infrastructure.Infrastructure,
	cfg *config.Config,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	server := HTTPServer{
		engine:      gin.New(),
		infra:       infra,
		route:       route,
		authHandler: authHandler,
		config:      cfg,
	}
	server.engine.Use(gin.Recovery())
	server.engine.Use(middlewares.RequestID())
	server.engine.Use(middlewares.TracingMiddleware(cfg.ServiceName))
	server.engine.Use(middlewares.LoggingMiddleware(infra.Logger))
	server.engine.Use(middlewares.MetricsMiddleware())
	server.engine.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))

	server.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server.engine.GET("/readyz", func(c *gin.Context) {
		if cfg.AuthEnabled() && !authHandler.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "auth keys unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	server.engine.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, "ok")
	})

	server.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	server.bindSwagger()

	// Routes are served at the root and mirrored under /api.
	server.route.RegisterRouter(server.engine.Group("/"))
	server.route.RegisterRouter(server.engine.Group("/api"))
	return &server
}

// Handler exposes the gin engine, mainly for tests.
func (httpServer *HTTPServer) Handler() http.Handler {
	return httpServer.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (httpServer *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", httpServer.config.HTTPPort),
		Handler:           httpServer.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		httpServer.infra.Logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return <-errCh
}
