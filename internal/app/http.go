package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adanyl0v/go-tasks/internal/config"
	"github.com/adanyl0v/go-tasks/internal/delivery/http/v1"
	"github.com/adanyl0v/go-tasks/internal/events"
	"github.com/adanyl0v/go-tasks/internal/query"
	"github.com/adanyl0v/go-tasks/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	hub := events.NewHub()

	router := gin.New()
	// The event feed authenticates through its query string.
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/v1/tasks/events"},
	}))
	router.Use(gin.Recovery())
	registerRoutes(router, hub)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	// Shutdown does not wait for hijacked websocket connections, closing
	// the hub ends their feeds.
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router *gin.Engine, hub *events.Hub) {
	cfg := config.Global()

	engine := query.NewEngine(globalTaskStore, cfg.Query.DefaultPageSize, cfg.Query.MaxPageSize)
	authService := services.NewAuthService(
		componentLogger("auth"),
		cfg.JWT.Issuer,
		[]byte(cfg.JWT.SigningKey),
	)
	taskService := services.NewTaskService(
		componentLogger("tasks"),
		globalTaskStore,
		engine,
		hub,
	)

	v1Handler := v1.New(
		componentLogger("http"),
		authService,
		taskService,
		hub,
		globalTaskStore,
	)
	limiter := v1.NewRateLimiter(
		componentLogger("ratelimit"),
		globalRedisClient,
		cfg.RateLimit.Requests,
		cfg.RateLimit.Window,
	)

	router.Use(v1Handler.HandleRequestID, v1Handler.HandleMetrics)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	v1.RegisterRoutes(router, v1Handler, limiter)
}
