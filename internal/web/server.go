// Package web gin server
package web

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	ginMw "github.com/Laisky/gin-middlewares/v7"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/Laisky/laisky-collab/internal/web/session/controller"
	"github.com/Laisky/laisky-collab/library/log"
)

var server = gin.New()

func RunServer(addr string, ctl *controller.Type) {
	server.Use(
		gin.Recovery(),
		ginMw.NewLoggerMiddleware(
			ginMw.WithLoggerMwColored(),
			ginMw.WithLevel(log.Logger.Level().String()),
			ginMw.WithLogger(log.Logger.Named("gin")),
		),
	)
	if !gconfig.Shared.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := ginMw.EnableMetric(server); err != nil {
		log.Logger.Panic("enable metric server", zap.Error(err))
	}

	server.Any("/health", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "hello, world")
	})

	bindRoutes(server, ctl)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pool errgroup.Group
	pool.Go(func() error {
		log.Logger.Info("listening on http", zap.String("addr", addr))
		return httpServer.ListenAndServe()
	})
	pool.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	log.Logger.Panic("httpServer exit", zap.Error(pool.Wait()))
}

func bindRoutes(engine *gin.Engine, ctl *controller.Type) {
	api := engine.Group("/api")
	api.POST("/sessions", ctl.CreateSession)
	api.GET("/sessions", ctl.ListSessions)
	api.GET("/sessions/:id", ctl.GetSession)
	api.DELETE("/sessions/:id", ctl.DeleteSession)
	api.PUT("/sessions/:id/file", ctl.PutFile)
	api.GET("/sessions/:id/file", ctl.GetFile)
	api.GET("/sessions/:id/files", ctl.ListFiles)

	engine.GET("/ws", ctl.Relay.HandleWS)
}
