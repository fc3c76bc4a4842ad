// Package server exposes the worker's operational HTTP surface: liveness,
// readiness and prometheus metrics. There is no business API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pointsworks/pointstream/internal/config"
	"github.com/pointsworks/pointstream/internal/docstore"
	"github.com/pointsworks/pointstream/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)

func NewEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	return engine
}

type Server struct {
	engine *gin.Engine
	addr   string
	store  docstore.Pinger
	log    *zap.Logger
}

type ServerParam struct {
	fx.In

	Engine  *gin.Engine
	Config  config.Config
	Store   docstore.Pinger
	Metrics *metrics.Registry
	Log     *zap.Logger
}

func NewServer(p ServerParam) *Server {
	s := &Server{
		engine: p.Engine,
		addr:   p.Config.HTTP.Addr,
		store:  p.Store,
		log:    p.Log.Named("server"),
	}
	if s.addr == "" {
		s.addr = ":8080"
	}

	p.Engine.GET("/healthz", s.Healthz)
	p.Engine.GET("/readyz", s.Readyz)
	p.Engine.GET("/metrics", gin.WrapH(p.Metrics.Handler()))
	return s
}

func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func RunHTTP(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				s.log.Info("http server listening", zap.String("addr", s.addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
