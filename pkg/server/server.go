// Package server exposes the OAuth connect flow, the sync trigger and the
// dashboard read endpoints over HTTP. Request authentication is handled by
// the reverse proxy in front; handlers identify the tenant by the user id
// the proxy forwards.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/solvik/fortnox-sync/db"
	"github.com/solvik/fortnox-sync/pkg/http/fortnox"
	"github.com/solvik/fortnox-sync/pkg/services"
)

// Server wires the HTTP handlers to the sync pipeline.
type Server struct {
	store  db.Store
	client *fortnox.Client
	syncer *services.VoucherSyncer
	engine *gin.Engine
}

// New creates the HTTP server and registers its routes.
func New(store db.Store, client *fortnox.Client, syncer *services.VoucherSyncer) *Server {
	s := &Server{
		store:  store,
		client: client,
		syncer: syncer,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	engine.GET("/auth/fortnox/connect", s.handleConnect)
	engine.GET("/api/fortnox/callback", s.handleCallback)

	api := engine.Group("/api")
	{
		api.POST("/fortnox/sync", s.handleSync)
		api.POST("/fortnox/disconnect", s.handleDisconnect)
		api.GET("/fortnox/status", s.handleStatus)
		api.GET("/kpi/:kind", s.handleKPI)
	}

	s.engine = engine
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	log.Info().Str("addr", addr).Msg("HTTP server listening")
	return s.engine.Run(addr)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("Request handled")
	}
}
