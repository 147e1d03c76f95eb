// Package api exposes a read/control REST surface over the network
// subsystem: interface attributes and stats, and a minimal socket
// control-plane (open/list/close), grounded on the same Gin + swaggo
// conventions the rest of the retrieval pack's management API uses.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/cezamee/netcore/internal/core"
	"github.com/gin-gonic/gin"
)

// Server is the management REST API server over a Subsystem.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds a Server listening on addr (host:port).
func New(sub *core.Subsystem, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	h := newHandlers(sub)
	registerRoutes(engine, h)
	mountSPA(engine)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{engine: engine, httpServer: httpServer}
}

// Engine exposes the underlying gin.Engine, mainly for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
