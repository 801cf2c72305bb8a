package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flexbet/FlexCodeBot-Go/bot"
)

// Server runs the ops API on its own listener.
type Server struct {
	httpServer *http.Server
	log        bot.Logger
}

// NewServer builds the gin engine around the handler and wraps it in an
// http.Server ready to start.
func NewServer(addr string, h *Handler, log bot.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	h.RegisterRoutes(engine)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start serves requests until Shutdown. A closed listener is not an error.
func (s *Server) Start() error {
	if s.log != nil {
		s.log.Info("ops api listening", "addr", s.httpServer.Addr)
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
