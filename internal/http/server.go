// Package httpapp wires the echo server: adapter catalog and health routes,
// the manual sync trigger, and the inbound webhook endpoint.
package httpapp

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/open-conduit/open-conduit/internal/http/handlers"
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h   *handlers.Handlers
	e   *echo.Echo
	srv *http.Server
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(h *handlers.Handlers) *EchoServer {
	es := &EchoServer{h: h, e: echo.New()}
	es.e.Use(middleware.Recover())
	es.e.Use(requestID)
	es.registerRoutes()
	return es
}

// requestID tags every request with an id, honoring one supplied by the
// caller, so error responses can reference log lines.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := c.Request().Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(handlers.ContextKeyRequestID, id)
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}

func (es *EchoServer) registerRoutes() {
	es.e.GET("/healthz", es.h.HandleHealthz)

	api := es.e.Group("/api")
	api.GET("/adapters", es.h.HandleAdapterStats)
	api.GET("/adapters/:id", es.h.HandleAdapterShow)
	api.GET("/connections/:id/health", es.h.HandleConnectionHealth)
	api.POST("/sync", es.h.HandleResync)

	es.e.POST("/webhooks/:integration/:connection", es.h.HandleWebhook)
}

// Handler exposes the routing tree for tests.
func (es *EchoServer) Handler() http.Handler {
	return es.e
}

// Start serves until the listener fails or Shutdown is called.
func (es *EchoServer) Start(addr string) error {
	es.srv = &http.Server{
		Addr:              addr,
		Handler:           es.e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return es.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (es *EchoServer) Shutdown(ctx context.Context) error {
	if es.srv == nil {
		return nil
	}
	return es.srv.Shutdown(ctx)
}
