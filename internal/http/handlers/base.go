// Package handlers contains HTTP handler logic split by domain.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/open-conduit/open-conduit/internal/adapter"
	"github.com/open-conduit/open-conduit/internal/adapter/registry"
	"github.com/open-conduit/open-conduit/internal/config"
	"github.com/open-conduit/open-conduit/internal/connections"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging and client error references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"
)

// SyncRunner is the interface for triggering manual syncs.
type SyncRunner interface {
	RunOnce(context.Context) error
}

// ConnectionSource loads stored connections for webhook and health routes.
type ConnectionSource interface {
	Get(ctx context.Context, id string) (connections.Connection, error)
	List(ctx context.Context, integrationID string) ([]connections.Connection, error)
}

// WebhookSink receives verified, parsed webhook events for processing.
type WebhookSink interface {
	HandleWebhook(ctx context.Context, conn connections.Connection, event adapter.WebhookEvent) error
}

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg         config.Config
	Registry    *registry.Registry
	Connections ConnectionSource
	Syncer      SyncRunner
	Webhooks    WebhookSink
}

// RenderError returns an opaque 500 with a request reference; the real error
// only goes to the log.
func (h *Handlers) RenderError(c *echo.Context, err error) error {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	path := ""
	if req := c.Request(); req != nil && req.URL != nil {
		path = req.URL.Path
	}
	slog.Error("http error",
		"request_id", requestID,
		"path", path,
		"error", err,
	)

	msg := "Internal server error."
	if requestID != "" {
		msg = fmt.Sprintf("%s Reference: %s.", msg, requestID)
	}
	msg = fmt.Sprintf("%s Code: %s.", msg, InternalErrorCode)
	return c.String(http.StatusInternalServerError, msg)
}

// HandleHealthz reports process liveness.
func (h *Handlers) HandleHealthz(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
