package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/open-conduit/open-conduit/internal/adapter"
	"github.com/open-conduit/open-conduit/internal/credentials"
)

// HandleAdapterStats lists the registered adapter catalog.
func (h *Handlers) HandleAdapterStats(c *echo.Context) error {
	return c.JSON(http.StatusOK, h.Registry.Stats())
}

// definitionIdentity is the placeholder triple used when an adapter is opened
// only to read its static definition.
func definitionIdentity(integrationID string) adapter.IntegrationIdentity {
	return adapter.IntegrationIdentity{
		IntegrationID: integrationID,
		TenantID:      "system",
		ConnectionID:  "system",
	}
}

// HandleAdapterShow returns one adapter's static definition.
func (h *Handlers) HandleAdapterShow(c *echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if !h.Registry.Has(id) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown integration"})
	}
	a, err := h.Registry.Open(id, definitionIdentity(id))
	if err != nil {
		return h.RenderError(c, err)
	}
	return c.JSON(http.StatusOK, a.Definition())
}

// HandleConnectionHealth runs an on-demand health check for one stored
// connection. The check itself never fails the request; an unreachable
// provider comes back as healthy=false with a 200.
func (h *Handlers) HandleConnectionHealth(c *echo.Context) error {
	connID := strings.TrimSpace(c.Param("id"))
	conn, err := h.Connections.Get(c.Request().Context(), connID)
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown connection"})
		}
		return h.RenderError(c, err)
	}
	if !h.Registry.Has(conn.IntegrationID) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown integration"})
	}

	a, err := h.Registry.Open(conn.IntegrationID, adapter.IntegrationIdentity{
		IntegrationID: conn.IntegrationID,
		TenantID:      conn.TenantID,
		ConnectionID:  conn.ID,
	})
	if err != nil {
		return h.RenderError(c, err)
	}

	return c.JSON(http.StatusOK, adapter.RunHealthCheck(c.Request().Context(), a))
}

// HandleResync triggers a manual sync run.
func (h *Handlers) HandleResync(c *echo.Context) error {
	if h.Syncer == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "sync is not configured"})
	}
	if err := h.Syncer.RunOnce(c.Request().Context()); err != nil {
		return h.RenderError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "sync completed"})
}
