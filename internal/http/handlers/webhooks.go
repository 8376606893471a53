package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/open-conduit/open-conduit/internal/adapter"
	"github.com/open-conduit/open-conduit/internal/credentials"
	"github.com/open-conduit/open-conduit/internal/metrics"
)

// Signature header candidates, checked in order. Providers disagree on the
// header name but all carry a hex HMAC in one of these.
var signatureHeaders = []string{
	"X-Webhook-Signature",
	"X-Hub-Signature-256",
	"X-Signature",
}

const defaultWebhookMaxBody = 1 << 20 // 1 MiB

// HandleWebhook is the inbound notification endpoint:
// POST /webhooks/:integration/:connection.
//
// Verification is fail-closed at every step: an unknown integration or
// connection is a 404, a bad signature is a 401, and a payload the adapter
// cannot parse is acknowledged with 202 but never processed.
func (h *Handlers) HandleWebhook(c *echo.Context) error {
	integrationID := strings.TrimSpace(c.Param("integration"))
	connectionID := strings.TrimSpace(c.Param("connection"))
	ctx := c.Request().Context()

	outcome := func(result string) {
		metrics.WebhooksTotal.WithLabelValues(integrationID, result).Inc()
	}

	if !h.Registry.Has(integrationID) {
		outcome("unknown_integration")
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown integration"})
	}

	conn, err := h.Connections.Get(ctx, connectionID)
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			outcome("unknown_connection")
			return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown connection"})
		}
		outcome("error")
		return h.RenderError(c, err)
	}
	if conn.IntegrationID != integrationID {
		outcome("unknown_connection")
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown connection"})
	}

	maxBody := h.Cfg.WebhookMaxBody
	if maxBody <= 0 {
		maxBody = defaultWebhookMaxBody
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBody+1))
	if err != nil {
		outcome("error")
		return h.RenderError(c, err)
	}
	if int64(len(payload)) > maxBody {
		outcome("rejected")
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
	}

	a, err := h.Registry.Open(integrationID, adapter.IntegrationIdentity{
		IntegrationID: conn.IntegrationID,
		TenantID:      conn.TenantID,
		ConnectionID:  conn.ID,
	})
	if err != nil {
		outcome("error")
		return h.RenderError(c, err)
	}

	if !a.VerifyWebhookSignature(payload, signatureFromRequest(c.Request()), conn.WebhookSecret) {
		outcome("rejected")
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
	}

	event := a.ParseWebhook(payload, flattenHeaders(c.Request().Header))
	if event == nil {
		// Verified but unrecognized: acknowledge so the provider stops
		// retrying, process nothing.
		outcome("ignored")
		return c.JSON(http.StatusAccepted, map[string]string{"status": "ignored"})
	}

	if h.Webhooks != nil {
		if err := h.Webhooks.HandleWebhook(ctx, conn, *event); err != nil {
			outcome("error")
			return h.RenderError(c, err)
		}
	}

	outcome("processed")
	return c.JSON(http.StatusOK, map[string]string{"status": "processed"})
}

func signatureFromRequest(r *http.Request) string {
	for _, name := range signatureHeaders {
		if v := strings.TrimSpace(r.Header.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out
}
