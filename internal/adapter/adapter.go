// Package adapter defines the uniform contract every provider integration
// implements, plus the shared machinery (authenticated requests, rate-limit
// extraction, batch orchestration, webhook verification, health probes) the
// contract is built on.
package adapter

import (
	"context"
	"net/http"
	"time"

	"github.com/open-conduit/open-conduit/internal/credentials"
	"github.com/open-conduit/open-conduit/internal/monitoring"
)

// Adapter is the per-provider integration surface. Required operations have
// no defaults; the optional surface (teams, webhooks, lifecycle hooks) comes
// with fail-closed defaults from Base.
//
// An adapter instance is scoped to one (integration, tenant, connection)
// triple and is not shared across concurrent callers.
type Adapter interface {
	// Definition returns static provider metadata. It never fails.
	Definition() Definition
	// Identity returns the triple this instance is bound to.
	Identity() IntegrationIdentity

	// TestConnection probes provider connectivity. Failures are reported in
	// the result, never as an error.
	TestConnection(ctx context.Context) ConnectionTestResult

	Fetch(ctx context.Context, req FetchRequest) (FetchResult, error)
	// Push writes one record. Failures are encoded in the result so batch
	// callers can continue.
	Push(ctx context.Context, record Record, opts PushOptions) PushResult

	EntitySchema(ctx context.Context, name string) (EntitySchema, error)
	ListEntities(ctx context.Context) ([]string, error)
	Search(ctx context.Context, opts SearchOptions) (FetchResult, error)

	// Optional surface. Base supplies the documented defaults.
	FetchTeams(ctx context.Context, cfg TeamSyncConfig) ([]Team, error)
	ParseWebhook(payload []byte, headers map[string]string) *WebhookEvent
	VerifyWebhookSignature(payload []byte, signature, secret string) bool
	OnConnect(ctx context.Context) error
	OnDisconnect(ctx context.Context) error
	OnError(err error, operation string)
	OnRateLimitHit(info *RateLimitInfo)
}

// Deps are the shared, read-mostly collaborators injected at construction.
// The framework never mutates credentials and treats the monitoring sink as
// fire-and-forget.
type Deps struct {
	Credentials credentials.Provider
	Monitor     monitoring.Sink
	HTTPClient  *http.Client
	Timeout     time.Duration
}

func (d Deps) monitor() monitoring.Sink {
	if d.Monitor != nil {
		return d.Monitor
	}
	return monitoring.NopSink{}
}

// Hooks lets a provider override lifecycle behavior without reimplementing
// the Base methods. Nil entries keep the defaults.
type Hooks struct {
	Connect      func(ctx context.Context) error
	Disconnect   func(ctx context.Context) error
	Error        func(err error, operation string)
	RateLimitHit func(info *RateLimitInfo)
}

// Base carries the framework-supplied default behavior. Concrete adapters
// embed *Base and implement the required operations on top of Request.
type Base struct {
	id      IntegrationIdentity
	monitor monitoring.Sink
	client  *Client

	// Hooks overrides lifecycle defaults; zero entries fall back to the
	// monitoring-event defaults below.
	Hooks Hooks
}

// NewBase wires the shared machinery for one adapter instance.
func NewBase(deps Deps, id IntegrationIdentity) *Base {
	b := &Base{
		id:      id,
		monitor: deps.monitor(),
	}
	b.client = NewClient(ClientConfig{
		Identity:    id,
		Credentials: deps.Credentials,
		Monitor:     b.monitor,
		HTTPClient:  deps.HTTPClient,
		Timeout:     deps.Timeout,
		// Route through the Base methods so Hooks overrides apply to
		// requests issued by the shared client as well.
		OnError:        func(err error) { b.OnError(err, "request") },
		OnRateLimitHit: func(info *RateLimitInfo) { b.OnRateLimitHit(info) },
	})
	return b
}

// Identity returns the immutable triple this instance is bound to.
func (b *Base) Identity() IntegrationIdentity {
	return b.id
}

// Client exposes the request executor for provider implementations that need
// to tune it (custom rate-limit extractor, for example).
func (b *Base) Client() *Client {
	return b.client
}

// Request issues one authenticated call through the shared executor.
func (b *Base) Request(ctx context.Context, url string, opts *RequestOptions) Response {
	return b.client.Do(ctx, url, opts)
}

// FetchTeams defaults to unsupported; only group-sync providers override it.
func (b *Base) FetchTeams(context.Context, TeamSyncConfig) ([]Team, error) {
	return nil, ErrNotSupported
}

// ParseWebhook defaults to "cannot parse". Callers must treat nil as
// "ignore, do not process", never as an empty event.
func (b *Base) ParseWebhook([]byte, map[string]string) *WebhookEvent {
	return nil
}

// VerifyWebhookSignature defaults to reject. The default is deliberately
// fail-closed: an adapter that forgets to implement verification cannot
// accidentally accept forged webhooks.
func (b *Base) VerifyWebhookSignature([]byte, string, string) bool {
	return false
}

func (b *Base) OnConnect(ctx context.Context) error {
	if b.Hooks.Connect != nil {
		return b.Hooks.Connect(ctx)
	}
	return nil
}

func (b *Base) OnDisconnect(ctx context.Context) error {
	if b.Hooks.Disconnect != nil {
		return b.Hooks.Disconnect(ctx)
	}
	return nil
}

func (b *Base) OnError(err error, operation string) {
	if b.Hooks.Error != nil {
		b.Hooks.Error(err, operation)
		return
	}
	b.monitor.TrackException(err, map[string]any{
		"integration_id": b.id.IntegrationID,
		"tenant_id":      b.id.TenantID,
		"connection_id":  b.id.ConnectionID,
		"operation":      operation,
	})
}

func (b *Base) OnRateLimitHit(info *RateLimitInfo) {
	if b.Hooks.RateLimitHit != nil {
		b.Hooks.RateLimitHit(info)
		return
	}
	props := map[string]any{
		"integration_id": b.id.IntegrationID,
		"connection_id":  b.id.ConnectionID,
	}
	if info != nil {
		props["remaining"] = info.Remaining
		props["reset_at"] = info.ResetAt
	}
	b.monitor.TrackEvent("adapter.rate_limit_hit", props)
}
