// Package adaptertest provides a scriptable in-memory adapter for tests that
// exercise registry, webhook, and sync plumbing without a real provider.
package adaptertest

import (
	"context"

	"github.com/open-conduit/open-conduit/internal/adapter"
)

// Fake is a fully scriptable adapter. Unset funcs fall back to benign
// defaults, so a test only scripts the paths it exercises.
type Fake struct {
	*adapter.Base

	Def adapter.Definition

	TestConnectionFunc func(ctx context.Context) adapter.ConnectionTestResult
	FetchFunc          func(ctx context.Context, req adapter.FetchRequest) (adapter.FetchResult, error)
	PushFunc           func(ctx context.Context, record adapter.Record, opts adapter.PushOptions) adapter.PushResult
	EntitySchemaFunc   func(ctx context.Context, name string) (adapter.EntitySchema, error)
	ListEntitiesFunc   func(ctx context.Context) ([]string, error)
	SearchFunc         func(ctx context.Context, opts adapter.SearchOptions) (adapter.FetchResult, error)
	ParseWebhookFunc   func(payload []byte, headers map[string]string) *adapter.WebhookEvent
	VerifyFunc         func(payload []byte, signature, secret string) bool
}

var _ adapter.Adapter = (*Fake)(nil)

// New builds a Fake bound to id with working shared machinery.
func New(deps adapter.Deps, id adapter.IntegrationIdentity) *Fake {
	return &Fake{
		Base: adapter.NewBase(deps, id),
		Def: adapter.Definition{
			ID:      id.IntegrationID,
			Name:    "Fake " + id.IntegrationID,
			Version: "0.0.1",
		},
	}
}

func (f *Fake) Definition() adapter.Definition { return f.Def }

func (f *Fake) TestConnection(ctx context.Context) adapter.ConnectionTestResult {
	if f.TestConnectionFunc != nil {
		return f.TestConnectionFunc(ctx)
	}
	return adapter.ConnectionTestResult{Success: true}
}

func (f *Fake) Fetch(ctx context.Context, req adapter.FetchRequest) (adapter.FetchResult, error) {
	if f.FetchFunc != nil {
		return f.FetchFunc(ctx, req)
	}
	return adapter.FetchResult{}, nil
}

func (f *Fake) Push(ctx context.Context, record adapter.Record, opts adapter.PushOptions) adapter.PushResult {
	if f.PushFunc != nil {
		return f.PushFunc(ctx, record, opts)
	}
	return adapter.PushResult{Success: true}
}

func (f *Fake) EntitySchema(ctx context.Context, name string) (adapter.EntitySchema, error) {
	if f.EntitySchemaFunc != nil {
		return f.EntitySchemaFunc(ctx, name)
	}
	return adapter.EntitySchema{Name: name}, nil
}

func (f *Fake) ListEntities(ctx context.Context) ([]string, error) {
	if f.ListEntitiesFunc != nil {
		return f.ListEntitiesFunc(ctx)
	}
	return nil, nil
}

func (f *Fake) Search(ctx context.Context, opts adapter.SearchOptions) (adapter.FetchResult, error) {
	if f.SearchFunc != nil {
		return f.SearchFunc(ctx, opts)
	}
	return adapter.FetchResult{}, nil
}

func (f *Fake) ParseWebhook(payload []byte, headers map[string]string) *adapter.WebhookEvent {
	if f.ParseWebhookFunc != nil {
		return f.ParseWebhookFunc(payload, headers)
	}
	return f.Base.ParseWebhook(payload, headers)
}

func (f *Fake) VerifyWebhookSignature(payload []byte, signature, secret string) bool {
	if f.VerifyFunc != nil {
		return f.VerifyFunc(payload, signature, secret)
	}
	return f.Base.VerifyWebhookSignature(payload, signature, secret)
}
