// Package registry is the process-wide catalog of adapter factories, keyed by
// integration ID. It owns the factory map — the single source of truth for
// which adapters exist — but never owns adapter instances, which are created
// fresh per use.
package registry

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/open-conduit/open-conduit/internal/adapter"
)

// Factory builds one adapter instance bound to the given identity.
type Factory func(deps adapter.Deps, id adapter.IntegrationIdentity) (adapter.Adapter, error)

// Entry pairs an integration ID with its factory for bulk registration.
type Entry struct {
	ID      string
	Factory Factory
}

// Stats summarizes the catalog.
type Stats struct {
	TotalAdapters int      `json:"total_adapters"`
	AdapterIDs    []string `json:"adapter_ids"`
}

// Registry maps integration IDs to adapter factories. It is an explicit value
// constructed at startup and passed to whatever composes adapters; there is
// no package-level singleton. Registry lifetime is process lifetime, with no
// persistence.
type Registry struct {
	deps adapter.Deps

	mu        sync.Mutex
	factories map[string]Factory
	order     []string
}

// New creates an empty registry whose adapters share deps (credential
// provider, monitoring sink, HTTP client).
func New(deps adapter.Deps) *Registry {
	return &Registry{
		deps:      deps,
		factories: make(map[string]Factory),
	}
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Register adds a factory under id. Empty and duplicate IDs are rejected.
func (r *Registry) Register(id string, f Factory) error {
	key := normalizeID(id)
	if key == "" {
		return fmt.Errorf("integration id cannot be empty")
	}
	if f == nil {
		return fmt.Errorf("factory for %q cannot be nil", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("integration %q already registered", key)
	}
	r.factories[key] = f
	r.order = append(r.order, key)

	r.track("registry.adapter_registered", key)
	return nil
}

// Unregister removes a factory, reporting whether it existed.
func (r *Registry) Unregister(id string) bool {
	key := normalizeID(id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; !exists {
		return false
	}
	delete(r.factories, key)
	for i, existing := range r.order {
		if existing == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.track("registry.adapter_unregistered", key)
	return true
}

// Get returns the factory for id.
func (r *Registry) Get(id string) (Factory, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.factories[normalizeID(id)]
	return f, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// List returns the registered IDs in registration order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Stats returns the catalog summary.
func (r *Registry) Stats() Stats {
	ids := r.List()
	return Stats{TotalAdapters: len(ids), AdapterIDs: ids}
}

// Open builds a fresh adapter instance for id bound to identity. Instances
// are never cached or shared.
func (r *Registry) Open(id string, identity adapter.IntegrationIdentity) (adapter.Adapter, error) {
	f, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("integration %q not registered", normalizeID(id))
	}
	a, err := f(r.deps, identity)
	if err != nil {
		return nil, fmt.Errorf("build adapter %q: %w", normalizeID(id), err)
	}
	return a, nil
}

// RegisterAll is the best-effort bootstrap path: every entry is registered
// independently and failures are logged rather than aborting the rest. It
// returns the count successfully registered. Explicit Register calls remain
// the canonical path; this exists for compile-time adapter catalogs.
func (r *Registry) RegisterAll(entries []Entry) int {
	registered := 0
	for _, e := range entries {
		if err := r.Register(e.ID, e.Factory); err != nil {
			slog.Warn("adapter registration skipped", "integration_id", e.ID, "err", err)
			continue
		}
		registered++
	}
	return registered
}

func (r *Registry) track(event, id string) {
	if r.deps.Monitor == nil {
		return
	}
	r.deps.Monitor.TrackEvent(event, map[string]any{
		"integration_id": id,
		"total_adapters": len(r.order),
	})
}
