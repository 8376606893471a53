package credentials

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// StaticProvider serves credentials from an in-memory map. It backs tests and
// single-tenant bootstrap setups where secrets arrive via the environment.
type StaticProvider struct {
	mu    sync.RWMutex
	creds map[string]Credentials
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{creds: make(map[string]Credentials)}
}

func staticKey(connectionID, integrationID string) string {
	return strings.TrimSpace(connectionID) + "\x00" + strings.TrimSpace(integrationID)
}

// Set stores a credential set for a connection/integration pair.
func (p *StaticProvider) Set(connectionID, integrationID string, c Credentials) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creds[staticKey(connectionID, integrationID)] = c
}

// Delete removes a stored credential set, reporting whether it existed.
func (p *StaticProvider) Delete(connectionID, integrationID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := staticKey(connectionID, integrationID)
	_, ok := p.creds[key]
	delete(p.creds, key)
	return ok
}

func (p *StaticProvider) Decrypted(_ context.Context, connectionID, integrationID string) (Credentials, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.creds[staticKey(connectionID, integrationID)]
	if !ok {
		return Credentials{}, fmt.Errorf("%w: %s/%s", ErrNotFound, connectionID, integrationID)
	}
	return c, nil
}
