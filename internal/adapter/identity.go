package adapter

import (
	"errors"
	"strings"
)

// IntegrationIdentity binds an adapter instance to one provider, one tenant,
// and one stored credential set. It is set once at construction and never
// mutated afterwards.
type IntegrationIdentity struct {
	IntegrationID string
	TenantID      string
	ConnectionID  string
}

func (id IntegrationIdentity) Validate() error {
	if strings.TrimSpace(id.IntegrationID) == "" {
		return errors.New("integration id is required")
	}
	if strings.TrimSpace(id.TenantID) == "" {
		return errors.New("tenant id is required")
	}
	if strings.TrimSpace(id.ConnectionID) == "" {
		return errors.New("connection id is required")
	}
	return nil
}

func (id IntegrationIdentity) String() string {
	return id.IntegrationID + "/" + id.TenantID + "/" + id.ConnectionID
}
