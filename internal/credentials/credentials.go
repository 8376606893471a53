// Package credentials defines the credential-provider collaborator contract:
// given a connection and an integration, return the decrypted secret material
// an adapter needs to authenticate outbound calls.
package credentials

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	TypeOAuth2 = "oauth2"
	TypeAPIKey = "api_key"
)

var (
	// ErrNotFound means no credential set exists for the connection.
	ErrNotFound = errors.New("credentials: connection not found")
)

// Credentials is a decrypted per-connection secret set.
type Credentials struct {
	Type         string            `json:"type"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// BearerToken returns the access token usable as a bearer credential.
// Anything that is not an oauth2 credential set with a non-empty token
// counts as "no access token".
func (c Credentials) BearerToken() (string, bool) {
	if !strings.EqualFold(strings.TrimSpace(c.Type), TypeOAuth2) {
		return "", false
	}
	token := strings.TrimSpace(c.AccessToken)
	return token, token != ""
}

// Provider resolves decrypted credentials for a connection. The framework
// never mutates what a provider returns.
type Provider interface {
	Decrypted(ctx context.Context, connectionID, integrationID string) (Credentials, error)
}
