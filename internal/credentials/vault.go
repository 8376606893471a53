package credentials

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
)

const (
	vaultAuthTypeToken   = "token"
	vaultAuthTypeAppRole = "approle"

	defaultVaultKVMount = "conduit"
)

// VaultOptions configures a Vault-backed credential provider.
type VaultOptions struct {
	Address          string
	Namespace        string
	AuthType         string
	Token            string
	AppRoleMountPath string
	AppRoleRoleID    string
	AppRoleSecretID  string
	KVMount          string
	TLSSkipVerify    bool
	TLSCACertPEM     string
}

// VaultProvider reads decrypted credential sets from a Vault KV v2 mount.
// Secrets live at <mount>/data/connections/<connectionID>/<integrationID>.
type VaultProvider struct {
	client  *vaultapi.Client
	kvMount string
}

func NewVaultProvider(opts VaultOptions) (*VaultProvider, error) {
	address := strings.TrimSpace(opts.Address)
	if address == "" {
		return nil, errors.New("vault address is required")
	}
	authType := strings.ToLower(strings.TrimSpace(opts.AuthType))
	if authType == "" {
		authType = vaultAuthTypeToken
	}

	cfg := vaultapi.DefaultConfig()
	cfg.Address = address
	cfg.HttpClient = &http.Client{
		Timeout:   60 * time.Second,
		Transport: buildVaultTransport(opts.TLSSkipVerify, strings.TrimSpace(opts.TLSCACertPEM)),
	}

	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client setup: %w", err)
	}
	if namespace := strings.TrimSpace(opts.Namespace); namespace != "" {
		client.SetNamespace(namespace)
	}

	switch authType {
	case vaultAuthTypeToken:
		token := strings.TrimSpace(opts.Token)
		if token == "" {
			return nil, errors.New("vault token is required")
		}
		client.SetToken(token)
	case vaultAuthTypeAppRole:
		roleID := strings.TrimSpace(opts.AppRoleRoleID)
		secretID := strings.TrimSpace(opts.AppRoleSecretID)
		mountPath := strings.Trim(strings.TrimSpace(opts.AppRoleMountPath), "/")
		if mountPath == "" {
			mountPath = "approle"
		}
		if roleID == "" {
			return nil, errors.New("vault AppRole role ID is required")
		}
		if secretID == "" {
			return nil, errors.New("vault AppRole secret ID is required")
		}
		loginPath := "auth/" + mountPath + "/login"
		secret, err := client.Logical().Write(loginPath, map[string]any{
			"role_id":   roleID,
			"secret_id": secretID,
		})
		if err != nil {
			return nil, fmt.Errorf("vault approle login at %s: %w", loginPath, err)
		}
		if secret == nil || secret.Auth == nil || strings.TrimSpace(secret.Auth.ClientToken) == "" {
			return nil, errors.New("vault approle login succeeded without client token")
		}
		client.SetToken(secret.Auth.ClientToken)
	default:
		return nil, errors.New("vault auth type is invalid")
	}

	kvMount := strings.Trim(strings.TrimSpace(opts.KVMount), "/")
	if kvMount == "" {
		kvMount = defaultVaultKVMount
	}

	return &VaultProvider{client: client, kvMount: kvMount}, nil
}

func (p *VaultProvider) Decrypted(ctx context.Context, connectionID, integrationID string) (Credentials, error) {
	connectionID = strings.TrimSpace(connectionID)
	integrationID = strings.TrimSpace(integrationID)
	if connectionID == "" || integrationID == "" {
		return Credentials{}, errors.New("vault credentials: connection and integration IDs are required")
	}

	path := fmt.Sprintf("%s/data/connections/%s/%s", p.kvMount, connectionID, integrationID)
	secret, err := p.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return Credentials{}, fmt.Errorf("vault read %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return Credentials{}, fmt.Errorf("%w: %s/%s", ErrNotFound, connectionID, integrationID)
	}

	// KV v2 nests the payload under "data".
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return Credentials{}, fmt.Errorf("vault read %s: payload is not KV v2 shaped", path)
	}

	creds := Credentials{
		Type:         vaultString(data, "type"),
		AccessToken:  vaultString(data, "access_token"),
		RefreshToken: vaultString(data, "refresh_token"),
		Extra:        map[string]string{},
	}
	if raw := vaultString(data, "expires_at"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			creds.ExpiresAt = &t
		}
	}
	for k, v := range data {
		switch k {
		case "type", "access_token", "refresh_token", "expires_at":
			continue
		}
		if s, ok := v.(string); ok {
			creds.Extra[k] = s
		}
	}
	if len(creds.Extra) == 0 {
		creds.Extra = nil
	}
	return creds, nil
}

func vaultString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return strings.TrimSpace(s)
}

func buildVaultTransport(skipVerify bool, caCertPEM string) http.RoundTripper {
	transport, _ := http.DefaultTransport.(*http.Transport)
	if transport == nil {
		transport = &http.Transport{}
	}
	transport = transport.Clone()

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if skipVerify {
		tlsConfig.InsecureSkipVerify = true
	}
	if caCertPEM != "" {
		pool := x509.NewCertPool()
		if pool.AppendCertsFromPEM([]byte(caCertPEM)) {
			tlsConfig.RootCAs = pool
		}
	}
	transport.TLSClientConfig = tlsConfig
	return transport
}
