// Package connections persists tenant-scoped connection records: which
// integration a tenant linked, the encrypted credential set for it, and the
// shared secret used to verify that connection's inbound webhooks.
package connections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/open-conduit/open-conduit/internal/credentials"
)

// Connection is one stored tenant/integration link. Credential material is
// never carried on this struct; it stays sealed in the database until a
// Decrypted call asks for it.
type Connection struct {
	ID            string
	TenantID      string
	IntegrationID string
	DisplayName   string
	WebhookSecret string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c Connection) validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("connection id is required")
	}
	if strings.TrimSpace(c.TenantID) == "" {
		return errors.New("tenant id is required")
	}
	if strings.TrimSpace(c.IntegrationID) == "" {
		return errors.New("integration id is required")
	}
	return nil
}

// Store is the pgx-backed connection catalog. It implements
// credentials.Provider for adapters whose secrets live in the database.
//
// The credential key is optional: without it the store still serves
// connection metadata and webhook secrets, and only the credential
// seal/unseal operations refuse to run. Deployments that keep secrets in
// Vault use it that way.
type Store struct {
	pool   *pgxpool.Pool
	cipher *Cipher
}

func NewStore(pool *pgxpool.Pool, credentialKey []byte) (*Store, error) {
	if pool == nil {
		return nil, errors.New("connection store requires a database pool")
	}
	var cipher *Cipher
	if len(credentialKey) > 0 {
		var err error
		cipher, err = NewCipher(credentialKey)
		if err != nil {
			return nil, err
		}
	}
	return &Store{pool: pool, cipher: cipher}, nil
}

// Save upserts a connection together with its sealed credential set.
func (s *Store) Save(ctx context.Context, conn Connection, creds credentials.Credentials) error {
	if err := conn.validate(); err != nil {
		return err
	}
	if s.cipher == nil {
		return errors.New("credential key not configured")
	}

	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	sealed, err := s.cipher.Seal(plaintext)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO connections (id, tenant_id, integration_id, display_name, webhook_secret, credentials, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			integration_id = EXCLUDED.integration_id,
			display_name = EXCLUDED.display_name,
			webhook_secret = EXCLUDED.webhook_secret,
			credentials = EXCLUDED.credentials,
			updated_at = now()
	`, conn.ID, conn.TenantID, conn.IntegrationID, conn.DisplayName, conn.WebhookSecret, sealed)
	if err != nil {
		return fmt.Errorf("save connection %s: %w", conn.ID, err)
	}
	return nil
}

// Get loads one connection's metadata (no credential material).
func (s *Store) Get(ctx context.Context, id string) (Connection, error) {
	var conn Connection
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, integration_id, display_name, webhook_secret, created_at, updated_at
		FROM connections WHERE id = $1
	`, strings.TrimSpace(id)).Scan(
		&conn.ID, &conn.TenantID, &conn.IntegrationID, &conn.DisplayName,
		&conn.WebhookSecret, &conn.CreatedAt, &conn.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Connection{}, fmt.Errorf("%w: %s", credentials.ErrNotFound, id)
	}
	if err != nil {
		return Connection{}, fmt.Errorf("load connection %s: %w", id, err)
	}
	return conn, nil
}

// List returns all connections, optionally filtered to one integration.
func (s *Store) List(ctx context.Context, integrationID string) ([]Connection, error) {
	query := `
		SELECT id, tenant_id, integration_id, display_name, webhook_secret, created_at, updated_at
		FROM connections`
	args := []any{}
	if integrationID = strings.TrimSpace(integrationID); integrationID != "" {
		query += ` WHERE integration_id = $1`
		args = append(args, integrationID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var out []Connection
	for rows.Next() {
		var conn Connection
		if err := rows.Scan(
			&conn.ID, &conn.TenantID, &conn.IntegrationID, &conn.DisplayName,
			&conn.WebhookSecret, &conn.CreatedAt, &conn.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		out = append(out, conn)
	}
	return out, rows.Err()
}

// Delete removes a connection, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM connections WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("delete connection %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Decrypted implements credentials.Provider: it unseals and decodes the
// stored credential set for one connection/integration pair.
func (s *Store) Decrypted(ctx context.Context, connectionID, integrationID string) (credentials.Credentials, error) {
	if s.cipher == nil {
		return credentials.Credentials{}, errors.New("credential key not configured")
	}
	var sealed []byte
	err := s.pool.QueryRow(ctx, `
		SELECT credentials FROM connections WHERE id = $1 AND integration_id = $2
	`, strings.TrimSpace(connectionID), strings.TrimSpace(integrationID)).Scan(&sealed)
	if errors.Is(err, pgx.ErrNoRows) {
		return credentials.Credentials{}, fmt.Errorf("%w: %s/%s", credentials.ErrNotFound, connectionID, integrationID)
	}
	if err != nil {
		return credentials.Credentials{}, fmt.Errorf("load credentials %s: %w", connectionID, err)
	}

	plaintext, err := s.cipher.Open(sealed)
	if err != nil {
		return credentials.Credentials{}, err
	}

	var creds credentials.Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return credentials.Credentials{}, fmt.Errorf("decode credentials %s: %w", connectionID, err)
	}
	return creds, nil
}
