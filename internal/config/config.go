package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultMetricsAddr = ":9090"

	defaultRequestTimeout = 30 * time.Second
	defaultSyncInterval   = 15 * time.Minute
	defaultSyncWorkers    = 4

	defaultFetchBatchSize  = 100
	defaultFetchMaxBatches = 10

	defaultWebhookMaxBody = 1 << 20 // 1 MiB

	credentialKeyBytes = 32
)

// Credential provider backends.
const (
	CredentialSourceStore  = "store"
	CredentialSourceVault  = "vault"
	CredentialSourceStatic = "static"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string
	MetricsAddr string

	RequestTimeout  time.Duration
	FetchBatchSize  int
	FetchMaxBatches int
	WebhookMaxBody  int64

	SyncInterval time.Duration
	SyncWorkers  int

	CredentialSource string
	CredentialKey    []byte

	VaultAddr            string
	VaultNamespace       string
	VaultAuthType        string
	VaultToken           string
	VaultAppRoleMount    string
	VaultAppRoleRoleID   string
	VaultAppRoleSecretID string
	VaultKVMount         string
}

type LoadOptions struct {
	RequireDatabaseURL bool
}

func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: true})
}

func LoadOptionalDB() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		HTTPAddr:         getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:      getenvDefault("METRICS_ADDR", defaultMetricsAddr),
		RequestTimeout:   defaultRequestTimeout,
		FetchBatchSize:   getenvIntDefault("FETCH_BATCH_SIZE", defaultFetchBatchSize),
		FetchMaxBatches:  getenvIntDefault("FETCH_MAX_BATCHES", defaultFetchMaxBatches),
		WebhookMaxBody:   defaultWebhookMaxBody,
		SyncInterval:     defaultSyncInterval,
		SyncWorkers:      getenvIntDefault("SYNC_WORKERS", defaultSyncWorkers),
		CredentialSource: strings.ToLower(strings.TrimSpace(getenvDefault("CREDENTIAL_SOURCE", CredentialSourceStore))),

		VaultAddr:            os.Getenv("VAULT_ADDR"),
		VaultNamespace:       os.Getenv("VAULT_NAMESPACE"),
		VaultAuthType:        os.Getenv("VAULT_AUTH_TYPE"),
		VaultToken:           os.Getenv("VAULT_TOKEN"),
		VaultAppRoleMount:    os.Getenv("VAULT_APPROLE_MOUNT"),
		VaultAppRoleRoleID:   os.Getenv("VAULT_APPROLE_ROLE_ID"),
		VaultAppRoleSecretID: os.Getenv("VAULT_APPROLE_SECRET_ID"),
		VaultKVMount:         os.Getenv("VAULT_KV_MOUNT"),
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SyncInterval = d
		}
	}
	if v := os.Getenv("WEBHOOK_MAX_BODY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.WebhookMaxBody = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("CREDENTIAL_KEY")); v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return cfg, fmt.Errorf("CREDENTIAL_KEY must be hex encoded: %w", err)
		}
		if len(key) != credentialKeyBytes {
			return cfg, fmt.Errorf("CREDENTIAL_KEY must decode to %d bytes, got %d", credentialKeyBytes, len(key))
		}
		cfg.CredentialKey = key
	}

	switch cfg.CredentialSource {
	case CredentialSourceStore, CredentialSourceVault, CredentialSourceStatic:
	default:
		return cfg, fmt.Errorf("CREDENTIAL_SOURCE must be one of: store, vault, static (got %q)", cfg.CredentialSource)
	}

	if cfg.CredentialSource == CredentialSourceStore && len(cfg.CredentialKey) == 0 && opts.RequireDatabaseURL {
		return cfg, errors.New("CREDENTIAL_KEY is required when CREDENTIAL_SOURCE=store")
	}

	if opts.RequireDatabaseURL && cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
