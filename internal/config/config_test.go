package config

import (
	"bytes"
	"strings"
	"testing"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("METRICS_ADDR", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("FETCH_BATCH_SIZE", "")
	t.Setenv("FETCH_MAX_BATCHES", "")
	t.Setenv("SYNC_INTERVAL", "")
	t.Setenv("SYNC_WORKERS", "")
	t.Setenv("WEBHOOK_MAX_BODY", "")
	t.Setenv("CREDENTIAL_SOURCE", "")
	t.Setenv("CREDENTIAL_KEY", "")
}

func TestLoadWithOptions_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}
	if cfg.HTTPAddr != defaultHTTPAddr {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, defaultHTTPAddr)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Fatalf("RequestTimeout = %s, want %s", cfg.RequestTimeout, defaultRequestTimeout)
	}
	if cfg.FetchBatchSize != defaultFetchBatchSize {
		t.Fatalf("FetchBatchSize = %d, want %d", cfg.FetchBatchSize, defaultFetchBatchSize)
	}
	if cfg.FetchMaxBatches != defaultFetchMaxBatches {
		t.Fatalf("FetchMaxBatches = %d, want %d", cfg.FetchMaxBatches, defaultFetchMaxBatches)
	}
	if cfg.CredentialSource != CredentialSourceStore {
		t.Fatalf("CredentialSource = %q, want %q", cfg.CredentialSource, CredentialSourceStore)
	}
}

func TestLoadWithOptions_RequiresDatabaseURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CREDENTIAL_KEY", strings.Repeat("ab", 32))

	_, err := LoadWithOptions(LoadOptions{RequireDatabaseURL: true})
	if err == nil {
		t.Fatal("expected DATABASE_URL error")
	}
}

func TestLoadWithOptions_ParsesRequestTimeout(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("REQUEST_TIMEOUT", "12s")

	cfg, err := LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}
	if cfg.RequestTimeout.String() != "12s" {
		t.Fatalf("RequestTimeout = %s, want 12s", cfg.RequestTimeout)
	}
}

func TestLoadWithOptions_RejectsBadCredentialKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CREDENTIAL_KEY", "not-hex")

	if _, err := LoadWithOptions(LoadOptions{RequireDatabaseURL: false}); err == nil {
		t.Fatal("expected hex decode error")
	}

	t.Setenv("CREDENTIAL_KEY", "abcd")
	if _, err := LoadWithOptions(LoadOptions{RequireDatabaseURL: false}); err == nil {
		t.Fatal("expected key length error")
	}
}

func TestLoadWithOptions_AcceptsCredentialKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CREDENTIAL_KEY", strings.Repeat("0f", 32))

	cfg, err := LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}
	if len(cfg.CredentialKey) != 32 {
		t.Fatalf("len(CredentialKey) = %d, want 32", len(cfg.CredentialKey))
	}
	if !bytes.Equal(cfg.CredentialKey[:2], []byte{0x0f, 0x0f}) {
		t.Fatalf("CredentialKey prefix = %v, want [15 15]", cfg.CredentialKey[:2])
	}
}

func TestLoadWithOptions_RejectsUnknownCredentialSource(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CREDENTIAL_SOURCE", "keychain")

	if _, err := LoadWithOptions(LoadOptions{RequireDatabaseURL: false}); err == nil {
		t.Fatal("expected CREDENTIAL_SOURCE error")
	}
}
