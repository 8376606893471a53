package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/open-conduit/open-conduit/internal/adapter"
	"github.com/open-conduit/open-conduit/internal/adapter/registry"
	"github.com/open-conduit/open-conduit/internal/config"
	"github.com/open-conduit/open-conduit/internal/connections"
	"github.com/open-conduit/open-conduit/internal/monitoring"
	"github.com/open-conduit/open-conduit/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a one-off sync pass across all stored connections.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync()
	},
}

func runSync() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := connections.NewStore(pool, cfg.CredentialKey)
	if err != nil {
		return err
	}
	creds, err := buildCredentialProvider(cfg, store)
	if err != nil {
		return err
	}

	reg := registry.New(adapter.Deps{
		Credentials: creds,
		Monitor:     monitoring.LogSink{},
		HTTPClient:  &http.Client{},
		Timeout:     cfg.RequestTimeout,
	})
	reg.RegisterAll(builtinAdapters())

	orch := &sync.Orchestrator{
		Registry:    reg,
		Connections: store,
		Sink:        sync.LogRecordSink{},
		Monitor:     monitoring.LogSink{},
		Workers:     cfg.SyncWorkers,
		BatchSize:   cfg.FetchBatchSize,
		MaxBatches:  cfg.FetchMaxBatches,
	}

	syncErr := orch.RunOnce(ctx)
	if syncErr == nil || errors.Is(syncErr, sync.ErrNoConnections) {
		return nil
	}
	if errors.Is(syncErr, context.Canceled) {
		return &exitError{code: 130, err: syncErr, silent: true}
	}
	return &exitError{code: 1, err: syncErr, silent: false}
}
