package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/open-conduit/open-conduit/internal/adapter"
	"github.com/open-conduit/open-conduit/internal/adapter/registry"
	"github.com/open-conduit/open-conduit/internal/config"
	"github.com/open-conduit/open-conduit/internal/connections"
	"github.com/open-conduit/open-conduit/internal/credentials"
	httpapp "github.com/open-conduit/open-conduit/internal/http"
	"github.com/open-conduit/open-conduit/internal/http/handlers"
	"github.com/open-conduit/open-conduit/internal/metrics"
	"github.com/open-conduit/open-conduit/internal/monitoring"
	"github.com/open-conduit/open-conduit/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server, webhook endpoint, and background sync loop.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	deps := adapter.Deps{
		Credentials: creds,
		Monitor:     monitoring.LogSink{},
		HTTPClient:  &http.Client{},
		Timeout:     cfg.RequestTimeout,
	}
	reg := registry.New(deps)
	registered := reg.RegisterAll(builtinAdapters())
	slog.Info("adapters registered", "count", registered)

	orch := &sync.Orchestrator{
		Registry:    reg,
		Connections: store,
		Sink:        sync.LogRecordSink{},
		Monitor:     deps.Monitor,
		Workers:     cfg.SyncWorkers,
		BatchSize:   cfg.FetchBatchSize,
		MaxBatches:  cfg.FetchMaxBatches,
	}
	scheduler := sync.Scheduler{Runner: orch, Interval: cfg.SyncInterval}
	go scheduler.Run(ctx)

	_, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr)

	srv := httpapp.NewEchoServer(&handlers.Handlers{
		Cfg:         cfg,
		Registry:    reg,
		Connections: store,
		Syncer:      orch,
	})

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		errCh <- srv.Start(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-metricsErrCh:
		return fmt.Errorf("metrics server: %w", err)
	}
}

// buildCredentialProvider picks the credential backend configured for this
// deployment. The store itself doubles as the provider in the default setup.
func buildCredentialProvider(cfg config.Config, store *connections.Store) (credentials.Provider, error) {
	switch cfg.CredentialSource {
	case config.CredentialSourceStore:
		return store, nil
	case config.CredentialSourceVault:
		return credentials.NewVaultProvider(credentials.VaultOptions{
			Address:          cfg.VaultAddr,
			Namespace:        cfg.VaultNamespace,
			AuthType:         cfg.VaultAuthType,
			Token:            cfg.VaultToken,
			AppRoleMountPath: cfg.VaultAppRoleMount,
			AppRoleRoleID:    cfg.VaultAppRoleRoleID,
			AppRoleSecretID:  cfg.VaultAppRoleSecretID,
			KVMount:          cfg.VaultKVMount,
		})
	case config.CredentialSourceStatic:
		// Static mode serves no secrets until something seeds the provider;
		// it exists for local development against unauthenticated providers.
		return credentials.NewStaticProvider(), nil
	default:
		return nil, fmt.Errorf("unknown credential source %q", cfg.CredentialSource)
	}
}
