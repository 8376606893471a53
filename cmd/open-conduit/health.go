package main

import (
	"context"
	"encoding/json"
	"fmt"
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
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe connectivity for every stored connection and print the results.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHealth()
	},
}

type healthLine struct {
	Connection  string `json:"connection"`
	Integration string `json:"integration"`
	adapter.HealthCheckResult
}

func runHealth() error {
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
		Monitor:     monitoring.NopSink{},
		HTTPClient:  &http.Client{},
		Timeout:     cfg.RequestTimeout,
	})
	reg.RegisterAll(builtinAdapters())

	conns, err := store.List(ctx, "")
	if err != nil {
		return err
	}
	if len(conns) == 0 {
		fmt.Println("no connections configured")
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	unhealthy := 0
	for _, conn := range conns {
		line := healthLine{Connection: conn.ID, Integration: conn.IntegrationID}
		a, err := reg.Open(conn.IntegrationID, adapter.IntegrationIdentity{
			IntegrationID: conn.IntegrationID,
			TenantID:      conn.TenantID,
			ConnectionID:  conn.ID,
		})
		if err != nil {
			line.HealthCheckResult = adapter.HealthCheckResult{Healthy: false, Error: err.Error()}
		} else {
			line.HealthCheckResult = adapter.RunHealthCheck(ctx, a)
		}
		if !line.Healthy {
			unhealthy++
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}

	if unhealthy > 0 {
		return &exitError{code: 1, err: fmt.Errorf("%d of %d connections unhealthy", unhealthy, len(conns)), silent: true}
	}
	return nil
}
