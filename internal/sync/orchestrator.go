package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/open-conduit/open-conduit/internal/adapter"
	"github.com/open-conduit/open-conduit/internal/adapter/registry"
	"github.com/open-conduit/open-conduit/internal/connections"
	"github.com/open-conduit/open-conduit/internal/metrics"
	"github.com/open-conduit/open-conduit/internal/monitoring"
)

// ConnectionLister enumerates the connections a sync pass should cover.
type ConnectionLister interface {
	List(ctx context.Context, integrationID string) ([]connections.Connection, error)
}

// RecordSink persists one fetched page. It is called once per page, in page
// order within a connection/entity pair, before the next page is requested.
type RecordSink interface {
	Persist(ctx context.Context, conn connections.Connection, entity string, records []adapter.Record) error
}

// LogRecordSink counts records into the log instead of persisting them. It
// backs deployments that run conduit purely as a webhook/API gateway.
type LogRecordSink struct{}

func (LogRecordSink) Persist(_ context.Context, conn connections.Connection, entity string, records []adapter.Record) error {
	slog.Info("fetched page",
		"integration", conn.IntegrationID,
		"connection", conn.ID,
		"entity", entity,
		"records", len(records),
	)
	return nil
}

// ConnectionReport is the outcome of syncing one connection.
type ConnectionReport struct {
	Connection connections.Connection
	Entities   []string
	Records    int
	Err        error
}

// Report summarizes one sync pass.
type Report struct {
	RunID     string
	Started   time.Time
	Duration  time.Duration
	Succeeded int
	Failed    int
	Results   []ConnectionReport
}

// Orchestrator is the default Runner: it fans out over stored connections with
// a bounded worker pool and batch-fetches every entity each adapter exposes.
// A failing connection never aborts the others; the pass only errors as a
// whole when nothing succeeded.
type Orchestrator struct {
	Registry    *registry.Registry
	Connections ConnectionLister
	Sink        RecordSink
	Monitor     monitoring.Sink

	Workers    int
	BatchSize  int
	MaxBatches int

	// Entities overrides per-adapter entity discovery when set.
	Entities []string

	mu         sync.Mutex
	lastReport *Report
}

// LastReport returns the most recent pass summary, if any.
func (o *Orchestrator) LastReport() *Report {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastReport
}

func (o *Orchestrator) monitor() monitoring.Sink {
	if o.Monitor != nil {
		return o.Monitor
	}
	return monitoring.NopSink{}
}

// RunOnce executes a full sync pass across all stored connections.
func (o *Orchestrator) RunOnce(ctx context.Context) error {
	if o.Registry == nil || o.Connections == nil {
		return errors.New("sync orchestrator is not wired")
	}

	started := time.Now()
	runID := uuid.NewString()

	conns, err := o.Connections.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list connections: %w", err)
	}
	if len(conns) == 0 {
		return ErrNoConnections
	}

	slog.Info("sync pass starting", "run_id", runID, "connections", len(conns))

	workers := o.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make([]ConnectionReport, len(conns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, conn := range conns {
		g.Go(func() error {
			results[i] = o.syncConnection(gctx, runID, conn)
			return nil
		})
	}
	// Workers never return errors; the group exists for the limit and the
	// shared cancel.
	_ = g.Wait()

	report := Report{
		RunID:    runID,
		Started:  started,
		Duration: time.Since(started),
		Results:  results,
	}
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = "error"
			report.Failed++
		} else {
			report.Succeeded++
		}
		metrics.SyncRunsTotal.WithLabelValues(r.Connection.IntegrationID, status).Inc()
	}

	o.mu.Lock()
	o.lastReport = &report
	o.mu.Unlock()

	o.monitor().TrackEvent("sync.pass_completed", map[string]any{
		"run_id":    runID,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"duration":  report.Duration.String(),
	})
	slog.Info("sync pass finished",
		"run_id", runID,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duration", report.Duration,
	)

	if err := ctx.Err(); err != nil {
		return err
	}
	if report.Succeeded == 0 {
		return fmt.Errorf("sync run %s: all %d connections failed", runID, report.Failed)
	}
	return nil
}

func (o *Orchestrator) syncConnection(ctx context.Context, runID string, conn connections.Connection) ConnectionReport {
	report := ConnectionReport{Connection: conn}
	started := time.Now()
	defer func() {
		metrics.SyncDuration.WithLabelValues(conn.IntegrationID).Observe(time.Since(started).Seconds())
	}()

	a, err := o.Registry.Open(conn.IntegrationID, adapter.IntegrationIdentity{
		IntegrationID: conn.IntegrationID,
		TenantID:      conn.TenantID,
		ConnectionID:  conn.ID,
	})
	if err != nil {
		report.Err = err
		o.reportFailure(runID, conn, err)
		return report
	}

	entities := o.Entities
	if len(entities) == 0 {
		entities, err = a.ListEntities(ctx)
		if err != nil {
			report.Err = fmt.Errorf("list entities: %w", err)
			o.reportFailure(runID, conn, report.Err)
			return report
		}
	}
	report.Entities = entities

	for _, entity := range entities {
		_, err := adapter.FetchBatch(ctx, a, adapter.BatchOptions{
			Entity:     entity,
			BatchSize:  o.BatchSize,
			MaxBatches: o.MaxBatches,
			OnBatchComplete: func(ctx context.Context, _ int, result adapter.FetchResult) error {
				report.Records += len(result.Records)
				if o.Sink == nil {
					return nil
				}
				return o.Sink.Persist(ctx, conn, entity, result.Records)
			},
		})
		if err != nil {
			report.Err = fmt.Errorf("sync %s: %w", entity, err)
			o.reportFailure(runID, conn, report.Err)
			return report
		}
	}

	slog.Info("connection synced",
		"run_id", runID,
		"integration", conn.IntegrationID,
		"connection", conn.ID,
		"entities", len(entities),
		"records", report.Records,
	)
	return report
}

func (o *Orchestrator) reportFailure(runID string, conn connections.Connection, err error) {
	slog.Error("connection sync failed",
		"run_id", runID,
		"integration", conn.IntegrationID,
		"connection", conn.ID,
		"err", err,
	)
	o.monitor().TrackException(err, map[string]any{
		"run_id":         runID,
		"integration_id": conn.IntegrationID,
		"connection_id":  conn.ID,
	})
}
