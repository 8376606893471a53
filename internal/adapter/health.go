package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/open-conduit/open-conduit/internal/metrics"
)

// ConnectionTester is the slice of Adapter that health probes need.
type ConnectionTester interface {
	Identity() IntegrationIdentity
	TestConnection(ctx context.Context) ConnectionTestResult
}

// RunHealthCheck wraps TestConnection with wall-clock timing and converts any
// failure — including a panicking implementation — into a structured result.
// It never propagates a panic: health checks run on monitoring and polling
// paths that must not crash their caller.
func RunHealthCheck(ctx context.Context, t ConnectionTester) HealthCheckResult {
	started := time.Now()
	result := HealthCheckResult{LastCheckedAt: started}

	test := safeTestConnection(ctx, t)

	result.ResponseTime = time.Since(started)
	result.Healthy = test.Success
	result.Error = test.Error
	result.Details = test.Details

	id := t.Identity()
	metrics.HealthCheckDuration.WithLabelValues(id.IntegrationID).Observe(result.ResponseTime.Seconds())
	healthValue := 0.0
	if result.Healthy {
		healthValue = 1.0
	}
	metrics.HealthStatus.WithLabelValues(id.IntegrationID, id.ConnectionID).Set(healthValue)

	return result
}

func safeTestConnection(ctx context.Context, t ConnectionTester) (result ConnectionTestResult) {
	defer func() {
		if r := recover(); r != nil {
			result = ConnectionTestResult{
				Success: false,
				Error:   fmt.Sprintf("connection test panicked: %v", r),
			}
		}
	}()
	return t.TestConnection(ctx)
}
