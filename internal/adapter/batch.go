package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/open-conduit/open-conduit/internal/metrics"
)

const (
	defaultBatchSize  = 100
	defaultMaxBatches = 10
)

// Fetcher is the slice of Adapter that batch fetching needs.
type Fetcher interface {
	Identity() IntegrationIdentity
	Fetch(ctx context.Context, req FetchRequest) (FetchResult, error)
}

// Pusher is the slice of Adapter that batch pushing needs.
type Pusher interface {
	Push(ctx context.Context, record Record, opts PushOptions) PushResult
}

// BatchOptions drives one FetchBatch run. MaxBatches is a hard circuit
// breaker against providers that report "more" forever.
type BatchOptions struct {
	Entity          string
	Filters         map[string]any
	Fields          []string
	BatchSize       int
	MaxBatches      int
	ModifiedSince   *time.Time
	IncrementalSync bool
	ExternalUserID  string

	// OnBatchComplete runs after each page and is fully awaited before the
	// next page is requested, so callers can persist incrementally without
	// buffering the whole sync. A non-nil error stops the run.
	OnBatchComplete func(ctx context.Context, page int, result FetchResult) error
}

// FetchBatch pulls pages through fetch until the provider reports no more
// records or the batch cap is reached. Pages are processed strictly in order.
//
// Progress comes from the provider's NextOffset or Cursor when supplied;
// otherwise the offset advances linearly by the batch size, which is only
// sound when the page actually carried records. A "has more" page with no
// records and no progress marker terminates the run with an error instead of
// looping.
func FetchBatch(ctx context.Context, f Fetcher, opts BatchOptions) ([]FetchResult, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	maxBatches := opts.MaxBatches
	if maxBatches <= 0 {
		maxBatches = defaultMaxBatches
	}

	integrationID := f.Identity().IntegrationID

	var results []FetchResult
	offset := 0
	cursor := ""

	for page := 0; page < maxBatches; page++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		req := FetchRequest{
			Entity:          opts.Entity,
			Filters:         opts.Filters,
			Fields:          opts.Fields,
			Limit:           batchSize,
			Offset:          offset,
			Cursor:          cursor,
			ModifiedSince:   opts.ModifiedSince,
			IncrementalSync: opts.IncrementalSync,
			ExternalUserID:  opts.ExternalUserID,
		}

		result, err := f.Fetch(ctx, req)
		if err != nil {
			return results, fmt.Errorf("fetch page %d of %s: %w", page+1, opts.Entity, err)
		}

		results = append(results, result)
		metrics.BatchPagesTotal.WithLabelValues(integrationID, opts.Entity).Inc()

		if opts.OnBatchComplete != nil {
			if err := opts.OnBatchComplete(ctx, page+1, result); err != nil {
				return results, fmt.Errorf("batch callback on page %d: %w", page+1, err)
			}
		}

		if !result.HasMore {
			break
		}

		switch {
		case result.NextOffset != nil:
			offset = *result.NextOffset
			cursor = ""
		case result.Cursor != "":
			cursor = result.Cursor
		case len(result.Records) > 0:
			// Linear fallback for providers without cursor support.
			offset += batchSize
		default:
			return results, fmt.Errorf("provider reported more %s records without a progress marker", opts.Entity)
		}
	}

	return results, nil
}

// PushBatch pushes records sequentially, one push call per record. Ordering
// and per-tenant rate budgets matter more than throughput here, so there is
// no concurrency. Each record's failure — including a panicking adapter
// implementation — is isolated into its own result entry; the returned slice
// always has len(records) entries positionally aligned with the input.
func PushBatch(ctx context.Context, p Pusher, records []Record, opts PushOptions) []PushResult {
	results := make([]PushResult, len(records))
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			results[i] = PushResult{Success: false, Error: "push canceled: " + err.Error()}
			continue
		}
		results[i] = pushOne(ctx, p, record, opts)
	}
	return results
}

func pushOne(ctx context.Context, p Pusher, record Record, opts PushOptions) (result PushResult) {
	defer func() {
		if r := recover(); r != nil {
			result = PushResult{Success: false, Error: fmt.Sprintf("push panicked: %v", r)}
		}
	}()
	return p.Push(ctx, record, opts)
}
