package adapter

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitInfo is the normalized per-response rate-limit signal. It is never
// persisted; callers and the rate-limit-hit hook consume it immediately.
type RateLimitInfo struct {
	Limit     int           `json:"limit"`
	Remaining int           `json:"remaining"`
	ResetAt   time.Time     `json:"reset_at"`
	ResetIn   time.Duration `json:"reset_in"`
}

// Header name variants checked by the default extractor, in priority order.
var (
	limitHeaders     = []string{"x-ratelimit-limit", "ratelimit-limit"}
	remainingHeaders = []string{"x-ratelimit-remaining", "ratelimit-remaining"}
	resetHeaders     = []string{"x-ratelimit-reset", "ratelimit-reset"}
)

// ExtractRateLimitInfo reads the common x-ratelimit-*/ratelimit-* headers.
// It returns nil unless limit, remaining, and reset are all present: callers
// must be able to tell "no information" apart from "plenty of budget".
func ExtractRateLimitInfo(h http.Header) *RateLimitInfo {
	return extractRateLimitInfoAt(h, time.Now())
}

func extractRateLimitInfoAt(h http.Header, now time.Time) *RateLimitInfo {
	limit, ok := headerInt(h, limitHeaders)
	if !ok {
		return nil
	}
	remaining, ok := headerInt(h, remainingHeaders)
	if !ok {
		return nil
	}
	resetEpoch, ok := headerInt64(h, resetHeaders)
	if !ok {
		return nil
	}

	resetAt := time.Unix(resetEpoch, 0)
	resetIn := resetAt.Sub(now)
	if resetIn < 0 {
		// Clock skew must not surface as a negative wait.
		resetIn = 0
	}

	return &RateLimitInfo{
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
		ResetIn:   resetIn,
	}
}

func headerInt(h http.Header, names []string) (int, bool) {
	v, ok := headerInt64(h, names)
	return int(v), ok
}

func headerInt64(h http.Header, names []string) (int64, bool) {
	for _, name := range names {
		raw := strings.TrimSpace(h.Get(name))
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}
