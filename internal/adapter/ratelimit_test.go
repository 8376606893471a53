package adapter

import (
	"net/http"
	"testing"
	"time"
)

func TestExtractRateLimitInfo(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	h := http.Header{}
	h.Set("X-RateLimit-Limit", "100")
	h.Set("X-RateLimit-Remaining", "42")
	h.Set("X-RateLimit-Reset", "1700000090")

	info := extractRateLimitInfoAt(h, now)
	if info == nil {
		t.Fatal("extractRateLimitInfoAt() = nil, want info")
	}
	if info.Limit != 100 {
		t.Errorf("Limit = %d, want 100", info.Limit)
	}
	if info.Remaining != 42 {
		t.Errorf("Remaining = %d, want 42", info.Remaining)
	}
	if got, want := info.ResetAt, time.Unix(1_700_000_090, 0); !got.Equal(want) {
		t.Errorf("ResetAt = %v, want %v", got, want)
	}
	if info.ResetIn != 90*time.Second {
		t.Errorf("ResetIn = %v, want 90s", info.ResetIn)
	}
}

func TestExtractRateLimitInfoVariantHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("RateLimit-Limit", "10")
	h.Set("RateLimit-Remaining", "1")
	h.Set("RateLimit-Reset", "1700000000")

	if info := extractRateLimitInfoAt(h, time.Unix(1_700_000_000, 0)); info == nil {
		t.Fatal("extractRateLimitInfoAt() with ratelimit-* variant = nil, want info")
	}
}

func TestExtractRateLimitInfoMissingHeaders(t *testing.T) {
	cases := map[string]map[string]string{
		"none":           {},
		"limit only":     {"X-RateLimit-Limit": "100"},
		"no reset":       {"X-RateLimit-Limit": "100", "X-RateLimit-Remaining": "5"},
		"no remaining":   {"X-RateLimit-Limit": "100", "X-RateLimit-Reset": "1700000000"},
		"garbage values": {"X-RateLimit-Limit": "many", "X-RateLimit-Remaining": "few", "X-RateLimit-Reset": "soon"},
	}
	for name, headers := range cases {
		h := http.Header{}
		for k, v := range headers {
			h.Set(k, v)
		}
		if info := ExtractRateLimitInfo(h); info != nil {
			t.Errorf("%s: ExtractRateLimitInfo() = %+v, want nil", name, info)
		}
	}
}

func TestExtractRateLimitInfoPastResetClampsToZero(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	h := http.Header{}
	h.Set("X-RateLimit-Limit", "100")
	h.Set("X-RateLimit-Remaining", "0")
	h.Set("X-RateLimit-Reset", "1699999000") // already elapsed

	info := extractRateLimitInfoAt(h, now)
	if info == nil {
		t.Fatal("extractRateLimitInfoAt() = nil, want info")
	}
	if info.ResetIn != 0 {
		t.Errorf("ResetIn = %v, want 0 for a reset in the past", info.ResetIn)
	}
}
