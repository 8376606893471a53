package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/open-conduit/open-conduit/internal/credentials"
	"github.com/open-conduit/open-conduit/internal/metrics"
	"github.com/open-conduit/open-conduit/internal/monitoring"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultResetFallback  = 60 * time.Second

	// Remaining-budget floor that triggers the rate-limit-hit hook before the
	// provider starts returning 429s.
	lowBudgetThreshold = 10

	maxErrorBodySize = 1 << 20 // 1 MiB
)

// RequestOptions tunes one outbound call. The zero value means GET with the
// client's default timeout and no body.
type RequestOptions struct {
	Method  string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

// Response is the single exit shape of Client.Do. Expected failure modes
// (missing credential, rate limit, timeout, provider error) are encoded in
// Status/Error, never returned as Go errors, so callers switch on status.
type Response struct {
	Status    int
	Data      json.RawMessage
	Error     string
	RateLimit *RateLimitInfo
}

// OK reports whether the response carries a successful provider reply.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the response body into out.
func (r Response) Decode(out any) error {
	if len(r.Data) == 0 {
		return errors.New("response has no body")
	}
	return json.Unmarshal(r.Data, out)
}

// Client executes authenticated provider requests for one adapter instance.
// It resolves bearer credentials per call, enforces timeouts, extracts
// rate-limit metadata, and classifies failures. It never retries: retry and
// backoff policy belong to the caller.
type Client struct {
	identity IntegrationIdentity
	creds    credentials.Provider
	monitor  monitoring.Sink
	http     *http.Client
	timeout  time.Duration

	extractRateLimit func(http.Header) *RateLimitInfo
	onError          func(error)
	onRateLimitHit   func(*RateLimitInfo)
}

// ClientConfig wires a Client. Credentials is required; everything else has
// working defaults.
type ClientConfig struct {
	Identity    IntegrationIdentity
	Credentials credentials.Provider
	Monitor     monitoring.Sink
	HTTPClient  *http.Client
	Timeout     time.Duration

	// ExtractRateLimit overrides the default header extractor. Nil keeps the
	// default; adapters for providers without rate-limit headers can install
	// a func returning nil.
	ExtractRateLimit func(http.Header) *RateLimitInfo
	OnError          func(error)
	OnRateLimitHit   func(*RateLimitInfo)
}

func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		identity:         cfg.Identity,
		creds:            cfg.Credentials,
		monitor:          cfg.Monitor,
		http:             cfg.HTTPClient,
		timeout:          cfg.Timeout,
		extractRateLimit: cfg.ExtractRateLimit,
		onError:          cfg.OnError,
		onRateLimitHit:   cfg.OnRateLimitHit,
	}
	if c.monitor == nil {
		c.monitor = monitoring.NopSink{}
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = defaultRequestTimeout
	}
	if c.extractRateLimit == nil {
		c.extractRateLimit = ExtractRateLimitInfo
	}
	return c
}

// SetRateLimitExtractor replaces the header extractor after construction.
func (c *Client) SetRateLimitExtractor(fn func(http.Header) *RateLimitInfo) {
	c.extractRateLimit = fn
}

func (c *Client) fireError(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

func (c *Client) fireRateLimitHit(info *RateLimitInfo) {
	metrics.RateLimitHitsTotal.WithLabelValues(c.identity.IntegrationID).Inc()
	if c.onRateLimitHit != nil {
		c.onRateLimitHit(info)
	}
}

// Do issues one authenticated request against url.
//
// Credential resolution happens first: with no usable access token the call
// short-circuits to a 401 result without touching the network. Caller headers
// are merged under the bearer Authorization header, which they cannot
// override. Every branch funnels into a Response; Do never panics or returns
// an error for an expected failure mode.
func (c *Client) Do(ctx context.Context, url string, opts *RequestOptions) Response {
	if opts == nil {
		opts = &RequestOptions{}
	}

	started := time.Now()
	resp := c.do(ctx, url, opts)

	metrics.AdapterRequestsTotal.WithLabelValues(c.identity.IntegrationID, strconv.Itoa(resp.Status)).Inc()
	metrics.AdapterRequestDuration.WithLabelValues(c.identity.IntegrationID).Observe(time.Since(started).Seconds())
	if resp.RateLimit != nil {
		metrics.RateLimitRemaining.WithLabelValues(c.identity.IntegrationID).Set(float64(resp.RateLimit.Remaining))
	}
	return resp
}

func (c *Client) do(ctx context.Context, url string, opts *RequestOptions) Response {
	if c.creds == nil {
		return Response{Status: http.StatusUnauthorized, Error: "no access token available"}
	}

	creds, err := c.creds.Decrypted(ctx, c.identity.ConnectionID, c.identity.IntegrationID)
	if err != nil {
		return Response{Status: http.StatusUnauthorized, Error: "no access token available"}
	}
	token, ok := creds.BearerToken()
	if !ok {
		return Response{Status: http.StatusUnauthorized, Error: "no access token available"}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, url, body)
	if err != nil {
		return Response{Status: http.StatusBadRequest, Error: "build request: " + err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	// The bearer token always wins over caller-supplied headers.
	req.Header.Set("Authorization", "Bearer "+token)

	httpResp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(reqCtx, err) {
			return Response{Status: http.StatusGatewayTimeout, Error: "request timeout"}
		}
		c.fireError(err)
		return Response{Status: http.StatusInternalServerError, Error: err.Error()}
	}
	defer httpResp.Body.Close()

	var info *RateLimitInfo
	if c.extractRateLimit != nil {
		info = c.extractRateLimit(httpResp.Header)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		if info == nil {
			// Provider sent a bare 429; synthesize the conventional fallback
			// so callers still get a reset to wait on.
			info = &RateLimitInfo{
				Remaining: 0,
				ResetAt:   time.Now().Add(defaultResetFallback),
				ResetIn:   defaultResetFallback,
			}
		}
		c.fireRateLimitHit(info)
		return Response{
			Status:    http.StatusTooManyRequests,
			Error:     "rate limited by provider",
			RateLimit: info,
		}
	}

	// Early warning: near-exhausted budget triggers the hook before 429s start.
	if info != nil && info.Remaining < lowBudgetThreshold {
		c.fireRateLimitHit(info)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBodySize))
		msg := strings.TrimSpace(string(errBody))
		if msg == "" {
			msg = httpResp.Status
		}
		provErr := NewIntegrationError(kindForStatus(httpResp.StatusCode), httpResp.StatusCode, msg)
		c.monitor.TrackEvent("adapter.request_failed", map[string]any{
			"integration_id": c.identity.IntegrationID,
			"connection_id":  c.identity.ConnectionID,
			"status":         httpResp.StatusCode,
		})
		c.fireError(provErr)
		return Response{Status: httpResp.StatusCode, Error: msg, RateLimit: info}
	}

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.fireError(err)
		return Response{Status: http.StatusInternalServerError, Error: "read response: " + err.Error(), RateLimit: info}
	}
	if len(bytes.TrimSpace(data)) > 0 && !json.Valid(data) {
		parseErr := errors.New("decode response: body is not valid JSON")
		c.fireError(parseErr)
		return Response{Status: http.StatusInternalServerError, Error: parseErr.Error(), RateLimit: info}
	}

	return Response{Status: httpResp.StatusCode, Data: data, RateLimit: info}
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthExpired
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindProviderUnavailable
	default:
		return KindInvalidRequest
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
