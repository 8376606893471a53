// Package restapi is the reference adapter: a generic JSON-over-REST provider
// speaking the conventional envelope (records/has_more/next_offset/cursor).
// Concrete provider adapters follow the same construction and request flow.
package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/open-conduit/open-conduit/internal/adapter"
	"github.com/open-conduit/open-conduit/internal/credentials"
)

// ID is the integration ID this adapter registers under.
const ID = "restapi"

// Adapter talks to any REST provider whose base URL is carried in the
// connection's credential extras under "base_url".
type Adapter struct {
	*adapter.Base
	creds credentials.Provider
}

var _ adapter.Adapter = (*Adapter)(nil)

func New(deps adapter.Deps, id adapter.IntegrationIdentity) (adapter.Adapter, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{
		Base:  adapter.NewBase(deps, id),
		creds: deps.Credentials,
	}, nil
}

func (a *Adapter) Definition() adapter.Definition {
	return adapter.Definition{
		ID:      ID,
		Name:    "Generic REST API",
		Version: "1.0.0",
		Capabilities: adapter.Capabilities{
			Webhooks:        true,
			IncrementalSync: true,
			Search:          true,
			Push:            true,
		},
	}
}

// baseURL resolves the provider endpoint from the connection's credentials.
func (a *Adapter) baseURL(ctx context.Context) (string, error) {
	if a.creds == nil {
		return "", errors.New("no credential provider configured")
	}
	id := a.Identity()
	c, err := a.creds.Decrypted(ctx, id.ConnectionID, id.IntegrationID)
	if err != nil {
		return "", fmt.Errorf("resolve base url: %w", err)
	}
	base := strings.TrimRight(strings.TrimSpace(c.Extra["base_url"]), "/")
	if base == "" {
		return "", errors.New("connection credentials carry no base_url")
	}
	return base, nil
}

func kindForStatus(status int) adapter.ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return adapter.KindAuthExpired
	case status == http.StatusTooManyRequests:
		return adapter.KindRateLimited
	case status >= 500:
		return adapter.KindProviderUnavailable
	default:
		return adapter.KindInvalidRequest
	}
}

func errorFromResponse(resp adapter.Response) error {
	e := adapter.NewIntegrationError(kindForStatus(resp.Status), resp.Status, resp.Error)
	e.RateLimit = resp.RateLimit
	return e
}

func (a *Adapter) TestConnection(ctx context.Context) adapter.ConnectionTestResult {
	base, err := a.baseURL(ctx)
	if err != nil {
		return adapter.ConnectionTestResult{Success: false, Error: err.Error()}
	}
	resp := a.Request(ctx, base+"/ping", nil)
	if !resp.OK() {
		return adapter.ConnectionTestResult{
			Success: false,
			Error:   resp.Error,
			Details: map[string]any{"status": resp.Status},
		}
	}
	return adapter.ConnectionTestResult{
		Success: true,
		Details: map[string]any{"status": resp.Status},
	}
}

func (a *Adapter) Fetch(ctx context.Context, req adapter.FetchRequest) (adapter.FetchResult, error) {
	if strings.TrimSpace(req.Entity) == "" {
		return adapter.FetchResult{}, errors.New("fetch requires an entity")
	}
	base, err := a.baseURL(ctx)
	if err != nil {
		return adapter.FetchResult{}, err
	}

	q := url.Values{}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Cursor != "" {
		q.Set("cursor", req.Cursor)
	} else if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}
	if len(req.Fields) > 0 {
		q.Set("fields", strings.Join(req.Fields, ","))
	}
	if req.OrderBy != "" {
		q.Set("order_by", req.OrderBy)
		if req.OrderDirection != "" {
			q.Set("order_dir", req.OrderDirection)
		}
	}
	if req.IncrementalSync && req.ModifiedSince != nil {
		q.Set("modified_since", req.ModifiedSince.UTC().Format(time.RFC3339))
	}
	for k, v := range req.Filters {
		q.Set(k, fmt.Sprint(v))
	}

	endpoint := base + "/" + url.PathEscape(req.Entity)
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	resp := a.Request(ctx, endpoint, nil)
	if !resp.OK() {
		return adapter.FetchResult{}, errorFromResponse(resp)
	}

	var result adapter.FetchResult
	if err := resp.Decode(&result); err != nil {
		return adapter.FetchResult{}, fmt.Errorf("decode %s page: %w", req.Entity, err)
	}
	return result, nil
}

func (a *Adapter) Push(ctx context.Context, record adapter.Record, opts adapter.PushOptions) adapter.PushResult {
	base, err := a.baseURL(ctx)
	if err != nil {
		return adapter.PushResult{Success: false, Error: err.Error()}
	}
	if strings.TrimSpace(opts.Entity) == "" {
		return adapter.PushResult{Success: false, Error: "push requires an entity"}
	}

	endpoint := base + "/" + url.PathEscape(opts.Entity)
	method := http.MethodPost
	switch opts.Operation {
	case adapter.OperationCreate, "":
	case adapter.OperationUpdate, adapter.OperationDelete:
		id, _ := record["id"].(string)
		if id == "" {
			return adapter.PushResult{Success: false, Error: opts.Operation + " requires a record id"}
		}
		endpoint += "/" + url.PathEscape(id)
		method = http.MethodPatch
		if opts.Operation == adapter.OperationDelete {
			method = http.MethodDelete
		}
	default:
		return adapter.PushResult{Success: false, Error: "unknown operation " + opts.Operation}
	}

	var body []byte
	if method != http.MethodDelete {
		body, err = json.Marshal(record)
		if err != nil {
			return adapter.PushResult{Success: false, Error: "encode record: " + err.Error()}
		}
	}

	resp := a.Request(ctx, endpoint, &adapter.RequestOptions{Method: method, Body: body})
	if !resp.OK() {
		return adapter.PushResult{
			Success: false,
			Error:   resp.Error,
			Details: map[string]any{"status": resp.Status},
		}
	}

	result := adapter.PushResult{Success: true}
	var created struct {
		ID string `json:"id"`
	}
	if len(resp.Data) > 0 && resp.Decode(&created) == nil {
		result.ExternalID = created.ID
	}
	return result
}

func (a *Adapter) EntitySchema(ctx context.Context, name string) (adapter.EntitySchema, error) {
	if strings.TrimSpace(name) == "" {
		return adapter.EntitySchema{}, errors.New("schema requires an entity name")
	}
	base, err := a.baseURL(ctx)
	if err != nil {
		return adapter.EntitySchema{}, err
	}

	resp := a.Request(ctx, base+"/schema/"+url.PathEscape(name), nil)
	if !resp.OK() {
		return adapter.EntitySchema{}, errorFromResponse(resp)
	}
	var schema adapter.EntitySchema
	if err := resp.Decode(&schema); err != nil {
		return adapter.EntitySchema{}, fmt.Errorf("decode %s schema: %w", name, err)
	}
	return schema, nil
}

func (a *Adapter) ListEntities(ctx context.Context) ([]string, error) {
	base, err := a.baseURL(ctx)
	if err != nil {
		return nil, err
	}
	resp := a.Request(ctx, base+"/entities", nil)
	if !resp.OK() {
		return nil, errorFromResponse(resp)
	}
	var out struct {
		Entities []string `json:"entities"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	return out.Entities, nil
}

func (a *Adapter) Search(ctx context.Context, opts adapter.SearchOptions) (adapter.FetchResult, error) {
	if strings.TrimSpace(opts.Entity) == "" {
		return adapter.FetchResult{}, errors.New("search requires an entity")
	}
	base, err := a.baseURL(ctx)
	if err != nil {
		return adapter.FetchResult{}, err
	}

	q := url.Values{}
	q.Set("q", opts.Query)
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if len(opts.Fields) > 0 {
		q.Set("fields", strings.Join(opts.Fields, ","))
	}

	resp := a.Request(ctx, base+"/"+url.PathEscape(opts.Entity)+"/search?"+q.Encode(), nil)
	if !resp.OK() {
		return adapter.FetchResult{}, errorFromResponse(resp)
	}
	var result adapter.FetchResult
	if err := resp.Decode(&result); err != nil {
		return adapter.FetchResult{}, fmt.Errorf("decode search result: %w", err)
	}
	return result, nil
}

// webhookEnvelope is the provider's notification shape.
type webhookEnvelope struct {
	Type       string         `json:"type"`
	Entity     string         `json:"entity"`
	ExternalID string         `json:"external_id"`
	ID         string         `json:"id"`
	Operation  string         `json:"operation"`
	Data       map[string]any `json:"data"`
	Timestamp  time.Time      `json:"timestamp"`
}

// ParseWebhook decodes the envelope. Anything unparseable maps to nil, which
// callers treat as "ignore".
func (a *Adapter) ParseWebhook(payload []byte, _ map[string]string) *adapter.WebhookEvent {
	var env webhookEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil
	}
	if env.Type == "" {
		return nil
	}
	externalID := env.ExternalID
	if externalID == "" {
		externalID = env.ID
	}
	ts := env.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &adapter.WebhookEvent{
		Type:       env.Type,
		Entity:     env.Entity,
		ExternalID: externalID,
		Operation:  env.Operation,
		Data:       env.Data,
		Timestamp:  ts,
	}
}

func (a *Adapter) VerifyWebhookSignature(payload []byte, signature, secret string) bool {
	return adapter.VerifyHMACSignature(payload, signature, secret)
}
