package restapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/open-conduit/open-conduit/internal/adapter"
	"github.com/open-conduit/open-conduit/internal/credentials"
)

var testID = adapter.IntegrationIdentity{
	IntegrationID: ID,
	TenantID:      "tenant-1",
	ConnectionID:  "conn-1",
}

func newTestAdapter(t *testing.T, baseURL string) adapter.Adapter {
	t.Helper()
	creds := credentials.NewStaticProvider()
	creds.Set(testID.ConnectionID, testID.IntegrationID, credentials.Credentials{
		Type:        credentials.TypeOAuth2,
		AccessToken: "tok",
		Extra:       map[string]string{"base_url": baseURL},
	})
	a, err := New(adapter.Deps{Credentials: creds}, testID)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	result := a.TestConnection(t.Context())
	if !result.Success {
		t.Fatalf("TestConnection() failed: %s", result.Error)
	}
	if result.Details["status"] != http.StatusOK {
		t.Errorf("Details[status] = %v, want 200", result.Details["status"])
	}
}

func TestTestConnectionWithoutBaseURL(t *testing.T) {
	creds := credentials.NewStaticProvider()
	creds.Set(testID.ConnectionID, testID.IntegrationID, credentials.Credentials{
		Type:        credentials.TypeOAuth2,
		AccessToken: "tok",
	})
	a, err := New(adapter.Deps{Credentials: creds}, testID)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result := a.TestConnection(t.Context())
	if result.Success {
		t.Fatal("TestConnection() without base_url succeeded, want failure")
	}
}

func TestFetchDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contacts" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %q, want 50", got)
		}
		fmt.Fprint(w, `{"records":[{"id":"1"},{"id":"2"}],"total":7,"has_more":true,"next_offset":2}`)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	result, err := a.Fetch(t.Context(), adapter.FetchRequest{Entity: "contacts", Limit: 50})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(result.Records) != 2 {
		t.Errorf("len(Records) = %d, want 2", len(result.Records))
	}
	if !result.HasMore {
		t.Error("HasMore = false, want true")
	}
	if result.NextOffset == nil || *result.NextOffset != 2 {
		t.Errorf("NextOffset = %v, want 2", result.NextOffset)
	}
	if result.Total == nil || *result.Total != 7 {
		t.Errorf("Total = %v, want 7", result.Total)
	}
}

func TestFetchClassifiesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	_, err := a.Fetch(t.Context(), adapter.FetchRequest{Entity: "contacts"})
	if err == nil {
		t.Fatal("Fetch() error = nil, want classified error")
	}
	if kind := adapter.KindOf(err); kind != adapter.KindAuthExpired {
		t.Errorf("KindOf(err) = %q, want %q", kind, adapter.KindAuthExpired)
	}
}

func TestPushOperations(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"id":"ext-99"}`)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)

	result := a.Push(t.Context(), adapter.Record{"name": "Ada"}, adapter.PushOptions{
		Entity: "contacts", Operation: adapter.OperationCreate,
	})
	if !result.Success {
		t.Fatalf("Push(create) failed: %s", result.Error)
	}
	if gotMethod != http.MethodPost || gotPath != "/contacts" {
		t.Errorf("create = %s %s, want POST /contacts", gotMethod, gotPath)
	}
	if result.ExternalID != "ext-99" {
		t.Errorf("ExternalID = %q, want ext-99", result.ExternalID)
	}

	result = a.Push(t.Context(), adapter.Record{"id": "42", "name": "Ada"}, adapter.PushOptions{
		Entity: "contacts", Operation: adapter.OperationUpdate,
	})
	if !result.Success {
		t.Fatalf("Push(update) failed: %s", result.Error)
	}
	if gotMethod != http.MethodPatch || gotPath != "/contacts/42" {
		t.Errorf("update = %s %s, want PATCH /contacts/42", gotMethod, gotPath)
	}

	result = a.Push(t.Context(), adapter.Record{"id": "42"}, adapter.PushOptions{
		Entity: "contacts", Operation: adapter.OperationDelete,
	})
	if !result.Success {
		t.Fatalf("Push(delete) failed: %s", result.Error)
	}
	if gotMethod != http.MethodDelete || gotPath != "/contacts/42" {
		t.Errorf("delete = %s %s, want DELETE /contacts/42", gotMethod, gotPath)
	}
}

func TestPushRequiresIDForUpdate(t *testing.T) {
	a := newTestAdapter(t, "http://unused.invalid")
	result := a.Push(t.Context(), adapter.Record{"name": "Ada"}, adapter.PushOptions{
		Entity: "contacts", Operation: adapter.OperationUpdate,
	})
	if result.Success {
		t.Fatal("Push(update) without id succeeded, want failure")
	}
}

func TestParseWebhook(t *testing.T) {
	a := newTestAdapter(t, "http://unused.invalid")

	payload, _ := json.Marshal(map[string]any{
		"type":      "contact.updated",
		"entity":    "contacts",
		"id":        "42",
		"operation": "update",
		"data":      map[string]any{"name": "Ada"},
	})
	ev := a.ParseWebhook(payload, nil)
	if ev == nil {
		t.Fatal("ParseWebhook() = nil, want event")
	}
	if ev.Type != "contact.updated" || ev.ExternalID != "42" {
		t.Errorf("event = %+v, want type contact.updated external id 42", ev)
	}
	if ev.Timestamp.IsZero() {
		t.Error("Timestamp is zero, want defaulted")
	}

	if ev := a.ParseWebhook([]byte("not json"), nil); ev != nil {
		t.Errorf("ParseWebhook(garbage) = %+v, want nil", ev)
	}
	if ev := a.ParseWebhook([]byte(`{"entity":"contacts"}`), nil); ev != nil {
		t.Errorf("ParseWebhook(no type) = %+v, want nil", ev)
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	a := newTestAdapter(t, "http://unused.invalid")
	payload := []byte(`{"type":"x"}`)
	sig := adapter.SignPayload(payload, "secret")

	if !a.VerifyWebhookSignature(payload, sig, "secret") {
		t.Error("valid signature rejected")
	}
	if a.VerifyWebhookSignature(payload, sig, "wrong") {
		t.Error("invalid signature accepted")
	}
}
