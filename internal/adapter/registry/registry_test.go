package registry

import (
	"errors"
	"testing"

	"github.com/open-conduit/open-conduit/internal/adapter"
	"github.com/open-conduit/open-conduit/internal/adapter/adaptertest"
)

func fakeFactory(deps adapter.Deps, id adapter.IntegrationIdentity) (adapter.Adapter, error) {
	return adaptertest.New(deps, id), nil
}

func TestRegisterAndLookup(t *testing.T) {
	r := New(adapter.Deps{})

	if err := r.Register("HubSpot", fakeFactory); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("salesforce", fakeFactory); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// IDs are normalized to lowercase.
	if !r.Has("hubspot") {
		t.Error("Has(hubspot) = false, want true")
	}
	if !r.Has("  HUBSPOT  ") {
		t.Error("Has with casing/whitespace = false, want true")
	}
	if r.Has("jira") {
		t.Error("Has(jira) = true, want false")
	}

	got := r.List()
	want := []string{"hubspot", "salesforce"}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List() = %v, want %v (registration order)", got, want)
		}
	}

	stats := r.Stats()
	if stats.TotalAdapters != 2 {
		t.Errorf("Stats().TotalAdapters = %d, want 2", stats.TotalAdapters)
	}
}

func TestRegisterRejectsDuplicatesAndEmpty(t *testing.T) {
	r := New(adapter.Deps{})

	if err := r.Register("hubspot", fakeFactory); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("HubSpot", fakeFactory); err == nil {
		t.Error("Register() duplicate (case-folded) = nil, want error")
	}
	if err := r.Register("   ", fakeFactory); err == nil {
		t.Error("Register() empty id = nil, want error")
	}
	if err := r.Register("jira", nil); err == nil {
		t.Error("Register() nil factory = nil, want error")
	}
}

func TestUnregisterTwice(t *testing.T) {
	r := New(adapter.Deps{})
	if err := r.Register("hubspot", fakeFactory); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if !r.Unregister("hubspot") {
		t.Error("first Unregister() = false, want true")
	}
	if r.Unregister("hubspot") {
		t.Error("second Unregister() = true, want false")
	}
	if r.Has("hubspot") {
		t.Error("Has() after unregister = true, want false")
	}
	if n := r.Stats().TotalAdapters; n != 0 {
		t.Errorf("Stats().TotalAdapters = %d, want 0", n)
	}
}

func TestOpenBuildsFreshInstances(t *testing.T) {
	r := New(adapter.Deps{})
	if err := r.Register("hubspot", fakeFactory); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	id := adapter.IntegrationIdentity{IntegrationID: "hubspot", TenantID: "t1", ConnectionID: "c1"}
	a1, err := r.Open("hubspot", id)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	a2, err := r.Open("hubspot", id)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if a1 == a2 {
		t.Error("Open() returned a shared instance, want fresh per call")
	}
	if a1.Identity() != id {
		t.Errorf("Identity() = %v, want %v", a1.Identity(), id)
	}

	if _, err := r.Open("jira", id); err == nil {
		t.Error("Open() on unregistered id = nil error, want error")
	}
}

func TestOpenPropagatesFactoryError(t *testing.T) {
	r := New(adapter.Deps{})
	wantErr := errors.New("bad wiring")
	if err := r.Register("broken", func(adapter.Deps, adapter.IntegrationIdentity) (adapter.Adapter, error) {
		return nil, wantErr
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := r.Open("broken", adapter.IntegrationIdentity{IntegrationID: "broken", TenantID: "t", ConnectionID: "c"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Open() error = %v, want wrapped factory error", err)
	}
}

func TestRegisterAllBestEffort(t *testing.T) {
	r := New(adapter.Deps{})
	if err := r.Register("hubspot", fakeFactory); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	n := r.RegisterAll([]Entry{
		{ID: "hubspot", Factory: fakeFactory}, // duplicate, skipped
		{ID: "salesforce", Factory: fakeFactory},
		{ID: "", Factory: fakeFactory}, // invalid, skipped
		{ID: "jira", Factory: fakeFactory},
	})
	if n != 2 {
		t.Errorf("RegisterAll() = %d, want 2", n)
	}
	if got := r.Stats().TotalAdapters; got != 3 {
		t.Errorf("Stats().TotalAdapters = %d, want 3", got)
	}
}
