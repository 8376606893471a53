package adapter

import (
	"errors"
	"strings"
	"testing"
)

func TestVerifyHMACSignature(t *testing.T) {
	payload := []byte(`{"event":"contact.updated"}`)
	secret := "whsec_test"
	sig := SignPayload(payload, secret)

	if !VerifyHMACSignature(payload, sig, secret) {
		t.Error("valid signature rejected")
	}
	if !VerifyHMACSignature(payload, "sha256="+sig, secret) {
		t.Error("sha256= prefixed signature rejected")
	}
	if !VerifyHMACSignature(payload, strings.ToUpper(sig), secret) {
		t.Error("uppercase hex signature rejected")
	}
}

func TestVerifyHMACSignatureRejects(t *testing.T) {
	payload := []byte(`{"event":"contact.updated"}`)
	secret := "whsec_test"
	sig := SignPayload(payload, secret)

	cases := map[string]struct {
		payload   []byte
		signature string
		secret    string
	}{
		"wrong secret":     {payload, sig, "other"},
		"tampered payload": {[]byte(`{"event":"tampered"}`), sig, secret},
		"empty signature":  {payload, "", secret},
		"prefix only":      {payload, "sha256=", secret},
		"empty secret":     {payload, sig, ""},
	}
	for name, tc := range cases {
		if VerifyHMACSignature(tc.payload, tc.signature, tc.secret) {
			t.Errorf("%s: VerifyHMACSignature() = true, want false", name)
		}
	}
}

func TestBaseDefaultsFailClosed(t *testing.T) {
	b := NewBase(Deps{}, testIdentity)

	payload := []byte(`{}`)
	sig := SignPayload(payload, "secret")
	if b.VerifyWebhookSignature(payload, sig, "secret") {
		t.Error("default VerifyWebhookSignature() = true, want false even for a valid signature")
	}
	if ev := b.ParseWebhook(payload, map[string]string{"X-Event": "x"}); ev != nil {
		t.Errorf("default ParseWebhook() = %+v, want nil", ev)
	}
	if _, err := b.FetchTeams(t.Context(), TeamSyncConfig{}); !errors.Is(err, ErrNotSupported) {
		t.Errorf("default FetchTeams() error = %v, want ErrNotSupported", err)
	}
	if err := b.OnConnect(t.Context()); err != nil {
		t.Errorf("default OnConnect() error = %v, want nil", err)
	}
	if err := b.OnDisconnect(t.Context()); err != nil {
		t.Errorf("default OnDisconnect() error = %v, want nil", err)
	}
}

func TestBaseHooksOverrideDefaults(t *testing.T) {
	b := NewBase(Deps{}, testIdentity)

	var gotOp string
	var gotInfo *RateLimitInfo
	b.Hooks = Hooks{
		Error:        func(_ error, operation string) { gotOp = operation },
		RateLimitHit: func(info *RateLimitInfo) { gotInfo = info },
	}

	b.OnError(errors.New("boom"), "fetch")
	if gotOp != "fetch" {
		t.Errorf("error hook operation = %q, want %q", gotOp, "fetch")
	}

	info := &RateLimitInfo{Remaining: 1}
	b.OnRateLimitHit(info)
	if gotInfo != info {
		t.Error("rate-limit hook did not receive the info it was fired with")
	}
}
