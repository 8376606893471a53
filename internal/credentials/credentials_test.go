package credentials

import (
	"errors"
	"testing"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		creds Credentials
		want  string
		ok    bool
	}{
		"oauth2":           {Credentials{Type: TypeOAuth2, AccessToken: "tok"}, "tok", true},
		"case insensitive": {Credentials{Type: "OAuth2", AccessToken: "tok"}, "tok", true},
		"padded token":     {Credentials{Type: TypeOAuth2, AccessToken: "  tok  "}, "tok", true},
		"api key":          {Credentials{Type: TypeAPIKey, AccessToken: "tok"}, "", false},
		"empty token":      {Credentials{Type: TypeOAuth2}, "", false},
		"whitespace token": {Credentials{Type: TypeOAuth2, AccessToken: "   "}, "", false},
		"missing type":     {Credentials{AccessToken: "tok"}, "", false},
	}
	for name, tc := range cases {
		got, ok := tc.creds.BearerToken()
		if got != tc.want || ok != tc.ok {
			t.Errorf("%s: BearerToken() = (%q, %v), want (%q, %v)", name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider()
	p.Set("conn-1", "crm", Credentials{Type: TypeOAuth2, AccessToken: "tok"})

	creds, err := p.Decrypted(t.Context(), "conn-1", "crm")
	if err != nil {
		t.Fatalf("Decrypted() error = %v", err)
	}
	if creds.AccessToken != "tok" {
		t.Errorf("AccessToken = %q, want tok", creds.AccessToken)
	}

	if _, err := p.Decrypted(t.Context(), "conn-1", "other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Decrypted() for unknown pair error = %v, want ErrNotFound", err)
	}

	if !p.Delete("conn-1", "crm") {
		t.Error("Delete() = false, want true")
	}
	if p.Delete("conn-1", "crm") {
		t.Error("second Delete() = true, want false")
	}
	if _, err := p.Decrypted(t.Context(), "conn-1", "crm"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Decrypted() after delete error = %v, want ErrNotFound", err)
	}
}
