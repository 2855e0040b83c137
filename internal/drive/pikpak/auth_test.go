package pikpak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ning0612/pikpakcli/internal/domain"
)

func TestTokenValid(t *testing.T) {
	tests := []struct {
		name  string
		token Token
		want  bool
	}{
		{"empty", Token{}, false},
		{"no expiry", Token{AccessToken: "a"}, true},
		{"future expiry", Token{AccessToken: "a", Expiry: time.Now().Add(time.Hour)}, true},
		{"expired", Token{AccessToken: "a", Expiry: time.Now().Add(-time.Hour)}, false},
		{"inside skew window", Token{AccessToken: "a", Expiry: time.Now().Add(10 * time.Second)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/signin" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice@example.com" || body["password"] != "s3cret" {
			t.Errorf("credentials = %v", body)
		}
		if body["client_id"] != ClientID {
			t.Errorf("client_id = %q", body["client_id"])
		}
		fmt.Fprint(w, `{"access_token": "acc", "refresh_token": "ref", "expires_in": 7200}`)
	}))
	defer server.Close()

	var persisted []Token
	auth := NewAuthenticator(server.URL, Token{}, func(tok Token) { persisted = append(persisted, tok) })

	if err := auth.Login(context.Background(), server.Client(), "alice@example.com", "s3cret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	token := auth.Token()
	if token.AccessToken != "acc" || token.RefreshToken != "ref" {
		t.Errorf("token = %+v", token)
	}
	if token.TokenType != "Bearer" {
		t.Errorf("token type default = %q, want Bearer", token.TokenType)
	}
	if token.Expiry.Before(time.Now().Add(time.Hour)) {
		t.Errorf("expiry too soon: %v", token.Expiry)
	}
	if len(persisted) != 1 {
		t.Errorf("OnToken called %d times, want 1", len(persisted))
	}
}

func TestLoginBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": "invalid_grant", "error_description": "wrong password"}`)
	}))
	defer server.Close()

	auth := NewAuthenticator(server.URL, Token{}, nil)
	err := auth.Login(context.Background(), server.Client(), "alice@example.com", "wrong")
	if !errors.Is(err, domain.ErrNotLoggedIn) {
		t.Errorf("err = %v, want ErrNotLoggedIn", err)
	}
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	auth := NewAuthenticator("http://unused.invalid", Token{AccessToken: "a"}, nil)
	err := auth.Refresh(context.Background(), http.DefaultClient)
	if !errors.Is(err, domain.ErrNotLoggedIn) {
		t.Errorf("err = %v, want ErrNotLoggedIn", err)
	}
}

func TestValidTokenSkipsRefreshWhenFresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("fresh token should not hit the network")
	}))
	defer server.Close()

	fresh := Token{AccessToken: "a", RefreshToken: "r", Expiry: time.Now().Add(time.Hour)}
	auth := NewAuthenticator(server.URL, fresh, nil)

	got, err := auth.ValidToken(context.Background(), server.Client())
	if err != nil {
		t.Fatalf("ValidToken: %v", err)
	}
	if got.AccessToken != "a" {
		t.Errorf("token = %+v", got)
	}
}

func TestValidTokenRefreshesExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/token" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"access_token": "acc2", "refresh_token": "ref2", "expires_in": 3600}`)
	}))
	defer server.Close()

	stale := Token{AccessToken: "acc1", RefreshToken: "ref1", Expiry: time.Now().Add(-time.Minute)}
	auth := NewAuthenticator(server.URL, stale, nil)

	got, err := auth.ValidToken(context.Background(), server.Client())
	if err != nil {
		t.Fatalf("ValidToken: %v", err)
	}
	if got.AccessToken != "acc2" {
		t.Errorf("token = %+v, want refreshed", got)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	orig := Token{
		AccessToken:  "acc",
		RefreshToken: "ref",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
	}

	raw, err := MarshalToken(orig)
	if err != nil {
		t.Fatalf("MarshalToken: %v", err)
	}

	got, err := UnmarshalToken(raw)
	if err != nil {
		t.Fatalf("UnmarshalToken: %v", err)
	}
	if got.AccessToken != orig.AccessToken || got.RefreshToken != orig.RefreshToken {
		t.Errorf("round trip = %+v", got)
	}
	if !got.Expiry.Equal(orig.Expiry) {
		t.Errorf("expiry = %v, want %v", got.Expiry, orig.Expiry)
	}
}

func TestUnmarshalTokenEmpty(t *testing.T) {
	got, err := UnmarshalToken(nil)
	if err != nil {
		t.Fatalf("UnmarshalToken(nil): %v", err)
	}
	if got.AccessToken != "" {
		t.Errorf("token = %+v, want zero", got)
	}
}
