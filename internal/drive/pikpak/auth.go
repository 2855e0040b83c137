package pikpak

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Ning0612/pikpakcli/internal/domain"
	"github.com/Ning0612/pikpakcli/internal/logger"
)

const (
	// ClientID identifies this client to the PikPak auth service
	ClientID = "YNxT9w7GMdWvEOKa"
	// ClientSecret pairs with ClientID (public desktop-client secret)
	ClientSecret = "dbw2OtmVEeuUvIptb1Coyg"

	// expirySkew refreshes tokens slightly before they expire
	expirySkew = 60 * time.Second
)

// Token holds PikPak OAuth credentials
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
}

// Valid reports whether the access token is present and unexpired
func (t Token) Valid() bool {
	if t.AccessToken == "" {
		return false
	}
	if t.Expiry.IsZero() {
		return true
	}
	return time.Now().Add(expirySkew).Before(t.Expiry)
}

// Authenticator owns the token lifecycle: login, proactive refresh
// before expiry, and persistence via the OnToken callback
type Authenticator struct {
	userBase string
	onToken  func(Token)

	mu    sync.Mutex
	token Token
}

// NewAuthenticator creates an authenticator seeded with a stored token
func NewAuthenticator(userBase string, token Token, onToken func(Token)) *Authenticator {
	return &Authenticator{
		userBase: userBase,
		token:    token,
		onToken:  onToken,
	}
}

// Token returns the current token
func (a *Authenticator) Token() Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

// ValidToken returns the current token, refreshing it first when it
// has expired and a refresh token is available
func (a *Authenticator) ValidToken(ctx context.Context, hc *http.Client) (Token, error) {
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()

	if token.Valid() {
		return token, nil
	}
	if token.RefreshToken == "" {
		return Token{}, domain.ErrNotLoggedIn
	}

	if err := a.Refresh(ctx, hc); err != nil {
		return Token{}, err
	}
	return a.Token(), nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func (r tokenResponse) toToken() Token {
	t := Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
	}
	if t.TokenType == "" {
		t.TokenType = "Bearer"
	}
	if r.ExpiresIn > 0 {
		t.Expiry = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return t
}

// Login exchanges account credentials for a token
func (a *Authenticator) Login(ctx context.Context, hc *http.Client, account, password string) error {
	body := map[string]string{
		"client_id":     ClientID,
		"client_secret": ClientSecret,
		"username":      account,
		"password":      password,
		"captcha_token": "",
	}

	token, err := a.requestToken(ctx, hc, "/v1/auth/signin", body)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	a.store(token)
	logger.Get().Info("logged in", "account", account)
	return nil
}

// Refresh exchanges the refresh token for a new access token
func (a *Authenticator) Refresh(ctx context.Context, hc *http.Client) error {
	a.mu.Lock()
	refreshToken := a.token.RefreshToken
	a.mu.Unlock()

	if refreshToken == "" {
		return domain.ErrNotLoggedIn
	}

	body := map[string]string{
		"client_id":     ClientID,
		"client_secret": ClientSecret,
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}

	token, err := a.requestToken(ctx, hc, "/v1/auth/token", body)
	if err != nil {
		return fmt.Errorf("%w: token refresh failed: %v", domain.ErrNotLoggedIn, err)
	}

	a.store(token)
	logger.Get().Debug("token refreshed")
	return nil
}

func (a *Authenticator) requestToken(ctx context.Context, hc *http.Client, path string, body map[string]string) (Token, error) {
	req, err := newJSONRequest(ctx, "POST", a.userBase+path, body)
	if err != nil {
		return Token{}, err
	}

	resp, err := hc.Do(req)
	if err != nil {
		return Token{}, err
	}

	var tr tokenResponse
	if err := decodeResponse(resp, &tr); err != nil {
		return Token{}, err
	}
	if tr.AccessToken == "" {
		return Token{}, fmt.Errorf("auth service returned no access token")
	}

	return tr.toToken(), nil
}

func (a *Authenticator) store(token Token) {
	a.mu.Lock()
	a.token = token
	onToken := a.onToken
	a.mu.Unlock()

	// Callback outside the lock; it may persist the session file
	if onToken != nil {
		onToken(token)
	}
}

// MarshalToken serializes a token for session storage
func MarshalToken(t Token) (json.RawMessage, error) {
	return json.Marshal(t)
}

// UnmarshalToken restores a token from session storage
func UnmarshalToken(data json.RawMessage) (Token, error) {
	var t Token
	if len(data) == 0 {
		return t, nil
	}
	err := json.Unmarshal(data, &t)
	return t, err
}
