package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/browser"
	"golang.org/x/oauth2"

	"github.com/ifitclub/clubstats/internal/logging"
	"github.com/ifitclub/clubstats/internal/strava"
)

const (
	defaultAuthURL     = "https://www.strava.com/oauth/authorize"
	defaultTokenURL    = "https://www.strava.com/oauth/token"
	DefaultRedirectURL = "http://localhost:8089/callback"
	scopes             = "read,profile:read_all,activity:read_all"
	connectTimeout     = 5 * time.Minute
)

// expiry margin, in seconds
const refreshMargin = 300

// Config holds the club application's OAuth credentials.
// AuthURL and TokenURL default to the upstream endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
}

// OAuth2 returns the x/oauth2 form of c.
func (c Config) OAuth2() *oauth2.Config {
	authURL, tokenURL, redirect := c.AuthURL, c.TokenURL, c.RedirectURL
	if authURL == "" {
		authURL = defaultAuthURL
	}
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	if redirect == "" {
		redirect = DefaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirect,
		Scopes:      []string{scopes},
	}
}

// TokenResponse is a token grant. Athlete is only present on the initial exchange.
type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    int64           `json:"expires_at"`
	TokenType    string          `json:"token_type"`
	Scope        string          `json:"scope,omitempty"`
	Athlete      *strava.Athlete `json:"athlete,omitempty"`
}

// TokenFromOAuth2 converts an oauth2.Token, decoding the athlete summary
// the token endpoint returns alongside the grant.
func TokenFromOAuth2(token *oauth2.Token) *TokenResponse {
	tr := &TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry.Unix(),
		TokenType:    token.TokenType,
	}
	if raw, ok := token.Extra("athlete").(map[string]interface{}); ok {
		if b, err := json.Marshal(raw); err == nil {
			var a strava.Athlete
			if json.Unmarshal(b, &a) == nil && a.ID != 0 {
				tr.Athlete = &a
			}
		}
	}
	return tr
}

// ToOAuth2Token converts back to an oauth2.Token
func (t *TokenResponse) ToOAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       time.Unix(t.ExpiresAt, 0),
		TokenType:    t.TokenType,
	}
}

// Exchange trades an authorization code for a grant.
func Exchange(ctx context.Context, cfg Config, code string) (*TokenResponse, error) {
	token, err := cfg.OAuth2().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	tr := TokenFromOAuth2(token)
	if tr.Athlete == nil {
		return nil, errors.New("token exchange returned no athlete")
	}
	return tr, nil
}

// RefreshAccessToken obtains a new grant from refreshToken.
func RefreshAccessToken(ctx context.Context, cfg Config, refreshToken string) (*TokenResponse, error) {
	old := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}

	newToken, err := cfg.OAuth2().TokenSource(ctx, old).Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return TokenFromOAuth2(newToken), nil
}

// IsTokenExpired reports whether expiresAt is less than five minutes away.
func IsTokenExpired(expiresAt int64) bool {
	return isExpiredAt(expiresAt, time.Now())
}

func isExpiredAt(expiresAt int64, now time.Time) bool {
	return now.Unix() > expiresAt-refreshMargin
}

type callbackResult struct {
	code  string
	scope string
	err   error
}

// callbackHandler verifies the signed state and forwards the code once.
func callbackHandler(signer *StateSigner, results chan<- callbackResult) http.Handler {
	deliver := func(r callbackResult) {
		select {
		case results <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if err := signer.Verify(q.Get("state")); err != nil {
			http.Error(w, "invalid state", http.StatusBadRequest)
			deliver(callbackResult{err: err})
			return
		}

		code := q.Get("code")
		if code == "" {
			errMsg := q.Get("error")
			if errMsg == "" {
				errMsg = "no authorization code received"
			}
			http.Error(w, errMsg, http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("authorization failed: %s", errMsg)})
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Connected to the club!</h1><p>You can close this window.</p></body></html>`)
		deliver(callbackResult{code: code, scope: q.Get("scope")})
	})
	return mux
}

// Authenticate runs the browser connect flow for one athlete: it serves the
// redirect URL locally, opens the authorize page and exchanges the code.
func Authenticate(ctx context.Context, cfg Config, signer *StateSigner) (*TokenResponse, error) {
	oc := cfg.OAuth2()
	redirect, err := url.Parse(oc.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redirect url: %w", err)
	}

	state, err := signer.Issue()
	if err != nil {
		return nil, err
	}

	results := make(chan callbackResult, 1)
	listener, err := net.Listen("tcp", ":"+redirect.Port())
	if err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}
	server := &http.Server{Handler: callbackHandler(signer, results), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("callback server error", "error", err)
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := oc.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "force"))
	fmt.Println("Opening browser to connect an athlete...")
	fmt.Printf("If the browser doesn't open, visit: %s\n\n", authURL)
	if err := browser.OpenURL(authURL); err != nil {
		fmt.Printf("Could not open browser automatically: %v\n", err)
	}

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(connectTimeout):
		return nil, errors.New("authorization timeout")
	}
	if res.err != nil {
		return nil, res.err
	}

	tokens, err := Exchange(ctx, cfg, res.code)
	if err != nil {
		return nil, err
	}
	tokens.Scope = res.scope
	return tokens, nil
}
