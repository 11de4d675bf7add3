// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/tokenscope/jwt"
	"github.com/hashicorp/tokenscope/sdk/id"
	"github.com/hashicorp/tokenscope/session"
	"github.com/stretchr/testify/require"
	josejwt "gopkg.in/square/go-jose.v2/jwt"
)

// TestBackend is a local server that implements enough of a backend's auth
// API (authorize, token, user, logout) to exercise a Client end to end.  It
// issues ES256 signed access tokens.
type TestBackend struct {
	httpServer *httptest.Server
	caCert     string
	key        *ecdsa.PrivateKey

	publicKey      string
	serviceRoleKey string

	mu               sync.Mutex
	user             session.User
	expiresIn        time.Duration
	allowedProviders []string
	logoutStatus     int
	codes            map[string]testPendingCode
	refreshTokens    map[string]string // refresh token -> provider
	accessTokens     map[string]string // access token -> refresh token
	requests         map[string]int    // path -> count

	t *testing.T
}

type testPendingCode struct {
	challenge string
	provider  string
}

// StartTestBackend creates a disposable TestBackend which is stopped when
// the test completes.
func StartTestBackend(t *testing.T) *TestBackend {
	t.Helper()
	require := require.New(t)

	b := &TestBackend{
		t:   t,
		key: jwt.TestGenerateKey(t),
		user: session.User{
			ID:       "7d3b2c5e-0c5f-4d8e-9a8a-1f8f4e0b9c11",
			Email:    "alice@example.com",
			Role:     "authenticated",
			Audience: "authenticated",
		},
		expiresIn:        time.Hour,
		allowedProviders: []string{"github", "google"},
		codes:            map[string]testPendingCode{},
		refreshTokens:    map[string]string{},
		accessTokens:     map[string]string{},
		requests:         map[string]int{},
	}
	now := josejwt.NewNumericDate(time.Now())
	b.publicKey = jwt.TestSignJWT(t, b.key, "", josejwt.Claims{Issuer: "tokenscope-test", IssuedAt: now}, map[string]interface{}{"role": "anon", "ref": "test"})
	b.serviceRoleKey = jwt.TestSignJWT(t, b.key, "", josejwt.Claims{Issuer: "tokenscope-test", IssuedAt: now}, map[string]interface{}{"role": "service_role", "ref": "test"})

	mux := http.NewServeMux()
	mux.HandleFunc(DefaultAuthPath+"/authorize", b.handleAuthorize)
	mux.HandleFunc(DefaultAuthPath+"/token", b.handleToken)
	mux.HandleFunc(DefaultAuthPath+"/user", b.handleUser)
	mux.HandleFunc(DefaultAuthPath+"/logout", b.handleLogout)

	b.httpServer = httptest.NewUnstartedServer(mux)
	b.httpServer.Config.ErrorLog = log.New(ioutil.Discard, "", 0)
	b.httpServer.StartTLS()
	t.Cleanup(b.httpServer.Close)

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: b.httpServer.Certificate().Raw})
	require.NoError(err)
	b.caCert = buf.String()
	return b
}

// Stop stops the running TestBackend.
func (b *TestBackend) Stop() {
	b.httpServer.Close()
}

// Addr returns the backend's endpoint URL.
func (b *TestBackend) Addr() string { return b.httpServer.URL }

// CACert returns the pem-encoded CA certificate used by the backend's HTTPS
// server.
func (b *TestBackend) CACert() string { return b.caCert }

// PublicKey returns the backend's public (anon role) key.
func (b *TestBackend) PublicKey() string { return b.publicKey }

// ServiceRoleKey returns the backend's privileged (service_role) key.
func (b *TestBackend) ServiceRoleKey() string { return b.serviceRoleKey }

// HTTPClient returns an http client which trusts the backend's CA.
func (b *TestBackend) HTTPClient() *http.Client { return b.httpServer.Client() }

// SigningKey returns the key used to sign access tokens.
func (b *TestBackend) SigningKey() *ecdsa.PrivateKey { return b.key }

// SetUser configures the user sessions are issued for.
func (b *TestBackend) SetUser(u session.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.user = u
}

// SetExpiresIn configures how long issued access tokens are valid.
func (b *TestBackend) SetExpiresIn(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expiresIn = d
}

// SetAllowedProviders configures which identity providers /authorize
// accepts.  Defaults to github and google.
func (b *TestBackend) SetAllowedProviders(providers ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allowedProviders = providers
}

// SetLogoutStatus forces /logout to fail with the status code.  Zero
// restores normal behavior.
func (b *TestBackend) SetLogoutStatus(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutStatus = code
}

// Requests returns how many requests were made to the auth API path, e.g.
// "/token".
func (b *TestBackend) Requests(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[DefaultAuthPath+path]
}

// IssueSession issues a session for the configured user without a sign in
// flow.  It returns the access and refresh tokens.
func (b *TestBackend) IssueSession(provider string) (accessToken, refreshToken string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	resp := b.issue(provider)
	return resp.AccessToken, resp.RefreshToken
}

// Authorize plays the part of the user's browser: it follows authURL to the
// backend and returns the URL the backend redirected to.
func (b *TestBackend) Authorize(authURL string) (*url.URL, error) {
	c := *b.httpServer.Client()
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err := c.Get(authURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return resp.Location()
}

func (b *TestBackend) writeJSON(w http.ResponseWriter, status int, out interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(out)
}

func (b *TestBackend) writeError(w http.ResponseWriter, status int, code, msg string) {
	b.writeJSON(w, status, map[string]interface{}{"code": status, "error_code": code, "msg": msg})
}

func (b *TestBackend) count(req *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests[req.URL.Path]++
}

func (b *TestBackend) checkAPIKey(w http.ResponseWriter, req *http.Request) bool {
	if req.Header.Get("apikey") != b.publicKey {
		b.writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid API key"})
		return false
	}
	return true
}

func bearer(req *http.Request) string {
	return strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
}

func (b *TestBackend) handleAuthorize(w http.ResponseWriter, req *http.Request) {
	b.count(req)
	if req.Method != http.MethodGet {
		b.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	q := req.URL.Query()
	redirectTo, err := url.Parse(q.Get("redirect_to"))
	if err != nil || q.Get("redirect_to") == "" {
		b.writeError(w, http.StatusBadRequest, "validation_failed", "redirect_to is required")
		return
	}
	rq := redirectTo.Query()

	b.mu.Lock()
	allowed := false
	for _, p := range b.allowedProviders {
		if p == q.Get("provider") {
			allowed = true
		}
	}
	switch {
	case !allowed:
		rq.Set("error", "validation_failed")
		rq.Set("error_description", "Unsupported provider: provider is not enabled")
	case q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "s256":
		rq.Set("error", "validation_failed")
		rq.Set("error_description", "PKCE code challenge is required")
	default:
		code, err := id.New("")
		require.NoError(b.t, err)
		b.codes[code] = testPendingCode{challenge: q.Get("code_challenge"), provider: q.Get("provider")}
		rq.Set("code", code)
	}
	b.mu.Unlock()

	redirectTo.RawQuery = rq.Encode()
	http.Redirect(w, req, redirectTo.String(), http.StatusFound)
}

func (b *TestBackend) handleToken(w http.ResponseWriter, req *http.Request) {
	b.count(req)
	if req.Method != http.MethodPost {
		b.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if !b.checkAPIKey(w, req) {
		return
	}
	var body struct {
		AuthCode     string `json:"auth_code"`
		CodeVerifier string `json:"code_verifier"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		b.writeError(w, http.StatusBadRequest, "bad_json", "could not parse request body as JSON")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	switch req.URL.Query().Get("grant_type") {
	case "pkce":
		pending, ok := b.codes[body.AuthCode]
		if !ok {
			b.writeError(w, http.StatusNotFound, "flow_state_not_found", "invalid flow state, no valid flow state found")
			return
		}
		delete(b.codes, body.AuthCode)
		sum := sha256.Sum256([]byte(body.CodeVerifier))
		if base64.RawURLEncoding.EncodeToString(sum[:]) != pending.challenge {
			b.writeError(w, http.StatusBadRequest, "bad_code_verifier", "code challenge does not match previously saved code verifier")
			return
		}
		b.writeJSON(w, http.StatusOK, b.issue(pending.provider))
	case "refresh_token":
		provider, ok := b.refreshTokens[body.RefreshToken]
		if !ok {
			b.writeError(w, http.StatusBadRequest, "refresh_token_not_found", "Invalid Refresh Token: Refresh Token Not Found")
			return
		}
		// refresh tokens are single use
		delete(b.refreshTokens, body.RefreshToken)
		b.writeJSON(w, http.StatusOK, b.issue(provider))
	default:
		b.writeError(w, http.StatusBadRequest, "unsupported_grant_type", "unsupported_grant_type")
	}
}

func (b *TestBackend) handleUser(w http.ResponseWriter, req *http.Request) {
	b.count(req)
	if !b.checkAPIKey(w, req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accessTokens[bearer(req)]; !ok {
		b.writeError(w, http.StatusUnauthorized, "bad_jwt", "invalid JWT")
		return
	}
	b.writeJSON(w, http.StatusOK, b.user)
}

func (b *TestBackend) handleLogout(w http.ResponseWriter, req *http.Request) {
	b.count(req)
	if req.Method != http.MethodPost {
		b.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if !b.checkAPIKey(w, req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.logoutStatus != 0 {
		b.writeError(w, b.logoutStatus, "unexpected_failure", http.StatusText(b.logoutStatus))
		return
	}
	rt, ok := b.accessTokens[bearer(req)]
	if !ok {
		b.writeError(w, http.StatusUnauthorized, "session_not_found", "Session from session_id claim in JWT does not exist")
		return
	}
	delete(b.accessTokens, bearer(req))
	delete(b.refreshTokens, rt)
	w.WriteHeader(http.StatusNoContent)
}

// issue must be called with b.mu held.
func (b *TestBackend) issue(provider string) *tokenResponse {
	now := time.Now()
	exp := now.Add(b.expiresIn)
	sid, err := id.New("")
	require.NoError(b.t, err)
	rt, err := id.New("rt")
	require.NoError(b.t, err)

	u := b.user
	u.AppMetadata = map[string]interface{}{"provider": provider, "providers": []string{provider}}
	at := jwt.TestSignJWT(b.t, b.key, "test-key", josejwt.Claims{
		Issuer:   b.httpServer.URL + DefaultAuthPath,
		Subject:  u.ID,
		Audience: josejwt.Audience{"authenticated"},
		Expiry:   josejwt.NewNumericDate(exp),
		IssuedAt: josejwt.NewNumericDate(now),
	}, map[string]interface{}{
		"email":        u.Email,
		"role":         "authenticated",
		"session_id":   sid,
		"app_metadata": u.AppMetadata,
	})
	b.accessTokens[at] = rt
	b.refreshTokens[rt] = provider
	return &tokenResponse{
		AccessToken:  at,
		TokenType:    "bearer",
		ExpiresIn:    int64(b.expiresIn / time.Second),
		ExpiresAt:    exp.Unix(),
		RefreshToken: rt,
		User:         u,
	}
}
