// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/tokenscope/jwt"
	"github.com/hashicorp/tokenscope/session"
	"golang.org/x/oauth2"
)

// tokenResponse is the auth API's session payload.
type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         session.User `json:"user"`
}

func (t *tokenResponse) toSession(now time.Time) (*session.Session, error) {
	const op = "backend.(tokenResponse).toSession"
	if t.AccessToken == "" {
		return nil, fmt.Errorf("%s: access_token is missing: %w", op, ErrRequestFailed)
	}
	s := &session.Session{
		AccessToken:  session.AccessToken(t.AccessToken),
		RefreshToken: session.RefreshToken(t.RefreshToken),
		TokenType:    t.TokenType,
		User:         t.User,
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0)
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	default:
		s.ExpiresAt = tokenExpiry(t.AccessToken)
	}
	return s, nil
}

// tokenExpiry returns the exp claim of the token or the zero time.
func tokenExpiry(token string) time.Time {
	claims, err := jwt.DecodeClaims(token)
	if err != nil {
		return time.Time{}
	}
	exp, _ := claims.ExpiresAt()
	return exp
}

// AuthURL returns the URL which starts a federated sign in with the
// identity provider (github, google, etc).  The user's browser should be
// sent there; the backend redirects it to the state's RedirectTo URL with a
// code which ExchangeCode turns into a session.
//
// Supported options: WithScopes, WithQueryParams
func (c *Client) AuthURL(provider string, s *State, opt ...Option) (string, error) {
	const op = "backend.(Client).AuthURL"
	if provider == "" {
		return "", fmt.Errorf("%s: provider is empty: %w", op, ErrInvalidParameter)
	}
	if s == nil {
		return "", fmt.Errorf("%s: state is nil: %w", op, ErrNilParameter)
	}
	if s.IsExpired() {
		return "", fmt.Errorf("%s: state is expired: %w", op, ErrExpiredState)
	}
	redirectTo, err := s.RedirectTo()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	opts := getAuthURLOpts(opt...)
	q := url.Values{}
	for k, v := range opts.withQueryParams {
		q.Set(k, v)
	}
	q.Set("provider", provider)
	q.Set("redirect_to", redirectTo)
	q.Set("code_challenge", s.PKCEVerifier().Challenge())
	q.Set("code_challenge_method", strings.ToLower(string(s.PKCEVerifier().Method())))
	if len(opts.withScopes) > 0 {
		q.Set("scopes", strings.Join(opts.withScopes, " "))
	}
	return c.endpoint("/authorize", q), nil
}

// ExchangeCode exchanges the code the backend returned to the state's
// redirect URL for a session.  On success the session becomes the client's
// session and SignedIn is emitted.
func (c *Client) ExchangeCode(ctx context.Context, s *State, code string) (*session.Session, error) {
	const op = "backend.(Client).ExchangeCode"
	if s == nil {
		return nil, fmt.Errorf("%s: state is nil: %w", op, ErrNilParameter)
	}
	if code == "" {
		return nil, fmt.Errorf("%s: code is empty: %w", op, ErrInvalidParameter)
	}
	if s.IsExpired() {
		return nil, fmt.Errorf("%s: state is expired: %w", op, ErrExpiredState)
	}
	body := map[string]string{
		"auth_code":     code,
		"code_verifier": s.PKCEVerifier().Verifier(),
	}
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"pkce"}}, "", body, &resp); err != nil {
		return nil, fmt.Errorf("%s: unable to exchange code: %w", op, err)
	}
	sess, err := resp.toSession(time.Now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.logger.Debug("signed in", "provider", sess.User.Provider())
	c.setSession(session.SignedIn, sess)
	return sess.Clone(), nil
}

// SetSession adopts tokens which were obtained some other way (an implicit
// flow redirect, another client, etc).  An unexpired access token is used
// to fetch its user; an expired one is refreshed first.  On success SignedIn
// is emitted.
func (c *Client) SetSession(ctx context.Context, accessToken, refreshToken string) (*session.Session, error) {
	const op = "backend.(Client).SetSession"
	if accessToken == "" {
		return nil, fmt.Errorf("%s: access token is empty: %w", op, ErrInvalidParameter)
	}
	exp := tokenExpiry(accessToken)
	sess := &session.Session{
		AccessToken:  session.AccessToken(accessToken),
		RefreshToken: session.RefreshToken(refreshToken),
		TokenType:    "bearer",
		ExpiresAt:    exp,
	}
	if sess.Expired() {
		if refreshToken == "" {
			return nil, fmt.Errorf("%s: access token is expired and there's no refresh token: %w", op, ErrInvalidParameter)
		}
		refreshed, err := c.refresh(ctx, refreshToken)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sess = refreshed
	} else {
		var u session.User
		if err := c.do(ctx, http.MethodGet, "/user", nil, accessToken, nil, &u); err != nil {
			return nil, fmt.Errorf("%s: unable to get user: %w", op, err)
		}
		sess.User = u
	}
	c.setSession(session.SignedIn, sess)
	return sess.Clone(), nil
}

// RefreshSession uses the current session's refresh token to get a new
// session.  On success TokenRefreshed is emitted.
func (c *Client) RefreshSession(ctx context.Context) (*session.Session, error) {
	const op = "backend.(Client).RefreshSession"
	cur := c.Session()
	if cur == nil || cur.RefreshToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoSession)
	}
	sess, err := c.refresh(ctx, string(cur.RefreshToken))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.logger.Debug("session refreshed", "expires_at", sess.ExpiresAt)
	c.setSession(session.TokenRefreshed, sess)
	return sess.Clone(), nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*session.Session, error) {
	const op = "backend.(Client).refresh"
	var resp tokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"refresh_token"}}, "", body, &resp); err != nil {
		return nil, fmt.Errorf("%s: unable to refresh session: %w", op, err)
	}
	return resp.toSession(time.Now())
}

// User fetches the current session's user.  On success the session's user
// is replaced and UserUpdated is emitted.
func (c *Client) User(ctx context.Context) (*session.User, error) {
	const op = "backend.(Client).User"
	cur := c.Session()
	if cur == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoSession)
	}
	var u session.User
	if err := c.do(ctx, http.MethodGet, "/user", nil, string(cur.AccessToken), nil, &u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.mu.Lock()
	if c.session != nil && c.session.AccessToken == cur.AccessToken {
		c.session.User = u
	}
	c.mu.Unlock()
	c.emit(session.UserUpdated)
	return &u, nil
}

// SignOut revokes the current session with the backend, clears it, and
// emits SignedOut.  The event is delivered asynchronously, after SignOut
// returns.  A session the backend no longer knows about is cleared as well;
// any other failure leaves the session in place and emits nothing.
func (c *Client) SignOut(ctx context.Context) error {
	const op = "backend.(Client).SignOut"
	cur := c.Session()
	if cur != nil {
		err := c.do(ctx, http.MethodPost, "/logout", nil, string(cur.AccessToken), nil, nil)
		var apiErr *APIError
		switch {
		case err == nil:
		case errors.As(err, &apiErr) && isGoneStatus(apiErr.StatusCode):
			c.logger.Debug("session already gone from backend", "status", apiErr.StatusCode)
		default:
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	c.setSession(session.SignedOut, nil)
	return nil
}

func isGoneStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	default:
		return false
	}
}

// TokenSource returns an oauth2.TokenSource which returns the current
// session's token until it expires, then refreshes it with RefreshSession.
// ctx is used for refresh requests.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(c.Session().Token(), &refresher{ctx: ctx, c: c})
}

type refresher struct {
	ctx context.Context
	c   *Client
}

// Token implements oauth2.TokenSource
func (r *refresher) Token() (*oauth2.Token, error) {
	s, err := r.c.RefreshSession(r.ctx)
	if err != nil {
		return nil, err
	}
	return s.Token(), nil
}

// refreshTicks is how many AutoRefresh intervals ahead of expiry a session
// is refreshed.
const refreshTicks = 3

// AutoRefresh refreshes the session whenever it's within a few intervals of
// expiring.  It blocks until ctx is done and returns ctx.Err().  Refresh
// failures are logged and retried on the next tick.
func (c *Client) AutoRefresh(ctx context.Context, every time.Duration) error {
	const op = "backend.(Client).AutoRefresh"
	if every <= 0 {
		return fmt.Errorf("%s: interval not greater than zero: %w", op, ErrInvalidParameter)
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s := c.Session()
			if s == nil || s.RefreshToken == "" || s.ExpiresAt.IsZero() {
				continue
			}
			if time.Until(s.ExpiresAt) > refreshTicks*every {
				continue
			}
			if _, err := c.RefreshSession(ctx); err != nil {
				c.logger.Warn("auto refresh failed", "error", err)
			}
		}
	}
}
