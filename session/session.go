// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"time"

	"golang.org/x/oauth2"
)

// expirySkew is subtracted from a session's expiry when deciding whether it
// has expired.
const expirySkew = 10 * time.Second

// User is the identity a session belongs to.
type User struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email,omitempty"`
	Role         string                 `json:"role,omitempty"`
	Audience     string                 `json:"aud,omitempty"`
	AppMetadata  map[string]interface{} `json:"app_metadata,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

// Provider returns the identity provider recorded in the user's app
// metadata, if any.
func (u User) Provider() string {
	if p, ok := u.AppMetadata["provider"].(string); ok {
		return p
	}
	return ""
}

// Session is the current authenticated identity state.
type Session struct {
	AccessToken  AccessToken  `json:"access_token"`
	RefreshToken RefreshToken `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         User         `json:"user"`
}

// UserEmail returns the email of the session's user.
func (s *Session) UserEmail() string {
	if s == nil {
		return ""
	}
	return s.User.Email
}

// Expired will return true if the session's access token has expired.  A
// zero ExpiresAt never expires.
func (s *Session) Expired() bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return s.ExpiresAt.Round(0).Before(time.Now().Add(expirySkew))
}

// Token returns the session's tokens as an oauth2.Token.
func (s *Session) Token() *oauth2.Token {
	if s == nil {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  string(s.AccessToken),
		RefreshToken: string(s.RefreshToken),
		TokenType:    s.TokenType,
		Expiry:       s.ExpiresAt,
	}
}

// Clone returns a deep enough copy that callers can't mutate the original's
// metadata maps.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.User.AppMetadata = cloneMap(s.User.AppMetadata)
	cp.User.UserMetadata = cloneMap(s.User.UserMetadata)
	return &cp
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	cp := make(map[string]interface{}, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
