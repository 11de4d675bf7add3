// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Redacted(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	s := &Session{
		AccessToken:  "super.secret.token",
		RefreshToken: "super-secret-refresh",
		User:         User{ID: "1", Email: "alice@example.com"},
	}
	b, err := json.Marshal(s)
	require.NoError(err)
	assert.NotContains(string(b), "super")
	assert.Contains(string(b), RedactedAccessToken)
	assert.Contains(string(b), RedactedRefreshToken)
	assert.Equal(RedactedAccessToken, fmt.Sprintf("%s", s.AccessToken))
	assert.Equal(RedactedRefreshToken, s.RefreshToken.String())
}

func TestSession_Expired(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		s    *Session
		want bool
	}{
		{"nil", nil, true},
		{"no-expiry", &Session{AccessToken: "a"}, false},
		{"future", &Session{AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour)}, false},
		{"within-skew", &Session{AccessToken: "a", ExpiresAt: time.Now().Add(time.Second)}, true},
		{"past", &Session{AccessToken: "a", ExpiresAt: time.Now().Add(-time.Hour)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.Expired())
		})
	}
}

func TestSession_Token(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	var nilSession *Session
	assert.Nil(nilSession.Token())
	assert.Empty(nilSession.UserEmail())

	exp := time.Now().Add(time.Hour)
	s := &Session{AccessToken: "a.b.c", RefreshToken: "r", TokenType: "bearer", ExpiresAt: exp}
	tk := s.Token()
	require.NotNil(tk)
	assert.Equal("a.b.c", tk.AccessToken)
	assert.Equal("r", tk.RefreshToken)
	assert.Equal("bearer", tk.TokenType)
	assert.True(tk.Valid())
}

func TestUser_Provider(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	assert.Equal("github", User{AppMetadata: map[string]interface{}{"provider": "github"}}.Provider())
	assert.Empty(User{}.Provider())
}
