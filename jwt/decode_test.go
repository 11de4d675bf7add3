// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2/jwt"
)

const (
	testServiceRoleKey = "eyJhbGciOiJIUzI1NiJ9.eyJyb2xlIjoic2VydmljZV9yb2xlIn0.sig"
	testAnonKey        = "eyJhbGciOiJIUzI1NiJ9.eyJyb2xlIjoiYW5vbiJ9.sig"
)

func TestDecodeClaims(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		token     string
		want      Claims
		wantIsErr error
	}{
		{
			name:  "service-role",
			token: testServiceRoleKey,
			want:  Claims{"role": "service_role"},
		},
		{
			name:  "anon",
			token: testAnonKey,
			want:  Claims{"role": "anon"},
		},
		{
			name:  "padded-std-alphabet",
			token: "e30.eyJhIjoiPz8+In0=.sig",
			want:  Claims{"a": "??>"},
		},
		{
			name:  "url-alphabet",
			token: "e30.eyJhIjoiPz8-In0.sig",
			want:  Claims{"a": "??>"},
		},
		{
			name:  "numbers-preserved",
			token: TestUnsignedJWT(t, map[string]string{"alg": "none"}, map[string]interface{}{"exp": 1700000000}),
			want:  Claims{"exp": json.Number("1700000000")},
		},
		{name: "empty", token: "", wantIsErr: ErrMalformedToken},
		{name: "one-segment", token: "abc", wantIsErr: ErrMalformedToken},
		{name: "two-segments", token: "eyJhbGciOiJIUzI1NiJ9.eyJyb2xlIjoiYW5vbiJ9", wantIsErr: ErrMalformedToken},
		{name: "four-segments", token: testAnonKey + ".extra", wantIsErr: ErrMalformedToken},
		{name: "empty-payload", token: "e30..sig", wantIsErr: ErrMalformedToken},
		{name: "not-base64", token: "e30.!!!.sig", wantIsErr: ErrMalformedToken},
		{name: "not-json", token: "e30.bm90LWpzb24.sig", wantIsErr: ErrMalformedToken},
		{name: "json-array", token: "e30.WzEsMl0.sig", wantIsErr: ErrMalformedToken},
		{name: "json-null", token: "e30.bnVsbA.sig", wantIsErr: ErrMalformedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := DecodeClaims(tt.token)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				assert.Nil(got)
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
	t.Run("idempotent", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		k := TestGenerateKey(t)
		now := time.Now()
		tk := TestSignJWT(t, k, "", jwt.Claims{
			Subject:  "alice",
			Audience: jwt.Audience{"authenticated"},
			Expiry:   jwt.NewNumericDate(now.Add(time.Hour)),
		}, map[string]interface{}{"email": "alice@example.com", "app_metadata": map[string]interface{}{"provider": "github"}})
		first, err := DecodeClaims(tk)
		require.NoError(err)
		second, err := DecodeClaims(tk)
		require.NoError(err)
		assert.Equal(first, second)
	})
}

func TestClaims_Helpers(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tk := TestUnsignedJWT(t, map[string]string{"alg": "ES256"}, map[string]interface{}{
		"sub":   "user-id",
		"email": "alice@example.com",
		"role":  "authenticated",
		"aud":   "authenticated",
		"iss":   "https://project.example.com/auth/v1",
		"exp":   exp.Unix(),
	})
	c, err := DecodeClaims(tk)
	require.NoError(err)
	assert.Equal("authenticated", c.Role())
	assert.Equal("alice@example.com", c.Email())
	assert.Equal("user-id", c.Subject())

	gotExp, ok := c.ExpiresAt()
	require.True(ok)
	assert.True(exp.Equal(gotExp))

	reg, err := c.Registered()
	require.NoError(err)
	assert.Equal("https://project.example.com/auth/v1", reg.Issuer)
	assert.Equal(jwt.Audience{"authenticated"}, reg.Audience)
	require.NotNil(reg.Expiry)
	assert.True(exp.Equal(reg.Expiry.Time()))

	js, err := c.JSON()
	require.NoError(err)
	assert.Contains(js, `"email": "alice@example.com"`)

	t.Run("missing-and-mistyped", func(t *testing.T) {
		c := Claims{"role": 42, "exp": "tomorrow"}
		assert.Empty(c.Role())
		assert.Empty(c.Email())
		_, ok := c.ExpiresAt()
		assert.False(ok)
	})
	t.Run("nil-registered", func(t *testing.T) {
		var c Claims
		_, err := c.Registered()
		assert.ErrorIs(err, ErrInvalidParameter)
	})
}
