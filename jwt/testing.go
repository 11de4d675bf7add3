// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// TestGenerateKey will generate a test ECDSA P-256 key
func TestGenerateKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	require := require.New(t)
	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)
	return k
}

// TestSignJWT will bundle the provided claims into a test ES256 signed JWT.
func TestSignJWT(t *testing.T, key *ecdsa.PrivateKey, keyID string, claims jwt.Claims, privateClaims interface{}) string {
	t.Helper()
	require := require.New(t)

	opts := (&jose.SignerOptions{}).WithType("JWT")
	if keyID != "" {
		opts = opts.WithHeader(jose.HeaderKey("kid"), keyID)
	}
	sig, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.ES256, Key: key}, opts)
	require.NoError(err)

	raw, err := jwt.Signed(sig).
		Claims(claims).
		Claims(privateClaims).
		CompactSerialize()
	require.NoError(err)
	return raw
}

// TestUnsignedJWT returns a compact token made from the header and claims
// with a placeholder signature.  It's useful for building decoder fixtures.
func TestUnsignedJWT(t *testing.T, header, claims interface{}) string {
	t.Helper()
	require := require.New(t)
	h, err := json.Marshal(header)
	require.NoError(err)
	c, err := json.Marshal(claims)
	require.NoError(err)
	return strings.Join([]string{
		base64.RawURLEncoding.EncodeToString(h),
		base64.RawURLEncoding.EncodeToString(c),
		"sig",
	}, ".")
}
