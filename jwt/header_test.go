// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2/jwt"
)

func TestDecodeHeader(t *testing.T) {
	t.Parallel()
	k := TestGenerateKey(t)
	signed := TestSignJWT(t, k, "key-1", jwt.Claims{Subject: "alice"}, map[string]interface{}{"role": "authenticated"})

	tests := []struct {
		name      string
		token     string
		want      *Header
		wantIsErr error
	}{
		{
			name:  "signed",
			token: signed,
			want:  &Header{Algorithm: "ES256", KeyID: "key-1", Type: "JWT"},
		},
		{name: "two-segments", token: "a.b", wantIsErr: ErrMalformedToken},
		{name: "bad-header", token: "!!!.e30.sig", wantIsErr: ErrMalformedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := DecodeHeader(tt.token)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}
