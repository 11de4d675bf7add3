// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()
	tb := StartTestBackend(t)

	tests := []struct {
		name      string
		endpoint  string
		publicKey string
		opts      []Option
		want      *Config
		wantErr   bool
		wantIsErr error
	}{
		{
			name:      "valid",
			endpoint:  "https://abc.example.co",
			publicKey: "key",
			want:      &Config{Endpoint: "https://abc.example.co", PublicKey: "key", AuthPath: DefaultAuthPath},
		},
		{
			name:      "trimmed",
			endpoint:  "  http://localhost:54321 ",
			publicKey: "\tkey\n",
			want:      &Config{Endpoint: "http://localhost:54321", PublicKey: "key", AuthPath: DefaultAuthPath},
		},
		{
			name:      "with-options",
			endpoint:  tb.Addr(),
			publicKey: "key",
			opts:      []Option{WithProviderCA(tb.CACert()), WithAuthPath("/gotrue")},
			want:      &Config{Endpoint: tb.Addr(), PublicKey: "key", AuthPath: "/gotrue", ProviderCA: tb.CACert()},
		},
		{
			name:      "empty-key",
			endpoint:  "https://abc.example.co",
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name:      "empty-endpoint",
			publicKey: "key",
			wantErr:   true,
			wantIsErr: ErrInvalidEndpoint,
		},
		{
			name:      "not-a-url",
			endpoint:  "://nope",
			publicKey: "key",
			wantErr:   true,
			wantIsErr: ErrInvalidEndpoint,
		},
		{
			name:      "bad-scheme",
			endpoint:  "ftp://abc.example.co",
			publicKey: "key",
			wantErr:   true,
			wantIsErr: ErrInvalidEndpoint,
		},
		{
			name:      "no-host",
			endpoint:  "https://",
			publicKey: "key",
			wantErr:   true,
			wantIsErr: ErrInvalidEndpoint,
		},
		{
			name:      "query",
			endpoint:  "https://abc.example.co?x=1",
			publicKey: "key",
			wantErr:   true,
			wantIsErr: ErrInvalidEndpoint,
		},
		{
			name:      "bad-auth-path",
			endpoint:  "https://abc.example.co",
			publicKey: "key",
			opts:      []Option{WithAuthPath("auth/v1")},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := NewConfig(tt.endpoint, tt.publicKey, tt.opts...)
			if tt.wantErr {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	t.Run("nil", func(t *testing.T) {
		var c *Config
		assert.True(t, errors.Is(c.Validate(), ErrNilParameter))
	})
	t.Run("every-problem-reported", func(t *testing.T) {
		assert := assert.New(t)
		c := &Config{Endpoint: "ftp://", AuthPath: "x"}
		err := c.Validate()
		require.Error(t, err)
		assert.True(errors.Is(err, ErrInvalidParameter))
		assert.True(errors.Is(err, ErrInvalidEndpoint))
		assert.Contains(err.Error(), "public key is empty")
		assert.Contains(err.Error(), "scheme is not http or https")
		assert.Contains(err.Error(), "has no host")
		assert.Contains(err.Error(), "must start with /")
	})
}

func TestConfig_HttpClient(t *testing.T) {
	t.Parallel()
	tb := StartTestBackend(t)
	t.Run("trusts-ca", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := NewConfig(tb.Addr(), tb.PublicKey(), WithProviderCA(tb.CACert()))
		require.NoError(err)
		hc, err := c.HttpClient()
		require.NoError(err)
		resp, err := hc.Get(tb.Addr() + DefaultAuthPath + "/user")
		require.NoError(err)
		defer resp.Body.Close()
		assert.Equal(http.StatusUnauthorized, resp.StatusCode)
	})
	t.Run("bad-ca", func(t *testing.T) {
		assert := assert.New(t)
		c := &Config{Endpoint: tb.Addr(), PublicKey: "key", ProviderCA: "not a pem"}
		_, err := c.HttpClient()
		assert.True(errors.Is(err, ErrInvalidCACert))
	})
}

func TestHttpClientContext(t *testing.T) {
	assert := assert.New(t)
	hc := &http.Client{}
	ctx := HttpClientContext(context.Background(), hc)
	assert.Equal(hc, ctx.Value(oauth2.HTTPClient))
}
