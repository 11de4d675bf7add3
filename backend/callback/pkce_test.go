// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/hashicorp/tokenscope/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedirect = "http://127.0.0.1:8300/callback"

func TestPKCE(t *testing.T) {
	ctx := context.Background()
	tb := backend.StartTestBackend(t)
	c := testClient(t, tb)
	rw := &SingleStateReader{}

	tests := []struct {
		name      string
		c         *backend.Client
		rw        StateReader
		sFn       SuccessResponseFunc
		eFn       ErrorResponseFunc
		wantErr   bool
		wantIsErr error
	}{
		{"valid", c, rw, testSuccessFn, testFailFn, false, nil},
		{"nil-c", nil, rw, testSuccessFn, testFailFn, true, ErrNilParameter},
		{"nil-rw", c, nil, testSuccessFn, testFailFn, true, ErrNilParameter},
		{"nil-sFn", c, rw, nil, testFailFn, true, ErrNilParameter},
		{"nil-eFn", c, rw, testSuccessFn, nil, true, ErrNilParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := PKCE(ctx, tt.c, tt.rw, tt.sFn, tt.eFn)
			if tt.wantErr {
				require.Error(err)
				assert.True(errors.Is(err, tt.wantIsErr))
				return
			}
			require.NoError(err)
			assert.NotEmpty(got)
		})
	}
}

func Test_PKCEResponses(t *testing.T) {
	ctx := context.Background()
	tb := backend.StartTestBackend(t)

	tests := []struct {
		name       string
		provider   string
		expireIn   time.Duration
		wait       time.Duration
		readerFn   func(*backend.State) StateReader
		editQuery  func(url.Values)
		wantStatus int
		wantBody   string
		wantError  string
	}{
		{
			name:       "valid",
			provider:   "github",
			wantStatus: http.StatusOK,
			wantBody:   "login successful: alice@example.com",
		},
		{
			name:       "backend-error",
			provider:   "gitlab",
			wantStatus: http.StatusUnauthorized,
			wantError:  "validation_failed",
		},
		{
			name:     "state-not-found",
			provider: "github",
			readerFn: func(*backend.State) StateReader {
				return &SingleStateReader{}
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal-callback-error",
			wantBody:   ErrNotFound.Error(),
		},
		{
			name:       "state-expired",
			provider:   "github",
			expireIn:   1500 * time.Millisecond,
			wait:       600 * time.Millisecond,
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal-callback-error",
			wantBody:   backend.ErrExpiredState.Error(),
		},
		{
			name:     "state-mismatch",
			provider: "github",
			readerFn: func(s *backend.State) StateReader {
				return &testWrongStateReader{}
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal-callback-error",
			wantBody:   ErrResponseStateInvalid.Error(),
		},
		{
			name:     "missing-code",
			provider: "github",
			editQuery: func(q url.Values) {
				q.Del("code")
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal-callback-error",
			wantBody:   ErrInvalidParameter.Error(),
		},
		{
			name:     "bad-code",
			provider: "github",
			editQuery: func(q url.Values) {
				q.Set("code", "not-a-code")
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal-callback-error",
			wantBody:   "flow_state_not_found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			c := testClient(t, tb)
			expireIn := tt.expireIn
			if expireIn == 0 {
				expireIn = time.Minute
			}
			st, err := backend.NewState(expireIn, testRedirect)
			require.NoError(err)
			var rw StateReader = &SingleStateReader{State: st}
			if tt.readerFn != nil {
				rw = tt.readerFn(st)
			}
			authURL, err := c.AuthURL(tt.provider, st, backend.WithScopes("email"))
			require.NoError(err)
			loc, err := tb.Authorize(authURL)
			require.NoError(err)
			if tt.editQuery != nil {
				q := loc.Query()
				tt.editQuery(q)
				loc.RawQuery = q.Encode()
			}

			// outlives the default expiry skew until the wait is over
			time.Sleep(tt.wait)

			h, err := PKCE(ctx, c, rw, testSuccessFn, testFailFn)
			require.NoError(err)
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, loc.String(), nil))

			resp := w.Result()
			defer resp.Body.Close()
			body, err := ioutil.ReadAll(resp.Body)
			require.NoError(err)
			assert.Equal(tt.wantStatus, resp.StatusCode)

			if tt.wantError != "" {
				var got AuthenErrorResponse
				require.NoError(json.Unmarshal(body, &got))
				assert.Equal(tt.wantError, got.Error)
				if tt.wantBody != "" {
					assert.Contains(got.Description, tt.wantBody)
				}
				assert.Nil(c.Session())
				return
			}
			assert.Equal(tt.wantBody, string(body))
			require.NotNil(c.Session())
			assert.Equal("github", c.Session().User.Provider())
		})
	}
}

type testWrongStateReader struct{}

func (*testWrongStateReader) Read(ctx context.Context, stateID string) (*backend.State, error) {
	s, err := backend.NewState(time.Minute, testRedirect)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func testClient(t *testing.T, tb *backend.TestBackend) *backend.Client {
	t.Helper()
	c, err := backend.Build(tb.Addr(), tb.PublicKey(), backend.WithProviderCA(tb.CACert()))
	require.NoError(t, err)
	return c
}
