// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/tokenscope/session"
	"golang.org/x/oauth2"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 1 << 20

// Client is a handle to one backend project's auth API.  It holds the
// project's current session and emits auth events when the session changes.
// It's concurrently safe.
//
// A Client holds no resources which need releasing: its event goroutine only
// runs while events are queued for a subscriber.
type Client struct {
	config     *Config
	authURL    *url.URL
	httpClient *http.Client
	logger     hclog.Logger
	events     *dispatcher

	mu      sync.Mutex
	session *session.Session
}

// ensure that Client implements the session.Handle interface
var _ session.Handle = (*Client)(nil)

// Build is the client factory: it creates a Client for the endpoint and
// public key.  When either is empty, ErrMissingCredential is returned
// unwrapped so its message can be shown to the user as is.  Any other
// problem is returned from NewConfig or NewClient.
//
// Supported options: WithProviderCA, WithAuthPath, WithLogger,
// WithHTTPClient
func Build(endpoint, publicKey string, opt ...Option) (*Client, error) {
	const op = "backend.Build"
	if strings.TrimSpace(endpoint) == "" || strings.TrimSpace(publicKey) == "" {
		return nil, ErrMissingCredential
	}
	c, err := NewConfig(endpoint, publicKey, opt...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	client, err := NewClient(c, opt...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return client, nil
}

// NewClient creates a Client from the config.  No requests are made.
//
// Supported options: WithLogger, WithHTTPClient
func NewClient(c *Config, opt ...Option) (*Client, error) {
	const op = "backend.NewClient"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: config is invalid: %w", op, err)
	}
	opts := getClientOpts(opt...)
	authURL, err := c.authURL()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	hc := opts.withHTTPClient
	if hc == nil {
		if hc, err = c.HttpClient(); err != nil {
			return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
		}
	}
	logger := opts.withLogger.Named("backend").With("endpoint", c.Endpoint)
	return &Client{
		config:     c,
		authURL:    authURL,
		httpClient: hc,
		logger:     logger,
		events:     newDispatcher(logger.Named("events")),
	}, nil
}

// Config returns the client's config.
func (c *Client) Config() *Config {
	cp := *c.config
	return &cp
}

// Session returns a copy of the client's current session, or nil.
func (c *Client) Session() *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// OnAuthStateChange registers fn for auth events.  fn first receives an
// InitialSession event carrying the current session (which may be nil), then
// every event emitted after the registration, in order, on a goroutine owned
// by the client.  Calls to fn are never concurrent.
//
// The returned func cancels the registration.  Once it returns fn is never
// called again.  It must not be called from within fn.
func (c *Client) OnAuthStateChange(fn func(session.Event)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	initial := session.Event{Kind: session.InitialSession, Session: c.session.Clone()}
	// the subscription is made under c.mu so no session change can be
	// emitted between reading the initial session and registering fn
	unsubscribe = c.events.subscribe(fn, initial)
	c.mu.Unlock()
	return unsubscribe
}

// setSession replaces the client's session and emits kind.  A nil s clears
// the session.
func (c *Client) setSession(kind session.EventKind, s *session.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s.Clone()
	c.events.emit(session.Event{Kind: kind, Session: s.Clone()})
}

// emit sends kind with the current session.
func (c *Client) emit(kind session.EventKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events.emit(session.Event{Kind: kind, Session: c.session.Clone()})
}

// endpoint returns the auth API url for the path and query.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.authURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// httpClientFor returns the client carried by ctx (see HttpClientContext) or
// the client's own.
func (c *Client) httpClientFor(ctx context.Context) *http.Client {
	if hc, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && hc != nil {
		return hc
	}
	return c.httpClient
}

// do sends a request to the auth API.  The public key is always sent in the
// apikey header; bearer defaults to the public key as well.  A non 2xx
// response is returned as an *APIError.  out may be nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, bearer string, in, out interface{}) error {
	const op = "backend.(Client).do"
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: unable to marshal request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("%s: unable to create request: %w", op, err)
	}
	if bearer == "" {
		bearer = c.config.PublicKey
	}
	req.Header.Set("apikey", c.config.PublicKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClientFor(ctx).Do(req)
	if err != nil {
		return fmt.Errorf("%s: %s %s: %w", op, method, path, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%s: unable to read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb apiErrorBody
		_ = json.Unmarshal(b, &eb)
		apiErr := eb.toError(resp.StatusCode)
		c.logger.Debug("auth api error", "method", method, "path", path, "status", resp.StatusCode, "code", apiErr.Code)
		return fmt.Errorf("%s: %s %s: %w", op, method, path, apiErr)
	}
	if out == nil || len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s: unable to unmarshal response: %w", op, err)
	}
	return nil
}
