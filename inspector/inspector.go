// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package inspector drives a token inspecting front end.
package inspector

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/tokenscope/backend"
	"github.com/hashicorp/tokenscope/credential"
	"github.com/hashicorp/tokenscope/session"
)

// Inspector ties the credential store, the backend client derived from the
// stored credentials and the session reconciler together.  It's what a
// front end drives: credential input goes in through SetEndpoint and
// SetPublicKey, and everything to display comes out of View.  It's
// concurrently safe.
type Inspector struct {
	store       credential.Store
	logger      hclog.Logger
	backendOpts []backend.Option
	reconciler  *session.Reconciler

	// deriveMu serializes credential changes, so handles are attached in
	// the order they're derived.
	deriveMu sync.Mutex

	mu         sync.Mutex
	pair       credential.Pair
	derived    bool
	derivedFor credential.Pair
	client     *backend.Client
	errMsg     string
	warning    string
}

// New creates an Inspector which loads its credentials from the store and
// derives a client from them.
//
// Supported options: WithLogger, WithBackendOptions, WithOnChange
func New(store credential.Store, opt ...Option) (*Inspector, error) {
	const op = "inspector.New"
	if store == nil {
		return nil, fmt.Errorf("%s: store is nil: %w", op, ErrNilParameter)
	}
	opts := getInspectorOpts(opt...)
	logger := opts.withLogger.Named("inspector")
	i := &Inspector{
		store:       store,
		logger:      logger,
		backendOpts: append([]backend.Option{backend.WithLogger(logger)}, opts.withBackendOptions...),
		reconciler: session.NewReconciler(
			session.WithLogger(logger),
			session.WithOnChange(opts.withOnChange),
		),
		pair: credential.Load(store),
	}
	if !store.Available() {
		logger.Debug("credential storage is unavailable, credentials won't persist")
	}
	i.deriveMu.Lock()
	defer i.deriveMu.Unlock()
	i.derive()
	return i, nil
}

// SetEndpoint persists the endpoint and derives a new client if it changed.
func (i *Inspector) SetEndpoint(v string) {
	i.deriveMu.Lock()
	defer i.deriveMu.Unlock()
	i.mu.Lock()
	i.pair.Endpoint = v
	i.mu.Unlock()
	i.store.Write(credential.EndpointKey, v)
	i.derive()
}

// SetPublicKey persists the public key and derives a new client if it
// changed.  A privileged key is rejected: the key field is cleared, the
// warning is set, nothing is persisted and ErrPrivilegedKey is returned.
// Any accepted key clears the warning.
func (i *Inspector) SetPublicKey(v string) error {
	const op = "inspector.(Inspector).SetPublicKey"
	i.deriveMu.Lock()
	defer i.deriveMu.Unlock()
	if credential.IsPrivileged(v) {
		i.mu.Lock()
		i.pair.PublicKey = ""
		i.warning = credential.PrivilegedKeyWarning
		i.mu.Unlock()
		i.logger.Warn("rejected a privileged key")
		i.derive()
		return fmt.Errorf("%s: %w", op, credential.ErrPrivilegedKey)
	}
	i.mu.Lock()
	i.pair.PublicKey = v
	i.warning = ""
	i.mu.Unlock()
	i.store.Write(credential.PublicKeyKey, v)
	i.derive()
	return nil
}

// derive rebuilds the client when the credentials differ from the ones the
// current client was built from, and attaches the reconciler to it.  It
// must be called with i.deriveMu held.
func (i *Inspector) derive() {
	i.mu.Lock()
	if i.derived && i.pair == i.derivedFor {
		i.mu.Unlock()
		return
	}
	pair := i.pair
	i.mu.Unlock()

	c, err := backend.Build(pair.Endpoint, pair.PublicKey, i.backendOpts...)

	i.mu.Lock()
	i.derived = true
	i.derivedFor = pair
	i.client = c
	i.errMsg = ""
	if err != nil {
		// ErrMissingCredential is returned unwrapped, so its fixed message
		// is used as is.
		i.errMsg = err.Error()
	}
	i.mu.Unlock()

	if err != nil {
		i.logger.Debug("no client for credentials", "endpoint", pair.Endpoint, "error", err)
	} else {
		i.logger.Debug("derived client", "endpoint", pair.Endpoint)
	}
	// a nil client only cancels the previous subscription
	if c == nil {
		i.reconciler.Attach(nil)
		return
	}
	i.reconciler.Attach(c)
}

// Client returns the current client, or nil when the credentials don't
// derive one.
func (i *Inspector) Client() *backend.Client {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.client
}

// Session returns a copy of the current session, or nil.
func (i *Inspector) Session() *session.Session {
	return i.reconciler.Session()
}

// View returns a snapshot of the inspector.  The session's claims are
// decoded anew on every call.
func (i *Inspector) View() View {
	i.mu.Lock()
	v := View{
		Endpoint:       i.pair.Endpoint,
		PublicKey:      i.pair.PublicKey,
		Error:          i.errMsg,
		Warning:        i.warning,
		LoginAvailable: i.client != nil,
	}
	i.mu.Unlock()
	v.Session = i.reconciler.Session()
	v.decode()
	return v
}

// Login starts a federated sign in with the identity provider.  It returns
// the URL the user's browser should visit and the state the callback at
// redirectURL needs to complete the sign in.
//
// Supported options: WithTimeout, WithScopes
func (i *Inspector) Login(provider, redirectURL string, opt ...Option) (string, *backend.State, error) {
	const op = "inspector.(Inspector).Login"
	c := i.Client()
	if c == nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrNoClient)
	}
	opts := getLoginOpts(opt...)
	st, err := backend.NewState(opts.withTimeout, redirectURL)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	var authOpts []backend.Option
	if len(opts.withScopes) > 0 {
		authOpts = append(authOpts, backend.WithScopes(opts.withScopes...))
	}
	authURL, err := c.AuthURL(provider, st, authOpts...)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return authURL, st, nil
}

// Logout asks the current client to sign out.  The session is cleared when
// the client's SignedOut event arrives, not before.
func (i *Inspector) Logout(ctx context.Context) error {
	const op = "inspector.(Inspector).Logout"
	if err := i.reconciler.Logout(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close cancels the subscription to the current client's events.
func (i *Inspector) Close() {
	i.deriveMu.Lock()
	defer i.deriveMu.Unlock()
	i.reconciler.Close()
}
