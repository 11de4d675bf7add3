// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package inspector

import (
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/tokenscope/backend"
	"github.com/hashicorp/tokenscope/session"
)

// DefaultLoginTimeout is how long a sign in started with Login stays valid.
const DefaultLoginTimeout = 5 * time.Minute

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// inspectorOptions is the set of available options for New
type inspectorOptions struct {
	withLogger         hclog.Logger
	withBackendOptions []backend.Option
	withOnChange       func(*session.Session)
}

func inspectorDefaults() inspectorOptions {
	return inspectorOptions{
		withLogger: hclog.NewNullLogger(),
	}
}

func getInspectorOpts(opt ...Option) inspectorOptions {
	opts := inspectorDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// loginOptions is the set of available options for Login
type loginOptions struct {
	withTimeout time.Duration
	withScopes  []string
}

func loginDefaults() loginOptions {
	return loginOptions{
		withTimeout: DefaultLoginTimeout,
	}
}

func getLoginOpts(opt ...Option) loginOptions {
	opts := loginDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*inspectorOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithBackendOptions provides optional options passed to backend.Build
// every time a client is derived (a CA cert, an http client, etc).
func WithBackendOptions(opt ...backend.Option) Option {
	return func(o interface{}) {
		if o, ok := o.(*inspectorOptions); ok {
			o.withBackendOptions = opt
		}
	}
}

// WithOnChange provides an optional func which is called with the new
// session (nil when signed out) after every session transition.  Calls are
// made in order, one at a time, off the event delivery path, so fn may call
// back into the Inspector (SetEndpoint, SetPublicKey, Close and the like).
func WithOnChange(fn func(*session.Session)) Option {
	return func(o interface{}) {
		if o, ok := o.(*inspectorOptions); ok {
			o.withOnChange = fn
		}
	}
}

// WithTimeout provides an optional timeout for a Login's sign in state.
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*loginOptions); ok {
			o.withTimeout = d
		}
	}
}

// WithScopes provides optional identity provider scopes for Login.
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*loginOptions); ok {
			o.withScopes = scopes
		}
	}
}
