// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
)

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

// configOptions is the set of available options for Config functions
type configOptions struct {
	withProviderCA string
	withAuthPath   string
}

func configDefaults() configOptions {
	return configOptions{
		withAuthPath: DefaultAuthPath,
	}
}

func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// clientOptions is the set of available options for Client functions
type clientOptions struct {
	withLogger     hclog.Logger
	withHTTPClient *http.Client
}

func clientDefaults() clientOptions {
	return clientOptions{
		withLogger: hclog.NewNullLogger(),
	}
}

func getClientOpts(opt ...Option) clientOptions {
	opts := clientDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// authURLOptions is the set of available options for Client.AuthURL
type authURLOptions struct {
	withScopes      []string
	withQueryParams map[string]string
}

func getAuthURLOpts(opt ...Option) authURLOptions {
	opts := authURLOptions{}
	ApplyOpts(&opts, opt...)
	return opts
}

// stOptions is the set of available options for State functions
type stOptions struct {
	withExpirySkew time.Duration
}

func stDefaults() stOptions {
	return stOptions{
		withExpirySkew: DefaultStateExpirySkew,
	}
}

func getStOpts(opt ...Option) stOptions {
	opts := stDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithProviderCA provides an optional PEM encoded CA cert which is trusted
// when making requests to the backend.
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}

// WithAuthPath provides an optional path of the auth API relative to the
// endpoint.  See DefaultAuthPath.
func WithAuthPath(p string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAuthPath = p
		}
	}
}

// WithLogger provides an optional logger for a Client
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithHTTPClient provides an optional http client which replaces the one
// derived from the Config.
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withHTTPClient = c
		}
	}
}

// WithScopes provides optional scopes requested of the identity provider
// during sign in.
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*authURLOptions); ok {
			o.withScopes = scopes
		}
	}
}

// WithQueryParams provides optional query parameters which are passed
// through to the identity provider during sign in.
func WithQueryParams(params map[string]string) Option {
	return func(o interface{}) {
		if o, ok := o.(*authURLOptions); ok {
			o.withQueryParams = params
		}
	}
}

// WithExpirySkew provides an optional expiry skew duration for: State
func WithExpirySkew(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*stOptions); ok {
			o.withExpirySkew = d
		}
	}
}
