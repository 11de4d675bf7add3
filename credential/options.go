// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package credential

import "github.com/hashicorp/go-hclog"

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

type options struct {
	withPath   string
	withLogger hclog.Logger
}

func defaults() options {
	return options{
		withLogger: hclog.NewNullLogger(),
	}
}

// getOpts gets the defaults and applies the opt overrides passed in.
func getOpts(opt ...Option) options {
	opts := defaults()
	ApplyOpts(&opts, opt...)
	return opts
}

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

// WithPath provides an optional path for a FileStore's document.
func WithPath(p string) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withPath = p
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && l != nil {
			o.withLogger = l
		}
	}
}
