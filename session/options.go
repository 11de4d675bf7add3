// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import "github.com/hashicorp/go-hclog"

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

type reconcilerOptions struct {
	withLogger   hclog.Logger
	withOnChange func(*Session)
}

func reconcilerDefaults() reconcilerOptions {
	return reconcilerOptions{
		withLogger: hclog.NewNullLogger(),
	}
}

func getReconcilerOpts(opt ...Option) reconcilerOptions {
	opts := reconcilerDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*reconcilerOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithOnChange provides an optional func which is called after every
// transition with the new session (nil for NoSession).  It's called in event
// delivery order on a goroutine of its own, outside the reconciler's lock, so
// it may Attach or Close the reconciler.
func WithOnChange(fn func(*Session)) Option {
	return func(o interface{}) {
		if o, ok := o.(*reconcilerOptions); ok {
			o.withOnChange = fn
		}
	}
}
