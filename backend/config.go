// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"
	sdkhttp "github.com/hashicorp/tokenscope/sdk/http"
)

// DefaultAuthPath is where the auth API lives relative to the endpoint.
const DefaultAuthPath = "/auth/v1"

// Config represents the configuration of a Client for one backend project.
type Config struct {
	// Endpoint is the project's base URL, using the http or https scheme.
	Endpoint string

	// PublicKey is the project's public (anon) API key.  It's sent with
	// every request in the apikey header.
	PublicKey string

	// AuthPath is the path of the auth API relative to the Endpoint.
	AuthPath string

	// ProviderCA is an optional CA cert to use when sending requests to the
	// backend.
	ProviderCA string
}

// NewConfig composes a new config for a backend project.
//
// Supported options: WithProviderCA, WithAuthPath
func NewConfig(endpoint, publicKey string, opt ...Option) (*Config, error) {
	const op = "backend.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		Endpoint:   strings.TrimSpace(endpoint),
		PublicKey:  strings.TrimSpace(publicKey),
		AuthPath:   opts.withAuthPath,
		ProviderCA: opts.withProviderCA,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}
	return c, nil
}

// Validate the configuration.  It doesn't verify the endpoint is reachable.
// Every problem found is reported.
func (c *Config) Validate() error {
	const op = "backend.(Config).Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var errs *multierror.Error
	if c.PublicKey == "" {
		errs = multierror.Append(errs, fmt.Errorf("public key is empty: %w", ErrInvalidParameter))
	}
	switch u, err := url.Parse(c.Endpoint); {
	case c.Endpoint == "":
		errs = multierror.Append(errs, fmt.Errorf("endpoint is empty: %w", ErrInvalidEndpoint))
	case err != nil:
		errs = multierror.Append(errs, fmt.Errorf("endpoint %q is not a url: %s: %w", c.Endpoint, err, ErrInvalidEndpoint))
	default:
		if u.Scheme != "http" && u.Scheme != "https" {
			errs = multierror.Append(errs, fmt.Errorf("endpoint %q scheme is not http or https: %w", c.Endpoint, ErrInvalidEndpoint))
		}
		if u.Host == "" {
			errs = multierror.Append(errs, fmt.Errorf("endpoint %q has no host: %w", c.Endpoint, ErrInvalidEndpoint))
		}
		if u.RawQuery != "" || u.Fragment != "" {
			errs = multierror.Append(errs, fmt.Errorf("endpoint %q must not have a query or fragment: %w", c.Endpoint, ErrInvalidEndpoint))
		}
	}
	if c.AuthPath != "" && !strings.HasPrefix(c.AuthPath, "/") {
		errs = multierror.Append(errs, fmt.Errorf("auth path %q must start with /: %w", c.AuthPath, ErrInvalidParameter))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// authURL returns the base URL of the auth API.
func (c *Config) authURL() (*url.URL, error) {
	const op = "backend.(Config).authURL"
	u, err := url.Parse(strings.TrimRight(c.Endpoint, "/") + c.AuthPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, err, ErrInvalidEndpoint)
	}
	return u, nil
}

// HttpClient is a helper function that creates a new http client for the
// configured backend
func (c *Config) HttpClient() (*http.Client, error) {
	const op = "backend.(Config).HttpClient"
	client, err := sdkhttp.NewClient(c.ProviderCA)
	if err != nil {
		if errors.Is(err, sdkhttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}

// HttpClientContext is a helper function that returns a new Context that
// carries the provided HTTP client.  A Client uses the carried client for
// requests made with the returned context.  The context key is the one used
// by github.com/coreos/go-oidc and golang.org/x/oauth2, so the context works
// for those packages as well.
func HttpClientContext(ctx context.Context, client *http.Client) context.Context {
	return sdkhttp.OidcClientContext(ctx, client)
}
