// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"fmt"
	"net/url"
	"time"

	"github.com/hashicorp/tokenscope/sdk/id"
)

// DefaultStateExpirySkew defines a default time skew when checking a State's
// expiration.
const DefaultStateExpirySkew = 1 * time.Second

// StateParam is the query parameter of the redirect URL which carries a
// State's ID back to the callback.
const StateParam = "state"

// State represents one federated sign-in attempt.  Its ID is carried through
// the flow in the redirect URL so the callback can find it again, and its
// verifier completes the PKCE code exchange.
type State struct {
	id          string
	verifier    *CodeVerifier
	redirectURL string
	createTime  time.Time
	expiration  time.Time
}

// NewState creates a new State which expires after expireIn.  The
// redirectURL is where the backend sends the user once the identity
// provider is done with them.
func NewState(expireIn time.Duration, redirectURL string) (*State, error) {
	const op = "backend.NewState"
	if expireIn <= 0 {
		return nil, fmt.Errorf("%s: expireIn not greater than zero: %w", op, ErrInvalidParameter)
	}
	if redirectURL == "" {
		return nil, fmt.Errorf("%s: redirect url is empty: %w", op, ErrInvalidParameter)
	}
	if _, err := url.Parse(redirectURL); err != nil {
		return nil, fmt.Errorf("%s: redirect url is invalid: %s: %w", op, err, ErrInvalidParameter)
	}
	stID, err := id.New("st")
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate a state's id: %w", op, err)
	}
	v, err := NewCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create a code verifier: %w", op, err)
	}
	now := time.Now()
	return &State{
		id:          stID,
		verifier:    v,
		redirectURL: redirectURL,
		createTime:  now,
		expiration:  now.Add(expireIn),
	}, nil
}

// ID is the state's unique identifier
func (s *State) ID() string { return s.id }

// RedirectURL is the callback's URL
func (s *State) RedirectURL() string { return s.redirectURL }

// PKCEVerifier is the state's verifier
func (s *State) PKCEVerifier() *CodeVerifier { return s.verifier }

// CreateTime is when the state was created
func (s *State) CreateTime() time.Time { return s.createTime }

// ExpirationTime is when the state expires
func (s *State) ExpirationTime() time.Time { return s.expiration }

// RedirectTo returns the redirect URL with the state's ID added as a query
// parameter.
func (s *State) RedirectTo() (string, error) {
	const op = "backend.(State).RedirectTo"
	u, err := url.Parse(s.redirectURL)
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", op, err, ErrInvalidParameter)
	}
	q := u.Query()
	q.Set(StateParam, s.id)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// IsExpired returns true if the state has expired. Supports the
// WithExpirySkew option and if none is provided it will use the
// DefaultStateExpirySkew.
func (s *State) IsExpired(opt ...Option) bool {
	opts := getStOpts(opt...)
	return s.expiration.Before(time.Now().Add(opts.withExpirySkew))
}
