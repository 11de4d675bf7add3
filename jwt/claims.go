// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/square/go-jose.v2/jwt"
)

// Claims are the decoded payload of a token.  Numbers are kept as
// json.Number so they display exactly as they were encoded.
type Claims map[string]interface{}

// Claim names the helpers below know about.
const (
	ClaimRole    = "role"
	ClaimEmail   = "email"
	ClaimSubject = "sub"
	ClaimExpiry  = "exp"
)

func (c Claims) str(name string) string {
	if v, ok := c[name].(string); ok {
		return v
	}
	return ""
}

// Role returns the "role" claim or an empty string when it's missing or not
// a string.
func (c Claims) Role() string { return c.str(ClaimRole) }

// Email returns the "email" claim.
func (c Claims) Email() string { return c.str(ClaimEmail) }

// Subject returns the "sub" claim.
func (c Claims) Subject() string { return c.str(ClaimSubject) }

// ExpiresAt returns the "exp" claim as a time.  The bool is false when the
// claim is missing or isn't numeric.
func (c Claims) ExpiresAt() (time.Time, bool) {
	n, ok := c[ClaimExpiry].(json.Number)
	if !ok {
		return time.Time{}, false
	}
	f, err := n.Float64()
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(int64(f), 0), true
}

// Registered returns the registered claims (iss, sub, aud, exp, nbf, iat,
// jti) in their typed form.
func (c Claims) Registered() (*jwt.Claims, error) {
	const op = "jwt.(Claims).Registered"
	if c == nil {
		return nil, fmt.Errorf("%s: claims are nil: %w", op, ErrInvalidParameter)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to marshal claims: %w", op, err)
	}
	var registered jwt.Claims
	if err := json.Unmarshal(raw, &registered); err != nil {
		return nil, fmt.Errorf("%s: unable to unmarshal registered claims: %w", op, err)
	}
	return &registered, nil
}

// JSON returns the claims as indented json with sorted keys, suitable for
// display.
func (c Claims) JSON() (string, error) {
	const op = "jwt.(Claims).JSON"
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(b), nil
}
