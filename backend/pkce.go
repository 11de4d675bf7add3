// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// ChallengeMethod represents PKCE code challenge methods as defined by RFC
// 7636.
type ChallengeMethod string

const (
	// S256 is a challenge method of SHA-256 (RFC 7636).  It's the only
	// supported method.
	S256 ChallengeMethod = "S256"
)

// verifierLen is the length of an encoded verifier: 32 random bytes, base64
// url encoded without padding.
const verifierLen = 43

// CodeVerifier is a PKCE code verifier and its challenge.
type CodeVerifier struct {
	verifier  string
	challenge string
	method    ChallengeMethod
}

// NewCodeVerifier creates a new CodeVerifier using the S256 method.
func NewCodeVerifier() (*CodeVerifier, error) {
	const op = "backend.NewCodeVerifier"
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%s: unable to read random bytes: %w", op, err)
	}
	v := &CodeVerifier{
		verifier: base64.RawURLEncoding.EncodeToString(b),
		method:   S256,
	}
	challenge, err := CreateCodeChallenge(v.method, v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	v.challenge = challenge
	return v, nil
}

// Verifier returns the code verifier
func (v *CodeVerifier) Verifier() string { return v.verifier }

// Challenge returns the code challenge
func (v *CodeVerifier) Challenge() string { return v.challenge }

// Method returns the challenge method
func (v *CodeVerifier) Method() ChallengeMethod { return v.method }

// CreateCodeChallenge creates a code challenge from the verifier using the
// method.
func CreateCodeChallenge(method ChallengeMethod, v *CodeVerifier) (string, error) {
	const op = "backend.CreateCodeChallenge"
	if v == nil {
		return "", fmt.Errorf("%s: verifier is nil: %w", op, ErrNilParameter)
	}
	switch method {
	case S256:
		sum := sha256.Sum256([]byte(v.verifier))
		return base64.RawURLEncoding.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("%s: %q: %w", op, method, ErrUnsupportedChallengeMethod)
	}
}
