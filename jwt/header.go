// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"fmt"

	"gopkg.in/square/go-jose.v2"
)

// Header is the decoded JOSE header of a token.
type Header struct {
	Algorithm string
	KeyID     string
	Type      string
}

// DecodeHeader parses the token's JOSE header.  Like DecodeClaims, the
// signature is not verified.
func DecodeHeader(token string) (*Header, error) {
	const op = "jwt.DecodeHeader"
	if _, err := splitToken(token); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	jws, err := jose.ParseSigned(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, err, ErrMalformedToken)
	}
	if len(jws.Signatures) != 1 {
		return nil, fmt.Errorf("%s: expected 1 signature and got %d: %w", op, len(jws.Signatures), ErrMalformedToken)
	}
	h := jws.Signatures[0].Header
	typ, _ := h.ExtraHeaders[jose.HeaderType].(string)
	return &Header{
		Algorithm: h.Algorithm,
		KeyID:     h.KeyID,
		Type:      typ,
	}, nil
}
