// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// segmentCount is the number of "." separated segments in a compact JWS:
// header.payload.signature
const segmentCount = 3

// DecodeClaims splits the compact token and decodes its payload segment into
// Claims.  It does NOT verify the token's signature and must never be used to
// assert a token's authenticity; it exists so a token can be displayed.
//
// An error wrapping ErrMalformedToken is returned when the token doesn't have
// three segments, or the payload isn't base64 encoded JSON object.
func DecodeClaims(token string) (Claims, error) {
	const op = "jwt.DecodeClaims"
	parts, err := splitToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	raw, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%s: unable to decode payload: %w", op, err)
	}
	claims := Claims{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return nil, fmt.Errorf("%s: payload is not a json object: %s: %w", op, err, ErrMalformedToken)
	}
	if dec.More() {
		return nil, fmt.Errorf("%s: payload has trailing data: %w", op, ErrMalformedToken)
	}
	if claims == nil {
		// the payload was the json literal null
		return nil, fmt.Errorf("%s: payload is not a json object: %w", op, ErrMalformedToken)
	}
	return claims, nil
}

func splitToken(token string) ([]string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != segmentCount {
		return nil, fmt.Errorf("expected %d segments and got %d: %w", segmentCount, len(parts), ErrMalformedToken)
	}
	return parts, nil
}

// decodeSegment accepts both the url and standard base64 alphabets, with or
// without padding.
func decodeSegment(seg string) ([]byte, error) {
	seg = strings.TrimRight(seg, "=")
	if seg == "" {
		return nil, fmt.Errorf("segment is empty: %w", ErrMalformedToken)
	}
	if b, err := base64.RawURLEncoding.DecodeString(seg); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(seg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, ErrMalformedToken)
	}
	return b, nil
}
