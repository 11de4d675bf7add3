// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import "errors"

var (
	// ErrMalformedToken is returned when a token isn't a compact,
	// three-segment JWT or one of its segments can't be decoded.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidParameter is an invalid parameter error
	ErrInvalidParameter = errors.New("invalid parameter")
)
