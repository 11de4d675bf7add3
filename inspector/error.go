// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package inspector

import "errors"

var (
	ErrNilParameter = errors.New("nil parameter")
	ErrNoClient     = errors.New("no backend client: a valid endpoint and public key are required")
)
