// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package credential

import "errors"

var (
	// ErrPrivilegedKey is returned when a service level key is offered where
	// a public key is expected.
	ErrPrivilegedKey = errors.New("privileged key rejected")
)
