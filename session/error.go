// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import "errors"

var (
	// ErrNoHandle is returned when an operation needs an attached handle and
	// there isn't one.
	ErrNoHandle = errors.New("no client handle")
)
