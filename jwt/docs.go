// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package jwt decodes the claims and header of compact JWTs for display.
// Signatures are never verified, so nothing decoded here can be trusted.
package jwt
