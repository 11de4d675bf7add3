// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// tokenscope provides a collection of related packages which let a user point
// a client at their own auth backend with a public key, sign in through a
// federated identity provider, and inspect the resulting access token and its
// decoded claims.  Nothing is verified or issued here: tokens are decoded for
// display only.
package tokenscope
