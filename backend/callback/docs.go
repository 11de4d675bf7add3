// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
callback is a package that provides callbacks (in the form of http.HandlerFunc)
for handling a backend's redirect at the end of a federated sign in with
PKCE.
*/
package callback
