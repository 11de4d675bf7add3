// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
backend is a package for signing in to a project's auth API (a GoTrue
compatible API, served under /auth/v1 by default) with a public key, and for
following the resulting session.

Primary types provided by the package:

* Config: the endpoint, public key and transport settings of one project.

* Client: a handle to the project's auth API.  It holds the current session
and emits session.Event(s) to subscribers as the session changes.

* State: one federated sign in attempt, with its PKCE verifier.

* TestBackend: an in-process auth API for tests, which issues ES256 signed
access tokens.

The sign in flow:

	c, _ := backend.Build(endpoint, publicKey)
	st, _ := backend.NewState(2*time.Minute, "http://localhost:8300/callback")
	authURL, _ := c.AuthURL("github", st)
	// send the browser to authURL; the backend redirects it back to the
	// callback with a code (see the callback package)
	s, _ := c.ExchangeCode(ctx, st, code)

Events are delivered to OnAuthStateChange subscribers on a goroutine owned by
the client, serially and in emission order.
*/
package backend
