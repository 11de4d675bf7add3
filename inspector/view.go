// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package inspector

import (
	"github.com/hashicorp/tokenscope/jwt"
	"github.com/hashicorp/tokenscope/session"
)

// View is a snapshot of everything a front end displays.
type View struct {
	// Endpoint and PublicKey are the current credential fields.
	Endpoint  string
	PublicKey string

	// Error is set when no client could be derived from the credentials.
	Error string

	// Warning is set when a privileged key was rejected.
	Warning string

	// LoginAvailable is true when a client exists to sign in with.
	LoginAvailable bool

	// Session is a copy of the current session, or nil.
	Session *session.Session

	// Claims and Header are decoded from the session's access token.  When
	// the token can't be decoded they're nil and ClaimsErr says why.
	Claims    jwt.Claims
	Header    *jwt.Header
	ClaimsErr error
}

// SignedIn reports whether the view has a session.
func (v View) SignedIn() bool {
	return v.Session != nil
}

// decode fills in the claims and header of the view's session.  A token
// that can't be decoded never fails the view.
func (v *View) decode() {
	if v.Session == nil {
		return
	}
	token := string(v.Session.AccessToken)
	claims, err := jwt.DecodeClaims(token)
	if err != nil {
		v.ClaimsErr = err
		return
	}
	v.Claims = claims
	if h, err := jwt.DecodeHeader(token); err == nil {
		v.Header = h
	}
}
