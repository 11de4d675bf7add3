// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import "fmt"

// EventKind is the kind of an auth state change.
type EventKind string

const (
	InitialSession   EventKind = "INITIAL_SESSION"
	SignedIn         EventKind = "SIGNED_IN"
	SignedOut        EventKind = "SIGNED_OUT"
	TokenRefreshed   EventKind = "TOKEN_REFRESHED"
	UserUpdated      EventKind = "USER_UPDATED"
	PasswordRecovery EventKind = "PASSWORD_RECOVERY"
)

// Event is one auth state change emitted by a client.  Session may be nil.
type Event struct {
	Kind    EventKind
	Session *Session
}

func (e Event) String() string {
	return fmt.Sprintf("%s (session: %t)", e.Kind, e.Session != nil)
}
