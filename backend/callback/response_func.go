// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"net/http"

	"github.com/hashicorp/tokenscope/session"
)

// SuccessResponseFunc is used by Callbacks to create a http response when the
// callback is successful.
//
// The function state parameter will contain the state that was returned as
// part of the backend's redirect. The session.Session is the result of a
// successful code exchange with the backend.  The function should use the
// http.ResponseWriter to send back whatever content (headers, html, JSON,
// etc) it wishes to the browser that started the sign in.
type SuccessResponseFunc func(state string, s *session.Session, w http.ResponseWriter, req *http.Request)

// ErrorResponseFunc is used by Callbacks to create a http response when the
// callback fails.
//
// The function receives the state returned as part of the redirect.  It also
// gets parameters for the backend's error response and/or the callback error
// raised while processing the request.  The function should use the
// http.ResponseWriter to send back whatever content (headers, html, JSON,
// etc) it wishes to the browser that started the sign in.
type ErrorResponseFunc func(state string, respErr *AuthenErrorResponse, e error, w http.ResponseWriter, req *http.Request)

// AuthenErrorResponse represents an error the backend (or the identity
// provider through it) returned in the redirect's query.
type AuthenErrorResponse struct {
	Error       string
	Description string
	Code        string
}
