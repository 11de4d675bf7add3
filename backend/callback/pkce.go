// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/tokenscope/backend"
)

// PKCE creates a callback handler for the backend's redirect at the end of
// a federated sign in.  It uses a StateReader to read existing
// backend.State(s) via the request's "state" parameter as a key for the
// lookup, then exchanges the request's "code" for a session with the
// client.
//
// The SuccessResponseFunc is used to create a response when callback is
// successful. The ErrorResponseFunc is to create a response when the callback
// fails.
func PKCE(ctx context.Context, c *backend.Client, rw StateReader, sFn SuccessResponseFunc, eFn ErrorResponseFunc) (http.HandlerFunc, error) {
	const op = "callback.PKCE"
	if c == nil {
		return nil, fmt.Errorf("%s: client is nil: %w", op, ErrNilParameter)
	}
	if rw == nil {
		return nil, fmt.Errorf("%s: state reader is nil: %w", op, ErrNilParameter)
	}
	if sFn == nil {
		return nil, fmt.Errorf("%s: success response func is nil: %w", op, ErrNilParameter)
	}
	if eFn == nil {
		return nil, fmt.Errorf("%s: error response func is nil: %w", op, ErrNilParameter)
	}
	return func(w http.ResponseWriter, req *http.Request) {
		const op = "callback.PKCE"

		reqState := req.FormValue(backend.StateParam)

		if err := req.FormValue("error"); err != "" {
			// get parameters from either the body or query parameters.
			// FormValue prioritizes body values, if found
			reqError := &AuthenErrorResponse{
				Error:       err,
				Description: req.FormValue("error_description"),
				Code:        req.FormValue("error_code"),
			}
			eFn(reqState, reqError, nil, w, req)
			return
		}

		reqCode := req.FormValue("code")
		if reqCode == "" {
			eFn(reqState, nil, fmt.Errorf("%s: code is missing: %w", op, ErrInvalidParameter), w, req)
			return
		}

		state, err := rw.Read(ctx, reqState)
		switch {
		case errors.Is(err, ErrNotFound) || (err == nil && state == nil):
			// could have expired or it could be invalid... no way to known for sure
			eFn(reqState, nil, fmt.Errorf("%s: sign in state not found: %w", op, ErrNotFound), w, req)
			return
		case err != nil:
			eFn(reqState, nil, fmt.Errorf("%s: unable to read sign in state: %w", op, err), w, req)
			return
		}
		if state.IsExpired() {
			eFn(reqState, nil, fmt.Errorf("%s: sign in state is expired: %w", op, backend.ErrExpiredState), w, req)
			return
		}
		if reqState != state.ID() {
			// the reader didn't return the correct state for the key given
			eFn(reqState, nil, fmt.Errorf("%s: sign in state and response state are not equal: %w", op, ErrResponseStateInvalid), w, req)
			return
		}

		s, err := c.ExchangeCode(ctx, state, reqCode)
		if err != nil {
			eFn(reqState, nil, fmt.Errorf("%s: unable to exchange code: %w", op, err), w, req)
			return
		}
		sFn(reqState, s, w, req)
	}, nil
}
