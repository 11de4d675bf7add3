// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned by Build when the endpoint or public
	// key is missing.  Its message is meant to be shown to the user as is.
	ErrMissingCredential = errors.New("a valid endpoint and public key are required")

	ErrInvalidParameter           = errors.New("invalid parameter")
	ErrNilParameter               = errors.New("nil parameter")
	ErrInvalidEndpoint            = errors.New("invalid endpoint")
	ErrInvalidCACert              = errors.New("invalid CA certificate")
	ErrExpiredState               = errors.New("state is expired")
	ErrNoSession                  = errors.New("no session")
	ErrRequestFailed              = errors.New("request failed")
	ErrUnsupportedChallengeMethod = errors.New("unsupported PKCE challenge method")
)

// APIError is an error response from the backend's auth API.  It wraps
// ErrRequestFailed.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Description)
	case e.Description != "":
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Description)
	case e.Code != "":
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Code)
	default:
		return fmt.Sprintf("%d", e.StatusCode)
	}
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error { return ErrRequestFailed }

// apiErrorBody covers the error shapes the auth API returns.
type apiErrorBody struct {
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
	ErrorCode        string      `json:"error_code"`
	Code             interface{} `json:"code"`
	Msg              string      `json:"msg"`
	Message          string      `json:"message"`
}

func (b apiErrorBody) toError(status int) *APIError {
	e := &APIError{StatusCode: status}
	switch {
	case b.ErrorCode != "":
		e.Code = b.ErrorCode
	case b.Error != "":
		e.Code = b.Error
	}
	if s, ok := b.Code.(string); ok && e.Code == "" {
		e.Code = s
	}
	switch {
	case b.ErrorDescription != "":
		e.Description = b.ErrorDescription
	case b.Msg != "":
		e.Description = b.Msg
	case b.Message != "":
		e.Description = b.Message
	}
	return e
}
