// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"errors"
	"fmt"
)

// SlackError is an API-level error from the Slack Web API envelope
// ({"ok": false, "error": "<code>"}). The code is a short snake_case
// identifier such as "channel_not_found" or "name_taken".
//
// Check for specific codes with errors.As:
//
//	var slackErr *workspace.SlackError
//	if errors.As(err, &slackErr) {
//	    if slackErr.Code == "name_taken" { ... }
//	}
type SlackError struct {
	// Code is the machine-readable error identifier.
	Code string

	// Method is the API method that failed (e.g., "conversations.create").
	Method string
}

func (e *SlackError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

// Error codes this bridge treats specially.
const (
	ErrCodeAlreadyInChannel = "already_in_channel"
	ErrCodeNotInChannel     = "not_in_channel"
	ErrCodeNameTaken        = "name_taken"
	ErrCodeChannelNotFound  = "channel_not_found"
	ErrCodeUserNotFound     = "user_not_found"
	ErrCodeIsArchived       = "is_archived"
)

// IsSlackError reports whether err is a *SlackError with the given code.
func IsSlackError(err error, code string) bool {
	var slackErr *SlackError
	return errors.As(err, &slackErr) && slackErr.Code == code
}

// IsAlreadyInChannel reports whether err means the invited user was a
// member already. Callers treat this as success.
func IsAlreadyInChannel(err error) bool {
	return IsSlackError(err, ErrCodeAlreadyInChannel)
}

// IsNotInChannel reports whether err means the acting user is not a
// member of the channel.
func IsNotInChannel(err error) bool {
	return IsSlackError(err, ErrCodeNotInChannel)
}

// IsNameTaken reports whether err means a channel with the requested
// name already exists.
func IsNameTaken(err error) bool {
	return IsSlackError(err, ErrCodeNameTaken)
}
