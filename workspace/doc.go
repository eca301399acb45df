// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

// Package workspace provides a client for the Slack Web API, covering
// the conversation and user endpoints the bridge needs: listing and
// creating channels, inviting members, and resolving user IDs.
//
// Slack wraps every response in an envelope with an "ok" flag; failed
// calls carry a short machine-readable error code. The client surfaces
// those as *SlackError values that callers classify with errors.As and
// the Is* helpers, mirroring how the messaging package treats
// *MatrixError.
//
// The client holds two tokens. The bot token serves read traffic and
// topic updates; channel creation and invites go through the user
// token because Slack restricts those methods for bot users. When no
// user token is configured the bot token is used for everything.
package workspace
