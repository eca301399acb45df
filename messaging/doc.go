// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is picard's Matrix client. It covers the slice of
// the client-server API the bridge needs: alias resolution, room
// creation and joining, invites, room state reads and writes (name,
// topic, avatar, join rules, history visibility, related groups),
// power-level documents, media upload, and message sending for
// operator-facing notices.
//
// The optional groups/communities API lives in groups.go. It is not
// part of the stable client-server spec — homeservers without it
// return M_UNRECOGNIZED, which callers treat as a missing capability,
// not an error.
//
// Errors from the homeserver are returned as *MatrixError carrying the
// Matrix error code and HTTP status. Callers classify with
// [IsMatrixError], [IsNotFound], and [IsAlreadyInRoom] rather than
// string-matching wrapped text.
package messaging
