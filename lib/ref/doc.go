// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identity references
// for the two platforms picard bridges: Matrix (user IDs, room IDs,
// room aliases, group IDs, server names) and Slack (channel IDs).
//
// All constructors validate their inputs and return errors for invalid
// identifiers. Once constructed, a ref is immutable. Identifiers arrive
// from platform API responses and configuration, and are parsed into
// these types at the boundary — core code never passes raw strings
// where a typed reference exists.
//
// JSON marshaling uses the canonical string form via
// encoding.TextMarshaler.
package ref
