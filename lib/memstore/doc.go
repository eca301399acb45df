// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

// Package memstore provides picard's persisted key-value document
// store: the ledger of already-mirrored channels, per-room operator
// options, and the auto-invite subscriber list all live here.
//
// The store is a single SQLite database (zombiezen.com/go/sqlite)
// holding JSON-encoded values keyed by string. JSON keeps the
// documents inspectable with the sqlite3 CLI, which is how operators
// debug a ledger that has drifted from the live platforms.
//
// Connections come from a fixed-size pool with production pragmas
// (WAL journal mode, NORMAL synchronous, busy timeout). Individual
// Get/Put calls are atomic, but read-modify-write sequences spanning
// two calls are not: concurrent writers to the same key race and the
// last writer wins. The sweep and the on-demand command path accept
// this — see the concurrency notes in the bridge package.
package memstore
