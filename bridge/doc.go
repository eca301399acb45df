// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge implements the reconciliation engine that mirrors
// Slack channels into Matrix rooms.
//
// A periodic sweep discovers channels that have no mirrored room yet,
// drives each one through provisioning (room creation or lookup, name,
// topic, avatar, join policy, self and appservice membership, power
// levels, community linking), and records fully provisioned channels
// in a persisted ledger so the next sweep skips them. The !createroom
// command runs the same provisioning for a single room on demand.
//
// Every step is idempotent. A sweep can die between provisioning a
// channel and recording it; the next sweep reprocesses the channel and
// every platform call tolerates the already-provisioned state
// (already-joined, already-invited, name already set). The ledger is
// written once per sweep, after all channels have been attempted, and
// includes only the channels that fully succeeded.
//
// The bridge talks to both platforms through the FederationClient and
// WorkspaceClient interfaces so tests can substitute fakes. The groups
// (community) API is an optional homeserver capability discovered by
// type-asserting the federation client against GroupAPI.
package bridge
