// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"log/slog"
)

// messageFilter is the inline /sync filter for the listener: timeline
// m.room.message events from every joined room, everything else
// suppressed server-side.
const messageFilter = `{"room":{"timeline":{"types":["m.room.message"]},"state":{"types":[]},"ephemeral":{"types":[]}},"presence":{"types":[]},"account_data":{"types":[]}}`

// maxSyncRetries is the number of consecutive /sync failures tolerated
// before Run gives up. Each retry uses a short server-side timeout so
// the HTTP round-trip itself provides the backoff.
const maxSyncRetries = 5

// longPollTimeout is the server-side hold time in milliseconds for
// normal /sync calls, per the Matrix client-server spec
// recommendation.
const longPollTimeout = 30000

// retrySyncTimeout is the server-side timeout in milliseconds used
// after a /sync error, short so the next attempt comes quickly.
const retrySyncTimeout = 1000

// Listener follows the /sync stream and delivers message events from
// every room the session has joined. Picard feeds these into its
// command dispatch; anything that is not a command is discarded there.
//
// A Listener sees only events arriving after Run's initial sync.
// Missing commands issued while the daemon was down is deliberate —
// replaying a backlog of stale "!mirror" requests on startup would be
// worse than dropping them.
type Listener struct {
	session *Session
	logger  *slog.Logger
}

// NewListener creates a listener on the given session.
func NewListener(session *Session, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{session: session, logger: logger}
}

// Run long-polls /sync until ctx is cancelled, invoking deliver for
// every new message event. The event's RoomID is filled in from the
// sync response before delivery. Returns ctx.Err() on cancellation and
// an error after maxSyncRetries consecutive sync failures.
//
// deliver runs on the listener's goroutine: a slow handler delays the
// next poll but never drops events, because the homeserver buffers the
// stream behind the since token.
func (l *Listener) Run(ctx context.Context, deliver func(Event)) error {
	// Anchor at the current stream position without blocking.
	initial, err := l.session.Sync(ctx, SyncOptions{SetTimeout: true, Timeout: 0, Filter: messageFilter})
	if err != nil {
		return fmt.Errorf("messaging: initial sync: %w", err)
	}
	nextBatch := initial.NextBatch

	var retries int
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		syncTimeout := longPollTimeout
		if retries > 0 {
			syncTimeout = retrySyncTimeout
		}
		response, err := l.session.Sync(ctx, SyncOptions{
			Since:      nextBatch,
			SetTimeout: true,
			Timeout:    syncTimeout,
			Filter:     messageFilter,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			retries++
			// A poisoned pooled connection shows up as repeated
			// resets; dropping idle connections forces a fresh socket.
			l.session.client.httpClient.CloseIdleConnections()
			if retries > maxSyncRetries {
				return fmt.Errorf("messaging: sync failed %d consecutive times: %w", retries, err)
			}
			l.logger.Warn("sync error, retrying",
				"attempt", retries, "max_attempts", maxSyncRetries, "error", err)
			continue
		}
		retries = 0
		nextBatch = response.NextBatch

		for roomID, room := range response.Rooms.Join {
			for _, event := range room.Timeline.Events {
				event.RoomID = roomID
				deliver(event)
			}
		}
	}
}
