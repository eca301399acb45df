// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/CoronaWhy/skill-picard/lib/memstore"
	"github.com/CoronaWhy/skill-picard/lib/ref"
)

const seenChannelsKey = "seen_channels"

// Ledger persists the set of channels that have been fully mirrored.
// Discovery consults it before anything else; a channel is only added
// after its whole provisioning pipeline succeeded, so a crash mid-sweep
// means the channel is retried by the next sweep rather than half-done
// forever.
type Ledger struct {
	store Store
}

// NewLedger creates a ledger over the given store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Seen returns the records of all channels mirrored so far, keyed by
// channel ID. An empty ledger returns an empty map.
func (l *Ledger) Seen(ctx context.Context) (map[string]ChannelRecord, error) {
	seen := make(map[string]ChannelRecord)
	err := l.store.Get(ctx, seenChannelsKey, &seen)
	if errors.Is(err, memstore.ErrNotFound) {
		return map[string]ChannelRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bridge: reading ledger: %w", err)
	}
	return seen, nil
}

// Commit merges the batch of newly mirrored channels into the ledger
// and persists it. Called once per sweep with only the channels whose
// provisioning fully succeeded. An empty batch is a no-op.
func (l *Ledger) Commit(ctx context.Context, batch map[ref.ChannelID]ChannelRecord) error {
	if len(batch) == 0 {
		return nil
	}

	seen, err := l.Seen(ctx)
	if err != nil {
		return err
	}
	for channelID, record := range batch {
		seen[channelID.String()] = record
	}
	if err := l.store.Put(ctx, seenChannelsKey, seen); err != nil {
		return fmt.Errorf("bridge: committing ledger: %w", err)
	}
	return nil
}
