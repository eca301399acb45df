// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"

	"github.com/CoronaWhy/skill-picard/lib/cron"
	"github.com/CoronaWhy/skill-picard/lib/ref"
)

// RunSweep performs one mirror pass: list the workspace channels, diff
// against the ledger, provision every new channel, and commit the ones
// that fully succeeded. Channels are processed sequentially; one
// channel's failure is reported and the sweep moves on. The ledger is
// written once at the end and contains only successful channels, so a
// crash mid-sweep means unfinished channels are rediscovered next
// time.
//
// report receives operator-facing status messages; pass nil to send
// them to the configured command room.
func (b *Bridge) RunSweep(ctx context.Context, report func(string)) error {
	if report == nil {
		report = func(text string) { b.report(ctx, b.cfg.CommandRoom, text) }
	}

	channels, err := b.workspace.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("bridge: listing channels: %w", err)
	}
	seen, err := b.ledger.Seen(ctx)
	if err != nil {
		return err
	}
	discovered, err := DiscoverNew(channels, seen, b.cfg.AliasPrefix, b.cfg.ServerName)
	if err != nil {
		return err
	}
	if len(discovered) == 0 {
		b.logger.Debug("sweep found no new channels")
		return nil
	}
	b.logger.Info("sweep discovered new channels", "count", len(discovered))

	communityID, err := b.EnsureCommunityAdmin(ctx)
	if err != nil {
		// Community trouble disables community features for this
		// sweep; mirroring itself still proceeds.
		b.logger.Error("community reconciliation failed", "error", err)
		communityID = ref.GroupID{}
	}
	if !communityID.IsZero() && b.cfg.MakeCommunityJoinable {
		if err := b.groups.SetGroupJoinPolicy(ctx, communityID, "open"); err != nil {
			b.logger.Error("failed to open community join policy",
				"community", communityID, "error", err)
		}
	}

	succeeded := make(map[ref.ChannelID]ChannelRecord)
	for channelID, record := range discovered {
		roomID, err := b.provisionChannel(ctx, channelID, record, communityID, report)
		if err != nil {
			b.logger.Error("channel provisioning failed",
				"channel_id", channelID, "alias", record.Alias, "error", err)
			continue
		}
		b.logger.Info("channel mirrored",
			"channel_id", channelID, "room_id", roomID, "alias", record.Alias)
		succeeded[channelID] = record
	}

	if err := b.ledger.Commit(ctx, succeeded); err != nil {
		return err
	}
	if len(succeeded) > 0 {
		report("Finished adding all rooms.")
	}
	return nil
}

// RunScheduled runs sweeps on the cron schedule until the context is
// canceled. A send on trigger runs a sweep immediately (the manual
// !mirror command); trigger may be nil. Sweep errors are logged, never
// fatal to the loop.
func (b *Bridge) RunScheduled(ctx context.Context, schedule cron.Schedule, trigger <-chan struct{}) error {
	for {
		next, err := schedule.Next(b.clock.Now())
		if err != nil {
			return fmt.Errorf("bridge: computing next sweep time: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.clock.After(next.Sub(b.clock.Now())):
		case <-trigger:
		}

		if err := b.RunSweep(ctx, nil); err != nil {
			b.logger.Error("sweep failed", "error", err)
		}
	}
}
