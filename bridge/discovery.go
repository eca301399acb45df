// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"fmt"

	"github.com/CoronaWhy/skill-picard/lib/ref"
	"github.com/CoronaWhy/skill-picard/workspace"
)

// ChannelRecord is what the ledger remembers about a mirrored channel.
type ChannelRecord struct {
	Name  string `json:"name"`
	Alias string `json:"alias"`
	Topic string `json:"topic"`
}

// DeriveAlias derives the room alias for a channel name:
// #<prefix><channel>:<server>. Deterministic, so repeated sweeps and
// the on-demand command agree on which room mirrors which channel.
func DeriveAlias(prefix, channelName string, server ref.ServerName) (ref.RoomAlias, error) {
	alias, err := ref.NewRoomAlias(prefix+channelName, server)
	if err != nil {
		return ref.RoomAlias{}, fmt.Errorf("bridge: deriving alias for channel %q: %w", channelName, err)
	}
	return alias, nil
}

// DiscoverNew diffs the live channel list against the set of channel
// IDs already in the ledger and returns records for the channels that
// still need mirroring. Archived channels are never candidates. Pure;
// calling it twice with the same inputs yields the same result.
func DiscoverNew(channels []workspace.Channel, seen map[string]ChannelRecord, aliasPrefix string, server ref.ServerName) (map[ref.ChannelID]ChannelRecord, error) {
	discovered := make(map[ref.ChannelID]ChannelRecord)
	for _, channel := range channels {
		if channel.IsArchived {
			continue
		}
		if _, done := seen[channel.ID.String()]; done {
			continue
		}

		alias, err := DeriveAlias(aliasPrefix, channel.Name, server)
		if err != nil {
			return nil, err
		}
		discovered[channel.ID] = ChannelRecord{
			Name:  channel.Name,
			Alias: alias.String(),
			Topic: channel.Topic.Value,
		}
	}
	return discovered, nil
}
