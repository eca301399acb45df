// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"

	"github.com/CoronaWhy/skill-picard/lib/ref"
	"github.com/CoronaWhy/skill-picard/messaging"
)

// Origin identifies which platform a command arrived from.
type Origin int

const (
	OriginMatrix Origin = iota
	OriginSlack
)

// CreateRoomCommand is a parsed !createroom invocation.
type CreateRoomCommand struct {
	// Name is the channel/room name (no prefix). Required.
	Name string

	// Topic is the optional room topic and channel description.
	Topic string

	// Origin is the platform the command came from.
	Origin Origin

	// MatrixSender is the invoking user when Origin is OriginMatrix.
	MatrixSender ref.UserID

	// SlackSender is the invoking Slack user ID when Origin is
	// OriginSlack.
	SlackSender string

	// ReplyTo is the Matrix room progress and errors are reported to.
	ReplyTo ref.RoomID
}

// CreateLinkedRoom creates a room/channel pair on demand and links
// them. The flow is linear; the first failing step aborts the rest and
// reports which step failed. The Matrix room is fully configured for
// public access before any cross-platform link exists, so there is no
// window where an unconfigured room is already bridged.
func (b *Bridge) CreateLinkedRoom(ctx context.Context, cmd CreateRoomCommand) (ref.RoomID, error) {
	if cmd.Name == "" {
		return ref.RoomID{}, fmt.Errorf("bridge: room name is required")
	}
	fail := func(step string, err error) (ref.RoomID, error) {
		b.report(ctx, cmd.ReplyTo, fmt.Sprintf("ERROR: %s failed for %q.", step, cmd.Name))
		return ref.RoomID{}, fmt.Errorf("bridge: %s for %q: %w", step, cmd.Name, err)
	}

	alias, err := DeriveAlias(b.cfg.AliasPrefix, cmd.Name, b.cfg.ServerName)
	if err != nil {
		return fail("deriving room alias", err)
	}

	b.report(ctx, cmd.ReplyTo, "Creating room please wait, this takes a little while...")

	roomID, err := b.EnsureSelfInRoom(ctx, alias)
	if err != nil {
		return fail("creating room", err)
	}

	// Pre-link configuration.
	if b.cfg.MakePublic {
		if err := b.makeRoomPublic(ctx, roomID); err != nil {
			return fail("making room public", err)
		}
	}
	communityID, err := b.EnsureCommunityAdmin(ctx)
	if err != nil {
		return fail("reconciling community", err)
	}
	if !communityID.IsZero() {
		if err := b.linkRoomToCommunity(ctx, communityID, roomID); err != nil {
			return fail("adding room to community", err)
		}
	}

	// The lock covers the window from issuing the channel create to
	// the link being recorded, so a concurrent creation (or sweep)
	// cannot link a second room to the channel before the bridging
	// service knows about this one.
	b.creationLock.Lock()
	channel, err := b.workspace.CreateChannel(ctx, cmd.Name)
	if err != nil {
		b.creationLock.Unlock()
		return fail("creating workspace channel", err)
	}
	_, err = b.federation.SendMessage(ctx, b.cfg.BridgeRoom,
		messaging.NewTextMessage(b.linkCommand(channel.ID, roomID)))
	b.creationLock.Unlock()
	if err != nil {
		return fail("recording bridge link", err)
	}

	// Post-link configuration.
	if err := b.decorateRoom(ctx, roomID, ChannelRecord{Name: cmd.Name, Alias: alias.String(), Topic: cmd.Topic}); err != nil {
		return fail("configuring room", err)
	}
	if err := b.configurePowerLevels(ctx, roomID); err != nil {
		return fail("configuring power levels", err)
	}
	if cmd.Topic != "" {
		if err := b.workspace.SetChannelTopic(ctx, channel.ID, cmd.Topic); err != nil {
			return fail("setting channel description", err)
		}
	}

	// Invite the sender on the platform that did not originate the
	// command; the originating side already shows it to them.
	switch cmd.Origin {
	case OriginMatrix:
		if _, err := b.EnsureUserInRoom(ctx, roomID, cmd.MatrixSender); err != nil {
			return fail("inviting sender", err)
		}
	case OriginSlack:
		err := b.workspace.InviteUserToChannel(ctx, channel.ID, cmd.SlackSender)
		if classify(err) != OutcomeOK {
			return fail("inviting sender", err)
		}
	}
	b.inviteConfiguredUsers(ctx, roomID)

	b.report(ctx, cmd.ReplyTo, fmt.Sprintf("Created a new room: %s", alias))
	if !b.cfg.AnnouncementRoom.IsZero() && b.cfg.AnnouncementRoom != cmd.ReplyTo {
		b.report(ctx, b.cfg.AnnouncementRoom, fmt.Sprintf("New room created: %s", alias))
	}

	b.logger.Info("created linked room",
		"room_id", roomID, "channel_id", channel.ID, "alias", alias)
	return roomID, nil
}
