// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/CoronaWhy/skill-picard/lib/netutil"
	"github.com/CoronaWhy/skill-picard/lib/ref"
	"github.com/CoronaWhy/skill-picard/messaging"
)

// provisionChannel drives one discovered channel to fully mirrored:
// room resolution or creation, decoration, join policy, appservice
// membership, power levels, community linking, the link command, and
// invites. Returns the room ID on success. Every step tolerates
// re-invocation against an already-provisioned room, because a channel
// that failed after partial progress is retried whole on the next
// sweep.
//
// report receives human-readable status messages for the operator.
func (b *Bridge) provisionChannel(ctx context.Context, channelID ref.ChannelID, record ChannelRecord, communityID ref.GroupID, report func(string)) (ref.RoomID, error) {
	alias, err := ref.ParseRoomAlias(record.Alias)
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("bridge: ledger alias for channel %q: %w", channelID, err)
	}

	// Workspace side first: the bridge bot has to be a channel member
	// before the link command can relay anything.
	if err := b.joinBridgeBotToChannel(ctx, channelID); err != nil {
		b.logger.Error("failed to join bridge bot to channel",
			"channel_id", channelID, "error", err)
	}

	// Room resolution and creation happen under the creation lock so
	// the sweep cannot race a concurrent !createroom onto the same
	// room. The rest of provisioning runs unlocked; it is idempotent
	// state reconciliation.
	b.creationLock.Lock()
	roomID, err := b.EnsureSelfInRoom(ctx, alias)
	b.creationLock.Unlock()
	if err != nil {
		return ref.RoomID{}, err
	}

	if err := b.decorateRoom(ctx, roomID, record); err != nil {
		return ref.RoomID{}, err
	}

	if b.cfg.MakePublic {
		// Failing to open the room is reported but never sinks the
		// channel.
		if err := b.makeRoomPublic(ctx, roomID); err != nil {
			b.logger.Error("failed to make room publicly joinable",
				"room_id", roomID, "alias", alias, "error", err)
			report(fmt.Sprintf("ERROR: Could not make %s publicly joinable.", alias))
		}
	}

	// The appservice must be a member or the channel cannot be
	// bridged. Anything but already-a-member is fatal for this
	// channel.
	confirmed, err := b.EnsureUserInRoom(ctx, roomID, b.cfg.AppserviceUserID)
	if err == nil && confirmed.IsZero() {
		err = fmt.Errorf("bridge: room %q not found while inviting appservice", roomID)
	}
	if err != nil {
		report(fmt.Sprintf("ERROR: Could not invite appservice bot to %s, skipping channel.", alias))
		return ref.RoomID{}, err
	}

	if err := b.configurePowerLevels(ctx, roomID); err != nil {
		return ref.RoomID{}, err
	}

	if len(b.cfg.RelatedGroups) > 0 {
		if err := b.UpdateRelatedGroups(ctx, roomID, b.cfg.RelatedGroups); err != nil {
			return ref.RoomID{}, err
		}
	}

	// The appservice admin room receives the link command that tells
	// the bridging service to start relaying messages.
	b.report(ctx, b.cfg.BridgeRoom, b.linkCommand(channelID, roomID))

	b.inviteConfiguredUsers(ctx, roomID)

	if !communityID.IsZero() {
		if err := b.linkRoomToCommunity(ctx, communityID, roomID); err != nil {
			b.logger.Error("failed to add room to community",
				"room_id", roomID, "community", communityID, "error", err)
		}
		if b.cfg.InviteCommunityToRooms {
			if err := b.inviteCommunityToRoom(ctx, communityID, roomID); err != nil {
				b.logger.Error("failed to invite community members",
					"room_id", roomID, "community", communityID, "error", err)
			}
		}
	}

	report(fmt.Sprintf("Finished adding room %s", alias))
	return roomID, nil
}

// linkCommand builds the appservice link command for a channel/room
// pair. The workspace tokens are embedded so the bridging service can
// authenticate.
func (b *Bridge) linkCommand(channelID ref.ChannelID, roomID ref.RoomID) string {
	return fmt.Sprintf("link --channel_id %s --room %s --slack_bot_token %s --slack_user_token %s",
		channelID, roomID, b.cfg.SlackBotToken, b.cfg.SlackUserToken)
}

// decorateRoom applies name, topic, and avatar, honoring the room's
// skip flags. Each is an idempotent state write.
func (b *Bridge) decorateRoom(ctx context.Context, roomID ref.RoomID, record ChannelRecord) error {
	options, err := b.options.Get(ctx, roomID)
	if err != nil {
		return err
	}

	if !options.SkipName() {
		if err := b.federation.SetRoomName(ctx, roomID, b.cfg.NamePrefix+record.Name); err != nil {
			return fmt.Errorf("bridge: naming %q: %w", roomID, err)
		}
	}
	if !options.SkipDescription() && record.Topic != "" {
		if err := b.federation.SetRoomTopic(ctx, roomID, record.Topic); err != nil {
			return fmt.Errorf("bridge: setting topic of %q: %w", roomID, err)
		}
	}
	if !options.SkipAvatar() && b.cfg.AvatarURL != "" {
		if err := b.setRoomAvatar(ctx, roomID, b.cfg.AvatarURL); err != nil {
			return fmt.Errorf("bridge: setting avatar of %q: %w", roomID, err)
		}
	}
	return nil
}

// makeRoomPublic opens the join rule and makes history world-readable.
func (b *Bridge) makeRoomPublic(ctx context.Context, roomID ref.RoomID) error {
	_, err := b.federation.SendStateEvent(ctx, roomID, messaging.EventTypeJoinRules, "",
		messaging.JoinRulesContent{JoinRule: "public"})
	if err != nil {
		return fmt.Errorf("bridge: setting join rule: %w", err)
	}
	_, err = b.federation.SendStateEvent(ctx, roomID, messaging.EventTypeHistoryVisibility, "",
		messaging.HistoryVisibilityContent{HistoryVisibility: "world_readable"})
	if err != nil {
		return fmt.Errorf("bridge: setting history visibility: %w", err)
	}
	return nil
}

// setRoomAvatar applies an avatar, uploading HTTP-sourced images to
// the media repository first.
func (b *Bridge) setRoomAvatar(ctx context.Context, roomID ref.RoomID, avatarURL string) error {
	if !strings.HasPrefix(avatarURL, "mxc:") {
		uploaded, err := b.uploadImage(ctx, avatarURL)
		if err != nil {
			return err
		}
		avatarURL = uploaded
	}
	return b.federation.SetRoomAvatar(ctx, roomID, avatarURL)
}

// uploadImage fetches an image over HTTP and uploads it to the
// homeserver media repository, returning the mxc: URI.
func (b *Bridge) uploadImage(ctx context.Context, imageURL string) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("bridge: fetching avatar %q: %w", imageURL, err)
	}
	response, err := b.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("bridge: fetching avatar %q: %w", imageURL, err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bridge: fetching avatar %q: HTTP %d", imageURL, response.StatusCode)
	}

	data, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return "", fmt.Errorf("bridge: reading avatar %q: %w", imageURL, err)
	}
	contentType := response.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return b.federation.UploadMedia(ctx, data, contentType)
}

// joinBridgeBotToChannel invites the workspace-side bridge bot to a
// channel unless it is a member already.
func (b *Bridge) joinBridgeBotToChannel(ctx context.Context, channelID ref.ChannelID) error {
	if b.cfg.BridgeBotName == "" {
		return nil
	}

	botID, err := b.workspace.ResolveUserID(ctx, b.cfg.BridgeBotName)
	if err != nil {
		return err
	}
	members, err := b.workspace.ChannelMembers(ctx, channelID)
	if err != nil {
		return err
	}
	for _, member := range members {
		if member == botID {
			return nil
		}
	}

	err = b.workspace.InviteUserToChannel(ctx, channelID, botID)
	if classify(err) == OutcomeOK {
		return nil
	}
	return err
}

// inviteConfiguredUsers invites the configured always-invite users and
// the auto-invite subscribers. Per-user failures are logged only.
func (b *Bridge) inviteConfiguredUsers(ctx context.Context, roomID ref.RoomID) {
	invitees := b.cfg.UsersToInvite

	subscribers, err := b.subscribers.List(ctx)
	if err != nil {
		b.logger.Error("failed to read auto-invite subscribers", "error", err)
	} else {
		invitees = append(invitees[:len(invitees):len(invitees)], subscribers...)
	}

	for _, user := range invitees {
		if _, err := b.EnsureUserInRoom(ctx, roomID, user); err != nil {
			b.logger.Error("failed to invite user",
				"user_id", user, "room_id", roomID, "error", err)
		}
	}
}

// linkRoomToCommunity attaches a room to the community when it is not
// already attached.
func (b *Bridge) linkRoomToCommunity(ctx context.Context, communityID ref.GroupID, roomID ref.RoomID) error {
	rooms, err := b.groups.GroupRooms(ctx, communityID)
	if err != nil {
		return fmt.Errorf("bridge: listing community %s rooms: %w", communityID, err)
	}
	for _, existing := range rooms {
		if existing == roomID {
			return nil
		}
	}
	if err := b.groups.AddRoomToGroup(ctx, communityID, roomID); err != nil {
		return fmt.Errorf("bridge: adding %q to community %s: %w", roomID, communityID, err)
	}
	return nil
}
