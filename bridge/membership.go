// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/CoronaWhy/skill-picard/lib/ref"
	"github.com/CoronaWhy/skill-picard/messaging"
)

// EnsureSelfInRoom resolves the room for an alias, creating it when
// absent, and makes sure the bridge's own identity has joined.
// Idempotent: an existing room and an existing membership are both
// fine. When room creation races an externally created room with the
// same alias, the alias is resolved again instead of failing.
func (b *Bridge) EnsureSelfInRoom(ctx context.Context, alias ref.RoomAlias) (ref.RoomID, error) {
	roomID, err := b.federation.ResolveAlias(ctx, alias)
	if err != nil && !messaging.IsNotFound(err) {
		return ref.RoomID{}, err
	}

	if messaging.IsNotFound(err) {
		roomID, err = b.federation.CreateRoom(ctx, messaging.CreateRoomRequest{
			Alias: alias.Localpart(),
		})
		if err != nil {
			// Lost a creation race: someone made the alias between our
			// lookup and create. Their room is the mirror.
			roomID, err = b.federation.ResolveAlias(ctx, alias)
			if err != nil {
				return ref.RoomID{}, fmt.Errorf("bridge: room for %s neither created nor resolvable: %w", alias, err)
			}
		}
		if _, err := b.federation.JoinRoom(ctx, roomID); err != nil {
			return ref.RoomID{}, fmt.Errorf("bridge: joining %s: %w", alias, err)
		}
		return roomID, nil
	}

	joined, err := b.federation.JoinedRooms(ctx)
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("bridge: listing joined rooms: %w", err)
	}
	if !slices.Contains(joined, roomID) {
		if _, err := b.federation.JoinRoom(ctx, roomID); err != nil {
			return ref.RoomID{}, fmt.Errorf("bridge: joining %s: %w", alias, err)
		}
	}
	return roomID, nil
}

// EnsureUserInRoom invites a user to a room. An existing membership
// counts as success. A room that does not exist returns a zero room ID
// and no error; absent rooms are an expected outcome, not a failure.
func (b *Bridge) EnsureUserInRoom(ctx context.Context, roomID ref.RoomID, userID ref.UserID) (ref.RoomID, error) {
	err := b.federation.InviteUser(ctx, roomID, userID)
	switch classify(err) {
	case OutcomeOK:
		return roomID, nil
	case OutcomeSkip:
		return ref.RoomID{}, nil
	default:
		return ref.RoomID{}, err
	}
}

// EnsureCommunityAdmin makes sure the configured community exists and
// the bridge administers it. Returns the community ID, or zero when
// community integration is unavailable: no community configured, no
// groups API on the client or homeserver, or the bridge is a member
// without privilege. A zero result disables every community feature
// for the caller; it is never an error.
func (b *Bridge) EnsureCommunityAdmin(ctx context.Context) (ref.GroupID, error) {
	if b.groups == nil || b.cfg.CommunityID.IsZero() {
		return ref.GroupID{}, nil
	}
	communityID := b.cfg.CommunityID

	_, err := b.groups.GetGroupProfile(ctx, communityID)
	if messaging.IsUnrecognized(err) {
		// Homeserver without the groups API.
		b.logger.Info("homeserver has no groups support, skipping community integration")
		return ref.GroupID{}, nil
	}
	if messaging.IsNotFound(err) {
		created, err := b.groups.CreateGroup(ctx, messaging.CreateGroupRequest{
			Localpart: communityID.Localpart(),
		})
		if err != nil {
			return ref.GroupID{}, fmt.Errorf("bridge: creating community %s: %w", communityID, err)
		}
		return created, nil
	}
	if err != nil {
		return ref.GroupID{}, fmt.Errorf("bridge: checking community %s: %w", communityID, err)
	}

	users, err := b.groups.GroupUsers(ctx, communityID)
	if err != nil {
		return ref.GroupID{}, fmt.Errorf("bridge: listing community %s members: %w", communityID, err)
	}
	for _, user := range users {
		if user.UserID == b.federation.UserID() {
			if user.IsPrivileged {
				return communityID, nil
			}
			break
		}
	}
	b.logger.Warn("not a community admin, skipping community integration", "community", communityID)
	return ref.GroupID{}, nil
}

// RelatedGroups reads a room's m.room.related_groups state. A room
// with no such state returns an empty set, not an error.
func (b *Bridge) RelatedGroups(ctx context.Context, roomID ref.RoomID) ([]string, error) {
	content, err := b.federation.GetStateEvent(ctx, roomID, messaging.EventTypeRelatedGroups, "")
	if messaging.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bridge: reading related groups for %q: %w", roomID, err)
	}

	var related messaging.RelatedGroupsContent
	if err := json.Unmarshal(content, &related); err != nil {
		return nil, fmt.Errorf("bridge: parsing related groups for %q: %w", roomID, err)
	}
	return related.Groups, nil
}

// UpdateRelatedGroups unions the given groups into the room's
// m.room.related_groups state. Existing entries are never removed; an
// already-complete union writes nothing.
func (b *Bridge) UpdateRelatedGroups(ctx context.Context, roomID ref.RoomID, groups []string) error {
	existing, err := b.RelatedGroups(ctx, roomID)
	if err != nil {
		return err
	}

	union := slices.Clone(existing)
	for _, group := range groups {
		if !slices.Contains(union, group) {
			union = append(union, group)
		}
	}
	if len(union) == len(existing) {
		return nil
	}
	slices.Sort(union)

	_, err = b.federation.SendStateEvent(ctx, roomID, messaging.EventTypeRelatedGroups, "",
		messaging.RelatedGroupsContent{Groups: union})
	if err != nil {
		return fmt.Errorf("bridge: writing related groups for %q: %w", roomID, err)
	}
	return nil
}

// userInRoomState reports whether a user appears as a state key in the
// room's current state, i.e. has any membership record at all
// (joined, invited, or left).
func (b *Bridge) userInRoomState(ctx context.Context, roomID ref.RoomID, userID ref.UserID) (bool, error) {
	state, err := b.federation.GetRoomState(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("bridge: reading state of %q: %w", roomID, err)
	}
	for _, event := range state {
		if event.StateKey != nil && *event.StateKey == userID.String() {
			return true, nil
		}
	}
	return false, nil
}

// inviteCommunityToRoom invites every community member with no
// membership record in the room. Per-user failures are logged and do
// not stop the rest.
func (b *Bridge) inviteCommunityToRoom(ctx context.Context, communityID ref.GroupID, roomID ref.RoomID) error {
	users, err := b.groups.GroupUsers(ctx, communityID)
	if err != nil {
		return fmt.Errorf("bridge: listing community %s members: %w", communityID, err)
	}

	for _, user := range users {
		present, err := b.userInRoomState(ctx, roomID, user.UserID)
		if err != nil {
			return err
		}
		if present {
			continue
		}
		if _, err := b.EnsureUserInRoom(ctx, roomID, user.UserID); err != nil {
			b.logger.Error("failed to invite community member",
				"user_id", user.UserID, "room_id", roomID, "error", err)
		}
	}
	return nil
}
