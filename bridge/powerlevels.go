// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"

	"github.com/CoronaWhy/skill-picard/lib/ref"
	"github.com/CoronaWhy/skill-picard/messaging"
)

// ApplyAdminGrants sets each admin's level to 100 in the document,
// touching only users not already at 100. Returns whether anything
// changed. The rest of the document is untouched.
func ApplyAdminGrants(levels messaging.PowerLevels, admins []ref.UserID) (bool, error) {
	changed := false
	for _, admin := range admins {
		level, present, err := levels.UserLevel(admin)
		if err != nil {
			return false, fmt.Errorf("bridge: reading user level for %q: %w", admin, err)
		}
		if present && level == 100 {
			continue
		}
		if err := levels.SetUserLevel(admin, 100); err != nil {
			return false, fmt.Errorf("bridge: granting admin to %q: %w", admin, err)
		}
		changed = true
	}
	return changed, nil
}

// ApplyNotificationFloor drops the level required to send @room
// notifications to 0, leaving other notification entries alone.
func ApplyNotificationFloor(levels messaging.PowerLevels) error {
	if err := levels.SetNotificationLevel("room", 0); err != nil {
		return fmt.Errorf("bridge: setting notification floor: %w", err)
	}
	return nil
}

// configurePowerLevels reconciles a room's power levels with the
// configured admin grants and notification floor. Admin users are also
// invited so the grant refers to a member. All changes land in one
// state event; when neither grants nor the floor are configured no
// read or write happens at all.
func (b *Bridge) configurePowerLevels(ctx context.Context, roomID ref.RoomID) error {
	if len(b.cfg.UsersAsAdmin) == 0 && !b.cfg.RoomPL0 {
		return nil
	}

	levels, err := b.federation.GetPowerLevels(ctx, roomID)
	if err != nil {
		return fmt.Errorf("bridge: reading power levels of %q: %w", roomID, err)
	}

	// An admin the bot cannot invite (left the server, invite
	// forbidden) must not wedge the whole channel: the grant is still
	// written and takes effect once the user joins.
	for _, admin := range b.cfg.UsersAsAdmin {
		if _, err := b.EnsureUserInRoom(ctx, roomID, admin); err != nil {
			b.logger.Warn("failed to invite admin user",
				"user_id", admin, "room_id", roomID, "error", err)
		}
	}
	if _, err := ApplyAdminGrants(levels, b.cfg.UsersAsAdmin); err != nil {
		return err
	}
	if b.cfg.RoomPL0 {
		if err := ApplyNotificationFloor(levels); err != nil {
			return err
		}
	}

	if err := b.federation.SetPowerLevels(ctx, roomID, levels); err != nil {
		return fmt.Errorf("bridge: writing power levels of %q: %w", roomID, err)
	}
	return nil
}
