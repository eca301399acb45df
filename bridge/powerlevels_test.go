// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/CoronaWhy/skill-picard/lib/ref"
	"github.com/CoronaWhy/skill-picard/messaging"
)

func levelsFromJSON(t *testing.T, raw string) messaging.PowerLevels {
	t.Helper()
	var levels messaging.PowerLevels
	if err := json.Unmarshal([]byte(raw), &levels); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return levels
}

func TestApplyAdminGrants(t *testing.T) {
	alice := ref.MustParseUserID("@alice:example.org")
	bob := ref.MustParseUserID("@bob:example.org")

	t.Run("grants and reports change", func(t *testing.T) {
		levels := levelsFromJSON(t, `{"users": {"@bob:example.org": 100}}`)
		changed, err := ApplyAdminGrants(levels, []ref.UserID{alice, bob})
		if err != nil {
			t.Fatalf("ApplyAdminGrants failed: %v", err)
		}
		if !changed {
			t.Error("new grant not reported as change")
		}

		users, err := levels.Users()
		if err != nil {
			t.Fatalf("Users failed: %v", err)
		}
		if users["@alice:example.org"] != 100 || users["@bob:example.org"] != 100 {
			t.Errorf("users = %v", users)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		levels := levelsFromJSON(t, `{"users": {}}`)
		if _, err := ApplyAdminGrants(levels, []ref.UserID{alice}); err != nil {
			t.Fatalf("ApplyAdminGrants failed: %v", err)
		}
		once, err := json.Marshal(levels)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		changed, err := ApplyAdminGrants(levels, []ref.UserID{alice})
		if err != nil {
			t.Fatalf("ApplyAdminGrants failed: %v", err)
		}
		if changed {
			t.Error("repeated grant reported as change")
		}
		twice, err := json.Marshal(levels)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(once) != string(twice) {
			t.Errorf("document changed on second application: %s vs %s", once, twice)
		}
	})

	t.Run("unrelated keys untouched", func(t *testing.T) {
		levels := levelsFromJSON(t, `{"ban": 50, "custom": {"deep": [1, 2]}, "users": {}}`)
		if _, err := ApplyAdminGrants(levels, []ref.UserID{alice}); err != nil {
			t.Fatalf("ApplyAdminGrants failed: %v", err)
		}
		if err := ApplyNotificationFloor(levels); err != nil {
			t.Fatalf("ApplyNotificationFloor failed: %v", err)
		}

		if string(levels["ban"]) != "50" {
			t.Errorf("ban = %s", levels["ban"])
		}
		if string(levels["custom"]) != `{"deep": [1, 2]}` {
			t.Errorf("custom = %s", levels["custom"])
		}
	})
}

func TestApplyNotificationFloor(t *testing.T) {
	levels := levelsFromJSON(t, `{"notifications": {"room": 50, "other": 25}}`)
	if err := ApplyNotificationFloor(levels); err != nil {
		t.Fatalf("ApplyNotificationFloor failed: %v", err)
	}

	notifications, err := levels.Notifications()
	if err != nil {
		t.Fatalf("Notifications failed: %v", err)
	}
	if notifications["room"] != 0 {
		t.Errorf("room = %d, want 0", notifications["room"])
	}
	if notifications["other"] != 25 {
		t.Errorf("other notification entry changed: %d", notifications["other"])
	}
}

func TestConfigurePowerLevels(t *testing.T) {
	ctx := context.Background()
	alice := ref.MustParseUserID("@alice:example.org")

	t.Run("nothing configured, nothing written", func(t *testing.T) {
		federation := newFakeFederation()
		roomID, _ := federation.CreateRoom(ctx, messaging.CreateRoomRequest{})
		delete(federation.powerLevels, roomID)
		b := testBridge(t, federation, newFakeWorkspace(), newMemStore(), nil)

		// With the levels deleted from the fake, any read would fail;
		// no error means no read happened either.
		if err := b.configurePowerLevels(ctx, roomID); err != nil {
			t.Fatalf("configurePowerLevels failed: %v", err)
		}
	})

	t.Run("grants and floor in one write", func(t *testing.T) {
		federation := newFakeFederation()
		roomID, _ := federation.CreateRoom(ctx, messaging.CreateRoomRequest{})
		federation.powerLevels[roomID] = levelsFromJSON(t, `{"users": {}, "kick": 50}`)
		b := testBridge(t, federation, newFakeWorkspace(), newMemStore(), func(c *Config) {
			c.UsersAsAdmin = []ref.UserID{alice}
			c.RoomPL0 = true
		})

		if err := b.configurePowerLevels(ctx, roomID); err != nil {
			t.Fatalf("configurePowerLevels failed: %v", err)
		}

		levels := federation.powerLevels[roomID]
		users, err := levels.Users()
		if err != nil {
			t.Fatalf("Users failed: %v", err)
		}
		if users["@alice:example.org"] != 100 {
			t.Error("admin grant missing")
		}
		notifications, err := levels.Notifications()
		if err != nil {
			t.Fatalf("Notifications failed: %v", err)
		}
		if notifications["room"] != 0 {
			t.Error("notification floor missing")
		}
		if string(levels["kick"]) != "50" {
			t.Error("unrelated key lost")
		}
		if !federation.isMember(roomID, alice) {
			t.Error("admin not invited")
		}
	})

	t.Run("forbidden admin invite still writes grants", func(t *testing.T) {
		federation := newFakeFederation()
		roomID, _ := federation.CreateRoom(ctx, messaging.CreateRoomRequest{})
		federation.inviteHook = func(_ ref.RoomID, userID ref.UserID) error {
			if userID == alice {
				return &messaging.MatrixError{
					Code: messaging.ErrCodeForbidden, Message: "denied", StatusCode: http.StatusForbidden,
				}
			}
			return nil
		}
		b := testBridge(t, federation, newFakeWorkspace(), newMemStore(), func(c *Config) {
			c.UsersAsAdmin = []ref.UserID{alice}
		})

		if err := b.configurePowerLevels(ctx, roomID); err != nil {
			t.Fatalf("configurePowerLevels failed: %v", err)
		}

		users, err := federation.powerLevels[roomID].Users()
		if err != nil {
			t.Fatalf("Users failed: %v", err)
		}
		if users["@alice:example.org"] != 100 {
			t.Error("admin grant missing after failed invite")
		}
		if federation.isMember(roomID, alice) {
			t.Error("admin unexpectedly joined")
		}
	})
}
