// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"testing"

	"github.com/CoronaWhy/skill-picard/lib/ref"
)

func TestLedger(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMemStore())

	t.Run("empty ledger", func(t *testing.T) {
		seen, err := ledger.Seen(ctx)
		if err != nil {
			t.Fatalf("Seen failed: %v", err)
		}
		if len(seen) != 0 {
			t.Errorf("len(seen) = %d, want 0", len(seen))
		}
	})

	t.Run("commit merges batches", func(t *testing.T) {
		err := ledger.Commit(ctx, map[ref.ChannelID]ChannelRecord{
			ref.MustParseChannelID("C001"): {Name: "general", Alias: "#br-general:example.org"},
		})
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		err = ledger.Commit(ctx, map[ref.ChannelID]ChannelRecord{
			ref.MustParseChannelID("C002"): {Name: "random", Alias: "#br-random:example.org"},
		})
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}

		seen, err := ledger.Seen(ctx)
		if err != nil {
			t.Fatalf("Seen failed: %v", err)
		}
		if len(seen) != 2 {
			t.Fatalf("len(seen) = %d, want 2", len(seen))
		}
		if seen["C001"].Alias != "#br-general:example.org" {
			t.Errorf("C001 alias = %q", seen["C001"].Alias)
		}
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		if err := ledger.Commit(ctx, nil); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
	})
}

func TestOptionsStore(t *testing.T) {
	ctx := context.Background()
	options := NewOptionsStore(newMemStore())
	roomID := ref.MustParseRoomID("!abc:example.org")

	t.Run("absent room has empty options", func(t *testing.T) {
		got, err := options.Get(ctx, roomID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.SkipName() || got.SkipDescription() || got.SkipAvatar() {
			t.Error("fresh options should skip nothing")
		}
	})

	t.Run("set and clear", func(t *testing.T) {
		if err := options.SetSkip(ctx, roomID, "avatar", true); err != nil {
			t.Fatalf("SetSkip failed: %v", err)
		}
		got, err := options.Get(ctx, roomID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !got.SkipAvatar() {
			t.Error("avatar skip not persisted")
		}
		if got.SkipName() {
			t.Error("unrelated flag set")
		}

		if err := options.SetSkip(ctx, roomID, "avatar", false); err != nil {
			t.Fatalf("SetSkip failed: %v", err)
		}
		got, err = options.Get(ctx, roomID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.SkipAvatar() {
			t.Error("avatar skip not cleared")
		}
	})

	t.Run("invalid flag rejected before write", func(t *testing.T) {
		other := ref.MustParseRoomID("!other:example.org")
		if err := options.SetSkip(ctx, other, "topic", true); err == nil {
			t.Fatal("expected error for unknown flag")
		}
		got, err := options.Get(ctx, other)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(got) != 0 {
			t.Error("rejected flag still wrote options")
		}
	})

	t.Run("options are per room", func(t *testing.T) {
		other := ref.MustParseRoomID("!second:example.org")
		if err := options.SetSkip(ctx, other, "name", true); err != nil {
			t.Fatalf("SetSkip failed: %v", err)
		}
		got, err := options.Get(ctx, roomID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.SkipName() {
			t.Error("flag leaked across rooms")
		}
	})
}

func TestSubscribers(t *testing.T) {
	ctx := context.Background()
	subscribers := NewSubscribers(newMemStore())
	alice := ref.MustParseUserID("@alice:example.org")
	bob := ref.MustParseUserID("@bob:example.org")

	added, err := subscribers.Add(ctx, alice)
	if err != nil || !added {
		t.Fatalf("Add = %v, %v; want true, nil", added, err)
	}

	added, err = subscribers.Add(ctx, alice)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if added {
		t.Error("second Add of same user reported added")
	}

	if _, err := subscribers.Add(ctx, bob); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	users, err := subscribers.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}

	removed, err := subscribers.Remove(ctx, alice)
	if err != nil || !removed {
		t.Fatalf("Remove = %v, %v; want true, nil", removed, err)
	}
	removed, err = subscribers.Remove(ctx, alice)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed {
		t.Error("second Remove reported removed")
	}

	users, err = subscribers.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 1 || users[0] != bob {
		t.Errorf("users = %v, want [bob]", users)
	}
}
