// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"strings"
	"testing"

	"github.com/CoronaWhy/skill-picard/lib/ref"
	"github.com/CoronaWhy/skill-picard/messaging"
	"github.com/CoronaWhy/skill-picard/workspace"
)

func matrixCommand(verb string, args ...string) Command {
	return Command{
		Verb:         verb,
		Args:         args,
		Origin:       OriginMatrix,
		MatrixSender: ref.MustParseUserID("@alice:example.org"),
		Room:         ref.MustParseRoomID("!chat:example.org"),
	}
}

// replies returns the messages the bridge sent to the command's room.
func replies(federation *fakeFederation, cmd Command) []string {
	federation.mu.Lock()
	defer federation.mu.Unlock()
	return federation.messages[cmd.Room]
}

func TestHandleCommandGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown verb ignored", func(t *testing.T) {
		federation := newFakeFederation()
		b := testBridge(t, federation, newFakeWorkspace(), newMemStore(), nil)
		cmd := matrixCommand("dance")
		if err := b.HandleCommand(ctx, cmd); err != nil {
			t.Fatalf("HandleCommand failed: %v", err)
		}
		if len(replies(federation, cmd)) != 0 {
			t.Errorf("unknown verb produced replies: %q", replies(federation, cmd))
		}
	})

	t.Run("admin command rejected for non-admin", func(t *testing.T) {
		federation := newFakeFederation()
		b := testBridge(t, federation, newFakeWorkspace(), newMemStore(), func(c *Config) {
			c.UsersAsAdmin = []ref.UserID{ref.MustParseUserID("@boss:example.org")}
		})
		cmd := matrixCommand("skip", "avatar")
		if err := b.HandleCommand(ctx, cmd); err != nil {
			t.Fatalf("HandleCommand failed: %v", err)
		}
		got := replies(federation, cmd)
		if len(got) != 1 || got[0] != "You are not authorised to perform this action." {
			t.Errorf("replies = %q", got)
		}
	})

	t.Run("matrix-only command rejected from slack", func(t *testing.T) {
		federation := newFakeFederation()
		ws := newFakeWorkspace()
		b := testBridge(t, federation, ws, newMemStore(), nil)
		cmd := Command{Verb: "autoinvite", Origin: OriginSlack, SlackSender: "U007"}
		if err := b.HandleCommand(ctx, cmd); err != nil {
			t.Fatalf("HandleCommand failed: %v", err)
		}
		dms := ws.dms["U007"]
		if len(dms) != 1 || !strings.Contains(dms[0], "only available on the Matrix side") {
			t.Errorf("slack replies = %q", dms)
		}
	})

	t.Run("appservice echo silently dropped", func(t *testing.T) {
		federation := newFakeFederation()
		b := testBridge(t, federation, newFakeWorkspace(), newMemStore(), nil)
		cmd := matrixCommand("help")
		cmd.MatrixSender = ref.MustParseUserID("@appservice:example.org")
		if err := b.HandleCommand(ctx, cmd); err != nil {
			t.Fatalf("HandleCommand failed: %v", err)
		}
		if len(replies(federation, cmd)) != 0 {
			t.Errorf("appservice echo produced replies: %q", replies(federation, cmd))
		}
	})
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text     string
		wantVerb string
		wantArgs []string
		wantOK   bool
	}{
		{"!help", "help", nil, true},
		{"!createroom physics Study group", "createroom", []string{"physics", "Study", "group"}, true},
		{"  !AutoInvite   disable ", "autoinvite", []string{"disable"}, true},
		{"hello there", "", nil, false},
		{"", "", nil, false},
		{"!", "", nil, false},
		{"bang! in the middle", "", nil, false},
	}
	for _, test := range tests {
		verb, args, ok := ParseCommand(test.text)
		if ok != test.wantOK || verb != test.wantVerb {
			t.Errorf("ParseCommand(%q) = %q, %v; want %q, %v", test.text, verb, ok, test.wantVerb, test.wantOK)
			continue
		}
		if len(args) != len(test.wantArgs) {
			t.Errorf("ParseCommand(%q) args = %q, want %q", test.text, args, test.wantArgs)
			continue
		}
		for i := range args {
			if args[i] != test.wantArgs[i] {
				t.Errorf("ParseCommand(%q) args = %q, want %q", test.text, args, test.wantArgs)
				break
			}
		}
	}
}

func TestHandleMatrixMessage(t *testing.T) {
	ctx := context.Background()
	alice := ref.MustParseUserID("@alice:example.org")
	room := ref.MustParseRoomID("!chat:example.org")

	t.Run("dispatches commands from room messages", func(t *testing.T) {
		federation := newFakeFederation()
		b := testBridge(t, federation, newFakeWorkspace(), newMemStore(), nil)

		if err := b.HandleMatrixMessage(ctx, room, alice, "!autoinvite"); err != nil {
			t.Fatalf("HandleMatrixMessage failed: %v", err)
		}

		federation.mu.Lock()
		got := federation.messages[room]
		federation.mu.Unlock()
		if len(got) != 1 || !strings.Contains(got[0], "invited to all future rooms") {
			t.Errorf("replies = %q", got)
		}
	})

	t.Run("ordinary chat ignored", func(t *testing.T) {
		federation := newFakeFederation()
		b := testBridge(t, federation, newFakeWorkspace(), newMemStore(), nil)

		if err := b.HandleMatrixMessage(ctx, room, alice, "help me find the meeting notes"); err != nil {
			t.Fatalf("HandleMatrixMessage failed: %v", err)
		}

		federation.mu.Lock()
		got := federation.messages[room]
		federation.mu.Unlock()
		if len(got) != 0 {
			t.Errorf("chat produced replies: %q", got)
		}
	})

	t.Run("own messages ignored", func(t *testing.T) {
		federation := newFakeFederation()
		b := testBridge(t, federation, newFakeWorkspace(), newMemStore(), nil)

		// The bot's own replies echo back through /sync; dispatching
		// them would loop.
		if err := b.HandleMatrixMessage(ctx, room, federation.UserID(), "!help"); err != nil {
			t.Fatalf("HandleMatrixMessage failed: %v", err)
		}

		federation.mu.Lock()
		got := federation.messages[room]
		federation.mu.Unlock()
		if len(got) != 0 {
			t.Errorf("own message produced replies: %q", got)
		}
	})
}

func TestHelpCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("matrix help lists matrix-only commands", func(t *testing.T) {
		federation := newFakeFederation()
		b := testBridge(t, federation, newFakeWorkspace(), newMemStore(), func(c *Config) {
			c.HelpText = "Questions? Ask in #help."
		})
		cmd := matrixCommand("help")
		if err := b.HandleCommand(ctx, cmd); err != nil {
			t.Fatalf("HandleCommand failed: %v", err)
		}
		got := replies(federation, cmd)
		if len(got) != 1 {
			t.Fatalf("replies = %q", got)
		}
		for _, want := range []string{"!createroom", "!inviteall", "!autoinvite", "Questions? Ask in #help."} {
			if !strings.Contains(got[0], want) {
				t.Errorf("help missing %q", want)
			}
		}
	})

	t.Run("slack help omits matrix-only commands", func(t *testing.T) {
		ws := newFakeWorkspace()
		b := testBridge(t, newFakeFederation(), ws, newMemStore(), nil)
		cmd := Command{Verb: "help", Origin: OriginSlack, SlackSender: "U007"}
		if err := b.HandleCommand(ctx, cmd); err != nil {
			t.Fatalf("HandleCommand failed: %v", err)
		}
		dms := ws.dms["U007"]
		if len(dms) != 1 {
			t.Fatalf("slack replies = %q", dms)
		}
		if strings.Contains(dms[0], "!inviteall") {
			t.Error("slack help lists matrix-only commands")
		}
	})
}

func TestSkipCommand(t *testing.T) {
	ctx := context.Background()
	admin := ref.MustParseUserID("@boss:example.org")
	asAdmin := func(c *Config) { c.UsersAsAdmin = []ref.UserID{admin} }

	t.Run("sets and clears a flag", func(t *testing.T) {
		federation := newFakeFederation()
		b := testBridge(t, federation, newFakeWorkspace(), newMemStore(), asAdmin)
		cmd := matrixCommand("skip", "avatar")
		cmd.MatrixSender = admin
		if err := b.HandleCommand(ctx, cmd); err != nil {
			t.Fatalf("HandleCommand failed: %v", err)
		}
		options, err := b.Options().Get(ctx, cmd.Room)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !options.SkipAvatar() {
			t.Error("skip flag not set")
		}

		cmd = matrixCommand("unskip", "avatar")
		cmd.MatrixSender = admin
		if err := b.HandleCommand(ctx, cmd); err != nil {
			t.Fatalf("HandleCommand failed: %v", err)
		}
		options, err = b.Options().Get(ctx, cmd.Room)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if options.SkipAvatar() {
			t.Error("skip flag not cleared")
		}
	})

	t.Run("rejects unknown flag", func(t *testing.T) {
		federation := newFakeFederation()
		b := testBridge(t, federation, newFakeWorkspace(), newMemStore(), asAdmin)
		cmd := matrixCommand("skip", "widescreen")
		cmd.MatrixSender = admin
		if err := b.HandleCommand(ctx, cmd); err != nil {
			t.Fatalf("HandleCommand failed: %v", err)
		}
		got := replies(federation, cmd)
		if len(got) != 1 || !strings.Contains(got[0], "must be one of name, description, or avatar") {
			t.Errorf("replies = %q", got)
		}
	})
}

func TestAutoInviteCommand(t *testing.T) {
	ctx := context.Background()
	federation := newFakeFederation()
	b := testBridge(t, federation, newFakeWorkspace(), newMemStore(), nil)

	steps := []struct {
		args []string
		want string
	}{
		{nil, "You will be invited to all future rooms."},
		{nil, "You already have autoinvite enabled."},
		{[]string{"disable"}, "Autoinvite disabled."},
		{[]string{"disable"}, "You do not have autoinvite enabled."},
	}
	for i, step := range steps {
		cmd := matrixCommand("autoinvite", step.args...)
		if err := b.HandleCommand(ctx, cmd); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		got := replies(federation, cmd)
		if len(got) != i+1 || !strings.Contains(got[i], step.want) {
			t.Fatalf("step %d replies = %q, want %q", i, got, step.want)
		}
	}
}

func TestInviteAllCommand(t *testing.T) {
	ctx := context.Background()
	groups := newFakeGroups()
	communityID := ref.MustParseGroupID("+team:example.org")
	b := testBridge(t, groups, newFakeWorkspace(), newMemStore(), func(c *Config) {
		c.CommunityID = communityID
	})

	roomA, err := groups.CreateRoom(ctx, messaging.CreateRoomRequest{Alias: "room-a"})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	roomB, err := groups.CreateRoom(ctx, messaging.CreateRoomRequest{Alias: "room-b"})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	groups.rooms[communityID] = []ref.RoomID{roomA, roomB}
	groups.users[communityID] = []messaging.GroupUser{{UserID: groups.userID, IsPrivileged: true}}

	cmd := matrixCommand("inviteall")
	if err := b.HandleCommand(ctx, cmd); err != nil {
		t.Fatalf("HandleCommand failed: %v", err)
	}
	for _, roomID := range []ref.RoomID{roomA, roomB} {
		if !groups.isMember(roomID, cmd.MatrixSender) {
			t.Errorf("sender not invited to %s", roomID)
		}
	}
}

func TestWelcomeAllCommand(t *testing.T) {
	ctx := context.Background()
	ws := newFakeWorkspace()
	ws.users = []workspace.User{
		{ID: "U001", Name: "alice"},
		{ID: "U002", Name: "ghost", Deleted: true},
		{ID: "U003", Name: "robot", IsBot: true},
		{ID: "U004", Name: "bob"},
	}
	admin := ref.MustParseUserID("@boss:example.org")
	b := testBridge(t, newFakeFederation(), ws, newMemStore(), func(c *Config) {
		c.UsersAsAdmin = []ref.UserID{admin}
	})

	cmd := matrixCommand("welcomeall")
	cmd.MatrixSender = admin
	if err := b.HandleCommand(ctx, cmd); err != nil {
		t.Fatalf("HandleCommand failed: %v", err)
	}

	for _, userID := range []string{"U001", "U004"} {
		if len(ws.dms[userID]) != 1 {
			t.Errorf("user %s received %d welcome messages, want 1", userID, len(ws.dms[userID]))
		}
	}
	for _, userID := range []string{"U002", "U003"} {
		if len(ws.dms[userID]) != 0 {
			t.Errorf("user %s should not receive a welcome message", userID)
		}
	}
}
