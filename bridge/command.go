// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/CoronaWhy/skill-picard/lib/ref"
)

// Command is a user command already parsed by the chat frontend: the
// verb without its "!" prefix plus the remaining words.
type Command struct {
	// Verb is the command name: "help", "createroom", "mirror",
	// "skip", "unskip", "inviteall", "autoinvite", "welcomeall".
	Verb string

	// Args are the words after the verb.
	Args []string

	// Origin is the platform the command came from.
	Origin Origin

	// MatrixSender is the invoking user for Matrix-origin commands.
	MatrixSender ref.UserID

	// SlackSender is the invoking Slack user ID for Slack-origin
	// commands.
	SlackSender string

	// Room is the Matrix room the command was issued in. Zero for
	// Slack-origin commands.
	Room ref.RoomID
}

// Guard decides whether a command may run. A rejecting guard returns
// allowed=false and optionally a message for the user; an empty
// message silently drops the command (used for the appservice filter,
// which would otherwise loop on its own relayed messages).
type Guard func(b *Bridge, cmd Command) (message string, allowed bool)

// matrixOnly restricts a command to the Matrix side.
func matrixOnly(_ *Bridge, cmd Command) (string, bool) {
	if cmd.Origin != OriginMatrix {
		return "This command is only available on the Matrix side.", false
	}
	return "", true
}

// ignoreAppservice silently drops commands echoed by the bridging
// service's own identity.
func ignoreAppservice(b *Bridge, cmd Command) (string, bool) {
	if cmd.Origin == OriginMatrix && cmd.MatrixSender == b.cfg.AppserviceUserID {
		return "", false
	}
	return "", true
}

// adminOnly restricts a command to the configured admin users.
func adminOnly(b *Bridge, cmd Command) (string, bool) {
	if cmd.Origin == OriginMatrix && slices.Contains(b.cfg.UsersAsAdmin, cmd.MatrixSender) {
		return "", true
	}
	return "You are not authorised to perform this action.", false
}

// handler pairs a command verb with its guards and implementation.
// Guards run in order; the first rejection stops dispatch.
type handler struct {
	guards []Guard
	run    func(b *Bridge, ctx context.Context, cmd Command) error
}

var handlers = map[string]handler{
	"help":       {guards: []Guard{ignoreAppservice}, run: (*Bridge).onHelp},
	"createroom": {guards: []Guard{ignoreAppservice}, run: (*Bridge).onCreateRoom},
	"mirror":     {guards: []Guard{ignoreAppservice}, run: (*Bridge).onMirror},
	"skip":       {guards: []Guard{matrixOnly, ignoreAppservice, adminOnly}, run: (*Bridge).onSkip},
	"unskip":     {guards: []Guard{matrixOnly, ignoreAppservice, adminOnly}, run: (*Bridge).onUnskip},
	"inviteall":  {guards: []Guard{matrixOnly, ignoreAppservice}, run: (*Bridge).onInviteAll},
	"autoinvite": {guards: []Guard{matrixOnly, ignoreAppservice}, run: (*Bridge).onAutoInvite},
	"welcomeall": {guards: []Guard{ignoreAppservice, adminOnly}, run: (*Bridge).onWelcomeAll},
}

// ParseCommand extracts a "!verb arg..." command from message text.
// Returns ok=false for ordinary chat.
func ParseCommand(text string) (verb string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields[0]) < 2 || !strings.HasPrefix(fields[0], "!") {
		return "", nil, false
	}
	return strings.ToLower(strings.TrimPrefix(fields[0], "!")), fields[1:], true
}

// HandleMatrixMessage feeds a room message through command dispatch.
// Ordinary chat and the bot's own messages are dropped here; messages
// relayed by the appservice identity fall through to the guard chain.
func (b *Bridge) HandleMatrixMessage(ctx context.Context, roomID ref.RoomID, sender ref.UserID, text string) error {
	if sender == b.federation.UserID() {
		return nil
	}
	verb, args, ok := ParseCommand(text)
	if !ok {
		return nil
	}
	return b.HandleCommand(ctx, Command{
		Verb:         verb,
		Args:         args,
		Origin:       OriginMatrix,
		MatrixSender: sender,
		Room:         roomID,
	})
}

// HandleCommand dispatches a parsed command through its guard chain.
// Unknown verbs are ignored so ordinary chat does not produce errors.
func (b *Bridge) HandleCommand(ctx context.Context, cmd Command) error {
	h, known := handlers[cmd.Verb]
	if !known {
		return nil
	}

	for _, guard := range h.guards {
		message, allowed := guard(b, cmd)
		if allowed {
			continue
		}
		if message != "" {
			b.respond(ctx, cmd, message)
		}
		return nil
	}
	return h.run(b, ctx, cmd)
}

// respond sends a reply to the command's sender on the platform the
// command came from.
func (b *Bridge) respond(ctx context.Context, cmd Command, text string) {
	switch cmd.Origin {
	case OriginMatrix:
		b.report(ctx, cmd.Room, text)
	case OriginSlack:
		if err := b.workspace.SendDirectMessage(ctx, cmd.SlackSender, text); err != nil {
			b.logger.Error("failed to reply on slack",
				"user_id", cmd.SlackSender, "error", err)
		}
	}
}

func (b *Bridge) onHelp(ctx context.Context, cmd Command) error {
	var text strings.Builder
	text.WriteString("Here are the commands you can use in the chat.\n\n")
	text.WriteString("* `!help`: show this help message\n")
	text.WriteString("* `!createroom (name) [topic]`: make a new room on both Matrix and Slack. " +
		"The room is added to the community and bridged automatically.\n")

	if cmd.Origin == OriginMatrix {
		text.WriteString("\nThese additional commands are only available here on the Matrix side:\n\n")
		text.WriteString("* `!inviteall`: make the bot invite you to all rooms currently in the community\n")
		text.WriteString("* `!autoinvite` / `!autoinvite disable`: switch on/off automatic invitations to new rooms\n")
	}

	text.WriteString("\nPlease run these commands in a direct chat with the bot to avoid spamming other users.\n")
	if b.cfg.HelpText != "" {
		text.WriteString("\n")
		text.WriteString(b.cfg.HelpText)
	}

	b.respond(ctx, cmd, text.String())
	return nil
}

func (b *Bridge) onCreateRoom(ctx context.Context, cmd Command) error {
	if len(cmd.Args) == 0 {
		b.respond(ctx, cmd, "Usage: !createroom (name of new room) [topic of new room]")
		return nil
	}

	_, err := b.CreateLinkedRoom(ctx, CreateRoomCommand{
		Name:         cmd.Args[0],
		Topic:        strings.Join(cmd.Args[1:], " "),
		Origin:       cmd.Origin,
		MatrixSender: cmd.MatrixSender,
		SlackSender:  cmd.SlackSender,
		ReplyTo:      cmd.Room,
	})
	if err != nil {
		return err
	}

	if cmd.Origin == OriginSlack {
		b.respond(ctx, cmd, "New room created, you should have been invited to it.")
	}
	return nil
}

func (b *Bridge) onMirror(ctx context.Context, cmd Command) error {
	return b.RunSweep(ctx, func(text string) { b.respond(ctx, cmd, text) })
}

func (b *Bridge) onSkip(ctx context.Context, cmd Command) error {
	return b.setSkipFromCommand(ctx, cmd, true)
}

func (b *Bridge) onUnskip(ctx context.Context, cmd Command) error {
	return b.setSkipFromCommand(ctx, cmd, false)
}

func (b *Bridge) setSkipFromCommand(ctx context.Context, cmd Command, skip bool) error {
	if len(cmd.Args) != 1 {
		b.respond(ctx, cmd, "Usage: !skip (name|description|avatar)")
		return nil
	}
	flag := cmd.Args[0]

	if err := b.options.SetSkip(ctx, cmd.Room, flag, skip); err != nil {
		if !skipFlags[flag] {
			b.respond(ctx, cmd, fmt.Sprintf(
				"The skip argument must be one of name, description, or avatar, not %q.", flag))
			return nil
		}
		return err
	}
	b.respond(ctx, cmd, "Your room settings have been updated.")
	return nil
}

func (b *Bridge) onInviteAll(ctx context.Context, cmd Command) error {
	communityID, err := b.EnsureCommunityAdmin(ctx)
	if err != nil {
		return err
	}
	if communityID.IsZero() {
		b.respond(ctx, cmd, "No community is configured.")
		return nil
	}

	b.respond(ctx, cmd, "Inviting you to all rooms...")
	rooms, err := b.groups.GroupRooms(ctx, communityID)
	if err != nil {
		return fmt.Errorf("bridge: listing community rooms: %w", err)
	}
	for _, roomID := range rooms {
		if _, err := b.EnsureUserInRoom(ctx, roomID, cmd.MatrixSender); err != nil {
			b.logger.Error("failed to invite user to community room",
				"user_id", cmd.MatrixSender, "room_id", roomID, "error", err)
		}
	}
	return nil
}

func (b *Bridge) onAutoInvite(ctx context.Context, cmd Command) error {
	if len(cmd.Args) > 0 && cmd.Args[0] == "disable" {
		removed, err := b.subscribers.Remove(ctx, cmd.MatrixSender)
		if err != nil {
			return err
		}
		if !removed {
			b.respond(ctx, cmd, "You do not have autoinvite enabled.")
			return nil
		}
		b.respond(ctx, cmd, "Autoinvite disabled.")
		return nil
	}

	added, err := b.subscribers.Add(ctx, cmd.MatrixSender)
	if err != nil {
		return err
	}
	if !added {
		b.respond(ctx, cmd, "You already have autoinvite enabled.")
		return nil
	}
	b.respond(ctx, cmd, "You will be invited to all future rooms. "+
		"Use !inviteall to get invites to existing rooms.")
	return nil
}

func (b *Bridge) onWelcomeAll(ctx context.Context, cmd Command) error {
	b.respond(ctx, cmd, "Sending out welcome messages.")

	users, err := b.workspace.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("bridge: listing workspace users: %w", err)
	}
	welcome := "Welcome! This workspace is bridged to Matrix. Type !help to see what I can do."
	for _, user := range users {
		if user.Deleted || user.IsBot {
			continue
		}
		if err := b.workspace.SendDirectMessage(ctx, user.ID, welcome); err != nil {
			b.logger.Error("failed to send welcome message",
				"user_id", user.ID, "error", err)
		}
	}
	return nil
}
