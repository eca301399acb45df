// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"testing"
)

func TestParseRoomID(t *testing.T) {
	valid := []string{
		"!abc123:example.org",
		"!x:matrix.example.com:8448",
	}
	for _, raw := range valid {
		roomID, err := ParseRoomID(raw)
		if err != nil {
			t.Errorf("ParseRoomID(%q) failed: %v", raw, err)
			continue
		}
		if roomID.String() != raw {
			t.Errorf("ParseRoomID(%q).String() = %q", raw, roomID.String())
		}
	}

	invalid := []string{
		"",
		"abc:example.org",
		"!abc",
		"!:example.org",
		"!abc:",
	}
	for _, raw := range invalid {
		if _, err := ParseRoomID(raw); err == nil {
			t.Errorf("ParseRoomID(%q) succeeded, want error", raw)
		}
	}
}

func TestRoomAliasParts(t *testing.T) {
	alias, err := ParseRoomAlias("#br-general:example.org")
	if err != nil {
		t.Fatalf("ParseRoomAlias failed: %v", err)
	}
	if alias.Localpart() != "br-general" {
		t.Errorf("Localpart() = %q, want %q", alias.Localpart(), "br-general")
	}
	if alias.Server() != "example.org" {
		t.Errorf("Server() = %q, want %q", alias.Server(), "example.org")
	}
}

func TestNewRoomAlias(t *testing.T) {
	server := MustParseServerName("example.org")
	alias, err := NewRoomAlias("br-general", server)
	if err != nil {
		t.Fatalf("NewRoomAlias failed: %v", err)
	}
	if alias.String() != "#br-general:example.org" {
		t.Errorf("alias = %q, want %q", alias.String(), "#br-general:example.org")
	}
}

func TestParseUserID(t *testing.T) {
	user, err := ParseUserID("@alice:example.org")
	if err != nil {
		t.Fatalf("ParseUserID failed: %v", err)
	}
	if user.Localpart() != "alice" {
		t.Errorf("Localpart() = %q, want %q", user.Localpart(), "alice")
	}
	if user.Server() != "example.org" {
		t.Errorf("Server() = %q, want %q", user.Server(), "example.org")
	}

	for _, raw := range []string{"", "alice", "@alice", "@:example.org"} {
		if _, err := ParseUserID(raw); err == nil {
			t.Errorf("ParseUserID(%q) succeeded, want error", raw)
		}
	}
}

func TestParseChannelID(t *testing.T) {
	for _, raw := range []string{"C024BE91L", "G1234ABCD"} {
		channel, err := ParseChannelID(raw)
		if err != nil {
			t.Errorf("ParseChannelID(%q) failed: %v", raw, err)
			continue
		}
		if channel.String() != raw {
			t.Errorf("ParseChannelID(%q).String() = %q", raw, channel.String())
		}
	}

	for _, raw := range []string{"", "X024BE91L", "C024be91l", "C 24"} {
		if _, err := ParseChannelID(raw); err == nil {
			t.Errorf("ParseChannelID(%q) succeeded, want error", raw)
		}
	}
}

func TestParseGroupID(t *testing.T) {
	group, err := ParseGroupID("+community:example.org")
	if err != nil {
		t.Fatalf("ParseGroupID failed: %v", err)
	}
	if group.Localpart() != "community" {
		t.Errorf("Localpart() = %q, want %q", group.Localpart(), "community")
	}

	for _, raw := range []string{"", "community:example.org", "+community"} {
		if _, err := ParseGroupID(raw); err == nil {
			t.Errorf("ParseGroupID(%q) succeeded, want error", raw)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type doc struct {
		Room    RoomID    `json:"room"`
		Alias   RoomAlias `json:"alias"`
		User    UserID    `json:"user"`
		Channel ChannelID `json:"channel"`
	}
	original := doc{
		Room:    MustParseRoomID("!abc:example.org"),
		Alias:   MustParseRoomAlias("#br-general:example.org"),
		User:    MustParseUserID("@alice:example.org"),
		Channel: MustParseChannelID("C024BE91L"),
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded doc
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMatrixUserID(t *testing.T) {
	server := MustParseServerName("example.org")
	user := MatrixUserID("picard", server)
	if user.String() != "@picard:example.org" {
		t.Errorf("MatrixUserID = %q, want %q", user.String(), "@picard:example.org")
	}
}
