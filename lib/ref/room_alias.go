// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// RoomAlias is a validated Matrix room alias (e.g., "#br-general:example.org").
//
// Room aliases are human-readable names that resolve to opaque RoomIDs.
// They always start with '#' and contain a ':' separating the localpart
// from the server name. Picard derives aliases deterministically from
// the configured alias prefix, a Slack channel name, and the homeserver
// name; aliases arriving from Matrix API responses are parsed at the
// boundary.
//
// The localpart and server are split once at construction, so accessors
// never re-parse. RoomAlias is an immutable value type; the zero value
// is not valid, use IsZero to check.
type RoomAlias struct {
	localpart string
	server    string
}

// ParseRoomAlias validates and wraps a raw Matrix room alias string.
// Returns an error if the string is empty, doesn't start with '#',
// or is missing the ':server' suffix.
func ParseRoomAlias(raw string) (RoomAlias, error) {
	localpart, server, err := parseRoomAlias(raw)
	if err != nil {
		return RoomAlias{}, err
	}
	return RoomAlias{localpart: localpart, server: server}, nil
}

// MustParseRoomAlias is like ParseRoomAlias but panics on error. Use in
// tests and static initialization where the input is known-valid.
func MustParseRoomAlias(raw string) RoomAlias {
	a, err := ParseRoomAlias(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseRoomAlias(%q): %v", raw, err))
	}
	return a
}

// NewRoomAlias constructs a RoomAlias from a localpart and server.
// The localpart must not include the '#' sigil.
func NewRoomAlias(localpart string, server ServerName) (RoomAlias, error) {
	return ParseRoomAlias("#" + localpart + ":" + server.String())
}

// String returns the full room alias string (e.g.,
// "#br-general:example.org"), or "" for the zero value.
func (a RoomAlias) String() string {
	if a.localpart == "" {
		return ""
	}
	return "#" + a.localpart + ":" + a.server
}

// IsZero reports whether the RoomAlias is the zero value (uninitialized).
func (a RoomAlias) IsZero() bool { return a.localpart == "" }

// Localpart returns the alias localpart without the '#' prefix or
// ':server' suffix. This is the form the Matrix createRoom endpoint
// expects in its room_alias_name field.
func (a RoomAlias) Localpart() string { return a.localpart }

// Server returns the server name from the alias.
func (a RoomAlias) Server() string { return a.server }

// MarshalText implements encoding.TextMarshaler for JSON and other
// text-based serialization formats.
func (a RoomAlias) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for JSON and other
// text-based serialization formats. Validates the room alias format.
// An empty input produces the zero value (unset room alias).
func (a *RoomAlias) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = RoomAlias{}
		return nil
	}
	parsed, err := ParseRoomAlias(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
