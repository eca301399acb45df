// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// ChannelID is a validated Slack channel ID (e.g., "C024BE91L").
//
// Slack channel IDs are opaque workspace-assigned identifiers: an
// uppercase type prefix ('C' for public channels, 'G' for private
// groups) followed by alphanumerics. They come from the Slack Web API
// (conversations.list, conversations.create) and are parsed into this
// type at the boundary.
//
// ChannelID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type ChannelID struct {
	id string
}

// ParseChannelID validates and wraps a raw Slack channel ID string.
// Returns an error if the string is empty, doesn't start with 'C' or
// 'G', or contains characters outside A-Z and 0-9.
func ParseChannelID(raw string) (ChannelID, error) {
	if raw == "" {
		return ChannelID{}, fmt.Errorf("empty channel ID")
	}
	if raw[0] != 'C' && raw[0] != 'G' {
		return ChannelID{}, fmt.Errorf("channel ID must start with 'C' or 'G': %q", raw)
	}
	for i := 1; i < len(raw); i++ {
		c := raw[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return ChannelID{}, fmt.Errorf("channel ID %q: invalid character at position %d", raw, i)
		}
	}
	return ChannelID{id: raw}, nil
}

// MustParseChannelID is like ParseChannelID but panics on error. Use in
// tests where the input is known-valid.
func MustParseChannelID(raw string) ChannelID {
	c, err := ParseChannelID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseChannelID(%q): %v", raw, err))
	}
	return c
}

// String returns the channel ID string (e.g., "C024BE91L").
func (c ChannelID) String() string { return c.id }

// IsZero reports whether the ChannelID is the zero value (uninitialized).
func (c ChannelID) IsZero() bool { return c.id == "" }

// MarshalText implements encoding.TextMarshaler for JSON and other
// text-based serialization formats.
func (c ChannelID) MarshalText() ([]byte, error) {
	if c.id == "" {
		return []byte{}, nil
	}
	return []byte(c.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for JSON and other
// text-based serialization formats. Validates the channel ID format.
// An empty input produces the zero value (unset channel ID).
func (c *ChannelID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*c = ChannelID{}
		return nil
	}
	parsed, err := ParseChannelID(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
