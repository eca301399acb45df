// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// GroupID is a validated Matrix group/community ID
// (e.g., "+openastronomy:example.org").
//
// Groups (communities) are an optional homeserver capability that links
// multiple rooms under shared administration. Group IDs start with '+'
// and contain a ':' separating the localpart from the server name.
// Deployments without the groups API never construct one.
//
// GroupID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type GroupID struct {
	id string
}

// ParseGroupID validates and wraps a raw Matrix group ID string.
// Returns an error if the string is empty, doesn't start with '+',
// has an empty localpart, or is missing the ':server' suffix.
func ParseGroupID(raw string) (GroupID, error) {
	_, _, err := parseGroupID(raw)
	if err != nil {
		return GroupID{}, err
	}
	return GroupID{id: raw}, nil
}

// MustParseGroupID is like ParseGroupID but panics on error. Use in
// tests where the input is known-valid.
func MustParseGroupID(raw string) GroupID {
	g, err := ParseGroupID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseGroupID(%q): %v", raw, err))
	}
	return g
}

// String returns the full group ID string (e.g., "+openastronomy:example.org").
func (g GroupID) String() string { return g.id }

// IsZero reports whether the GroupID is the zero value (uninitialized).
func (g GroupID) IsZero() bool { return g.id == "" }

// Localpart returns the localpart portion of the group ID (without the
// '+' prefix or ':server' suffix). This is the form the group creation
// endpoint expects.
func (g GroupID) Localpart() string {
	if g.id == "" {
		return ""
	}
	localpart, _, _ := parseGroupID(g.id)
	return localpart
}

// MarshalText implements encoding.TextMarshaler for JSON and other
// text-based serialization formats.
func (g GroupID) MarshalText() ([]byte, error) {
	if g.id == "" {
		return []byte{}, nil
	}
	return []byte(g.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for JSON and other
// text-based serialization formats. Validates the group ID format.
// An empty input produces the zero value (unset group ID).
func (g *GroupID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*g = GroupID{}
		return nil
	}
	parsed, err := ParseGroupID(string(data))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
