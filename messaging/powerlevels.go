// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/CoronaWhy/skill-picard/lib/ref"
)

// PowerLevels is a room's m.room.power_levels document. The top level
// is kept as raw JSON so that keys this code never touches (ban, kick,
// redact, events, events_default, ...) survive a read-modify-write
// cycle byte-for-byte. Only the "users" and "notifications" sections
// are decoded, and only when mutated.
//
// The document is written back in a single state event — callers batch
// their mutations and issue one SetPowerLevels call.
type PowerLevels map[string]json.RawMessage

// Users returns the decoded users section (userID → level). A missing
// section decodes as an empty map.
func (p PowerLevels) Users() (map[string]int, error) {
	return p.intSection("users")
}

// SetUsers replaces the users section.
func (p PowerLevels) SetUsers(users map[string]int) error {
	return p.setIntSection("users", users)
}

// UserLevel returns the power level of userID and whether an explicit
// entry exists.
func (p PowerLevels) UserLevel(userID ref.UserID) (int, bool, error) {
	users, err := p.Users()
	if err != nil {
		return 0, false, err
	}
	level, ok := users[userID.String()]
	return level, ok, nil
}

// SetUserLevel sets userID's power level, re-encoding only the users
// section.
func (p PowerLevels) SetUserLevel(userID ref.UserID, level int) error {
	users, err := p.Users()
	if err != nil {
		return err
	}
	users[userID.String()] = level
	return p.SetUsers(users)
}

// Notifications returns the decoded notifications section
// (event type → required level). A missing section decodes as an
// empty map.
func (p PowerLevels) Notifications() (map[string]int, error) {
	return p.intSection("notifications")
}

// SetNotificationLevel sets the required level for one notification
// type (e.g., "room" for @room mentions), preserving all other
// notification entries.
func (p PowerLevels) SetNotificationLevel(notificationType string, level int) error {
	notifications, err := p.Notifications()
	if err != nil {
		return err
	}
	notifications[notificationType] = level
	return p.setIntSection("notifications", notifications)
}

// Clone returns a deep copy. Merge operations work on a copy so that a
// failed write never leaves the caller holding a half-mutated document.
func (p PowerLevels) Clone() PowerLevels {
	cloned := make(PowerLevels, len(p))
	for key, value := range p {
		raw := make(json.RawMessage, len(value))
		copy(raw, value)
		cloned[key] = raw
	}
	return cloned
}

func (p PowerLevels) intSection(key string) (map[string]int, error) {
	raw, ok := p[key]
	if !ok {
		return map[string]int{}, nil
	}
	var section map[string]int
	if err := json.Unmarshal(raw, &section); err != nil {
		return nil, fmt.Errorf("messaging: decoding power-level %s section: %w", key, err)
	}
	if section == nil {
		section = map[string]int{}
	}
	return section, nil
}

func (p PowerLevels) setIntSection(key string, section map[string]int) error {
	encoded, err := json.Marshal(section)
	if err != nil {
		return fmt.Errorf("messaging: encoding power-level %s section: %w", key, err)
	}
	p[key] = encoded
	return nil
}
