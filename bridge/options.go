// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/CoronaWhy/skill-picard/lib/memstore"
	"github.com/CoronaWhy/skill-picard/lib/ref"
)

// SkipFlags a room operator may set with !skip/!unskip. Each one
// suppresses the corresponding decoration step during provisioning.
var skipFlags = map[string]bool{
	"name":        true,
	"description": true,
	"avatar":      true,
}

// RoomOptions holds per-room operator overrides. The map keys are
// "skip_room_<flag>" entries; unknown keys written by other versions
// are carried through untouched.
type RoomOptions map[string]bool

// SkipName reports whether room-name updates are suppressed.
func (o RoomOptions) SkipName() bool { return o["skip_room_name"] }

// SkipDescription reports whether topic updates are suppressed.
func (o RoomOptions) SkipDescription() bool { return o["skip_room_description"] }

// SkipAvatar reports whether avatar updates are suppressed.
func (o RoomOptions) SkipAvatar() bool { return o["skip_room_avatar"] }

// OptionsStore reads and writes per-room options.
type OptionsStore struct {
	store Store
}

// NewOptionsStore creates an options store over the given store.
func NewOptionsStore(store Store) *OptionsStore {
	return &OptionsStore{store: store}
}

func optionsKey(roomID ref.RoomID) string {
	return "picard.options/" + roomID.String()
}

// Get returns the options for a room, or an empty set when none have
// been stored.
func (s *OptionsStore) Get(ctx context.Context, roomID ref.RoomID) (RoomOptions, error) {
	options := RoomOptions{}
	err := s.store.Get(ctx, optionsKey(roomID), &options)
	if errors.Is(err, memstore.ErrNotFound) {
		return RoomOptions{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bridge: reading options for %q: %w", roomID, err)
	}
	return options, nil
}

// SetSkip sets or clears a skip flag for a room. flag must be one of
// "name", "description", or "avatar"; anything else is rejected before
// the stored options are touched.
func (s *OptionsStore) SetSkip(ctx context.Context, roomID ref.RoomID, flag string, skip bool) error {
	if !skipFlags[flag] {
		return fmt.Errorf("bridge: unknown skip flag %q (must be name, description, or avatar)", flag)
	}

	options, err := s.Get(ctx, roomID)
	if err != nil {
		return err
	}
	options["skip_room_"+flag] = skip

	if err := s.store.Put(ctx, optionsKey(roomID), options); err != nil {
		return fmt.Errorf("bridge: writing options for %q: %w", roomID, err)
	}
	return nil
}
