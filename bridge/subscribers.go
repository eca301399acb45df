// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/CoronaWhy/skill-picard/lib/memstore"
	"github.com/CoronaWhy/skill-picard/lib/ref"
)

const subscribersKey = "autoinvite_users"

// Subscribers manages the list of users who opted in (!autoinvite) to
// be invited to every newly mirrored room.
type Subscribers struct {
	store Store
}

// NewSubscribers creates a subscriber list over the given store.
func NewSubscribers(store Store) *Subscribers {
	return &Subscribers{store: store}
}

// List returns all subscribed users. An empty list when nobody has
// subscribed.
func (s *Subscribers) List(ctx context.Context) ([]ref.UserID, error) {
	var users []ref.UserID
	err := s.store.Get(ctx, subscribersKey, &users)
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bridge: reading subscribers: %w", err)
	}
	return users, nil
}

// Add subscribes a user. Returns false when the user was already
// subscribed (nothing written).
func (s *Subscribers) Add(ctx context.Context, userID ref.UserID) (bool, error) {
	users, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	if slices.Contains(users, userID) {
		return false, nil
	}

	users = append(users, userID)
	if err := s.store.Put(ctx, subscribersKey, users); err != nil {
		return false, fmt.Errorf("bridge: writing subscribers: %w", err)
	}
	return true, nil
}

// Remove unsubscribes a user. Returns false when the user was not
// subscribed (nothing written).
func (s *Subscribers) Remove(ctx context.Context, userID ref.UserID) (bool, error) {
	users, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	index := slices.Index(users, userID)
	if index < 0 {
		return false, nil
	}

	users = slices.Delete(users, index, index+1)
	if err := s.store.Put(ctx, subscribersKey, users); err != nil {
		return false, fmt.Errorf("bridge: writing subscribers: %w", err)
	}
	return true, nil
}
