// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/CoronaWhy/skill-picard/lib/ref"
)

// Groups (communities) API. These endpoints predate Matrix spaces and
// some homeservers no longer serve them; callers probe with
// GetGroupProfile and treat IsUnrecognized as "no groups support".

// GroupProfile describes a community's public profile.
type GroupProfile struct {
	Name             string `json:"name,omitempty"`
	AvatarURL        string `json:"avatar_url,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
	LongDescription  string `json:"long_description,omitempty"`
}

// CreateGroupRequest is the body for group creation.
type CreateGroupRequest struct {
	Localpart string       `json:"localpart"`
	Profile   GroupProfile `json:"profile"`
}

// GroupUser is one entry in a group's user list.
type GroupUser struct {
	UserID       ref.UserID `json:"user_id"`
	IsPrivileged bool       `json:"is_privileged"`
}

// GetGroupProfile fetches a group's profile. A homeserver without
// groups support returns an error satisfying IsUnrecognized; a group
// that does not exist returns one satisfying IsNotFound.
func (s *Session) GetGroupProfile(ctx context.Context, groupID ref.GroupID) (GroupProfile, error) {
	path := fmt.Sprintf("/_matrix/client/r0/groups/%s/profile", url.PathEscape(groupID.String()))
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return GroupProfile{}, fmt.Errorf("messaging: get group profile %s failed: %w", groupID, err)
	}

	var profile GroupProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return GroupProfile{}, fmt.Errorf("messaging: failed to parse group profile: %w", err)
	}
	return profile, nil
}

// CreateGroup creates a community. The session becomes its admin.
func (s *Session) CreateGroup(ctx context.Context, request CreateGroupRequest) (ref.GroupID, error) {
	body, err := s.client.doRequest(ctx, http.MethodPost, "/_matrix/client/r0/create_group", s.accessToken, request)
	if err != nil {
		return ref.GroupID{}, fmt.Errorf("messaging: create group %q failed: %w", request.Localpart, err)
	}

	var response struct {
		GroupID ref.GroupID `json:"group_id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.GroupID{}, fmt.Errorf("messaging: failed to parse create_group response: %w", err)
	}

	s.client.logger.Info("created matrix community", "group_id", response.GroupID)
	return response.GroupID, nil
}

// GroupUsers returns the members of a group, with their privilege flag.
func (s *Session) GroupUsers(ctx context.Context, groupID ref.GroupID) ([]GroupUser, error) {
	path := fmt.Sprintf("/_matrix/client/r0/groups/%s/users", url.PathEscape(groupID.String()))
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get group users %s failed: %w", groupID, err)
	}

	var response struct {
		Chunk []GroupUser `json:"chunk"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse group users response: %w", err)
	}
	return response.Chunk, nil
}

// GroupRooms returns the IDs of the rooms attached to a group.
func (s *Session) GroupRooms(ctx context.Context, groupID ref.GroupID) ([]ref.RoomID, error) {
	path := fmt.Sprintf("/_matrix/client/r0/groups/%s/rooms", url.PathEscape(groupID.String()))
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get group rooms %s failed: %w", groupID, err)
	}

	var response struct {
		Chunk []struct {
			RoomID ref.RoomID `json:"room_id"`
		} `json:"chunk"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse group rooms response: %w", err)
	}

	roomIDs := make([]ref.RoomID, 0, len(response.Chunk))
	for _, room := range response.Chunk {
		roomIDs = append(roomIDs, room.RoomID)
	}
	return roomIDs, nil
}

// AddRoomToGroup attaches a room to a group. Adding a room that is
// already attached succeeds.
func (s *Session) AddRoomToGroup(ctx context.Context, groupID ref.GroupID, roomID ref.RoomID) error {
	path := fmt.Sprintf("/_matrix/client/r0/groups/%s/admin/rooms/%s",
		url.PathEscape(groupID.String()),
		url.PathEscape(roomID.String()),
	)
	_, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, struct{}{})
	if err != nil {
		return fmt.Errorf("messaging: add room %q to group %q failed: %w", roomID, groupID, err)
	}
	return nil
}

// SetGroupJoinPolicy sets who may join the group. policy is "open" or
// "invite".
func (s *Session) SetGroupJoinPolicy(ctx context.Context, groupID ref.GroupID, policy string) error {
	path := fmt.Sprintf("/_matrix/client/r0/groups/%s/settings/m.join_policy", url.PathEscape(groupID.String()))
	request := struct {
		JoinPolicy struct {
			Type string `json:"type"`
		} `json:"m.join_policy"`
	}{}
	request.JoinPolicy.Type = policy

	_, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, request)
	if err != nil {
		return fmt.Errorf("messaging: set join policy for group %q failed: %w", groupID, err)
	}
	return nil
}

// InviteUserToGroup invites a user to a community.
func (s *Session) InviteUserToGroup(ctx context.Context, groupID ref.GroupID, userID ref.UserID) error {
	path := fmt.Sprintf("/_matrix/client/r0/groups/%s/admin/users/invite/%s",
		url.PathEscape(groupID.String()),
		url.PathEscape(userID.String()),
	)
	_, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, struct{}{})
	if err != nil {
		return fmt.Errorf("messaging: invite %q to group %q failed: %w", userID, groupID, err)
	}
	return nil
}
