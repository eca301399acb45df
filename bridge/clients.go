// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"encoding/json"

	"github.com/CoronaWhy/skill-picard/lib/ref"
	"github.com/CoronaWhy/skill-picard/messaging"
	"github.com/CoronaWhy/skill-picard/workspace"
)

// FederationClient is the Matrix capability surface the bridge uses.
// *messaging.Session satisfies it.
type FederationClient interface {
	UserID() ref.UserID
	ResolveAlias(ctx context.Context, alias ref.RoomAlias) (ref.RoomID, error)
	CreateRoom(ctx context.Context, request messaging.CreateRoomRequest) (ref.RoomID, error)
	JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error)
	JoinedRooms(ctx context.Context) ([]ref.RoomID, error)
	InviteUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error
	SendMessage(ctx context.Context, roomID ref.RoomID, content messaging.MessageContent) (string, error)
	SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string, content any) (string, error)
	GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error)
	GetRoomState(ctx context.Context, roomID ref.RoomID) ([]messaging.Event, error)
	SetRoomName(ctx context.Context, roomID ref.RoomID, name string) error
	SetRoomTopic(ctx context.Context, roomID ref.RoomID, topic string) error
	SetRoomAvatar(ctx context.Context, roomID ref.RoomID, avatarURI string) error
	GetPowerLevels(ctx context.Context, roomID ref.RoomID) (messaging.PowerLevels, error)
	SetPowerLevels(ctx context.Context, roomID ref.RoomID, levels messaging.PowerLevels) error
	UploadMedia(ctx context.Context, data []byte, contentType string) (string, error)
}

// GroupAPI is the optional groups (community) capability. Homeserver
// support is not universal, so the bridge probes for it with a type
// assertion on its FederationClient handle; absence means community
// integration is silently skipped.
type GroupAPI interface {
	GetGroupProfile(ctx context.Context, groupID ref.GroupID) (messaging.GroupProfile, error)
	CreateGroup(ctx context.Context, request messaging.CreateGroupRequest) (ref.GroupID, error)
	GroupUsers(ctx context.Context, groupID ref.GroupID) ([]messaging.GroupUser, error)
	GroupRooms(ctx context.Context, groupID ref.GroupID) ([]ref.RoomID, error)
	AddRoomToGroup(ctx context.Context, groupID ref.GroupID, roomID ref.RoomID) error
	SetGroupJoinPolicy(ctx context.Context, groupID ref.GroupID, policy string) error
}

// WorkspaceClient is the Slack capability surface the bridge uses.
// *workspace.Client satisfies it.
type WorkspaceClient interface {
	ListChannels(ctx context.Context) ([]workspace.Channel, error)
	CreateChannel(ctx context.Context, name string) (workspace.Channel, error)
	InviteUserToChannel(ctx context.Context, channelID ref.ChannelID, userID string) error
	ChannelMembers(ctx context.Context, channelID ref.ChannelID) ([]string, error)
	SetChannelTopic(ctx context.Context, channelID ref.ChannelID, topic string) error
	ResolveUserID(ctx context.Context, name string) (string, error)
	ListUsers(ctx context.Context) ([]workspace.User, error)
	SendDirectMessage(ctx context.Context, userID, text string) error
}

// Store is the get/put persistence collaborator backing the ledger,
// room options, and auto-invite subscribers. *memstore.Store satisfies
// it; Get returns memstore.ErrNotFound for absent keys.
type Store interface {
	Get(ctx context.Context, key string, value any) error
	Put(ctx context.Context, key string, value any) error
}

// groupAPI returns the federation client's groups capability, or nil
// when the client (or homeserver) does not support groups.
func groupAPI(client FederationClient) GroupAPI {
	api, ok := client.(GroupAPI)
	if !ok {
		return nil
	}
	return api
}
