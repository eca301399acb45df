// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/CoronaWhy/skill-picard/lib/memstore"
	"github.com/CoronaWhy/skill-picard/lib/ref"
	"github.com/CoronaWhy/skill-picard/messaging"
	"github.com/CoronaWhy/skill-picard/workspace"
)

// memStore is an in-memory Store with memstore semantics.
type memStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{docs: map[string][]byte{}}
}

func (s *memStore) Get(_ context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, present := s.docs[key]
	if !present {
		return memstore.ErrNotFound
	}
	return json.Unmarshal(data, value)
}

func (s *memStore) Put(_ context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.docs[key] = data
	return nil
}

func notFoundError() error {
	return &messaging.MatrixError{Code: messaging.ErrCodeNotFound, StatusCode: http.StatusNotFound}
}

func alreadyInRoomError(userID ref.UserID) error {
	return &messaging.MatrixError{
		Code:       messaging.ErrCodeForbidden,
		Message:    fmt.Sprintf("%s is already in the room.", userID),
		StatusCode: http.StatusForbidden,
	}
}

// fakeFederation is an in-memory Matrix homeserver good enough for the
// bridge: rooms keyed by alias, membership, state events, power
// levels, and sent messages. Hooks let tests inject failures or delay
// specific calls.
type fakeFederation struct {
	mu          sync.Mutex
	userID      ref.UserID
	nextRoom    int
	aliases     map[string]ref.RoomID
	joined      map[ref.RoomID]bool
	members     map[ref.RoomID]map[string]bool
	state       map[ref.RoomID]map[string]json.RawMessage
	powerLevels map[ref.RoomID]messaging.PowerLevels
	messages    map[ref.RoomID][]string
	media       [][]byte

	createRoomErr error
	resolveMisses int
	inviteHook    func(roomID ref.RoomID, userID ref.UserID) error
	sendHook      func(roomID ref.RoomID, text string) error
}

func newFakeFederation() *fakeFederation {
	return &fakeFederation{
		userID:      ref.MustParseUserID("@picard:example.org"),
		aliases:     map[string]ref.RoomID{},
		joined:      map[ref.RoomID]bool{},
		members:     map[ref.RoomID]map[string]bool{},
		state:       map[ref.RoomID]map[string]json.RawMessage{},
		powerLevels: map[ref.RoomID]messaging.PowerLevels{},
		messages:    map[ref.RoomID][]string{},
	}
}

func (f *fakeFederation) UserID() ref.UserID { return f.userID }

func (f *fakeFederation) ResolveAlias(_ context.Context, alias ref.RoomAlias) (ref.RoomID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolveMisses > 0 {
		f.resolveMisses--
		return ref.RoomID{}, notFoundError()
	}
	roomID, present := f.aliases[alias.String()]
	if !present {
		return ref.RoomID{}, notFoundError()
	}
	return roomID, nil
}

func (f *fakeFederation) CreateRoom(_ context.Context, request messaging.CreateRoomRequest) (ref.RoomID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createRoomErr != nil {
		return ref.RoomID{}, f.createRoomErr
	}
	f.nextRoom++
	roomID := ref.MustParseRoomID(fmt.Sprintf("!room%d:example.org", f.nextRoom))
	if request.Alias != "" {
		f.aliases["#"+request.Alias+":example.org"] = roomID
	}
	f.members[roomID] = map[string]bool{}
	f.state[roomID] = map[string]json.RawMessage{}
	f.powerLevels[roomID] = messaging.PowerLevels{}
	return roomID, nil
}

func (f *fakeFederation) JoinRoom(_ context.Context, roomID ref.RoomID) (ref.RoomID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined[roomID] = true
	return roomID, nil
}

func (f *fakeFederation) JoinedRooms(context.Context) ([]ref.RoomID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rooms []ref.RoomID
	for roomID := range f.joined {
		rooms = append(rooms, roomID)
	}
	return rooms, nil
}

func (f *fakeFederation) InviteUser(_ context.Context, roomID ref.RoomID, userID ref.UserID) error {
	if f.inviteHook != nil {
		if err := f.inviteHook(roomID, userID); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	members, present := f.members[roomID]
	if !present {
		return notFoundError()
	}
	if members[userID.String()] {
		return alreadyInRoomError(userID)
	}
	members[userID.String()] = true
	return nil
}

func (f *fakeFederation) SendMessage(_ context.Context, roomID ref.RoomID, content messaging.MessageContent) (string, error) {
	if f.sendHook != nil {
		if err := f.sendHook(roomID, content.Body); err != nil {
			return "", err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[roomID] = append(f.messages[roomID], content.Body)
	return "$event:example.org", nil
}

func stateKey(eventType ref.EventType, key string) string {
	return eventType.String() + "\x00" + key
}

func (f *fakeFederation) SendStateEvent(_ context.Context, roomID ref.RoomID, eventType ref.EventType, key string, content any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.Marshal(content)
	if err != nil {
		return "", err
	}
	if f.state[roomID] == nil {
		f.state[roomID] = map[string]json.RawMessage{}
	}
	f.state[roomID][stateKey(eventType, key)] = data
	return "$event:example.org", nil
}

func (f *fakeFederation) GetStateEvent(_ context.Context, roomID ref.RoomID, eventType ref.EventType, key string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, present := f.state[roomID][stateKey(eventType, key)]
	if !present {
		return nil, notFoundError()
	}
	return content, nil
}

func (f *fakeFederation) GetRoomState(_ context.Context, roomID ref.RoomID) ([]messaging.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []messaging.Event
	for member := range f.members[roomID] {
		key := member
		events = append(events, messaging.Event{
			Type:     messaging.EventTypeMember,
			StateKey: &key,
		})
	}
	return events, nil
}

func (f *fakeFederation) SetRoomName(ctx context.Context, roomID ref.RoomID, name string) error {
	_, err := f.SendStateEvent(ctx, roomID, messaging.EventTypeRoomName, "", messaging.RoomNameContent{Name: name})
	return err
}

func (f *fakeFederation) SetRoomTopic(ctx context.Context, roomID ref.RoomID, topic string) error {
	_, err := f.SendStateEvent(ctx, roomID, messaging.EventTypeRoomTopic, "", messaging.RoomTopicContent{Topic: topic})
	return err
}

func (f *fakeFederation) SetRoomAvatar(ctx context.Context, roomID ref.RoomID, avatarURI string) error {
	_, err := f.SendStateEvent(ctx, roomID, messaging.EventTypeRoomAvatar, "", messaging.RoomAvatarContent{URL: avatarURI})
	return err
}

func (f *fakeFederation) GetPowerLevels(_ context.Context, roomID ref.RoomID) (messaging.PowerLevels, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	levels, present := f.powerLevels[roomID]
	if !present {
		return nil, notFoundError()
	}
	return levels.Clone(), nil
}

func (f *fakeFederation) SetPowerLevels(_ context.Context, roomID ref.RoomID, levels messaging.PowerLevels) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.powerLevels[roomID] = levels.Clone()
	return nil
}

func (f *fakeFederation) UploadMedia(_ context.Context, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.media = append(f.media, data)
	return fmt.Sprintf("mxc://example.org/media%d", len(f.media)), nil
}

// roomState reads a stored state event back for assertions.
func (f *fakeFederation) roomState(roomID ref.RoomID, eventType ref.EventType) json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state[roomID][stateKey(eventType, "")]
}

func (f *fakeFederation) isMember(roomID ref.RoomID, userID ref.UserID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[roomID][userID.String()]
}

// fakeGroups adds the optional groups capability on top of
// fakeFederation.
type fakeGroups struct {
	*fakeFederation
	groupsMu   sync.Mutex
	profiles   map[ref.GroupID]messaging.GroupProfile
	users      map[ref.GroupID][]messaging.GroupUser
	rooms      map[ref.GroupID][]ref.RoomID
	joinPolicy map[ref.GroupID]string
}

func newFakeGroups() *fakeGroups {
	return &fakeGroups{
		fakeFederation: newFakeFederation(),
		profiles:       map[ref.GroupID]messaging.GroupProfile{},
		users:          map[ref.GroupID][]messaging.GroupUser{},
		rooms:          map[ref.GroupID][]ref.RoomID{},
		joinPolicy:     map[ref.GroupID]string{},
	}
}

func (f *fakeGroups) GetGroupProfile(_ context.Context, groupID ref.GroupID) (messaging.GroupProfile, error) {
	f.groupsMu.Lock()
	defer f.groupsMu.Unlock()
	profile, present := f.profiles[groupID]
	if !present {
		return messaging.GroupProfile{}, notFoundError()
	}
	return profile, nil
}

func (f *fakeGroups) CreateGroup(_ context.Context, request messaging.CreateGroupRequest) (ref.GroupID, error) {
	f.groupsMu.Lock()
	defer f.groupsMu.Unlock()
	groupID := ref.MustParseGroupID("+" + request.Localpart + ":example.org")
	f.profiles[groupID] = request.Profile
	f.users[groupID] = []messaging.GroupUser{{UserID: f.userID, IsPrivileged: true}}
	return groupID, nil
}

func (f *fakeGroups) GroupUsers(_ context.Context, groupID ref.GroupID) ([]messaging.GroupUser, error) {
	f.groupsMu.Lock()
	defer f.groupsMu.Unlock()
	return f.users[groupID], nil
}

func (f *fakeGroups) GroupRooms(_ context.Context, groupID ref.GroupID) ([]ref.RoomID, error) {
	f.groupsMu.Lock()
	defer f.groupsMu.Unlock()
	return f.rooms[groupID], nil
}

func (f *fakeGroups) AddRoomToGroup(_ context.Context, groupID ref.GroupID, roomID ref.RoomID) error {
	f.groupsMu.Lock()
	defer f.groupsMu.Unlock()
	f.rooms[groupID] = append(f.rooms[groupID], roomID)
	return nil
}

func (f *fakeGroups) SetGroupJoinPolicy(_ context.Context, groupID ref.GroupID, policy string) error {
	f.groupsMu.Lock()
	defer f.groupsMu.Unlock()
	f.joinPolicy[groupID] = policy
	return nil
}


// fakeWorkspace is an in-memory Slack workspace.
type fakeWorkspace struct {
	mu       sync.Mutex
	channels []workspace.Channel
	members  map[string][]string
	users    []workspace.User
	topics   map[string]string
	dms      map[string][]string
	nextID   int

	createHook func(name string) error
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{
		members: map[string][]string{},
		topics:  map[string]string{},
		dms:     map[string][]string{},
	}
}

func (f *fakeWorkspace) addChannel(id, name string, archived bool, topic string) {
	f.channels = append(f.channels, workspace.Channel{
		ID:         ref.MustParseChannelID(id),
		Name:       name,
		IsArchived: archived,
		Topic:      workspace.ChannelTopic{Value: topic},
	})
}

func (f *fakeWorkspace) ListChannels(context.Context) ([]workspace.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]workspace.Channel(nil), f.channels...), nil
}

func (f *fakeWorkspace) CreateChannel(_ context.Context, name string) (workspace.Channel, error) {
	if f.createHook != nil {
		if err := f.createHook(name); err != nil {
			return workspace.Channel{}, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	channel := workspace.Channel{
		ID:   ref.MustParseChannelID(fmt.Sprintf("C%03d", f.nextID)),
		Name: name,
	}
	f.channels = append(f.channels, channel)
	return channel, nil
}

func (f *fakeWorkspace) InviteUserToChannel(_ context.Context, channelID ref.ChannelID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, member := range f.members[channelID.String()] {
		if member == userID {
			return fmt.Errorf("workspace: conversations.invite: %w",
				&workspace.SlackError{Code: workspace.ErrCodeAlreadyInChannel, Method: "conversations.invite"})
		}
	}
	f.members[channelID.String()] = append(f.members[channelID.String()], userID)
	return nil
}

func (f *fakeWorkspace) ChannelMembers(_ context.Context, channelID ref.ChannelID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[channelID.String()], nil
}

func (f *fakeWorkspace) SetChannelTopic(_ context.Context, channelID ref.ChannelID, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics[channelID.String()] = topic
	return nil
}

func (f *fakeWorkspace) ResolveUserID(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Name == name {
			return user.ID, nil
		}
	}
	return "", fmt.Errorf("workspace: resolve user %q: %w", name,
		&workspace.SlackError{Code: workspace.ErrCodeUserNotFound, Method: "users.list"})
}

func (f *fakeWorkspace) ListUsers(context.Context) ([]workspace.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]workspace.User(nil), f.users...), nil
}

func (f *fakeWorkspace) SendDirectMessage(_ context.Context, userID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms[userID] = append(f.dms[userID], text)
	return nil
}
