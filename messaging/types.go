// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/CoronaWhy/skill-picard/lib/ref"
)

// CreateRoomRequest holds parameters for creating a Matrix room.
type CreateRoomRequest struct {
	Name         string       `json:"name,omitempty"`
	Topic        string       `json:"topic,omitempty"`
	Alias        string       `json:"room_alias_name,omitempty"` // local alias without # or :server
	Visibility   string       `json:"visibility,omitempty"`      // "public" or "private"
	Preset       string       `json:"preset,omitempty"`          // "private_chat", "public_chat", "trusted_private_chat"
	Invite       []string     `json:"invite,omitempty"`
	InitialState []StateEvent `json:"initial_state,omitempty"`
}

// CreateRoomResponse is returned by CreateRoom.
type CreateRoomResponse struct {
	RoomID ref.RoomID `json:"room_id"`
}

// StateEvent represents a Matrix state event for room creation or
// state setting.
type StateEvent struct {
	Type     string `json:"type"`
	StateKey string `json:"state_key"`
	Content  any    `json:"content"`
}

// MessageContent is the content body of a Matrix message event
// (m.room.message).
type MessageContent struct {
	MsgType       string `json:"msgtype"`
	Body          string `json:"body"`
	Format        string `json:"format,omitempty"`
	FormattedBody string `json:"formatted_body,omitempty"`
}

// NewTextMessage creates a plain text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{
		MsgType: "m.text",
		Body:    body,
	}
}

// NewNoticeMessage creates an m.notice message. Bots use notices for
// status output so that other bots (and this one) do not treat the
// text as user input.
func NewNoticeMessage(body string) MessageContent {
	return MessageContent{
		MsgType: "m.notice",
		Body:    body,
	}
}

// NewHTMLMessage creates a message with an HTML formatted body and a
// plain-text fallback.
func NewHTMLMessage(plain, html string) MessageContent {
	return MessageContent{
		MsgType:       "m.text",
		Body:          plain,
		Format:        "org.matrix.custom.html",
		FormattedBody: html,
	}
}

// Event represents a Matrix event from the server.
type Event struct {
	EventID        string         `json:"event_id"`
	Type           ref.EventType  `json:"type"`
	Sender         ref.UserID     `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
	RoomID         ref.RoomID     `json:"room_id,omitempty"`
	StateKey       *string        `json:"state_key,omitempty"`
}

// InviteRequest holds the user ID to invite to a room.
type InviteRequest struct {
	UserID ref.UserID `json:"user_id"`
}

// SendEventResponse is returned by SendMessage, SendEvent, and
// SendStateEvent.
type SendEventResponse struct {
	EventID string `json:"event_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// ResolveAliasResponse is returned by ResolveAlias.
type ResolveAliasResponse struct {
	RoomID  ref.RoomID `json:"room_id"`
	Servers []string   `json:"servers"`
}

// UploadResponse is returned by UploadMedia.
type UploadResponse struct {
	ContentURI string `json:"content_uri"`
}

// JoinedRoomsResponse is returned by JoinedRooms.
type JoinedRoomsResponse struct {
	JoinedRooms []ref.RoomID `json:"joined_rooms"`
}

// SyncOptions controls a /sync call.
type SyncOptions struct {
	// Since is the next_batch token from the previous sync; empty for
	// an initial sync.
	Since string

	// Timeout is the server-side long-poll hold in milliseconds.
	Timeout int

	// SetTimeout sends the timeout parameter even when Timeout is 0,
	// which tells the server to return immediately instead of applying
	// its default hold.
	SetTimeout bool

	// Filter is an inline JSON filter restricting what the response
	// contains.
	Filter string
}

// SyncResponse is the top-level response from /sync. Picard only
// consumes joined-room timelines; the other sections are suppressed
// by the filter.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection groups per-room sync data by membership state. Map keys
// are room IDs, validated through ref.RoomID's TextUnmarshaler during
// decoding.
type RoomsSection struct {
	Join map[ref.RoomID]JoinedRoom `json:"join,omitempty"`
}

// JoinedRoom contains sync data for a room the session has joined.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
}

// TimelineSection contains timeline events from a sync response.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// ServerVersionsResponse is returned by Client.ServerVersions.
type ServerVersionsResponse struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}

// RelatedGroupsContent is the content of the m.room.related_groups
// state event.
type RelatedGroupsContent struct {
	Groups []string `json:"groups"`
}

// JoinRulesContent is the content of the m.room.join_rules state event.
type JoinRulesContent struct {
	JoinRule string `json:"join_rule"`
}

// HistoryVisibilityContent is the content of the
// m.room.history_visibility state event.
type HistoryVisibilityContent struct {
	HistoryVisibility string `json:"history_visibility"`
}

// RoomNameContent is the content of the m.room.name state event.
type RoomNameContent struct {
	Name string `json:"name"`
}

// RoomTopicContent is the content of the m.room.topic state event.
type RoomTopicContent struct {
	Topic string `json:"topic"`
}

// RoomAvatarContent is the content of the m.room.avatar state event.
type RoomAvatarContent struct {
	URL string `json:"url"`
}

// State event types picard reads and writes.
const (
	EventTypeRoomName          ref.EventType = "m.room.name"
	EventTypeRoomTopic         ref.EventType = "m.room.topic"
	EventTypeRoomAvatar        ref.EventType = "m.room.avatar"
	EventTypeJoinRules         ref.EventType = "m.room.join_rules"
	EventTypeHistoryVisibility ref.EventType = "m.room.history_visibility"
	EventTypePowerLevels       ref.EventType = "m.room.power_levels"
	EventTypeRelatedGroups     ref.EventType = "m.room.related_groups"
	EventTypeMember            ref.EventType = "m.room.member"
	EventTypeMessage           ref.EventType = "m.room.message"
)
