// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"github.com/CoronaWhy/skill-picard/lib/ref"
)

// Channel describes a Slack conversation as returned by
// conversations.list and conversations.create.
type Channel struct {
	ID         ref.ChannelID `json:"id"`
	Name       string        `json:"name"`
	IsArchived bool          `json:"is_archived"`
	IsPrivate  bool          `json:"is_private"`
	Topic      ChannelTopic  `json:"topic"`
	Purpose    ChannelTopic  `json:"purpose"`
}

// ChannelTopic is the topic or purpose block of a channel. Slack wraps
// the text with the setter and timestamp.
type ChannelTopic struct {
	Value   string `json:"value"`
	Creator string `json:"creator"`
	LastSet int64  `json:"last_set"`
}

// User describes a Slack workspace member from users.list.
type User struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Deleted  bool        `json:"deleted"`
	IsBot    bool        `json:"is_bot"`
	Profile  UserProfile `json:"profile"`
	RealName string      `json:"real_name"`
}

// UserProfile is the profile block of a workspace member.
type UserProfile struct {
	DisplayName string `json:"display_name"`
	RealName    string `json:"real_name"`
	Email       string `json:"email"`
}

// envelope is the common Slack response wrapper. Every payload embeds
// it; ok=false responses carry the error code.
type envelope struct {
	OK               bool              `json:"ok"`
	ErrorCode        string            `json:"error"`
	ResponseMetadata *responseMetadata `json:"response_metadata,omitempty"`
}

type responseMetadata struct {
	NextCursor string `json:"next_cursor"`
}

// envelopeRef lets response structs that embed envelope satisfy the
// call helper's constraint.
func (e *envelope) envelopeRef() *envelope { return e }
