// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/CoronaWhy/skill-picard/lib/clock"
	"github.com/CoronaWhy/skill-picard/lib/ref"
	"github.com/CoronaWhy/skill-picard/messaging"
)

// Config holds the dependencies and settings for a Bridge. Both
// platform clients are injected explicitly; nothing is discovered at
// runtime.
type Config struct {
	// Federation is the Matrix client handle. Required.
	Federation FederationClient

	// Workspace is the Slack client handle. Required.
	Workspace WorkspaceClient

	// Store persists the ledger, room options, and subscribers.
	// Required.
	Store Store

	// Clock drives the sweep timer. Defaults to the real clock.
	Clock clock.Clock

	// Logger for bridge activity. Defaults to slog.Default().
	Logger *slog.Logger

	// HTTPClient fetches HTTP-sourced avatar images. Defaults to a
	// client with a 30-second timeout.
	HTTPClient *http.Client

	// ServerName is the federation domain for derived aliases.
	ServerName ref.ServerName

	// AliasPrefix and NamePrefix decorate mirrored rooms:
	// #<AliasPrefix><channel>:<server>, name "<NamePrefix><channel>".
	AliasPrefix string
	NamePrefix  string

	// MakePublic sets join rule public and history visibility
	// world_readable on mirrored rooms.
	MakePublic bool

	// AvatarURL is applied to every mirrored room. mxc: URIs are used
	// directly; HTTP URLs are uploaded to the media repo first. Empty
	// disables avatars.
	AvatarURL string

	// UsersAsAdmin get power level 100 in every mirrored room and may
	// run admin-guarded commands.
	UsersAsAdmin []ref.UserID

	// RoomPL0 drops the power-level requirement for @room
	// notifications to 0.
	RoomPL0 bool

	// UsersToInvite are invited to every mirrored room.
	UsersToInvite []ref.UserID

	// CommunityID is the community to manage. Zero disables community
	// integration, as does a homeserver without the groups API.
	CommunityID ref.GroupID

	// RelatedGroups are unioned into each room's
	// m.room.related_groups state.
	RelatedGroups []string

	// InviteCommunityToRooms invites every community member to each
	// newly mirrored room they are not already in.
	InviteCommunityToRooms bool

	// MakeCommunityJoinable opens the community's join policy.
	MakeCommunityJoinable bool

	// BridgeBotName is the workspace-side bridge bot's handle; it is
	// invited to every newly discovered channel.
	BridgeBotName string

	// AppserviceUserID is the bridging service's Matrix identity. Its
	// membership is mandatory; a channel whose room it cannot join is
	// abandoned until the next sweep.
	AppserviceUserID ref.UserID

	// BridgeRoom receives appservice link commands.
	BridgeRoom ref.RoomID

	// CommandRoom receives sweep status messages for timer-triggered
	// sweeps.
	CommandRoom ref.RoomID

	// AnnouncementRoom receives the completion notice for rooms made
	// with !createroom. Zero disables announcements.
	AnnouncementRoom ref.RoomID

	// SlackBotToken and SlackUserToken are embedded in the link
	// command so the bridging service can authenticate to the
	// workspace.
	SlackBotToken  string
	SlackUserToken string

	// HelpText is appended to the !help output.
	HelpText string
}

// Bridge is the reconciliation engine. Safe for concurrent use: the
// sweep and on-demand commands may run at the same time, coordinated
// only by the creation lock.
type Bridge struct {
	federation  FederationClient
	groups      GroupAPI
	workspace   WorkspaceClient
	ledger      *Ledger
	options     *OptionsStore
	subscribers *Subscribers
	clock       clock.Clock
	logger      *slog.Logger
	httpClient  *http.Client
	cfg         Config

	// creationLock serializes the window between issuing a workspace
	// channel-create call and recording the cross-platform link, so
	// two concurrent creations (or a creation racing the sweep) cannot
	// link to the same new channel. It is not held across the rest of
	// provisioning.
	creationLock sync.Mutex
}

// New creates a Bridge.
func New(cfg Config) (*Bridge, error) {
	if cfg.Federation == nil {
		return nil, fmt.Errorf("bridge: federation client is required")
	}
	if cfg.Workspace == nil {
		return nil, fmt.Errorf("bridge: workspace client is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("bridge: store is required")
	}
	if cfg.ServerName.IsZero() {
		return nil, fmt.Errorf("bridge: server name is required")
	}
	if cfg.AliasPrefix == "" {
		return nil, fmt.Errorf("bridge: alias prefix is required")
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = cfg.AliasPrefix
	}

	return &Bridge{
		federation:  cfg.Federation,
		groups:      groupAPI(cfg.Federation),
		workspace:   cfg.Workspace,
		ledger:      NewLedger(cfg.Store),
		options:     NewOptionsStore(cfg.Store),
		subscribers: NewSubscribers(cfg.Store),
		clock:       cfg.Clock,
		logger:      cfg.Logger,
		httpClient:  cfg.HTTPClient,
		cfg:         cfg,
	}, nil
}

// Ledger returns the bridge's channel ledger.
func (b *Bridge) Ledger() *Ledger { return b.ledger }

// Options returns the bridge's per-room options store.
func (b *Bridge) Options() *OptionsStore { return b.options }

// Subscribers returns the bridge's auto-invite subscriber list.
func (b *Bridge) Subscribers() *Subscribers { return b.subscribers }

// report posts a human-readable status notice to a room. Reporting is
// best-effort: a failed notice is logged and never fails the operation
// it describes. A zero target drops the message.
func (b *Bridge) report(ctx context.Context, target ref.RoomID, text string) {
	if target.IsZero() {
		b.logger.Info("status notice with no target room", "text", text)
		return
	}
	if _, err := b.federation.SendMessage(ctx, target, messaging.NewNoticeMessage(text)); err != nil {
		b.logger.Error("failed to post status notice", "room_id", target, "error", err)
	}
}
