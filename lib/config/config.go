// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the picard daemon.
//
// Configuration is loaded from a single YAML file specified by:
//   - PICARD_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/CoronaWhy/skill-picard/lib/ref"
)

// Config is the master configuration for picard.
type Config struct {
	// Matrix configures the federation-side connection and identity.
	Matrix MatrixConfig `yaml:"matrix"`

	// Slack configures the workspace-side connection.
	Slack SlackConfig `yaml:"slack"`

	// Rooms configures how mirrored rooms are derived and decorated.
	Rooms RoomsConfig `yaml:"rooms"`

	// Community configures optional group/community management.
	Community CommunityConfig `yaml:"community"`

	// Sweep configures the periodic channel mirror sweep.
	Sweep SweepConfig `yaml:"sweep"`

	// DatabasePath is the SQLite file holding the ledger, room
	// options, and auto-invite subscribers.
	DatabasePath string `yaml:"database_path"`

	// Help is optional extra text appended to the !help output.
	Help string `yaml:"help,omitempty"`
}

// MatrixConfig configures the Matrix connection and related identities.
type MatrixConfig struct {
	// HomeserverURL is the base URL of the homeserver
	// (e.g., "https://matrix.example.org").
	HomeserverURL string `yaml:"homeserver_url"`

	// ServerName is the federation domain used to derive room aliases
	// (e.g., "example.org").
	ServerName string `yaml:"server_name"`

	// UserID is the bot's fully-qualified Matrix user ID.
	UserID string `yaml:"user_id"`

	// AccessToken authenticates the bot's session.
	AccessToken string `yaml:"access_token"`

	// AppserviceUserID is the bridging service's Matrix identity. It
	// must be a member of every mirrored room — provisioning a channel
	// fails if this user cannot be invited.
	AppserviceUserID string `yaml:"as_userid"`

	// BridgeRoom is the room ID or alias of the appservice admin room
	// where link commands are posted.
	BridgeRoom string `yaml:"bridge_room"`

	// CommandRoom is the default room for sweep status messages when
	// a sweep runs from the timer rather than a user command.
	CommandRoom string `yaml:"command_room"`

	// AnnouncementRoom receives the completion notice for rooms
	// created by the !createroom command.
	AnnouncementRoom string `yaml:"announcement_room,omitempty"`
}

// SlackConfig configures the Slack Web API connection.
type SlackConfig struct {
	// BotToken is the bot-user OAuth token (xoxb-...).
	BotToken string `yaml:"bot_token"`

	// UserToken is a user OAuth token (xoxp-...) used for operations
	// the bot token cannot perform (inviting the bridge bot).
	UserToken string `yaml:"user_token"`

	// BridgeBotName is the display name of the workspace-side bridge
	// bot that must join every mirrored channel.
	BridgeBotName string `yaml:"bridge_bot_name"`

	// APIURL overrides the Slack Web API base URL. Empty means the
	// public API. Used by tests.
	APIURL string `yaml:"api_url,omitempty"`
}

// RoomsConfig configures room derivation and decoration.
type RoomsConfig struct {
	// AliasPrefix is prepended to the channel name when deriving the
	// room alias: #<prefix><channel>:<server_name>.
	AliasPrefix string `yaml:"room_alias_prefix"`

	// NamePrefix is prepended to the channel name when setting the
	// room name. Defaults to AliasPrefix.
	NamePrefix string `yaml:"room_name_prefix,omitempty"`

	// MakePublic sets the join rule to public and history visibility
	// to world_readable on newly mirrored rooms.
	MakePublic bool `yaml:"make_public"`

	// AvatarURL is the avatar applied to newly mirrored rooms. May be
	// an mxc: URI or an HTTP URL (uploaded to the media repo first).
	AvatarURL string `yaml:"room_avatar_url,omitempty"`

	// UsersAsAdmin are granted power level 100 in every mirrored room
	// and may use the !skip/!unskip and !welcomeall commands.
	UsersAsAdmin []string `yaml:"users_as_admin,omitempty"`

	// RoomPL0 removes the power-level restriction on @room
	// notifications (sets the required level to 0).
	RoomPL0 bool `yaml:"room_pl_0"`

	// UsersToInvite are invited to every newly mirrored room.
	UsersToInvite []string `yaml:"users_to_invite,omitempty"`
}

// CommunityConfig configures optional group/community management. The
// groups API is an optional homeserver capability: when the federation
// client does not support it, every setting here is ignored.
type CommunityConfig struct {
	// ID is the community to manage (e.g., "+openastronomy:example.org").
	// Empty disables community integration.
	ID string `yaml:"community_id,omitempty"`

	// RelatedGroups are merged into every mirrored room's
	// m.room.related_groups state (union, never removal).
	RelatedGroups []string `yaml:"related_groups,omitempty"`

	// InviteCommunityToRooms invites every community member to each
	// newly mirrored room they are not already in.
	InviteCommunityToRooms bool `yaml:"invite_community_to_rooms"`

	// MakeJoinable sets the community's join policy to open at the
	// start of every sweep.
	MakeJoinable bool `yaml:"make_community_joinable"`
}

// SweepConfig configures the periodic mirror sweep.
type SweepConfig struct {
	// Schedule is a 5-field cron expression (UTC). Default: every
	// minute.
	Schedule string `yaml:"schedule,omitempty"`
}

// Default returns a Config with default values applied.
func Default() *Config {
	return &Config{
		Rooms: RoomsConfig{MakePublic: true},
		Sweep: SweepConfig{Schedule: "* * * * *"},
	}
}

// Load reads the config file named by the PICARD_CONFIG environment
// variable.
func Load() (*Config, error) {
	configPath := os.Getenv("PICARD_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("PICARD_CONFIG environment variable not set; " +
			"set it to the path of your picard.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile reads and validates the config file at path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults fills derived defaults that depend on other fields.
func (c *Config) applyDefaults() {
	if c.Rooms.NamePrefix == "" {
		c.Rooms.NamePrefix = c.Rooms.AliasPrefix
	}
	if c.Sweep.Schedule == "" {
		c.Sweep.Schedule = "* * * * *"
	}
}

// Validate checks that required fields are present and identifiers
// parse. Identifier validation here means the daemon fails at startup
// with a config error instead of mid-sweep with a platform error.
func (c *Config) Validate() error {
	if c.Matrix.HomeserverURL == "" {
		return fmt.Errorf("matrix.homeserver_url is required")
	}
	if c.Matrix.AccessToken == "" {
		return fmt.Errorf("matrix.access_token is required")
	}
	if _, err := ref.ParseUserID(c.Matrix.UserID); err != nil {
		return fmt.Errorf("matrix.user_id: %w", err)
	}
	if _, err := ref.ParseServerName(c.Matrix.ServerName); err != nil {
		return fmt.Errorf("matrix.server_name: %w", err)
	}
	if _, err := ref.ParseUserID(c.Matrix.AppserviceUserID); err != nil {
		return fmt.Errorf("matrix.as_userid: %w", err)
	}
	if c.Slack.BotToken == "" {
		return fmt.Errorf("slack.bot_token is required")
	}
	if c.Rooms.AliasPrefix == "" {
		return fmt.Errorf("rooms.room_alias_prefix is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.Community.ID != "" {
		if _, err := ref.ParseGroupID(c.Community.ID); err != nil {
			return fmt.Errorf("community.community_id: %w", err)
		}
	}
	for _, user := range c.Rooms.UsersAsAdmin {
		if _, err := ref.ParseUserID(user); err != nil {
			return fmt.Errorf("rooms.users_as_admin: %w", err)
		}
	}
	for _, user := range c.Rooms.UsersToInvite {
		if _, err := ref.ParseUserID(user); err != nil {
			return fmt.Errorf("rooms.users_to_invite: %w", err)
		}
	}
	return nil
}
