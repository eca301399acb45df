// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

// Picard mirrors the public channels of a Slack workspace into Matrix
// rooms. It discovers channels, provisions a room per channel behind a
// deterministic alias, hands the pair to the slack appservice for
// message bridging, and keeps membership, power levels, and community
// state reconciled.
//
// On startup:
//  1. Loads and validates the YAML configuration.
//  2. Opens the SQLite store holding the channel ledger.
//  3. Validates the Matrix session and the Slack tokens.
//  4. Runs one sweep immediately, then follows the cron schedule.
//  5. Long-polls /sync for !commands issued in rooms the bot is in.
//
// SIGUSR1 triggers an immediate sweep outside the schedule.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/CoronaWhy/skill-picard/bridge"
	"github.com/CoronaWhy/skill-picard/lib/config"
	"github.com/CoronaWhy/skill-picard/lib/cron"
	"github.com/CoronaWhy/skill-picard/lib/memstore"
	"github.com/CoronaWhy/skill-picard/lib/ref"
	"github.com/CoronaWhy/skill-picard/messaging"
	"github.com/CoronaWhy/skill-picard/workspace"
)

const version = "0.3.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	pflag.StringVar(&configPath, "config", "", "path to picard.yaml (overrides PICARD_CONFIG)")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("picard %s\n", version)
		return nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := memstore.Open(memstore.Config{
		Path:   cfg.DatabasePath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	matrixClient, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Matrix.HomeserverURL,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("creating matrix client: %w", err)
	}
	botUserID, err := ref.ParseUserID(cfg.Matrix.UserID)
	if err != nil {
		return fmt.Errorf("matrix.user_id: %w", err)
	}
	session, err := matrixClient.SessionFromToken(botUserID, cfg.Matrix.AccessToken)
	if err != nil {
		return fmt.Errorf("creating matrix session: %w", err)
	}
	if _, err := session.WhoAmI(ctx); err != nil {
		return fmt.Errorf("validating matrix session: %w", err)
	}

	slackClient, err := workspace.NewClient(workspace.ClientConfig{
		APIURL:    cfg.Slack.APIURL,
		BotToken:  cfg.Slack.BotToken,
		UserToken: cfg.Slack.UserToken,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating slack client: %w", err)
	}

	bridgeCfg, err := bridgeConfig(ctx, cfg, session, slackClient, store, logger)
	if err != nil {
		return err
	}
	b, err := bridge.New(bridgeCfg)
	if err != nil {
		return err
	}

	schedule, err := cron.Parse(cfg.Sweep.Schedule)
	if err != nil {
		return fmt.Errorf("sweep.schedule: %w", err)
	}

	trigger := make(chan struct{}, 1)
	sweepNow := make(chan os.Signal, 1)
	signal.Notify(sweepNow, syscall.SIGUSR1)
	go func() {
		for range sweepNow {
			select {
			case trigger <- struct{}{}:
			default:
			}
		}
	}()

	logger.Info("picard starting",
		"version", version,
		"homeserver", cfg.Matrix.HomeserverURL,
		"schedule", cfg.Sweep.Schedule)

	if err := b.RunSweep(ctx, nil); err != nil {
		logger.Error("initial sweep failed", "error", err)
	}

	// The sweep loop and the command listener run side by side; the
	// first to fail (or be cancelled) brings the daemon down.
	listener := messaging.NewListener(session, logger)
	done := make(chan error, 2)
	go func() {
		done <- listener.Run(ctx, func(event messaging.Event) {
			body, _ := event.Content["body"].(string)
			if event.Type != messaging.EventTypeMessage || body == "" {
				return
			}
			if err := b.HandleMatrixMessage(ctx, event.RoomID, event.Sender, body); err != nil {
				logger.Error("command failed",
					"room_id", event.RoomID, "sender", event.Sender, "error", err)
			}
		})
	}()
	go func() {
		done <- b.RunScheduled(ctx, schedule, trigger)
	}()

	err = <-done
	stop()
	if err == context.Canceled {
		logger.Info("picard shutting down")
		return nil
	}
	return err
}

// bridgeConfig maps the file configuration onto bridge dependencies,
// resolving room aliases to IDs where the config allows either form.
func bridgeConfig(ctx context.Context, cfg *config.Config, session *messaging.Session, slackClient *workspace.Client, store *memstore.Store, logger *slog.Logger) (bridge.Config, error) {
	serverName, err := ref.ParseServerName(cfg.Matrix.ServerName)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("matrix.server_name: %w", err)
	}
	appserviceUserID, err := ref.ParseUserID(cfg.Matrix.AppserviceUserID)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("matrix.as_userid: %w", err)
	}

	bridgeRoom, err := resolveRoom(ctx, session, cfg.Matrix.BridgeRoom)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("matrix.bridge_room: %w", err)
	}
	commandRoom, err := resolveRoom(ctx, session, cfg.Matrix.CommandRoom)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("matrix.command_room: %w", err)
	}
	announcementRoom, err := resolveRoom(ctx, session, cfg.Matrix.AnnouncementRoom)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("matrix.announcement_room: %w", err)
	}

	admins, err := parseUserIDs(cfg.Rooms.UsersAsAdmin)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("rooms.users_as_admin: %w", err)
	}
	invitees, err := parseUserIDs(cfg.Rooms.UsersToInvite)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("rooms.users_to_invite: %w", err)
	}

	var communityID ref.GroupID
	if cfg.Community.ID != "" {
		communityID, err = ref.ParseGroupID(cfg.Community.ID)
		if err != nil {
			return bridge.Config{}, fmt.Errorf("community.community_id: %w", err)
		}
	}

	return bridge.Config{
		Federation:             session,
		Workspace:              slackClient,
		Store:                  store,
		Logger:                 logger,
		ServerName:             serverName,
		AliasPrefix:            cfg.Rooms.AliasPrefix,
		NamePrefix:             cfg.Rooms.NamePrefix,
		MakePublic:             cfg.Rooms.MakePublic,
		AvatarURL:              cfg.Rooms.AvatarURL,
		UsersAsAdmin:           admins,
		RoomPL0:                cfg.Rooms.RoomPL0,
		UsersToInvite:          invitees,
		CommunityID:            communityID,
		RelatedGroups:          cfg.Community.RelatedGroups,
		InviteCommunityToRooms: cfg.Community.InviteCommunityToRooms,
		MakeCommunityJoinable:  cfg.Community.MakeJoinable,
		BridgeBotName:          cfg.Slack.BridgeBotName,
		AppserviceUserID:       appserviceUserID,
		BridgeRoom:             bridgeRoom,
		CommandRoom:            commandRoom,
		AnnouncementRoom:       announcementRoom,
		SlackBotToken:          cfg.Slack.BotToken,
		SlackUserToken:         cfg.Slack.UserToken,
		HelpText:               cfg.Help,
	}, nil
}

// resolveRoom accepts a room ID or a room alias. Aliases are resolved
// at startup so a misconfigured room fails fast. Empty means no room.
func resolveRoom(ctx context.Context, session *messaging.Session, raw string) (ref.RoomID, error) {
	if raw == "" {
		return ref.RoomID{}, nil
	}
	if strings.HasPrefix(raw, "#") {
		alias, err := ref.ParseRoomAlias(raw)
		if err != nil {
			return ref.RoomID{}, err
		}
		return session.ResolveAlias(ctx, alias)
	}
	return ref.ParseRoomID(raw)
}

func parseUserIDs(raw []string) ([]ref.UserID, error) {
	users := make([]ref.UserID, 0, len(raw))
	for _, entry := range raw {
		userID, err := ref.ParseUserID(entry)
		if err != nil {
			return nil, err
		}
		users = append(users, userID)
	}
	return users, nil
}
