// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/CoronaWhy/skill-picard/lib/netutil"
	"github.com/CoronaWhy/skill-picard/lib/ref"
)

// DefaultAPIURL is the production Slack Web API endpoint.
const DefaultAPIURL = "https://slack.com/api"

// ClientConfig holds settings for creating a workspace client.
type ClientConfig struct {
	// APIURL is the Web API base URL. Defaults to DefaultAPIURL;
	// override it in tests.
	APIURL string

	// BotToken authenticates read traffic and topic updates. Required.
	BotToken string

	// UserToken authenticates channel creation and invites. Optional;
	// the bot token is used when empty.
	UserToken string

	// HTTPClient is the HTTP client to use. Defaults to a client with
	// a 30-second timeout.
	HTTPClient *http.Client

	// Logger for API interactions. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a Slack Web API client. Safe for concurrent use.
type Client struct {
	baseURL    string
	botToken   string
	userToken  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a workspace client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BotToken == "" {
		return nil, fmt.Errorf("workspace: bot token is required")
	}

	baseURL := config.APIURL
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("workspace: invalid API URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("workspace: API URL must include scheme and host: %q", baseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	userToken := config.UserToken
	if userToken == "" {
		userToken = config.BotToken
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		botToken:   config.BotToken,
		userToken:  userToken,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// ListChannels returns all channels in the workspace, including
// archived ones (callers filter on IsArchived). Follows cursor
// pagination to exhaustion.
func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	var channels []Channel
	cursor := ""
	for {
		query := url.Values{
			"limit":            {"200"},
			"exclude_archived": {"false"},
			"types":            {"public_channel"},
		}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var response struct {
			envelope
			Channels []Channel `json:"channels"`
		}
		if err := c.call(ctx, c.botToken, "conversations.list", query, &response); err != nil {
			return nil, err
		}

		channels = append(channels, response.Channels...)
		if response.ResponseMetadata == nil || response.ResponseMetadata.NextCursor == "" {
			return channels, nil
		}
		cursor = response.ResponseMetadata.NextCursor
	}
}

// CreateChannel creates a public channel with the given name. A name
// collision surfaces as an error satisfying IsNameTaken.
func (c *Client) CreateChannel(ctx context.Context, name string) (Channel, error) {
	query := url.Values{"name": {name}}

	var response struct {
		envelope
		Channel Channel `json:"channel"`
	}
	if err := c.call(ctx, c.userToken, "conversations.create", query, &response); err != nil {
		return Channel{}, err
	}

	c.logger.Info("created slack channel",
		"channel_id", response.Channel.ID,
		"name", response.Channel.Name,
	)
	return response.Channel, nil
}

// InviteUserToChannel invites a workspace user to a channel. Inviting
// a member fails with an error satisfying IsAlreadyInChannel — callers
// treat that as success.
func (c *Client) InviteUserToChannel(ctx context.Context, channelID ref.ChannelID, userID string) error {
	query := url.Values{
		"channel": {channelID.String()},
		"users":   {userID},
	}

	var response envelope
	return c.call(ctx, c.userToken, "conversations.invite", query, &response)
}

// ChannelMembers returns the Slack user IDs of a channel's members,
// following cursor pagination.
func (c *Client) ChannelMembers(ctx context.Context, channelID ref.ChannelID) ([]string, error) {
	var members []string
	cursor := ""
	for {
		query := url.Values{
			"channel": {channelID.String()},
			"limit":   {"200"},
		}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var response struct {
			envelope
			Members []string `json:"members"`
		}
		if err := c.call(ctx, c.botToken, "conversations.members", query, &response); err != nil {
			return nil, err
		}

		members = append(members, response.Members...)
		if response.ResponseMetadata == nil || response.ResponseMetadata.NextCursor == "" {
			return members, nil
		}
		cursor = response.ResponseMetadata.NextCursor
	}
}

// SetChannelTopic sets a channel's topic, which this bridge uses as
// the channel description.
func (c *Client) SetChannelTopic(ctx context.Context, channelID ref.ChannelID, topic string) error {
	query := url.Values{
		"channel": {channelID.String()},
		"topic":   {topic},
	}

	var response envelope
	return c.call(ctx, c.botToken, "conversations.setTopic", query, &response)
}

// SendDirectMessage posts a message to a user's direct-message
// conversation with the bot. Slack opens the conversation on first
// use.
func (c *Client) SendDirectMessage(ctx context.Context, userID, text string) error {
	query := url.Values{
		"channel": {userID},
		"text":    {text},
	}

	var response envelope
	return c.call(ctx, c.botToken, "chat.postMessage", query, &response)
}

// ListUsers returns all workspace members, following cursor pagination.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	cursor := ""
	for {
		query := url.Values{"limit": {"200"}}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var response struct {
			envelope
			Members []User `json:"members"`
		}
		if err := c.call(ctx, c.botToken, "users.list", query, &response); err != nil {
			return nil, err
		}

		users = append(users, response.Members...)
		if response.ResponseMetadata == nil || response.ResponseMetadata.NextCursor == "" {
			return users, nil
		}
		cursor = response.ResponseMetadata.NextCursor
	}
}

// ResolveUserID finds the Slack user ID for a workspace member by
// handle, display name, or real name. Deleted accounts are skipped.
// Returns a *SlackError with code "user_not_found" when no member
// matches.
func (c *Client) ResolveUserID(ctx context.Context, name string) (string, error) {
	users, err := c.ListUsers(ctx)
	if err != nil {
		return "", err
	}

	for _, user := range users {
		if user.Deleted {
			continue
		}
		if user.Name == name || user.Profile.DisplayName == name || user.RealName == name {
			return user.ID, nil
		}
	}
	return "", fmt.Errorf("workspace: resolve user %q: %w", name, &SlackError{Code: ErrCodeUserNotFound, Method: "users.list"})
}

// call performs a Web API method call and decodes the enveloped
// response into out. Slack accepts form-encoded POST bodies for every
// write method and query parameters for reads; a single POST with a
// form body covers both. out must embed envelope.
func (c *Client) call(ctx context.Context, token, method string, params url.Values, out interface{ envelopeRef() *envelope }) error {
	endpoint := c.baseURL + "/" + method
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("workspace: failed to create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Authorization", "Bearer "+token)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("workspace: %s request failed: %w", method, err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("workspace: reading %s response: %w", method, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("workspace: failed to parse %s response: %w", method, err)
	}

	env := out.envelopeRef()
	if !env.OK {
		return fmt.Errorf("workspace: %s: %w", method, &SlackError{Code: env.ErrorCode, Method: method})
	}
	return nil
}
