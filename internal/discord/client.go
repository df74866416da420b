// Package discord calls the social platform's HTTP API on behalf of users and the bot, refreshing user tokens
// when the platform rejects them.
package discord

import (
	"context"
	"dbuilder/internal/types"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const defaultTimeout = 10 * time.Second

// Client is a thin wrapper over the platform REST API. It never retries; callers decide what to do with
// types.ErrUnauthorized and types.ErrRateLimited.
type Client struct {
	http     *http.Client
	baseURL  string
	botToken string
}

func NewClient(cfg types.Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		http:     httpClient,
		baseURL:  strings.TrimRight(cfg.DiscordAPIBase, "/"),
		botToken: cfg.DiscordBotToken,
	}
}

// ListGuilds returns the guilds of the user that owns accessToken.
func (c *Client) ListGuilds(ctx context.Context, accessToken string) ([]types.Guild, error) {
	var out []types.Guild
	if err := c.get(ctx, "/users/@me/guilds", "Bearer "+accessToken, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListChannels returns every channel of guildID using the bot token.
func (c *Client) ListChannels(ctx context.Context, guildID string) ([]types.Channel, error) {
	var out []types.Channel
	if err := c.get(ctx, "/guilds/"+url.PathEscape(guildID)+"/channels", "Bot "+c.botToken, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path, authorization string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", authorization)
	resp, err := c.http.Do(req)
	if err != nil {
		return types.Err(types.ErrUpstream, err, "GET %s", path)
	}
	defer resp.Body.Close()
	if err := statusError(resp, path); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.Err(types.ErrUpstream, err, "decode %s", path)
	}
	return nil
}

func statusError(resp *http.Response, path string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return types.Err(types.ErrUnauthorized, nil, "%s: token rejected", path)
	case resp.StatusCode == http.StatusTooManyRequests:
		return types.Err(types.ErrRateLimited, nil, "%s: retry after %s", path, resp.Header.Get("Retry-After"))
	default:
		return types.Err(types.ErrUpstream, nil, "%s: status %d", path, resp.StatusCode)
	}
}
