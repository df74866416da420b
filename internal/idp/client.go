// Package idp talks to the identity provider's management API to find the platform credentials linked to a
// user.
package idp

import (
	"bytes"
	"context"
	"dbuilder/internal/types"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jmespath/go-jmespath"
	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 10 * time.Second

// Client implements ports.IdentityProvider.
type Client struct {
	http         *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	connection   string

	tokens *ManagementTokenCache
}

// New builds a Client for cfg.IdPDomain. The domain may carry a scheme; a bare host is reached over https.
func New(cfg types.Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	base := strings.TrimRight(cfg.IdPDomain, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	c := &Client{
		http:         httpClient,
		baseURL:      base,
		clientID:     cfg.IdPClientID,
		clientSecret: cfg.IdPClientSecret,
		connection:   cfg.IdPConnection,
	}
	if c.connection == "" {
		c.connection = types.DefaultIdPConnection
	}
	c.tokens = NewManagementTokenCache(c.fetchManagementToken)
	return c
}

// Tokens exposes the management token cache.
func (c *Client) Tokens() *ManagementTokenCache { return c.tokens }

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Audience     string `json:"audience"`
	GrantType    string `json:"grant_type"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *Client) fetchManagementToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(tokenRequest{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Audience:     c.baseURL + "/api/v2/",
		GrantType:    "client_credentials",
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", types.Err(types.ErrUpstream, err, "management token request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", types.Err(types.ErrUpstream, nil, "management token request: status %d", resp.StatusCode)
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", types.Err(types.ErrUpstream, err, "management token response")
	}
	if tr.AccessToken == "" {
		return "", types.Err(types.ErrUpstream, nil, "management token response has no access_token")
	}
	return tr.AccessToken, nil
}

// identityExpr selects the first linked identity of the configured connection.
func (c *Client) identityExpr() string {
	return fmt.Sprintf("identities[?connection=='%s'] | [0]", c.connection)
}

// FetchCredentials returns the access/refresh pair of the platform identity linked to user. It returns
// types.ErrNotFound when the user does not exist or has no complete linked identity.
func (c *Client) FetchCredentials(ctx context.Context, user string) (types.CredentialPair, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return types.CredentialPair{}, err
	}
	u := c.baseURL + "/api/v2/users/" + url.PathEscape(user)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return types.CredentialPair{}, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := c.http.Do(req)
	if err != nil {
		return types.CredentialPair{}, types.Err(types.ErrUpstream, err, "fetch user %s", user)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return types.CredentialPair{}, types.Err(types.ErrNotFound, nil, "user %s not found", user)
	case http.StatusUnauthorized:
		c.tokens.Reset()
		return types.CredentialPair{}, types.Err(types.ErrUpstream, nil, "management token rejected")
	default:
		return types.CredentialPair{}, types.Err(types.ErrUpstream, nil, "fetch user %s: status %d", user, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.CredentialPair{}, types.Err(types.ErrUpstream, err, "read user %s", user)
	}
	pair, err := c.extract(raw)
	if err != nil {
		return types.CredentialPair{}, err
	}
	if !pair.Valid() {
		log.WithFields(log.Fields{"user": user, "connection": c.connection}).Info("no linked identity with tokens")
		return types.CredentialPair{}, types.Err(types.ErrNotFound, nil, "user %s has no linked %s identity", user, c.connection)
	}
	return pair, nil
}

func (c *Client) extract(raw []byte) (types.CredentialPair, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return types.CredentialPair{}, types.Err(types.ErrUpstream, err, "decode user document")
	}
	v, err := jmespath.Search(c.identityExpr(), doc)
	if err != nil {
		return types.CredentialPair{}, fmt.Errorf("jmespath: %w", err)
	}
	identity, ok := v.(map[string]any)
	if !ok {
		return types.CredentialPair{}, nil
	}
	access, _ := identity["access_token"].(string)
	refresh, _ := identity["refresh_token"].(string)
	return types.CredentialPair{AccessToken: access, RefreshToken: refresh}, nil
}
