package discord

import (
	"context"
	"dbuilder/internal/types"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
)

// Refresher implements ports.TokenRefresher with the OAuth2 refresh_token grant.
type Refresher struct {
	http         *http.Client
	baseURL      string
	clientID     string
	clientSecret string
}

func NewRefresher(cfg types.Config, httpClient *http.Client) *Refresher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Refresher{
		http:         httpClient,
		baseURL:      strings.TrimRight(cfg.DiscordAPIBase, "/"),
		clientID:     cfg.DiscordClientID,
		clientSecret: cfg.DiscordClientSecret,
	}
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges refreshToken for a new pair. A refresh token the platform no longer accepts yields
// types.ErrUnauthorized.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (types.CredentialPair, error) {
	form := url.Values{}
	form.Set("client_id", r.clientID)
	form.Set("client_secret", r.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return types.CredentialPair{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.http.Do(req)
	if err != nil {
		return types.CredentialPair{}, types.Err(types.ErrUpstream, err, "refresh token request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusBadRequest {
		return types.CredentialPair{}, types.Err(types.ErrUnauthorized, nil, "refresh token rejected")
	}
	if err := statusError(resp, "/oauth2/token"); err != nil {
		return types.CredentialPair{}, err
	}
	var rr refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return types.CredentialPair{}, types.Err(types.ErrUpstream, err, "decode refresh response")
	}
	pair := types.CredentialPair{AccessToken: rr.AccessToken, RefreshToken: rr.RefreshToken}
	if !pair.Valid() {
		return types.CredentialPair{}, types.Err(types.ErrUpstream, nil, "refresh response is missing tokens")
	}
	return pair, nil
}
