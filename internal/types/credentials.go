package types

// CredentialPair is the access/refresh token pair of an external platform identity. The access token is opaque:
// it is only known to be stale when the platform rejects it.
type CredentialPair struct {
	AccessToken  string `json:"accessToken" dynamodbav:"access_token"`
	RefreshToken string `json:"refreshToken" dynamodbav:"refresh_token"`
}

func (p CredentialPair) Valid() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Guild is the subset of the platform's guild object returned for a user.
type Guild struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Owner       bool     `json:"owner"`
	Permissions string   `json:"permissions"`
	Features    []string `json:"features"`
}

// Channel is the subset of the platform's channel object used here. Type 4 is a category.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     int    `json:"type"`
	ParentID string `json:"parent_id,omitempty"`
}

const ChannelTypeCategory = 4
