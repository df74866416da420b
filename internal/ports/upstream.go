package ports

import (
	"context"
	"dbuilder/internal/types"
)

// IdentityProvider resolves the platform credentials linked to an identity through the identity provider's
// management API. It is only consulted when the CredentialStore has nothing for the identity.
type IdentityProvider interface {
	// FetchCredentials MUST return types.ErrNotFound if the identity has no linked platform account.
	FetchCredentials(ctx context.Context, identity string) (types.CredentialPair, error)
}

// TokenRefresher exchanges a refresh token for a new credential pair with a single upstream round trip.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (types.CredentialPair, error)
}
