package ports

import (
	"context"
	"dbuilder/internal/types"
)

// CredentialStore persists the platform credential pair of each identity.
type CredentialStore interface {
	// GetCredentials returns (nil, nil) if no complete pair is stored for the identity.
	GetCredentials(ctx context.Context, identity string) (*types.CredentialPair, error)

	PutCredentials(ctx context.Context, identity string, pair types.CredentialPair) error
}
