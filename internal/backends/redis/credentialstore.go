package redis

import (
	"context"
	"dbuilder/internal/keys"
	"dbuilder/internal/types"
)

const (
	fieldAccessToken  = "accessToken"
	fieldRefreshToken = "refreshToken"
)

// CredentialStore keeps each identity's pair in the hash "admin:idp:{identity}".
type CredentialStore struct {
	store *Store
}

func NewCredentialStore(store *Store) *CredentialStore {
	return &CredentialStore{store: store}
}

func (s *CredentialStore) GetCredentials(ctx context.Context, identity string) (*types.CredentialPair, error) {
	m, err := s.store.HashGetAll(ctx, keys.Credentials(identity))
	if err != nil {
		return nil, err
	}
	pair := types.CredentialPair{
		AccessToken:  m[fieldAccessToken],
		RefreshToken: m[fieldRefreshToken],
	}
	// A half-written hash is treated the same as a missing one.
	if !pair.Valid() {
		return nil, nil
	}
	return &pair, nil
}

func (s *CredentialStore) PutCredentials(ctx context.Context, identity string, pair types.CredentialPair) error {
	if !pair.Valid() {
		return types.Err(types.ErrInvalidInput, nil, "incomplete credential pair for %s", identity)
	}
	_, err := s.store.HashSet(ctx, keys.Credentials(identity), map[string]string{
		fieldAccessToken:  pair.AccessToken,
		fieldRefreshToken: pair.RefreshToken,
	})
	return err
}
