package discord

import (
	"context"
	"dbuilder/internal/types"
	"errors"
)

func (s *UnitTestSuite) TestWithTokenValidPair() {
	s.storePair("at-good", "rt-good")

	guilds, err := WithToken(s.ctx, s.wrapper, testIdentity, s.client.ListGuilds)
	s.NoError(err)
	s.Len(guilds, 2)
	s.Equal(int32(0), s.platform.refreshCalls.Load())
}

// A stale access token is refreshed once, stored, and the call retried with the new token.
func (s *UnitTestSuite) TestWithTokenRefreshesStalePair() {
	s.storePair("at-stale", "rt-old")

	var seen []string
	guilds, err := WithToken(s.ctx, s.wrapper, testIdentity, func(ctx context.Context, tok string) ([]types.Guild, error) {
		seen = append(seen, tok)
		return s.client.ListGuilds(ctx, tok)
	})
	s.NoError(err)
	s.Len(guilds, 2)
	s.Equal([]string{"at-stale", "at-new"}, seen)
	s.Equal(int32(1), s.platform.refreshCalls.Load())
	s.Equal(&types.CredentialPair{AccessToken: "at-new", RefreshToken: "rt-new"}, s.storedPair())
}

func (s *UnitTestSuite) TestWithTokenSecondRejectionPropagates() {
	s.storePair("at-stale", "rt-old")

	calls := 0
	_, err := WithToken(s.ctx, s.wrapper, testIdentity, func(ctx context.Context, tok string) (int, error) {
		calls++
		return 0, types.Err(types.ErrUnauthorized, nil, "rejected")
	})
	s.ErrorIs(err, types.ErrUnauthorized)
	s.Equal(2, calls)
	s.Equal(int32(1), s.platform.refreshCalls.Load())
}

func (s *UnitTestSuite) TestWithTokenRefreshRejected() {
	s.storePair("at-stale", "rt-revoked")

	calls := 0
	_, err := WithToken(s.ctx, s.wrapper, testIdentity, func(ctx context.Context, tok string) ([]types.Guild, error) {
		calls++
		return s.client.ListGuilds(ctx, tok)
	})
	s.ErrorIs(err, types.ErrUnauthorized)
	s.Equal(1, calls)
	s.Equal("at-stale", s.storedPair().AccessToken)
}

func (s *UnitTestSuite) TestWithTokenOtherErrorsDoNotRefresh() {
	s.storePair("at-good", "rt-old")
	boom := errors.New("boom")

	_, err := WithToken(s.ctx, s.wrapper, testIdentity, func(context.Context, string) (int, error) {
		return 0, boom
	})
	s.ErrorIs(err, boom)
	s.Equal(int32(0), s.platform.refreshCalls.Load())
}

func (s *UnitTestSuite) TestResolveImportsFromIdentityProvider() {
	s.idp.pairs[testIdentity] = types.CredentialPair{AccessToken: "at-good", RefreshToken: "rt-good"}

	pair, err := s.wrapper.Resolve(s.ctx, testIdentity)
	s.NoError(err)
	s.Equal("at-good", pair.AccessToken)
	s.Equal(&pair, s.storedPair())

	_, err = s.wrapper.Resolve(s.ctx, testIdentity)
	s.NoError(err)
	s.Equal(1, s.idp.calls)
}

func (s *UnitTestSuite) TestResolveUnknownIdentity() {
	_, err := WithToken(s.ctx, s.wrapper, testIdentity, s.client.ListGuilds)
	s.ErrorIs(err, types.ErrNotFound)
	s.Nil(s.storedPair())
}
