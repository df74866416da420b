package discord

import (
	"dbuilder/internal/types"
)

func (s *UnitTestSuite) TestListGuildsForUserIsCached() {
	s.storePair("at-good", "rt-good")

	guilds, err := s.service.ListGuildsForUser(s.ctx, testIdentity)
	s.NoError(err)
	s.Len(guilds, 2)
	_, err = s.service.ListGuildsForUser(s.ctx, testIdentity)
	s.NoError(err)
	s.Equal(int32(1), s.platform.guildCalls.Load())
	s.True(s.mr.Exists("cache:" + testIdentity + "|guilds"))

	s.NoError(s.service.InvalidateGuilds(s.ctx, testIdentity))
	_, err = s.service.ListGuildsForUser(s.ctx, testIdentity)
	s.NoError(err)
	s.Equal(int32(2), s.platform.guildCalls.Load())
}

func (s *UnitTestSuite) TestOwnedGuilds() {
	s.storePair("at-good", "rt-good")

	owned, err := s.service.ListOwnedGuilds(s.ctx, testIdentity)
	s.NoError(err)
	s.Equal([]types.Guild{{ID: "g1", Name: "Owned", Owner: true}}, owned)

	ok, err := s.service.CheckOwner(s.ctx, testIdentity, "g1")
	s.NoError(err)
	s.True(ok)
	ok, err = s.service.CheckOwner(s.ctx, testIdentity, "g2")
	s.NoError(err)
	s.False(ok)
}

func (s *UnitTestSuite) TestRateLimited() {
	s.storePair("at-good", "rt-good")
	s.platform.limited = true

	_, err := s.service.ListGuildsForUser(s.ctx, testIdentity)
	s.ErrorIs(err, types.ErrRateLimited)
	s.False(s.mr.Exists("cache:" + testIdentity + "|guilds"))
	s.Equal(int32(0), s.platform.refreshCalls.Load())
}

func (s *UnitTestSuite) TestListCategories() {
	cats, err := s.service.ListCategories(s.ctx, "g1")
	s.NoError(err)
	s.Equal([]types.Category{
		{ID: "cat1", Name: "Voice", Enabled: false},
		{ID: "cat2", Name: "Games", Enabled: true},
	}, cats)
	s.True(s.mr.Exists("cache:g1|channels"))
}
