package channels

import (
	"dbuilder/internal/types"
	"errors"
)

func (s *UnitTestSuite) TestAssignReservation() {
	s.reserve("r1", "Booga")

	changed, err := s.assoc.AssignReservation(s.ctx, testTenant, "r1", "c1")
	s.NoError(err)
	s.True(changed)

	name, ok, err := s.assoc.ChannelName(s.ctx, testTenant, "c1")
	s.NoError(err)
	s.True(ok)
	s.Equal("Booga", name)
	s.False(s.mr.Exists(testTenant + ":reservation:r1"))
	s.True(s.isMember("inuse", "Booga"))

	// Retry after the reservation was consumed is a no-op.
	changed, err = s.assoc.AssignReservation(s.ctx, testTenant, "r1", "c1")
	s.NoError(err)
	s.False(changed)
}

func (s *UnitTestSuite) TestAssignUnknownReservation() {
	changed, err := s.assoc.AssignReservation(s.ctx, testTenant, "missing", "c1")
	s.NoError(err)
	s.False(changed)
	s.False(s.mr.Exists(testTenant + ":c1"))
}

func (s *UnitTestSuite) TestClearChannel() {
	s.reserve("r1", "Booga")
	_, err := s.assoc.AssignReservation(s.ctx, testTenant, "r1", "c1")
	s.Require().NoError(err)

	cleared, err := s.assoc.ClearChannel(s.ctx, testTenant, "c1")
	s.NoError(err)
	s.True(cleared)
	s.True(s.isMember("usable", "Booga"))
	s.False(s.isMember("inuse", "Booga"))

	cleared, err = s.assoc.ClearChannel(s.ctx, testTenant, "c1")
	s.NoError(err)
	s.False(cleared)
	s.True(s.isMember("usable", "Booga"))
}

func (s *UnitTestSuite) TestReassignRetiresPreviousName() {
	s.reserve("r1", "Booga")
	s.reserve("r2", "Moonlit Sonata")

	_, err := s.assoc.AssignReservation(s.ctx, testTenant, "r1", "c1")
	s.Require().NoError(err)
	changed, err := s.assoc.AssignReservation(s.ctx, testTenant, "r2", "c1")
	s.NoError(err)
	s.True(changed)

	name, _, err := s.assoc.ChannelName(s.ctx, testTenant, "c1")
	s.NoError(err)
	s.Equal("Moonlit Sonata", name)
	s.True(s.isMember("usable", "Booga"))
	s.True(s.isMember("inuse", "Moonlit Sonata"))
}

func (s *UnitTestSuite) TestFullLifecycle() {
	pick, err := s.names.PickWithReservation(s.ctx, testTenant, "r1")
	s.Require().NoError(err)
	s.Equal("Ooga Booga", pick.Name)

	changed, err := s.assoc.AssignReservation(s.ctx, testTenant, "r1", "c1")
	s.Require().NoError(err)
	s.True(changed)

	cleared, err := s.assoc.ClearChannel(s.ctx, testTenant, "c1")
	s.Require().NoError(err)
	s.True(cleared)

	// The retired name is picked again from the pool.
	pick, err = s.names.PickWithReservation(s.ctx, testTenant, "r2")
	s.Require().NoError(err)
	s.Equal("Ooga Booga", pick.Name)
	s.Equal(types.OutcomeReserved, pick.Outcome)
	s.False(s.isMember("usable", "Ooga Booga"))
}

func (s *UnitTestSuite) TestEventsPublished() {
	s.reserve("r1", "Booga")
	_, err := s.assoc.AssignReservation(s.ctx, testTenant, "r1", "c1")
	s.Require().NoError(err)
	_, err = s.assoc.ClearChannel(s.ctx, testTenant, "c1")
	s.Require().NoError(err)

	s.Require().Len(s.publisher.events, 2)
	s.Equal(types.EventChannelAssigned, s.publisher.events[0].Type)
	s.Equal("c1", s.publisher.events[0].ChannelID)
	s.Equal("Booga", s.publisher.events[0].Name)
	s.Equal(types.EventChannelCleared, s.publisher.events[1].Type)
}

func (s *UnitTestSuite) TestPublishFailureIsNotFatal() {
	s.publisher.err = errors.New("sns down")
	s.reserve("r1", "Booga")

	changed, err := s.assoc.AssignReservation(s.ctx, testTenant, "r1", "c1")
	s.NoError(err)
	s.True(changed)
}

func (s *UnitTestSuite) TestStoreFailurePropagates() {
	s.reserve("r1", "Booga")
	s.mr.Close()

	_, err := s.assoc.AssignReservation(s.ctx, testTenant, "r1", "c1")
	s.ErrorIs(err, types.ErrDataStoreAccess)
	_, err = s.assoc.ClearChannel(s.ctx, testTenant, "c1")
	s.ErrorIs(err, types.ErrDataStoreAccess)
}
