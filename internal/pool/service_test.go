package pool

import "dbuilder/internal/types"

func (s *UnitTestSuite) TestPickWithReservationIsIdempotent() {
	first, err := s.svc.PickWithReservation(s.ctx, testTenant, "r1")
	s.NoError(err)
	s.Equal("Ooga Booga", first.Name)
	s.Equal("r1", first.ReservationID)
	s.Equal(types.OutcomeReserved, first.Outcome)

	second, err := s.svc.PickWithReservation(s.ctx, testTenant, "r1")
	s.NoError(err)
	s.Equal(first.Name, second.Name)
	s.Equal(types.OutcomeRecovered, second.Outcome)

	s.Equal(1, s.gen.Calls())
	stored, err := s.mr.Get(testTenant + ":reservation:r1")
	s.NoError(err)
	s.Equal("Ooga Booga", stored)
}

func (s *UnitTestSuite) TestPickWithReservationDistinctIDs() {
	s.seedUsable("Moonlit Sonata")

	a, err := s.svc.PickWithReservation(s.ctx, testTenant, "r1")
	s.NoError(err)
	b, err := s.svc.PickWithReservation(s.ctx, testTenant, "r2")
	s.NoError(err)
	s.Equal("Moonlit Sonata", a.Name)
	s.Equal("Ooga Booga", b.Name)
	s.ElementsMatch([]string{"Moonlit Sonata", "Ooga Booga"}, s.inUse())
}

func (s *UnitTestSuite) TestPickWithReservationRejectsBadIDs() {
	_, err := s.svc.PickWithReservation(s.ctx, "", "r1")
	s.ErrorIs(err, types.ErrInvalidInput)
	_, err = s.svc.PickWithReservation(s.ctx, testTenant, "a:b")
	s.ErrorIs(err, types.ErrInvalidInput)
}

func (s *UnitTestSuite) TestLedger() {
	_, ok, err := s.svc.Ledger.Recover(s.ctx, testTenant, "r1")
	s.NoError(err)
	s.False(ok)

	s.NoError(s.svc.Ledger.Reserve(s.ctx, testTenant, "r1", "Booga"))
	s.NoError(s.svc.Ledger.Reserve(s.ctx, testTenant, "r1", "Ooga"))
	name, ok, err := s.svc.Ledger.Recover(s.ctx, testTenant, "r1")
	s.NoError(err)
	s.True(ok)
	s.Equal("Ooga", name)

	cleared, err := s.svc.Ledger.Clear(s.ctx, testTenant, "r1")
	s.NoError(err)
	s.True(cleared)
	cleared, err = s.svc.Ledger.Clear(s.ctx, testTenant, "r1")
	s.NoError(err)
	s.False(cleared)
}
