package pool

import (
	"context"
	"dbuilder/internal/backends/redis"
	"dbuilder/internal/types"
	"fmt"
	"math/rand/v2"
	"sync"
)

// hookedStore runs after once, right after the first write to the usable set.
type hookedStore struct {
	*redis.Store
	usable string
	once   sync.Once
	after  func()
}

func (h *hookedStore) Add(ctx context.Context, set, item string) (bool, error) {
	added, err := h.Store.Add(ctx, set, item)
	h.hook(set)
	return added, err
}

func (h *hookedStore) AddUnlessMember(ctx context.Context, set, exclude, item string) (bool, error) {
	added, err := h.Store.AddUnlessMember(ctx, set, exclude, item)
	h.hook(set)
	return added, err
}

func (h *hookedStore) hook(set string) {
	if set == h.usable {
		h.once.Do(h.after)
	}
}

func (s *UnitTestSuite) TestAllocateEmptyPool() {
	name, ok, err := s.svc.Allocator.Allocate(s.ctx, testTenant)
	s.NoError(err)
	s.False(ok)
	s.Equal("", name)
}

func (s *UnitTestSuite) TestAllocateMovesName() {
	s.seedUsable("Moonlit Sonata")

	name, ok, err := s.svc.Allocator.Allocate(s.ctx, testTenant)
	s.NoError(err)
	s.True(ok)
	s.Equal("Moonlit Sonata", name)
	s.Empty(s.usable())
	s.Equal([]string{"Moonlit Sonata"}, s.inUse())
}

func (s *UnitTestSuite) TestAddReportsCollision() {
	added, err := s.svc.Allocator.Add(s.ctx, testTenant, "Ooga Booga")
	s.NoError(err)
	s.True(added)

	added, err = s.svc.Allocator.Add(s.ctx, testTenant, "Ooga Booga")
	s.NoError(err)
	s.False(added)
}

func (s *UnitTestSuite) TestRetire() {
	s.seedInUse("Booga")

	s.NoError(s.svc.Allocator.Retire(s.ctx, testTenant, "Booga"))
	s.Equal([]string{"Booga"}, s.usable())
	s.Empty(s.inUse())

	// Not in use any more: no-op, no error.
	s.NoError(s.svc.Allocator.Retire(s.ctx, testTenant, "Booga"))
	s.Equal([]string{"Booga"}, s.usable())
}

func (s *UnitTestSuite) TestTenantsAreIsolated() {
	s.seedUsable("Moonlit Sonata")

	_, ok, err := s.svc.Allocator.Allocate(s.ctx, "other")
	s.NoError(err)
	s.False(ok)
	s.Equal([]string{"Moonlit Sonata"}, s.usable())
}

// Random allocate/retire sequences never leave a name in both sets.
func (s *UnitTestSuite) TestAllocateRetireNeverOverlap() {
	r := rand.New(rand.NewPCG(1, 2))
	var names []string
	for i := 0; i < 12; i++ {
		names = append(names, fmt.Sprintf("Name %d", i))
	}
	s.seedUsable(names...)

	for step := 0; step < 300; step++ {
		if r.IntN(2) == 0 {
			_, _, err := s.svc.Allocator.Allocate(s.ctx, testTenant)
			s.Require().NoError(err)
		} else {
			s.Require().NoError(s.svc.Allocator.Retire(s.ctx, testTenant, names[r.IntN(len(names))]))
		}
		s.assertDisjoint()
		s.Equal(len(names), len(s.usable())+len(s.inUse()))
	}
}

func (s *UnitTestSuite) TestAddCustom() {
	added, err := s.svc.Allocator.AddCustom(s.ctx, testTenant, "Misty Glade")
	s.NoError(err)
	s.True(added)
	s.Equal([]string{"Misty Glade"}, s.custom())
	s.Equal([]string{"Misty Glade"}, s.usable())

	added, err = s.svc.Allocator.AddCustom(s.ctx, testTenant, "Misty Glade")
	s.NoError(err)
	s.False(added)
}

func (s *UnitTestSuite) TestAddCustomAlreadyInUse() {
	s.seedInUse("Ooga Booga")

	added, err := s.svc.Allocator.AddCustom(s.ctx, testTenant, "Ooga Booga")
	s.NoError(err)
	s.True(added)
	s.Empty(s.usable())
	s.Equal([]string{"Ooga Booga"}, s.inUse())
	s.assertDisjoint()
}

func (s *UnitTestSuite) TestRemoveCustomWithdrawsEverywhere() {
	_, err := s.svc.Allocator.AddCustom(s.ctx, testTenant, "Usable One")
	s.NoError(err)
	_, err = s.svc.Allocator.AddCustom(s.ctx, testTenant, "Busy One")
	s.NoError(err)
	moved, err := s.svc.Allocator.store.Move(s.ctx, testTenant+":names:usable", testTenant+":names:inuse", "Busy One")
	s.NoError(err)
	s.True(moved)

	removed, err := s.svc.Allocator.RemoveCustom(s.ctx, testTenant, "Usable One")
	s.NoError(err)
	s.True(removed)
	removed, err = s.svc.Allocator.RemoveCustom(s.ctx, testTenant, "Busy One")
	s.NoError(err)
	s.True(removed)

	s.Empty(s.custom())
	s.Empty(s.usable())
	s.Empty(s.inUse())

	removed, err = s.svc.Allocator.RemoveCustom(s.ctx, testTenant, "Busy One")
	s.NoError(err)
	s.False(removed)
}

func (s *UnitTestSuite) TestListCustomPages() {
	for i := 0; i < 250; i++ {
		_, err := s.svc.Allocator.AddCustom(s.ctx, testTenant, fmt.Sprintf("Custom %03d", i))
		s.Require().NoError(err)
	}
	_, ok, err := s.svc.Allocator.Allocate(s.ctx, testTenant)
	s.Require().NoError(err)
	s.Require().True(ok)

	seen := map[string]bool{}
	inUse := 0
	cursor := ""
	for pages := 0; ; pages++ {
		s.Require().Less(pages, 100)
		page, err := s.svc.Allocator.ListCustom(s.ctx, testTenant, cursor)
		s.Require().NoError(err)
		for _, it := range page.Items {
			seen[it.Name] = true
			if it.InUse {
				inUse++
			}
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	s.Len(seen, 250)
	s.Equal(1, inUse)
}

func (s *UnitTestSuite) TestListCustomBadCursor() {
	_, err := s.svc.Allocator.ListCustom(s.ctx, testTenant, "not-a-number")
	s.Error(err)
}

func (s *UnitTestSuite) TestAddCustomRejectsBadInput() {
	_, err := s.svc.Allocator.AddCustom(s.ctx, "a:b", "Misty Glade")
	s.ErrorIs(err, types.ErrInvalidInput)
	_, err = s.svc.Allocator.AddCustom(s.ctx, testTenant, "  ")
	s.ErrorIs(err, types.ErrInvalidInput)
	s.Empty(s.custom())
}

// A pick that lands in the middle of AddCustom must not get a name some channel already holds.
func (s *UnitTestSuite) TestAddCustomDuringConcurrentPick() {
	s.seedInUse("Ooga Booga")
	other := NewService(redis.NewStore(s.cli), &seqGen{names: []string{"Fresh Name"}}, testConfig())

	var picked string
	var pickErr error
	hooked := &hookedStore{Store: redis.NewStore(s.cli), usable: testTenant + ":names:usable"}
	hooked.after = func() {
		picked, pickErr = other.Picker.PickName(s.ctx, testTenant)
	}

	added, err := NewAllocator(hooked).AddCustom(s.ctx, testTenant, "Ooga Booga")
	s.Require().NoError(err)
	s.True(added)

	s.Require().NoError(pickErr)
	s.Equal("Fresh Name", picked)
	s.Empty(s.usable())
	s.ElementsMatch([]string{"Ooga Booga", "Fresh Name"}, s.inUse())
	s.Equal([]string{"Ooga Booga"}, s.custom())
	s.assertDisjoint()
}

func (s *UnitTestSuite) TestAddSkipsUsableNames() {
	s.seedUsable("Moonlit Sonata")

	added, err := s.svc.Allocator.Add(s.ctx, testTenant, "Moonlit Sonata")
	s.NoError(err)
	s.False(added)
	s.Equal([]string{"Moonlit Sonata"}, s.usable())
	s.Empty(s.inUse())
}
