package database

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DatabaseTestSuite struct {
	suite.Suite
	ctx context.Context
	db  *Client
}

func TestDatabaseTestSuite(t *testing.T) {
	suite.Run(t, new(DatabaseTestSuite))
}

func (s *DatabaseTestSuite) SetupTest() {
	s.ctx = context.Background()
	db, err := New(filepath.Join(s.T().TempDir(), "waterprint.db"))
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(s.db.SeedCategories(s.ctx, []Category{
		{ID: 1, Name: "Beef", Factor: 15400, Unit: "kg"},
		{ID: 2, Name: "Rice", Factor: 2500, Unit: "kg"},
	}))
}

func (s *DatabaseTestSuite) TearDownTest() {
	if s.db != nil {
		s.NoError(s.db.Close())
	}
}

func (s *DatabaseTestSuite) TestSeedCategoriesIsIdempotent() {
	err := s.db.SeedCategories(s.ctx, []Category{
		{ID: 1, Name: "Beef (changed)", Factor: 1},
		{ID: 2, Name: "Rice", Factor: 2500},
	})
	s.Require().NoError(err)

	categories, err := s.db.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Len(categories, 2)
	s.Equal("Beef", categories[0].Name)
	s.Equal(float64(15400), categories[0].Factor)
	s.Equal("Rice", categories[1].Name)
}

func (s *DatabaseTestSuite) TestSeedCategoriesAddsMissing() {
	s.Require().NoError(s.db.SeedCategories(s.ctx, []Category{{ID: 3, Name: "Coffee", Factor: 140}}))

	categories, err := s.db.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Len(categories, 3)
	s.Equal(uint(3), categories[2].ID)
}

func (s *DatabaseTestSuite) TestSeedCategoriesRejectsInvalidFactor() {
	for _, factor := range []float64{0, -1, math.NaN()} {
		err := s.db.SeedCategories(s.ctx, []Category{{ID: 9, Name: "Broken", Factor: factor}})
		s.ErrorIs(err, ErrInvalidArgument)
	}

	_, err := s.db.GetCategory(s.ctx, 9)
	s.ErrorIs(err, ErrNotFound)
}

func (s *DatabaseTestSuite) TestCreateAndGetUser() {
	alice, err := s.db.CreateUser(s.ctx, "Alice", "alice@example.com")
	s.Require().NoError(err)
	bob, err := s.db.CreateUser(s.ctx, "Bob", "bob@example.com")
	s.Require().NoError(err)

	s.NotZero(alice.ID)
	s.NotEqual(alice.ID, bob.ID)
	s.Zero(alice.TotalFootprint)

	got, err := s.db.GetUser(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal("Alice", got.Name)
	s.Equal("alice@example.com", got.Email)

	users, err := s.db.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 2)
}

func (s *DatabaseTestSuite) TestGetUserNotFound() {
	_, err := s.db.GetUser(s.ctx, 42)
	s.ErrorIs(err, ErrNotFound)
}

func (s *DatabaseTestSuite) TestRecordEntryValidation() {
	user, err := s.db.CreateUser(s.ctx, "Alice", "alice@example.com")
	s.Require().NoError(err)

	_, err = s.db.RecordEntry(s.ctx, user.ID, 1, -1)
	s.ErrorIs(err, ErrInvalidArgument)

	_, err = s.db.RecordEntry(s.ctx, user.ID, 1, math.Inf(1))
	s.ErrorIs(err, ErrInvalidArgument)

	_, err = s.db.RecordEntry(s.ctx, 999, 1, 1)
	s.ErrorIs(err, ErrNotFound)

	_, err = s.db.RecordEntry(s.ctx, user.ID, 999, 1)
	s.ErrorIs(err, ErrNotFound)

	entries, err := s.db.ListEntriesForUser(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Empty(entries, "failed writes must leave the store unchanged")
}

func (s *DatabaseTestSuite) TestRecordEntryRejectsOverflow() {
	user, err := s.db.CreateUser(s.ctx, "Alice", "alice@example.com")
	s.Require().NoError(err)

	_, err = s.db.RecordEntry(s.ctx, user.ID, 1, math.MaxFloat64)
	s.ErrorIs(err, ErrInvalidArgument)

	// each entry is finite on its own but the sum is not
	_, err = s.db.RecordEntry(s.ctx, user.ID, 1, math.MaxFloat64/15400*0.6)
	s.Require().NoError(err)
	_, err = s.db.RecordEntry(s.ctx, user.ID, 1, math.MaxFloat64/15400*0.6)
	s.ErrorIs(err, ErrInvalidArgument)

	entries, err := s.db.ListEntriesForUser(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Len(entries, 1)

	total, err := s.db.SumFootprint(s.ctx, user.ID)
	s.Require().NoError(err)
	s.False(math.IsInf(total, 0))
}

func (s *DatabaseTestSuite) TestRecordEntryAllowsZero() {
	user, err := s.db.CreateUser(s.ctx, "Alice", "alice@example.com")
	s.Require().NoError(err)

	entry, err := s.db.RecordEntry(s.ctx, user.ID, 2, 0)
	s.Require().NoError(err)
	s.NotZero(entry.ID)
}

func (s *DatabaseTestSuite) TestSumAndBreakdown() {
	alice, err := s.db.CreateUser(s.ctx, "Alice", "alice@example.com")
	s.Require().NoError(err)
	bob, err := s.db.CreateUser(s.ctx, "Bob", "bob@example.com")
	s.Require().NoError(err)

	_, err = s.db.RecordEntry(s.ctx, alice.ID, 2, 3)
	s.Require().NoError(err)
	_, err = s.db.RecordEntry(s.ctx, bob.ID, 1, 10)
	s.Require().NoError(err)
	_, err = s.db.RecordEntry(s.ctx, alice.ID, 1, 2)
	s.Require().NoError(err)

	total, err := s.db.SumFootprint(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal(float64(2*15400+3*2500), total)

	rows, err := s.db.GetBreakdown(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)

	// insertion order, not sorted by category
	s.Equal("Rice", rows[0].Category)
	s.Equal(float64(3), rows[0].Amount)
	s.Equal(float64(7500), rows[0].Footprint)
	s.Equal(uint(2), rows[0].CategoryID)
	s.Equal("Beef", rows[1].Category)
	s.Equal(float64(30800), rows[1].Footprint)

	entries, err := s.db.ListEntriesForUser(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("Rice", entries[0].Category.Name)
}

func (s *DatabaseTestSuite) TestSumWithoutEntries() {
	user, err := s.db.CreateUser(s.ctx, "Alice", "alice@example.com")
	s.Require().NoError(err)

	total, err := s.db.SumFootprint(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Zero(total)

	rows, err := s.db.GetBreakdown(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *DatabaseTestSuite) TestAverageFootprintUsesCachedTotals() {
	avg, err := s.db.AverageFootprint(s.ctx)
	s.Require().NoError(err)
	s.Zero(avg)

	a, err := s.db.CreateUser(s.ctx, "A", "a@example.com")
	s.Require().NoError(err)
	b, err := s.db.CreateUser(s.ctx, "B", "b@example.com")
	s.Require().NoError(err)

	s.Require().NoError(s.db.UpdateUserFootprint(s.ctx, a.ID, 100))
	s.Require().NoError(s.db.UpdateUserFootprint(s.ctx, b.ID, 300))

	avg, err = s.db.AverageFootprint(s.ctx)
	s.Require().NoError(err)
	s.Equal(float64(200), avg)

	stats, err := s.db.GetPopulationStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), stats.Users)
	s.Equal(int64(0), stats.Entries)
	s.Equal(float64(200), stats.AverageFootprint)
	s.Equal(float64(100), stats.MinFootprint)
	s.Equal(float64(300), stats.MaxFootprint)
}

func (s *DatabaseTestSuite) TestUpdateUserFootprintNotFound() {
	err := s.db.UpdateUserFootprint(s.ctx, 77, 1)
	s.ErrorIs(err, ErrNotFound)
}
