package mock

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/waterprint/waterprint/internal/catalog"
	"github.com/waterprint/waterprint/internal/database"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is an in-memory implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	categories map[uint]database.Category

	users      map[uint]*database.User
	nextUserID uint

	entries     []database.UserEntry
	nextEntryID uint

	// Error simulation
	SeedCategoriesError      error
	ListCategoriesError      error
	CreateUserError          error
	GetUserError             error
	ListUsersError           error
	UpdateUserFootprintError error
	RecordEntryError         error
	GetBreakdownError        error
	SumFootprintError        error
	AverageFootprintError    error

	// ListCategoriesCalls counts calls to ListCategories.
	ListCategoriesCalls int
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	return &MockDB{
		categories:  make(map[uint]database.Category),
		users:       make(map[uint]*database.User),
		nextUserID:  1,
		nextEntryID: 1,
	}
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.categories = make(map[uint]database.Category)
	m.users = make(map[uint]*database.User)
	m.nextUserID = 1
	m.entries = nil
	m.nextEntryID = 1

	m.SeedCategoriesError = nil
	m.ListCategoriesError = nil
	m.CreateUserError = nil
	m.GetUserError = nil
	m.ListUsersError = nil
	m.UpdateUserFootprintError = nil
	m.RecordEntryError = nil
	m.GetBreakdownError = nil
	m.SumFootprintError = nil
	m.AverageFootprintError = nil
	m.ListCategoriesCalls = 0
}

// Category operations

func (m *MockDB) SeedCategories(ctx context.Context, categories []database.Category) error {
	if m.SeedCategoriesError != nil {
		return m.SeedCategoriesError
	}
	for _, c := range categories {
		if !catalog.ValidFactor(c.Factor) {
			return fmt.Errorf("category %d has factor %v: %w", c.ID, c.Factor, database.ErrInvalidArgument)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range categories {
		if _, ok := m.categories[c.ID]; ok {
			continue
		}
		m.categories[c.ID] = c
	}
	return nil
}

func (m *MockDB) ListCategories(ctx context.Context) ([]database.Category, error) {
	m.mu.Lock()
	m.ListCategoriesCalls++
	m.mu.Unlock()

	if m.ListCategoriesError != nil {
		return nil, m.ListCategoriesError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	categories := make([]database.Category, 0, len(m.categories))
	for _, c := range m.categories {
		categories = append(categories, c)
	}
	slices.SortFunc(categories, func(a, b database.Category) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return categories, nil
}

func (m *MockDB) GetCategory(ctx context.Context, id uint) (*database.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", id, database.ErrNotFound)
	}
	return &c, nil
}

// User operations

func (m *MockDB) CreateUser(ctx context.Context, name, email string) (*database.User, error) {
	if m.CreateUserError != nil {
		return nil, m.CreateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user := &database.User{
		Name:  name,
		Email: email,
	}
	user.ID = m.nextUserID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.nextUserID++
	m.users[user.ID] = user

	cp := *user
	return &cp, nil
}

func (m *MockDB) GetUser(ctx context.Context, id uint) (*database.User, error) {
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, database.ErrNotFound)
	}
	cp := *user
	return &cp, nil
}

func (m *MockDB) ListUsers(ctx context.Context) ([]database.User, error) {
	if m.ListUsersError != nil {
		return nil, m.ListUsersError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]database.User, 0, len(m.users))
	for id := uint(1); id < m.nextUserID; id++ {
		if u, ok := m.users[id]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (m *MockDB) UpdateUserFootprint(ctx context.Context, userID uint, total float64) error {
	if m.UpdateUserFootprintError != nil {
		return m.UpdateUserFootprintError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("user %d: %w", userID, database.ErrNotFound)
	}
	user.TotalFootprint = total
	user.UpdatedAt = time.Now()
	return nil
}

// Entry operations

func (m *MockDB) RecordEntry(ctx context.Context, userID, categoryID uint, amount float64) (*database.UserEntry, error) {
	if m.RecordEntryError != nil {
		return nil, m.RecordEntryError
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, fmt.Errorf("amount %v must be a non-negative number: %w", amount, database.ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return nil, fmt.Errorf("user %d: %w", userID, database.ErrNotFound)
	}
	category, ok := m.categories[categoryID]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", categoryID, database.ErrNotFound)
	}

	footprint := amount * category.Factor
	if math.IsInf(footprint, 0) || math.IsNaN(footprint) {
		return nil, fmt.Errorf("footprint of amount %v in category %d overflows: %w", amount, categoryID, database.ErrInvalidArgument)
	}
	total := footprint
	for _, e := range m.entries {
		if e.UserID == userID {
			total += e.Amount * m.categories[e.CategoryID].Factor
		}
	}
	if math.IsInf(total, 0) {
		return nil, fmt.Errorf("total footprint of user %d overflows: %w", userID, database.ErrInvalidArgument)
	}

	entry := database.UserEntry{
		UserID:     userID,
		CategoryID: categoryID,
		Category:   category,
		Amount:     amount,
	}
	entry.ID = m.nextEntryID
	entry.CreatedAt = time.Now()
	m.nextEntryID++
	m.entries = append(m.entries, entry)

	return &entry, nil
}

// ImportEntry appends an entry without any validation, e.g. rows written by an older release.
func (m *MockDB) ImportEntry(userID, categoryID uint, amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := database.UserEntry{
		UserID:     userID,
		CategoryID: categoryID,
		Category:   m.categories[categoryID],
		Amount:     amount,
	}
	entry.ID = m.nextEntryID
	entry.CreatedAt = time.Now()
	m.nextEntryID++
	m.entries = append(m.entries, entry)
}

func (m *MockDB) ListEntriesForUser(ctx context.Context, userID uint) ([]database.UserEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []database.UserEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Aggregates

func (m *MockDB) GetBreakdown(ctx context.Context, userID uint) ([]database.BreakdownRow, error) {
	if m.GetBreakdownError != nil {
		return nil, m.GetBreakdownError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var rows []database.BreakdownRow
	for _, e := range m.entries {
		if e.UserID != userID {
			continue
		}
		rows = append(rows, database.BreakdownRow{
			EntryID:    e.ID,
			CategoryID: e.CategoryID,
			Category:   e.Category.Name,
			Amount:     e.Amount,
			Footprint:  e.Amount * e.Category.Factor,
		})
	}
	return rows, nil
}

func (m *MockDB) SumFootprint(ctx context.Context, userID uint) (float64, error) {
	if m.SumFootprintError != nil {
		return 0, m.SumFootprintError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var total float64
	for _, e := range m.entries {
		if e.UserID == userID {
			total += e.Amount * e.Category.Factor
		}
	}
	return total, nil
}

func (m *MockDB) AverageFootprint(ctx context.Context) (float64, error) {
	if m.AverageFootprintError != nil {
		return 0, m.AverageFootprintError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.users) == 0 {
		return 0, nil
	}
	var sum float64
	for _, u := range m.users {
		sum += u.TotalFootprint
	}
	return sum / float64(len(m.users)), nil
}

func (m *MockDB) GetPopulationStats(ctx context.Context) (*database.PopulationStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &database.PopulationStats{
		Users:   int64(len(m.users)),
		Entries: int64(len(m.entries)),
	}
	first := true
	var sum float64
	for _, u := range m.users {
		sum += u.TotalFootprint
		if first || u.TotalFootprint < stats.MinFootprint {
			stats.MinFootprint = u.TotalFootprint
		}
		if first || u.TotalFootprint > stats.MaxFootprint {
			stats.MaxFootprint = u.TotalFootprint
		}
		first = false
	}
	if len(m.users) > 0 {
		stats.AverageFootprint = sum / float64(len(m.users))
	}
	return stats, nil
}

func (m *MockDB) Close() error {
	return nil
}
