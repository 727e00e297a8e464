package database

import "context"

// DB is the persistence port used by the engine, the aggregator and the API.
type DB interface {
	CategoryDB
	UserDB
	EntryDB
	StatsDB

	Close() error
}

// CategoryDB manages the category catalog.
type CategoryDB interface {
	SeedCategories(ctx context.Context, categories []Category) error
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id uint) (*Category, error)
}

// UserDB manages registered users and their cached footprint.
type UserDB interface {
	CreateUser(ctx context.Context, name, email string) (*User, error)
	GetUser(ctx context.Context, id uint) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUserFootprint(ctx context.Context, userID uint, total float64) error
}

// EntryDB records consumption entries.
type EntryDB interface {
	RecordEntry(ctx context.Context, userID, categoryID uint, amount float64) (*UserEntry, error)
	ListEntriesForUser(ctx context.Context, userID uint) ([]UserEntry, error)
}

// StatsDB computes aggregates over entries and users.
type StatsDB interface {
	GetBreakdown(ctx context.Context, userID uint) ([]BreakdownRow, error)
	SumFootprint(ctx context.Context, userID uint) (float64, error)
	AverageFootprint(ctx context.Context) (float64, error)
	GetPopulationStats(ctx context.Context) (*PopulationStats, error)
}
