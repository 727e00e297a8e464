package models

import "time"

// RegisterUserRequest is the body of POST /api/users.
type RegisterUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// RegisterUserResponse is returned after a user was created.
type RegisterUserResponse struct {
	ID     uint   `json:"id"`
	Status string `json:"status"`
}

// RecordEntryRequest is the body of POST /api/users/:id/entries.
// Amount is a pointer so that an explicit 0 passes the required check.
type RecordEntryRequest struct {
	CategoryID uint     `json:"category_id" binding:"required"`
	Amount     *float64 `json:"amount" binding:"required"`
}

// RecordEntryResponse is returned after an entry was stored.
type RecordEntryResponse struct {
	ID     uint   `json:"id"`
	Status string `json:"status"`
}

// User is the public representation of a registered user.
type User struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	TotalFootprint float64   `json:"total_footprint"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	RegisteredAt   time.Time `json:"registered_at"`
	RegisteredAgo  string    `json:"registered_ago"`
}

// Category is one entry of the catalog.
type Category struct {
	ID     uint    `json:"id"`
	Name   string  `json:"name"`
	Factor float64 `json:"factor"`
	Unit   string  `json:"unit,omitempty"`
}

// BreakdownRow is one entry with its footprint in liters.
type BreakdownRow struct {
	CategoryID uint    `json:"category_id"`
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Footprint  float64 `json:"footprint"`
}

// BreakdownResponse lists the entries of a user.
type BreakdownResponse struct {
	UserID uint           `json:"user_id"`
	Rows   []BreakdownRow `json:"rows"`
	Total  float64        `json:"total"`
}

// FootprintResponse carries a user's live total.
type FootprintResponse struct {
	UserID uint    `json:"user_id"`
	Total  float64 `json:"total"`
}

// ComparisonResponse puts the user's total next to the population average.
type ComparisonResponse struct {
	UserID            uint    `json:"user_id"`
	UserTotal         float64 `json:"user_total"`
	PopulationAverage float64 `json:"population_average"`
}

// EstimateItem is an ad-hoc amount for one category.
type EstimateItem struct {
	CategoryID uint     `json:"category_id" binding:"required"`
	Amount     *float64 `json:"amount" binding:"required"`
}

// EstimateRequest is the body of POST /api/estimate.
type EstimateRequest struct {
	Items []EstimateItem `json:"items" binding:"required,min=1,dive"`
}

// EstimateResponse is the footprint of an estimate request.
type EstimateResponse struct {
	Rows  []BreakdownRow `json:"rows"`
	Total float64        `json:"total"`
}

// CacheStats reports hits and misses of a cache.
type CacheStats struct {
	Name   string `json:"name"`
	Hits   int    `json:"hits"`
	Misses int    `json:"misses"`
}

// StatsResponse summarizes all users.
type StatsResponse struct {
	Users            int64        `json:"users"`
	Entries          int64        `json:"entries"`
	AverageFootprint float64      `json:"average_footprint"`
	MinFootprint     float64      `json:"min_footprint"`
	MaxFootprint     float64      `json:"max_footprint"`
	Caches           []CacheStats `json:"caches,omitempty"`
}

// Job is the admin view of a scheduled job.
type Job struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"last_run"`
	NextRun     time.Time `json:"next_run"`
	NextRunIn   string    `json:"next_run_in,omitempty"`
	RunCount    int       `json:"run_count"`
	ErrorCount  int       `json:"error_count"`
	LastError   string    `json:"last_error,omitempty"`
	LastResult  string    `json:"last_result,omitempty"`
}
