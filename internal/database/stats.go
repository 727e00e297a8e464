package database

import (
	"context"

	"github.com/charmbracelet/log"
)

// BreakdownRow is one entry of a user joined with its category.
type BreakdownRow struct {
	EntryID    uint
	CategoryID uint
	Category   string
	Amount     float64
	Footprint  float64
}

// PopulationStats summarizes the cached footprints of all users.
type PopulationStats struct {
	Users            int64
	Entries          int64
	AverageFootprint float64
	MinFootprint     float64
	MaxFootprint     float64
}

// GetBreakdown joins the entries of a user with the category factors.
// Rows are returned in insertion order.
func (c *Client) GetBreakdown(ctx context.Context, userID uint) ([]BreakdownRow, error) {
	var rows []BreakdownRow
	result := c.db.WithContext(ctx).
		Model(&UserEntry{}).
		Select(`user_entries.id AS entry_id,
			categories.id AS category_id,
			categories.name AS category,
			user_entries.amount AS amount,
			user_entries.amount * categories.factor AS footprint`).
		Joins("JOIN categories ON categories.id = user_entries.category_id").
		Where("user_entries.user_id = ?", userID).
		Order("user_entries.id ASC").
		Scan(&rows)
	if result.Error != nil {
		log.Error("failed to get breakdown", "error", result.Error)
		return nil, result.Error
	}
	return rows, nil
}

// SumFootprint computes sum(amount * factor) over the entries of a user in a single query.
// It returns 0 when the user has no entries.
func (c *Client) SumFootprint(ctx context.Context, userID uint) (float64, error) {
	var total float64
	result := c.db.WithContext(ctx).
		Model(&UserEntry{}).
		Select("COALESCE(SUM(user_entries.amount * categories.factor), 0.0)").
		Joins("JOIN categories ON categories.id = user_entries.category_id").
		Where("user_entries.user_id = ?", userID).
		Scan(&total)
	if result.Error != nil {
		log.Error("failed to sum footprint", "error", result.Error)
		return 0, result.Error
	}
	return total, nil
}

// AverageFootprint returns the mean of the cached footprint over all users.
func (c *Client) AverageFootprint(ctx context.Context) (float64, error) {
	var avg float64
	result := c.db.WithContext(ctx).
		Model(&User{}).
		Select("COALESCE(AVG(total_footprint), 0.0)").
		Scan(&avg)
	if result.Error != nil {
		log.Error("failed to average footprint", "error", result.Error)
		return 0, result.Error
	}
	return avg, nil
}

func (c *Client) GetPopulationStats(ctx context.Context) (*PopulationStats, error) {
	var stats PopulationStats
	result := c.db.WithContext(ctx).
		Model(&User{}).
		Select(`COUNT(*) AS users,
			COALESCE(AVG(total_footprint), 0.0) AS average_footprint,
			COALESCE(MIN(total_footprint), 0.0) AS min_footprint,
			COALESCE(MAX(total_footprint), 0.0) AS max_footprint`).
		Scan(&stats)
	if result.Error != nil {
		log.Error("failed to get population stats", "error", result.Error)
		return nil, result.Error
	}

	if err := c.db.WithContext(ctx).Model(&UserEntry{}).Count(&stats.Entries).Error; err != nil {
		log.Error("failed to count entries", "error", err)
		return nil, err
	}
	return &stats, nil
}
