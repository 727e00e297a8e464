package models

import (
	"github.com/mergestat/timediff"
	"github.com/samber/lo"
	"github.com/waterprint/waterprint/internal/cache"
	"github.com/waterprint/waterprint/internal/database"
	"github.com/waterprint/waterprint/internal/footprint"
	"github.com/waterprint/waterprint/internal/scheduler"
)

// ToUser converts a database.User. avatarURL may be empty.
func ToUser(u *database.User, avatarURL string) User {
	return User{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		TotalFootprint: u.TotalFootprint,
		AvatarURL:      avatarURL,
		RegisteredAt:   u.CreatedAt,
		RegisteredAgo:  timediff.TimeDiff(u.CreatedAt),
	}
}

// ToCategories converts the catalog.
func ToCategories(categories []database.Category) []Category {
	return lo.Map(categories, func(c database.Category, _ int) Category {
		return Category{
			ID:     c.ID,
			Name:   c.Name,
			Factor: c.Factor,
			Unit:   c.Unit,
		}
	})
}

// ToBreakdownRows converts aggregator rows.
func ToBreakdownRows(rows []footprint.Row) []BreakdownRow {
	return lo.Map(rows, func(r footprint.Row, _ int) BreakdownRow {
		return BreakdownRow{
			CategoryID: r.CategoryID,
			Category:   r.Category,
			Amount:     r.Amount,
			Footprint:  r.Footprint,
		}
	})
}

// ToBreakdownResponse converts a breakdown. Total is the sum of the rows.
func ToBreakdownResponse(userID uint, rows []footprint.Row) BreakdownResponse {
	return BreakdownResponse{
		UserID: userID,
		Rows:   ToBreakdownRows(rows),
		Total:  lo.SumBy(rows, func(r footprint.Row) float64 { return r.Footprint }),
	}
}

// ToEstimateItems converts validated request items.
func ToEstimateItems(items []EstimateItem) []footprint.EstimateItem {
	return lo.Map(items, func(i EstimateItem, _ int) footprint.EstimateItem {
		return footprint.EstimateItem{
			CategoryID: i.CategoryID,
			Amount:     lo.FromPtr(i.Amount),
		}
	})
}

// ToStatsResponse converts population and cache statistics.
func ToStatsResponse(s *database.PopulationStats, caches []*cache.Stats) StatsResponse {
	return StatsResponse{
		Users:            s.Users,
		Entries:          s.Entries,
		AverageFootprint: s.AverageFootprint,
		MinFootprint:     s.MinFootprint,
		MaxFootprint:     s.MaxFootprint,
		Caches: lo.FilterMap(caches, func(c *cache.Stats, _ int) (CacheStats, bool) {
			if c == nil || c.Stats == nil {
				return CacheStats{}, false
			}
			return CacheStats{
				Name:   c.CacheName,
				Hits:   c.Hits,
				Misses: c.Miss,
			}, true
		}),
	}
}

// ToJobs converts scheduler snapshots.
func ToJobs(jobs []scheduler.JobInfo) []Job {
	return lo.Map(jobs, func(j scheduler.JobInfo, _ int) Job {
		job := Job{
			ID:          j.ID,
			Name:        j.Name,
			Description: j.Description,
			Status:      string(j.Status),
			Schedule:    j.Schedule,
			LastRun:     j.LastRun,
			NextRun:     j.NextRun,
			RunCount:    j.RunCount,
			ErrorCount:  j.ErrorCount,
			LastError:   j.LastError,
			LastResult:  j.LastResult,
		}
		if !j.NextRun.IsZero() {
			job.NextRunIn = timediff.TimeDiff(j.NextRun)
		}
		return job
	})
}
