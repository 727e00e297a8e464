package footprint

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/waterprint/waterprint/internal/database"
)

// ErrNotFinite is returned when stored entries add up to a footprint that cannot be represented.
var ErrNotFinite = errors.New("footprint is not a finite number")

// Row is one breakdown line: a single entry with its derived footprint in liters.
type Row struct {
	CategoryID uint    `json:"category_id"`
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Footprint  float64 `json:"footprint"`
}

// Comparison puts a user's live total next to the population average.
type Comparison struct {
	UserTotal         float64 `json:"user_total"`
	PopulationAverage float64 `json:"population_average"`
}

// Report is everything an exporter needs to render a user's result.
type Report struct {
	UserID   uint
	UserName string
	Email    string
	Rows     []Row
	Total    float64
}

// CategoryTotal is the summed footprint of all entries of one category.
type CategoryTotal struct {
	Category  string
	Footprint float64
}

// Aggregator derives footprints from recorded entries.
type Aggregator struct {
	db database.DB
}

// New creates an Aggregator on top of the given store.
func New(db database.DB) *Aggregator {
	return &Aggregator{db: db}
}

// ComputeBreakdown returns one row per entry of the user, in insertion order.
func (a *Aggregator) ComputeBreakdown(ctx context.Context, userID uint) ([]Row, error) {
	if _, err := a.db.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	breakdown, err := a.db.GetBreakdown(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute breakdown: %w", err)
	}

	return lo.Map(breakdown, func(r database.BreakdownRow, _ int) Row {
		return Row{
			CategoryID: r.CategoryID,
			Category:   r.Category,
			Amount:     r.Amount,
			Footprint:  r.Footprint,
		}
	}), nil
}

// ComputeTotal returns the live footprint of the user. It is 0 without entries.
func (a *Aggregator) ComputeTotal(ctx context.Context, userID uint) (float64, error) {
	if _, err := a.db.GetUser(ctx, userID); err != nil {
		return 0, err
	}

	total, err := a.db.SumFootprint(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to compute total: %w", err)
	}
	return total, nil
}

// RecomputeAndStore computes the live total and writes it to the user's cached footprint.
func (a *Aggregator) RecomputeAndStore(ctx context.Context, userID uint) (float64, error) {
	total, err := a.ComputeTotal(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !finite(total) {
		return 0, fmt.Errorf("footprint %v of user %d cannot be stored: %w", total, userID, ErrNotFinite)
	}

	if err := a.db.UpdateUserFootprint(ctx, userID, total); err != nil {
		return 0, fmt.Errorf("failed to store footprint: %w", err)
	}
	return total, nil
}

// CompareToAverage returns the user's live total and the mean of the cached totals.
// The average may be stale until every user has been recomputed.
func (a *Aggregator) CompareToAverage(ctx context.Context, userID uint) (*Comparison, error) {
	total, err := a.ComputeTotal(ctx, userID)
	if err != nil {
		return nil, err
	}

	avg, err := a.db.AverageFootprint(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute average: %w", err)
	}
	if !finite(total) || !finite(avg) {
		return nil, fmt.Errorf("comparison for user %d: %w", userID, ErrNotFinite)
	}

	return &Comparison{
		UserTotal:         total,
		PopulationAverage: avg,
	}, nil
}

// RecomputeAll refreshes the cached footprint of every user and returns how many were updated.
// Users are processed one by one; the first failure stops the run.
func (a *Aggregator) RecomputeAll(ctx context.Context) (int, error) {
	users, err := a.db.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	updated := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		total, err := a.RecomputeAndStore(ctx, u.ID)
		if err != nil {
			log.Error("failed to recompute footprint", "user", u.ID, "error", err)
			return updated, err
		}
		log.Debug("recomputed footprint", "user", u.ID, "total", total)
		updated++
	}
	return updated, nil
}

// BuildReport gathers the user, the breakdown and the live total.
func (a *Aggregator) BuildReport(ctx context.Context, userID uint) (*Report, error) {
	user, err := a.db.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := a.ComputeBreakdown(ctx, userID)
	if err != nil {
		return nil, err
	}

	total, err := a.db.SumFootprint(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute total: %w", err)
	}

	return &Report{
		UserID:   user.ID,
		UserName: user.Name,
		Email:    user.Email,
		Rows:     rows,
		Total:    total,
	}, nil
}

// ByCategory sums the rows per category, keeping the order in which categories first appear.
func ByCategory(rows []Row) []CategoryTotal {
	totals := make([]CategoryTotal, 0, len(rows))
	index := make(map[uint]int, len(rows))
	for _, r := range rows {
		if i, ok := index[r.CategoryID]; ok {
			totals[i].Footprint += r.Footprint
			continue
		}
		index[r.CategoryID] = len(totals)
		totals = append(totals, CategoryTotal{Category: r.Category, Footprint: r.Footprint})
	}
	return totals
}

// validAmount reports whether amount is a finite, non-negative number.
func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

func validAmount(amount float64) bool {
	return amount >= 0 && !math.IsInf(amount, 0) && !math.IsNaN(amount)
}
