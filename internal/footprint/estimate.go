package footprint

import (
	"context"
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/waterprint/waterprint/internal/database"
)

// EstimateItem is an ad-hoc amount for one category.
type EstimateItem struct {
	CategoryID uint
	Amount     float64
}

// Estimate is the footprint of a set of ad-hoc amounts.
type Estimate struct {
	Rows  []Row   `json:"rows"`
	Total float64 `json:"total"`
}

// Estimate computes the footprint of the given amounts without storing anything.
func (a *Aggregator) Estimate(ctx context.Context, items []EstimateItem) (*Estimate, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("at least one item is required: %w", database.ErrInvalidArgument)
	}

	categories, err := a.db.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	byID := lo.KeyBy(categories, func(c database.Category) uint { return c.ID })

	est := &Estimate{Rows: make([]Row, 0, len(items))}
	for _, item := range items {
		if !validAmount(item.Amount) {
			return nil, fmt.Errorf("amount %v for category %d: %w", item.Amount, item.CategoryID, database.ErrInvalidArgument)
		}
		category, ok := byID[item.CategoryID]
		if !ok {
			return nil, fmt.Errorf("category %d: %w", item.CategoryID, database.ErrNotFound)
		}
		footprint := item.Amount * category.Factor
		if math.IsInf(footprint, 0) || math.IsInf(est.Total+footprint, 0) {
			return nil, fmt.Errorf("footprint of amount %v in category %d overflows: %w", item.Amount, item.CategoryID, database.ErrInvalidArgument)
		}
		est.Rows = append(est.Rows, Row{
			CategoryID: category.ID,
			Category:   category.Name,
			Amount:     item.Amount,
			Footprint:  footprint,
		})
		est.Total += footprint
	}
	return est, nil
}
