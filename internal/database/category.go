package database

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/waterprint/waterprint/internal/catalog"
	"gorm.io/gorm/clause"
)

// Category is immutable reference data. The id is assigned by the catalog, not by the database.
type Category struct {
	ID     uint    `gorm:"primaryKey;autoIncrement:false"`
	Name   string  `gorm:"not null"`
	Factor float64 `gorm:"not null"` // liters per unit
	Unit   string
}

// CategoriesFromCatalog converts catalog entries into database rows.
func CategoriesFromCatalog(entries []catalog.Entry) []Category {
	categories := make([]Category, 0, len(entries))
	for _, e := range entries {
		categories = append(categories, Category{
			ID:     e.ID,
			Name:   e.Name,
			Factor: e.Factor,
			Unit:   e.Unit,
		})
	}
	return categories
}

// SeedCategories inserts the categories that don't exist yet.
// Existing rows are never overwritten.
func (c *Client) SeedCategories(ctx context.Context, categories []Category) error {
	if len(categories) == 0 {
		return nil
	}
	for _, category := range categories {
		if !catalog.ValidFactor(category.Factor) {
			return fmt.Errorf("category %d has factor %v: %w", category.ID, category.Factor, ErrInvalidArgument)
		}
	}

	result := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&categories)
	if result.Error != nil {
		log.Error("failed to seed categories", "error", result.Error)
		return result.Error
	}
	log.Debug("seeded categories", "requested", len(categories), "inserted", result.RowsAffected)
	return nil
}

// ListCategories returns all categories ordered by id.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.db.WithContext(ctx).Order("id ASC").Find(&categories).Error; err != nil {
		log.Error("failed to list categories", "error", err)
		return nil, err
	}
	return categories, nil
}

func (c *Client) GetCategory(ctx context.Context, id uint) (*Category, error) {
	var category Category
	if err := c.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFound(err, "category %d", id)
	}
	return &category, nil
}
