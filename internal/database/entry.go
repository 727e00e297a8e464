package database

import (
	"context"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserEntry is an amount recorded by a user against a category. Entries are append-only.
type UserEntry struct {
	gorm.Model
	UserID     uint     `gorm:"not null;index"`
	CategoryID uint     `gorm:"not null;index"`
	Category   Category `gorm:"constraint:OnDelete:RESTRICT;"`
	Amount     float64  `gorm:"not null"`
}

// RecordEntry stores a new entry after checking that both the user and the category exist.
// Nothing is written when a check fails.
func (c *Client) RecordEntry(ctx context.Context, userID, categoryID uint, amount float64) (*UserEntry, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, fmt.Errorf("amount %v must be a non-negative number: %w", amount, ErrInvalidArgument)
	}

	entry := UserEntry{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}

		var category Category
		if err := tx.First(&category, categoryID).Error; err != nil {
			return notFound(err, "category %d", categoryID)
		}

		// the footprint and the user's new total must stay representable
		footprint := amount * category.Factor
		if math.IsInf(footprint, 0) || math.IsNaN(footprint) {
			return fmt.Errorf("footprint of amount %v in category %d overflows: %w", amount, categoryID, ErrInvalidArgument)
		}
		var total float64
		if err := tx.Model(&UserEntry{}).
			Select("COALESCE(SUM(user_entries.amount * categories.factor), 0.0)").
			Joins("JOIN categories ON categories.id = user_entries.category_id").
			Where("user_entries.user_id = ?", userID).
			Scan(&total).Error; err != nil {
			return err
		}
		if math.IsInf(total+footprint, 0) {
			return fmt.Errorf("total footprint of user %d overflows: %w", userID, ErrInvalidArgument)
		}

		return tx.Omit(clause.Associations).Create(&entry).Error
	})
	if err != nil {
		log.Debug("failed to record entry", "user_id", userID, "category_id", categoryID, "error", err)
		return nil, err
	}
	return &entry, nil
}

// ListEntriesForUser returns the entries of a user in insertion order, with their category loaded.
func (c *Client) ListEntriesForUser(ctx context.Context, userID uint) ([]UserEntry, error) {
	var entries []UserEntry
	result := c.db.WithContext(ctx).
		Preload("Category").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&entries)
	if result.Error != nil {
		log.Error("failed to list entries for user", "error", result.Error)
		return nil, result.Error
	}
	return entries, nil
}
