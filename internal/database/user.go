package database

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// User is a registered user. TotalFootprint caches the last recomputed total;
// the entries are the authoritative source.
type User struct {
	gorm.Model
	Name           string      `gorm:"not null"`
	Email          string      `gorm:"not null;index"`
	TotalFootprint float64     `gorm:"not null;default:0"`
	Entries        []UserEntry `gorm:"constraint:OnDelete:CASCADE;"`
}

func (c *Client) CreateUser(ctx context.Context, name, email string) (*User, error) {
	user := User{
		Name:  name,
		Email: email,
	}
	if err := c.db.WithContext(ctx).Create(&user).Error; err != nil {
		log.Error("failed to create user", "error", err)
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUser(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by ID", "error", err)
		}
		return nil, notFound(err, "user %d", id)
	}
	return &user, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		log.Error("failed to list users", "error", err)
		return nil, err
	}
	return users, nil
}

// UpdateUserFootprint overwrites the cached total of a user.
func (c *Client) UpdateUserFootprint(ctx context.Context, userID uint, total float64) error {
	result := c.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", userID).
		Update("total_footprint", total)
	if result.Error != nil {
		log.Error("failed to update user footprint", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "user %d", userID)
	}
	return nil
}
