package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gracechurch/retreat-api/internal/models"
	"gorm.io/gorm"
)

var ErrAdminExists = errors.New("admin already exists")

const MinPasswordLength = 8

type NewAdmin struct {
	Username  string
	Email     string
	Password  string
	DiscordID string
}

// CreateAdmin stores a new admin account with a hashed password and the
// default preferences.
func CreateAdmin(ctx context.Context, db *gorm.DB, in NewAdmin) (models.Admin, error) {
	if in.Username == "" {
		return models.Admin{}, errors.New("username is required")
	}
	if len(in.Password) < MinPasswordLength {
		return models.Admin{}, fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	var count int64
	q := db.WithContext(ctx).Model(&models.Admin{}).Where("username = ?", in.Username)
	if in.DiscordID != "" {
		q = q.Or("discord_id = ?", in.DiscordID)
	}
	if err := q.Count(&count).Error; err != nil {
		return models.Admin{}, err
	}
	if count > 0 {
		return models.Admin{}, ErrAdminExists
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return models.Admin{}, err
	}

	admin := models.Admin{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Preferences:  models.DefaultPreferences(),
	}
	if in.DiscordID != "" {
		id := in.DiscordID
		admin.DiscordID = &id
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return models.Admin{}, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}
