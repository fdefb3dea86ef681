package models

import (
	"gorm.io/gorm"
)

// Preferences are per-admin UI settings persisted server side.
type Preferences struct {
	SidebarOpen bool   `json:"sidebar_open"`
	Theme       string `json:"theme"`
}

func DefaultPreferences() Preferences {
	return Preferences{SidebarOpen: true, Theme: "light"}
}

type Admin struct {
	gorm.Model
	Username     string      `json:"username" gorm:"uniqueIndex"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	DiscordID    *string     `json:"discord_id,omitempty" gorm:"uniqueIndex"`
	Preferences  Preferences `json:"preferences" gorm:"embedded;embeddedPrefix:pref_"`
}
