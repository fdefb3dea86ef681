package models

import (
	"time"

	"gorm.io/gorm"
)

type Retreat struct {
	gorm.Model
	Year      int         `json:"year" gorm:"uniqueIndex:idx_retreat_year_type"`
	Type      RetreatType `json:"type" gorm:"uniqueIndex:idx_retreat_year_type"`
	TotalDays int         `json:"total_days"`
	StartDate time.Time   `json:"start_date"`
	EndDate   time.Time   `json:"end_date"`
	Venue     string      `json:"venue"`
	Theme     string      `json:"theme"`
}

// DateOf returns the calendar date of the given 1-based retreat day.
func (r Retreat) DateOf(day int) time.Time {
	return r.StartDate.AddDate(0, 0, day-1)
}
