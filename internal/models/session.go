package models

import (
	"time"

	"gorm.io/gorm"
)

type AttendanceSession struct {
	gorm.Model
	RetreatID     uint      `json:"retreat_id" gorm:"index"`
	Category      Category  `json:"category"`
	SessionNumber int       `json:"session_number"`
	Day           int       `json:"day"`
	Date          time.Time `json:"date"`
	Name          string    `json:"name"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	IsGSMessage   bool      `json:"is_gs_message"`
}

// TimeRange formats the session slot as "HH:MM-HH:MM".
func (s AttendanceSession) TimeRange() string {
	return s.StartTime + "-" + s.EndTime
}

type AttendanceRecord struct {
	gorm.Model
	SessionID uint              `json:"session_id" gorm:"uniqueIndex"`
	Session   AttendanceSession `json:"-" gorm:"foreignKey:SessionID"`
	Male      int               `json:"male"`
	Female    int               `json:"female"`
	Total     int               `json:"total"`
}

// BeforeSave keeps Total derived from the head counts.
func (r *AttendanceRecord) BeforeSave(tx *gorm.DB) error {
	r.Total = r.Male + r.Female
	return nil
}
