// Package report rolls registrations and attendance records of a retreat up
// into breakdowns, daily statistics and per-session rows.
package report

import (
	"cmp"
	"errors"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/gracechurch/retreat-api/internal/models"
)

// ErrNoData is returned when the inputs of a report could not be loaded.
var ErrNoData = errors.New("report data unavailable")

const unknownLabel = "Unknown"

type Slice struct {
	Label      string `json:"label"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type DailyRegistration struct {
	Day        int                     `json:"day"`
	Date       time.Time               `json:"date"`
	Total      int                     `json:"total"`
	Categories map[models.Category]int `json:"categories"`
}

type DailyAttendance struct {
	Day        int                     `json:"day"`
	Date       time.Time               `json:"date"`
	Male       int                     `json:"male"`
	Female     int                     `json:"female"`
	Total      int                     `json:"total"`
	Categories map[models.Category]int `json:"categories"`
}

type AverageAttendance struct {
	DaysCounted int                         `json:"days_counted"`
	Total       float64                     `json:"total"`
	Categories  map[models.Category]float64 `json:"categories"`
}

type SessionRow struct {
	SessionID     uint            `json:"session_id"`
	Day           int             `json:"day"`
	Date          time.Time       `json:"date"`
	Category      models.Category `json:"category"`
	SessionNumber int             `json:"session_number"`
	Name          string          `json:"name"`
	TimeRange     string          `json:"time_range"`
	IsGSMessage   bool            `json:"is_gs_message"`
	Male          int             `json:"male"`
	Female        int             `json:"female"`
	Total         int             `json:"total"`
	Recorded      bool            `json:"recorded"`
}

type Report struct {
	Retreat            models.Retreat      `json:"retreat"`
	TotalRegistrations int                 `json:"total_registrations"`
	Categories         []Slice             `json:"categories"`
	Genders            []Slice             `json:"genders"`
	Nationalities      []Slice             `json:"nationalities"`
	Locations          []Slice             `json:"locations"`
	InvitationTypes    []Slice             `json:"invitation_types"`
	DailyRegistrations []DailyRegistration `json:"daily_registrations"`
	DailyAttendance    []DailyAttendance   `json:"daily_attendance"`
	AverageAttendance  AverageAttendance   `json:"average_attendance"`
	Sessions           []SessionRow        `json:"sessions"`
}

// Build computes the full report. It performs no I/O.
func Build(retreat models.Retreat, registrations []models.Registration, sessions []models.AttendanceSession, records []models.AttendanceRecord) *Report {
	daily := DailyAttendanceStats(retreat, sessions, records)

	return &Report{
		Retreat:            retreat,
		TotalRegistrations: len(registrations),
		Categories: Breakdown(registrations, labels(models.Categories), func(r models.Registration) string {
			return string(r.Category)
		}),
		Genders: Breakdown(registrations, labels(models.Genders), func(r models.Registration) string {
			return string(r.Gender)
		}),
		Nationalities: Breakdown(registrations, nil, func(r models.Registration) string {
			return r.Nationality
		}),
		Locations: Breakdown(registrations, nil, func(r models.Registration) string {
			return r.Location
		}),
		InvitationTypes: Breakdown(registrations, labels(models.InvitationTypes), func(r models.Registration) string {
			return string(r.InvitationType)
		}),
		DailyRegistrations: DailyRegistrationStats(retreat, registrations),
		DailyAttendance:    daily,
		AverageAttendance:  Average(daily),
		Sessions:           SessionRows(sessions, records),
	}
}

// Percentage returns round(count/total*100), or 0 when total is 0.
func Percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// Breakdown groups registrations by key. Every label in fixed is reported even
// when nobody matches it; blank keys are grouped as "Unknown". Slices are
// ordered by count, then by position in fixed, then by label.
func Breakdown(registrations []models.Registration, fixed []string, key func(models.Registration) string) []Slice {
	counts := make(map[string]int)
	order := make(map[string]int)
	for i, label := range fixed {
		counts[label] = 0
		order[label] = i
	}

	for _, r := range registrations {
		label := strings.TrimSpace(key(r))
		if label == "" {
			label = unknownLabel
		}
		counts[label]++
	}

	total := len(registrations)
	out := make([]Slice, 0, len(counts))
	for label, count := range counts {
		out = append(out, Slice{Label: label, Count: count, Percentage: Percentage(count, total)})
	}

	rank := func(label string) int {
		if i, ok := order[label]; ok {
			return i
		}
		return len(fixed)
	}
	sortSlices(out, rank)
	return out
}

func sortSlices(s []Slice, rank func(string) int) {
	slices.SortFunc(s, func(a, b Slice) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(rank(a.Label), rank(b.Label)); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})
}

func emptyCategoryCounts() map[models.Category]int {
	counts := make(map[models.Category]int, len(models.Categories))
	for _, c := range models.Categories {
		counts[c] = 0
	}
	return counts
}

// DailyRegistrationStats counts registrations per category for every day of
// the retreat.
func DailyRegistrationStats(retreat models.Retreat, registrations []models.Registration) []DailyRegistration {
	days := make([]DailyRegistration, max(retreat.TotalDays, 0))
	for i := range days {
		days[i] = DailyRegistration{
			Day:        i + 1,
			Date:       retreat.DateOf(i + 1),
			Categories: emptyCategoryCounts(),
		}
	}

	for _, r := range registrations {
		if r.Day < 1 || r.Day > retreat.TotalDays {
			continue
		}
		d := &days[r.Day-1]
		d.Total++
		d.Categories[r.Category]++
	}
	return days
}

// DailyAttendanceStats sums attendance record totals per category for every
// day of the retreat.
func DailyAttendanceStats(retreat models.Retreat, sessions []models.AttendanceSession, records []models.AttendanceRecord) []DailyAttendance {
	days := make([]DailyAttendance, max(retreat.TotalDays, 0))
	for i := range days {
		days[i] = DailyAttendance{
			Day:        i + 1,
			Date:       retreat.DateOf(i + 1),
			Categories: emptyCategoryCounts(),
		}
	}

	bySession := recordsBySession(records)
	for _, s := range sessions {
		rec, ok := bySession[s.ID]
		if !ok || s.Day < 1 || s.Day > retreat.TotalDays {
			continue
		}
		d := &days[s.Day-1]
		d.Male += rec.Male
		d.Female += rec.Female
		d.Total += rec.Male + rec.Female
		d.Categories[s.Category] += rec.Male + rec.Female
	}
	return days
}

// Average returns the mean daily attendance per category and overall. Only
// days whose total is nonzero are counted, so days without recorded
// attendance do not pull the average down.
func Average(days []DailyAttendance) AverageAttendance {
	avg := AverageAttendance{Categories: make(map[models.Category]float64, len(models.Categories))}
	for _, c := range models.Categories {
		avg.Categories[c] = 0
	}

	sums := make(map[models.Category]int)
	total := 0
	for _, d := range days {
		if d.Total == 0 {
			continue
		}
		avg.DaysCounted++
		total += d.Total
		for c, n := range d.Categories {
			sums[c] += n
		}
	}

	if avg.DaysCounted == 0 {
		return avg
	}
	n := float64(avg.DaysCounted)
	avg.Total = float64(total) / n
	for c, sum := range sums {
		avg.Categories[c] = float64(sum) / n
	}
	return avg
}

// SessionRows joins every session with its record. Sessions without a record
// report zero counts.
func SessionRows(sessions []models.AttendanceSession, records []models.AttendanceRecord) []SessionRow {
	bySession := recordsBySession(records)

	rows := make([]SessionRow, 0, len(sessions))
	for _, s := range sessions {
		row := SessionRow{
			SessionID:     s.ID,
			Day:           s.Day,
			Date:          s.Date,
			Category:      s.Category,
			SessionNumber: s.SessionNumber,
			Name:          s.Name,
			TimeRange:     s.TimeRange(),
			IsGSMessage:   s.IsGSMessage,
		}
		if rec, ok := bySession[s.ID]; ok {
			row.Male = rec.Male
			row.Female = rec.Female
			row.Total = rec.Male + rec.Female
			row.Recorded = true
		}
		rows = append(rows, row)
	}

	slices.SortFunc(rows, func(a, b SessionRow) int {
		if c := cmp.Compare(a.Day, b.Day); c != 0 {
			return c
		}
		if c := strings.Compare(string(a.Category), string(b.Category)); c != 0 {
			return c
		}
		return cmp.Compare(a.SessionNumber, b.SessionNumber)
	})
	return rows
}

func recordsBySession(records []models.AttendanceRecord) map[uint]models.AttendanceRecord {
	m := make(map[uint]models.AttendanceRecord, len(records))
	for _, r := range records {
		m[r.SessionID] = r
	}
	return m
}

func labels[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
