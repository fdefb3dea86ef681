// Package schedule expands per-category session templates into the concrete
// sessions of a retreat.
package schedule

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gracechurch/retreat-api/internal/models"
)

// Template describes one recurring session slot of a category.
type Template struct {
	Name      string `json:"name" validate:"required"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

// Templates maps a category to its ordered session templates.
type Templates map[models.Category][]Template

var ErrInvalidTemplates = errors.New("invalid session templates")

var validate = validator.New()

// Validate checks every template and reports all problems in one error.
func Validate(templates Templates) error {
	var problems []string

	for category, list := range templates {
		if !category.Valid() {
			problems = append(problems, fmt.Sprintf("unknown category %q", category))
			continue
		}
		if len(list) == 0 {
			problems = append(problems, fmt.Sprintf("%s: at least one session is required", category))
			continue
		}
		for i, tpl := range list {
			tpl.Name = strings.TrimSpace(tpl.Name)
			if err := validate.Struct(tpl); err != nil {
				var verrs validator.ValidationErrors
				if errors.As(err, &verrs) {
					for _, fe := range verrs {
						problems = append(problems, fmt.Sprintf("%s #%d: %s is %s", category, i+1, fieldName(fe.Field()), describe(fe.Tag())))
					}
					continue
				}
				problems = append(problems, fmt.Sprintf("%s #%d: %v", category, i+1, err))
				continue
			}
			if clock(tpl.EndTime).Before(clock(tpl.StartTime)) {
				problems = append(problems, fmt.Sprintf("%s #%d: end time is before start time", category, i+1))
			}
		}
	}

	if len(problems) > 0 {
		slices.Sort(problems)
		return fmt.Errorf("%w: %s", ErrInvalidTemplates, strings.Join(problems, "; "))
	}
	return nil
}

// IsGSMessage reports whether the template at 1-based position pos of a list
// of n templates carries the GS Message segment.
func IsGSMessage(pos, n int) bool {
	return pos == 1 || pos == 3 || pos == n
}

// templatesForDay returns the 1-based template positions scheduled on day.
func templatesForDay(day, totalDays, n int) []int {
	switch {
	case day == totalDays:
		return []int{1}
	case day == 1:
		return []int{n}
	default:
		positions := make([]int, n)
		for i := range positions {
			positions[i] = i + 1
		}
		return positions
	}
}

// Generate validates the templates and expands them over totalDays starting
// at start. Nothing is produced when validation fails.
func Generate(retreatID uint, totalDays int, start time.Time, templates Templates) ([]models.AttendanceSession, error) {
	if totalDays < 1 {
		return nil, fmt.Errorf("%w: total days must be at least 1", ErrInvalidTemplates)
	}
	if err := Validate(templates); err != nil {
		return nil, err
	}

	var sessions []models.AttendanceSession
	for _, category := range models.Categories {
		list, ok := templates[category]
		if !ok {
			continue
		}

		number := 0
		for day := 1; day <= totalDays; day++ {
			for _, pos := range templatesForDay(day, totalDays, len(list)) {
				tpl := Normalize(list[pos-1])
				number++
				sessions = append(sessions, models.AttendanceSession{
					RetreatID:     retreatID,
					Category:      category,
					SessionNumber: number,
					Day:           day,
					Date:          start.AddDate(0, 0, day-1),
					Name:          tpl.Name,
					StartTime:     tpl.StartTime,
					EndTime:       tpl.EndTime,
					IsGSMessage:   IsGSMessage(pos, len(list)),
				})
			}
		}
	}

	return sessions, nil
}

const clockLayout = "15:04"

// Normalize trims the name and zero pads the times of a valid template.
func Normalize(t Template) Template {
	return Template{
		Name:      strings.TrimSpace(t.Name),
		StartTime: clock(t.StartTime).Format(clockLayout),
		EndTime:   clock(t.EndTime).Format(clockLayout),
	}
}

// clock parses a validated HH:MM value.
func clock(v string) time.Time {
	t, _ := time.Parse(clockLayout, v)
	return t
}

func fieldName(field string) string {
	switch field {
	case "StartTime":
		return "start time"
	case "EndTime":
		return "end time"
	default:
		return strings.ToLower(field)
	}
}

func describe(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "datetime":
		return "not a valid HH:MM time"
	default:
		return "invalid"
	}
}
