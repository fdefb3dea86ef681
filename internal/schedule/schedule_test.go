package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/gracechurch/retreat-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC)

func threeTemplates() []Template {
	return []Template{
		{Name: "Morning Worship", StartTime: "09:00", EndTime: "10:30"},
		{Name: "Small Groups", StartTime: "14:00", EndTime: "15:30"},
		{Name: "Evening Service", StartTime: "19:30", EndTime: "21:00"},
	}
}

func sessionsOn(sessions []models.AttendanceSession, category models.Category, day int) []models.AttendanceSession {
	var out []models.AttendanceSession
	for _, s := range sessions {
		if s.Category == category && s.Day == day {
			out = append(out, s)
		}
	}
	return out
}

func TestGenerate_FiveDays(t *testing.T) {
	sessions, err := Generate(7, 5, start, Templates{models.CategoryAdult: threeTemplates()})
	require.NoError(t, err)
	require.Len(t, sessions, 11)

	day1 := sessionsOn(sessions, models.CategoryAdult, 1)
	require.Len(t, day1, 1)
	assert.Equal(t, "Evening Service", day1[0].Name)

	for day := 2; day <= 4; day++ {
		got := sessionsOn(sessions, models.CategoryAdult, day)
		require.Len(t, got, 3, "day %d", day)
		assert.Equal(t, "Morning Worship", got[0].Name)
		assert.Equal(t, "Evening Service", got[2].Name)
	}

	day5 := sessionsOn(sessions, models.CategoryAdult, 5)
	require.Len(t, day5, 1)
	assert.Equal(t, "Morning Worship", day5[0].Name)

	for i, s := range sessions {
		assert.Equal(t, i+1, s.SessionNumber)
		assert.Equal(t, uint(7), s.RetreatID)
		assert.Equal(t, start.AddDate(0, 0, s.Day-1), s.Date)
	}
}

func TestGenerate_SingleDayUsesFirstTemplate(t *testing.T) {
	templates := Templates{}
	for _, c := range models.Categories {
		templates[c] = threeTemplates()
	}

	sessions, err := Generate(1, 1, start, templates)
	require.NoError(t, err)
	require.Len(t, sessions, len(models.Categories))

	for i, s := range sessions {
		assert.Equal(t, models.Categories[i], s.Category)
		assert.Equal(t, "Morning Worship", s.Name)
		assert.Equal(t, 1, s.SessionNumber)
		assert.True(t, s.IsGSMessage)
	}
}

func TestGenerate_FirstAndLastDayHaveOneSessionPerCategory(t *testing.T) {
	templates := Templates{
		models.CategoryYouth:    threeTemplates(),
		models.CategoryChildren: threeTemplates()[:2],
	}
	sessions, err := Generate(1, 4, start, templates)
	require.NoError(t, err)

	for category := range templates {
		assert.Len(t, sessionsOn(sessions, category, 1), 1)
		assert.Len(t, sessionsOn(sessions, category, 4), 1)
	}
	assert.Len(t, sessionsOn(sessions, models.CategoryChildren, 2), 2)
	assert.Empty(t, sessionsOn(sessions, models.CategoryAdult, 2))
}

func TestIsGSMessage(t *testing.T) {
	tests := []struct {
		n    int
		want []bool
	}{
		{n: 1, want: []bool{true}},
		{n: 2, want: []bool{true, true}},
		{n: 3, want: []bool{true, false, true}},
		{n: 5, want: []bool{true, false, true, false, true}},
		{n: 6, want: []bool{true, false, true, false, false, true}},
	}

	for _, tt := range tests {
		for pos := 1; pos <= tt.n; pos++ {
			assert.Equal(t, tt.want[pos-1], IsGSMessage(pos, tt.n), "pos %d of %d", pos, tt.n)
		}
	}
}

func TestGenerate_FlagsFollowTemplatePosition(t *testing.T) {
	list := append(threeTemplates(),
		Template{Name: "Prayer", StartTime: "21:00", EndTime: "21:30"},
		Template{Name: "Fellowship", StartTime: "21:30", EndTime: "22:30"},
	)
	sessions, err := Generate(1, 3, start, Templates{models.CategoryCampus: list})
	require.NoError(t, err)

	interior := sessionsOn(sessions, models.CategoryCampus, 2)
	require.Len(t, interior, 5)
	var flags []bool
	for _, s := range interior {
		flags = append(flags, s.IsGSMessage)
	}
	assert.Equal(t, []bool{true, false, true, false, true}, flags)

	// Day 1 is the last template, which is always flagged.
	assert.True(t, sessionsOn(sessions, models.CategoryCampus, 1)[0].IsGSMessage)
}

func TestGenerate_RejectsAllOnAnyInvalidTemplate(t *testing.T) {
	templates := Templates{
		models.CategoryAdult: threeTemplates(),
		models.CategoryYouth: {
			{Name: " ", StartTime: "09:00", EndTime: "10:00"},
			{Name: "Late", StartTime: "25:00", EndTime: "10:00"},
		},
		models.CategoryCampus: {},
	}

	sessions, err := Generate(1, 3, start, templates)
	require.Error(t, err)
	assert.Nil(t, sessions)
	assert.True(t, errors.Is(err, ErrInvalidTemplates))
	assert.Contains(t, err.Error(), "Youth #1: name is required")
	assert.Contains(t, err.Error(), "Youth #2: start time is not a valid HH:MM time")
	assert.Contains(t, err.Error(), "Campus: at least one session is required")
}

func TestValidate(t *testing.T) {
	t.Run("EndBeforeStart", func(t *testing.T) {
		err := Validate(Templates{models.CategoryAdult: {{Name: "x", StartTime: "10:00", EndTime: "09:00"}}})
		assert.ErrorContains(t, err, "end time is before start time")
	})

	t.Run("UnpaddedHours", func(t *testing.T) {
		err := Validate(Templates{models.CategoryAdult: {{Name: "x", StartTime: "9:00", EndTime: "10:00"}}})
		assert.NoError(t, err)
	})

	t.Run("UnknownCategory", func(t *testing.T) {
		err := Validate(Templates{"Seniors": threeTemplates()})
		assert.ErrorContains(t, err, `unknown category "Seniors"`)
	})

	t.Run("ZeroDays", func(t *testing.T) {
		_, err := Generate(1, 0, start, Templates{models.CategoryAdult: threeTemplates()})
		assert.ErrorIs(t, err, ErrInvalidTemplates)
	})
}

func TestGenerate_NormalizesTimes(t *testing.T) {
	sessions, err := Generate(1, 1, start, Templates{models.CategoryAdult: {{Name: "Early", StartTime: "7:05", EndTime: "8:00"}}})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "07:05-08:00", sessions[0].TimeRange())
}
