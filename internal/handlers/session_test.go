package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gracechurch/retreat-api/internal/attendance"
	"github.com/gracechurch/retreat-api/internal/models"
	"github.com/gracechurch/retreat-api/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSessions(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	retreat := env.createRetreat(t, retreatFields())

	templates := adultTemplates()
	templates[models.CategoryYouth] = []schedule.Template{
		{Name: "Youth Worship", StartTime: "9:30", EndTime: "11:00"},
	}

	sessions := env.generate(t, retreat.ID, templates)
	// Adult: 1 + 3*3 + 1, Youth: 1 per day.
	require.Len(t, sessions, 16)
	assert.Equal(t, []int{16}, env.notifier.generated)

	var stored []models.AttendanceSession
	require.NoError(t, env.db.Where("retreat_id = ? AND category = ?", retreat.ID, models.CategoryYouth).Order("session_number").Find(&stored).Error)
	require.Len(t, stored, 5)
	for i, s := range stored {
		assert.Equal(t, i+1, s.SessionNumber)
		assert.Equal(t, i+1, s.Day)
		assert.Equal(t, "09:30", s.StartTime, "times are zero padded")
		assert.True(t, s.IsGSMessage, "a single template carries the GS message")
	}

	t.Run("ExistingWithoutReplace", func(t *testing.T) {
		in := &GenerateSessionsInput{AuthInput: env.in, RetreatID: retreat.ID}
		in.Body.Templates = adultTemplates()
		_, err := env.h.Session.HandleGenerate(ctx, in)
		assert.Equal(t, http.StatusConflict, statusOf(err))

		var count int64
		env.db.Model(&models.AttendanceSession{}).Where("retreat_id = ?", retreat.ID).Count(&count)
		assert.Equal(t, int64(16), count, "the schedule is left as it was")
		assert.Equal(t, []int{16}, env.notifier.generated)
	})

	t.Run("Replace", func(t *testing.T) {
		_, err := attendance.Upsert(env.db, sessions[0].ID, attendance.Counts{Male: 1, Female: 1})
		require.NoError(t, err)

		in := &GenerateSessionsInput{AuthInput: env.in, RetreatID: retreat.ID}
		in.Body.Templates = adultTemplates()
		in.Body.Replace = true
		res, err := env.h.Session.HandleGenerate(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, 11, res.Body.Count)

		var sessionCount, recordCount int64
		env.db.Model(&models.AttendanceSession{}).Where("retreat_id = ?", retreat.ID).Count(&sessionCount)
		env.db.Model(&models.AttendanceRecord{}).Count(&recordCount)
		assert.Equal(t, int64(11), sessionCount)
		assert.Zero(t, recordCount, "attendance of the replaced schedule is removed")
	})
}

func TestGenerateSessions_InvalidTemplates(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	retreat := env.createRetreat(t, retreatFields())

	templates := adultTemplates()
	templates[models.CategoryCampus] = []schedule.Template{
		{Name: "Campus Night", StartTime: "20:00", EndTime: "19:00"},
	}

	in := &GenerateSessionsInput{AuthInput: env.in, RetreatID: retreat.ID}
	in.Body.Templates = templates
	_, err := env.h.Session.HandleGenerate(ctx, in)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(err))
	assert.Contains(t, err.Error(), "end time is before start time")

	var count int64
	env.db.Model(&models.AttendanceSession{}).Count(&count)
	assert.Zero(t, count, "nothing is written when any template is invalid")
	assert.Empty(t, env.notifier.generated)

	in.Body.Templates = schedule.Templates{}
	_, err = env.h.Session.HandleGenerate(ctx, in)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestSessionListUpdateDelete(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	retreat := env.createRetreat(t, retreatFields())
	env.generate(t, retreat.ID, adultTemplates())

	day3, err := env.h.Session.HandleList(ctx, &ListSessionsInput{AuthInput: env.in, RetreatID: retreat.ID, Day: 3})
	require.NoError(t, err)
	require.Equal(t, 3, day3.Body.Count)
	assert.Equal(t, "Morning Worship", day3.Body.Sessions[0].Name)

	target := day3.Body.Sessions[1]
	updated, err := env.h.Session.HandleUpdate(ctx, &UpdateSessionInput{
		AuthInput: env.in,
		ID:        target.ID,
		Body:      schedule.Template{Name: " Prayer Walk ", StartTime: "8:00", EndTime: "9:15"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Prayer Walk", updated.Body.Name)
	assert.Equal(t, "08:00", updated.Body.StartTime)
	assert.Equal(t, target.IsGSMessage, updated.Body.IsGSMessage)

	_, err = env.h.Session.HandleUpdate(ctx, &UpdateSessionInput{
		AuthInput: env.in,
		ID:        target.ID,
		Body:      schedule.Template{Name: "Late", StartTime: "25:00", EndTime: "26:00"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(err))

	_, err = attendance.Upsert(env.db, target.ID, attendance.Counts{Male: 2, Female: 2})
	require.NoError(t, err)
	_, err = env.h.Session.HandleDelete(ctx, &SessionIDInput{AuthInput: env.in, ID: target.ID})
	require.NoError(t, err)

	_, err = env.h.Session.HandleDelete(ctx, &SessionIDInput{AuthInput: env.in, ID: target.ID})
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	var records int64
	env.db.Model(&models.AttendanceRecord{}).Count(&records)
	assert.Zero(t, records)
}
