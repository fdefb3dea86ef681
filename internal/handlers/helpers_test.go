package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gracechurch/retreat-api/internal/auth"
	"github.com/gracechurch/retreat-api/internal/config"
	"github.com/gracechurch/retreat-api/internal/database"
	"github.com/gracechurch/retreat-api/internal/models"
	"github.com/gracechurch/retreat-api/internal/schedule"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu            sync.Mutex
	registrations []bool
	generated     []int
}

func (n *recordingNotifier) NotifyRegistration(retreat models.Retreat, registration models.Registration, updated bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.registrations = append(n.registrations, updated)
	return nil
}

func (n *recordingNotifier) NotifySessionsGenerated(retreat models.Retreat, count int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.generated = append(n.generated, count)
	return nil
}

type testEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	h        *Handlers
	admin    models.Admin
	in       auth.AuthInput
	notifier *recordingNotifier
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	admin, err := auth.CreateAdmin(context.Background(), db, auth.NewAdmin{
		Username: "pastor",
		Email:    "pastor@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	cfg := &config.Config{JWTSecret: "test-secret", FrontendURL: "http://localhost/admin"}
	n := &recordingNotifier{}
	h := NewHandlers(cfg, db, n)

	token, err := h.Auth.GenerateToken(admin.ID)
	require.NoError(t, err)

	return &testEnv{
		db:       db,
		cfg:      cfg,
		h:        h,
		admin:    admin,
		in:       auth.AuthInput{Cookie: auth.CookieName + "=" + token},
		notifier: n,
	}
}

func statusOf(err error) int {
	var se huma.StatusError
	if errors.As(err, &se) {
		return se.GetStatus()
	}
	return 0
}

var retreatStart = time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

func retreatFields() RetreatFields {
	return RetreatFields{
		Year:      2025,
		Type:      models.RetreatSummer,
		TotalDays: 5,
		StartDate: retreatStart,
		Venue:     "Pine Lake Camp",
		Theme:     "Rooted",
	}
}

func (e *testEnv) createRetreat(t *testing.T, fields RetreatFields) models.Retreat {
	t.Helper()
	res, err := e.h.Retreat.HandleCreate(context.Background(), &CreateRetreatInput{AuthInput: e.in, Body: fields})
	require.NoError(t, err)
	return res.Body
}

func registrationBody(day int) RegistrationBody {
	return RegistrationBody{
		Name:           "Kim Minji",
		Gender:         models.GenderFemale,
		Age:            17,
		Category:       models.CategoryYouth,
		Nationality:    "Korea",
		Location:       "Seoul",
		InvitationType: models.InvitationMember,
		Day:            day,
	}
}

func (e *testEnv) register(t *testing.T, retreatID uint, body RegistrationBody) models.Registration {
	t.Helper()
	res, err := e.h.Registration.HandleCreate(context.Background(), &CreateRegistrationInput{
		AuthInput: e.in,
		RetreatID: retreatID,
		Body:      body,
	})
	require.NoError(t, err)
	return res.Body
}

func adultTemplates() schedule.Templates {
	return schedule.Templates{
		models.CategoryAdult: {
			{Name: "Morning Worship", StartTime: "09:00", EndTime: "10:30"},
			{Name: "Small Groups", StartTime: "14:00", EndTime: "15:30"},
			{Name: "Evening Service", StartTime: "19:30", EndTime: "21:00"},
		},
	}
}

func (e *testEnv) generate(t *testing.T, retreatID uint, templates schedule.Templates) []models.AttendanceSession {
	t.Helper()
	in := &GenerateSessionsInput{AuthInput: e.in, RetreatID: retreatID}
	in.Body.Templates = templates
	res, err := e.h.Session.HandleGenerate(context.Background(), in)
	require.NoError(t, err)
	return res.Body.Sessions
}
