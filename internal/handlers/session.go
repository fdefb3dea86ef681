package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gracechurch/retreat-api/internal/auth"
	"github.com/gracechurch/retreat-api/internal/models"
	"github.com/gracechurch/retreat-api/internal/notifier"
	"github.com/gracechurch/retreat-api/internal/schedule"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errSessionsExist = errors.New("sessions already exist")

type SessionHandler struct {
	db          *gorm.DB
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
}

func NewSessionHandler(db *gorm.DB, notifier notifier.Notifier, authHandler *auth.AuthHandler) *SessionHandler {
	return &SessionHandler{db: db, notifier: notifier, authHandler: authHandler}
}

type GenerateSessionsInput struct {
	auth.AuthInput
	RetreatID uint `path:"id"`
	Body      struct {
		Templates schedule.Templates `json:"templates" doc:"Ordered session templates per category"`
		Replace   bool               `json:"replace,omitempty" doc:"Delete the existing schedule and its attendance first"`
	}
}

type SessionsOutput struct {
	Body struct {
		Count    int                        `json:"count"`
		Sessions []models.AttendanceSession `json:"sessions"`
	}
}

func sessionsOutput(sessions []models.AttendanceSession) *SessionsOutput {
	res := &SessionsOutput{}
	res.Body.Count = len(sessions)
	res.Body.Sessions = sessions
	return res
}

func (h *SessionHandler) HandleGenerate(ctx context.Context, input *GenerateSessionsInput) (*SessionsOutput, error) {
	adminID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	retreat, err := loadRetreat(ctx, h.db, input.RetreatID)
	if err != nil {
		return nil, err
	}
	if len(input.Body.Templates) == 0 {
		return nil, huma.Error400BadRequest("At least one category of templates is required")
	}

	// Templates are validated as a whole before anything is written.
	sessions, err := schedule.Generate(retreat.ID, retreat.TotalDays, retreat.StartDate, input.Body.Templates)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidTemplates) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, huma.Error500InternalServerError(err.Error())
	}

	var existing int64
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.AttendanceSession{}).Where("retreat_id = ?", retreat.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			if !input.Body.Replace {
				return errSessionsExist
			}
			if err := tx.Unscoped().Where("session_id IN (?)", sessionIDs(tx, retreat.ID)).Delete(&models.AttendanceRecord{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("retreat_id = ?", retreat.ID).Delete(&models.AttendanceSession{}).Error; err != nil {
				return err
			}
		}
		return tx.CreateInBatches(&sessions, 100).Error
	})
	if errors.Is(err, errSessionsExist) {
		return nil, huma.Error409Conflict("Sessions already exist for this retreat; set replace to regenerate")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to create sessions: " + err.Error())
	}

	zap.L().Info("sessions generated",
		zap.Uint("retreat_id", retreat.ID),
		zap.Int("count", len(sessions)),
		zap.Bool("replaced", existing > 0),
		zap.Uint("admin_id", adminID))

	if h.notifier != nil {
		if err := h.notifier.NotifySessionsGenerated(retreat, len(sessions)); err != nil {
			zap.L().Warn("failed to send schedule notification", zap.Error(err))
		}
	}

	return sessionsOutput(sessions), nil
}

type ListSessionsInput struct {
	auth.AuthInput
	RetreatID uint            `path:"id"`
	Day       int             `query:"day"`
	Category  models.Category `query:"category"`
}

func (h *SessionHandler) HandleList(ctx context.Context, input *ListSessionsInput) (*SessionsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if _, err := loadRetreat(ctx, h.db, input.RetreatID); err != nil {
		return nil, err
	}

	q := h.db.WithContext(ctx).Where("retreat_id = ?", input.RetreatID)
	if input.Day != 0 {
		q = q.Where("day = ?", input.Day)
	}
	if input.Category != "" {
		q = q.Where("category = ?", input.Category)
	}

	sessions := []models.AttendanceSession{}
	if err := q.Order("day asc, category asc, session_number asc").Find(&sessions).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list sessions")
	}
	return sessionsOutput(sessions), nil
}

type UpdateSessionInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body schedule.Template
}

type SessionOutput struct {
	Body models.AttendanceSession
}

func (h *SessionHandler) load(ctx context.Context, id uint) (models.AttendanceSession, error) {
	var session models.AttendanceSession
	if err := h.db.WithContext(ctx).First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session, huma.Error404NotFound("Session not found")
		}
		return session, huma.Error500InternalServerError("Failed to load session")
	}
	return session, nil
}

// HandleUpdate renames or reschedules a session. Its GS Message flag is fixed
// at generation time.
func (h *SessionHandler) HandleUpdate(ctx context.Context, input *UpdateSessionInput) (*SessionOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	session, err := h.load(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if err := schedule.Validate(schedule.Templates{session.Category: {input.Body}}); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	tpl := schedule.Normalize(input.Body)
	session.Name = tpl.Name
	session.StartTime = tpl.StartTime
	session.EndTime = tpl.EndTime

	if err := h.db.WithContext(ctx).Save(&session).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update session")
	}
	return &SessionOutput{Body: session}, nil
}

type SessionIDInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *SessionHandler) HandleDelete(ctx context.Context, input *SessionIDInput) (*struct{}, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	session, err := h.load(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("session_id = ?", session.ID).Delete(&models.AttendanceRecord{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&session).Error
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to delete session")
	}
	return nil, nil
}
