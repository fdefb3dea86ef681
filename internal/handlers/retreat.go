package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gracechurch/retreat-api/internal/auth"
	"github.com/gracechurch/retreat-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RetreatHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewRetreatHandler(db *gorm.DB, authHandler *auth.AuthHandler) *RetreatHandler {
	return &RetreatHandler{db: db, authHandler: authHandler}
}

type RetreatFields struct {
	Year      int                `json:"year" doc:"Retreat year" validate:"min=2000,max=2100"`
	Type      models.RetreatType `json:"type" enum:"summer,winter" doc:"Season" validate:"oneof=summer winter"`
	TotalDays int                `json:"total_days" minimum:"1" maximum:"31" doc:"Number of retreat days" validate:"min=1,max=31"`
	StartDate time.Time          `json:"start_date" doc:"First day of the retreat"`
	EndDate   *time.Time         `json:"end_date,omitempty" doc:"Last day; derived from start date and total days when omitted"`
	Venue     string             `json:"venue" validate:"required"`
	Theme     string             `json:"theme,omitempty"`
}

func (f RetreatFields) apply(r *models.Retreat) {
	r.Year = f.Year
	r.Type = f.Type
	r.TotalDays = f.TotalDays
	r.StartDate = f.StartDate
	r.Venue = f.Venue
	r.Theme = f.Theme
	if f.EndDate != nil {
		r.EndDate = *f.EndDate
	} else {
		r.EndDate = r.DateOf(r.TotalDays)
	}
}

func (f RetreatFields) check() error {
	if err := validate.Struct(f); err != nil {
		return validationError(err)
	}
	if f.StartDate.IsZero() {
		return huma.Error400BadRequest("Validation failed: start_date is required")
	}
	if f.EndDate != nil && f.EndDate.Before(f.StartDate) {
		return huma.Error400BadRequest("End date cannot be before start date")
	}
	return nil
}

type RetreatOutput struct {
	Body models.Retreat
}

type CreateRetreatInput struct {
	auth.AuthInput
	Body RetreatFields
}

func (h *RetreatHandler) duplicate(ctx context.Context, year int, typ models.RetreatType, exceptID uint) (bool, error) {
	var count int64
	err := h.db.WithContext(ctx).Model(&models.Retreat{}).
		Where("year = ? AND type = ? AND id <> ?", year, typ, exceptID).
		Count(&count).Error
	return count > 0, err
}

func (h *RetreatHandler) HandleCreate(ctx context.Context, input *CreateRetreatInput) (*RetreatOutput, error) {
	adminID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if err := input.Body.check(); err != nil {
		return nil, err
	}

	exists, err := h.duplicate(ctx, input.Body.Year, input.Body.Type, 0)
	if err != nil {
		return nil, huma.Error500InternalServerError("Database error: " + err.Error())
	}
	if exists {
		return nil, huma.Error409Conflict("A retreat for this year and type already exists")
	}

	var retreat models.Retreat
	input.Body.apply(&retreat)
	if err := h.db.WithContext(ctx).Create(&retreat).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create retreat: " + err.Error())
	}

	zap.L().Info("retreat created", zap.Uint("retreat_id", retreat.ID), zap.Uint("admin_id", adminID))
	return &RetreatOutput{Body: retreat}, nil
}

type ListRetreatsInput struct {
	auth.AuthInput
	Year int `query:"year" doc:"Only retreats of this year"`
}

type ListRetreatsOutput struct {
	Body []models.Retreat
}

func (h *RetreatHandler) HandleList(ctx context.Context, input *ListRetreatsInput) (*ListRetreatsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	q := h.db.WithContext(ctx).Order("year desc, type asc")
	if input.Year != 0 {
		q = q.Where("year = ?", input.Year)
	}
	retreats := []models.Retreat{}
	if err := q.Find(&retreats).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list retreats")
	}
	return &ListRetreatsOutput{Body: retreats}, nil
}

type RetreatIDInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *RetreatHandler) HandleGet(ctx context.Context, input *RetreatIDInput) (*RetreatOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	retreat, err := loadRetreat(ctx, h.db, input.ID)
	if err != nil {
		return nil, err
	}
	return &RetreatOutput{Body: retreat}, nil
}

type UpdateRetreatInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body RetreatFields
}

func (h *RetreatHandler) HandleUpdate(ctx context.Context, input *UpdateRetreatInput) (*RetreatOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if err := input.Body.check(); err != nil {
		return nil, err
	}

	retreat, err := loadRetreat(ctx, h.db, input.ID)
	if err != nil {
		return nil, err
	}

	exists, err := h.duplicate(ctx, input.Body.Year, input.Body.Type, retreat.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Database error: " + err.Error())
	}
	if exists {
		return nil, huma.Error409Conflict("A retreat for this year and type already exists")
	}

	// Registrations and sessions must still fall inside the retreat.
	if input.Body.TotalDays < retreat.TotalDays {
		var beyond int64
		if err := h.db.WithContext(ctx).Model(&models.Registration{}).
			Where("retreat_id = ? AND day > ?", retreat.ID, input.Body.TotalDays).Count(&beyond).Error; err != nil {
			return nil, huma.Error500InternalServerError("Database error: " + err.Error())
		}
		if beyond > 0 {
			return nil, huma.Error409Conflict("Registrations exist beyond the new day count")
		}
		if err := h.db.WithContext(ctx).Model(&models.AttendanceSession{}).
			Where("retreat_id = ? AND day > ?", retreat.ID, input.Body.TotalDays).Count(&beyond).Error; err != nil {
			return nil, huma.Error500InternalServerError("Database error: " + err.Error())
		}
		if beyond > 0 {
			return nil, huma.Error409Conflict("Sessions exist beyond the new day count; regenerate the schedule first")
		}
	}

	moved := !input.Body.StartDate.Equal(retreat.StartDate)
	input.Body.apply(&retreat)
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&retreat).Error; err != nil {
			return err
		}
		if !moved {
			return nil
		}
		// Session dates follow the start date.
		for day := 1; day <= retreat.TotalDays; day++ {
			err := tx.Model(&models.AttendanceSession{}).
				Where("retreat_id = ? AND day = ?", retreat.ID, day).
				Update("date", retreat.DateOf(day)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to update retreat: " + err.Error())
	}
	return &RetreatOutput{Body: retreat}, nil
}

func (h *RetreatHandler) HandleDelete(ctx context.Context, input *RetreatIDInput) (*struct{}, error) {
	adminID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	retreat, err := loadRetreat(ctx, h.db, input.ID)
	if err != nil {
		return nil, err
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("session_id IN (?)", sessionIDs(tx, retreat.ID)).Delete(&models.AttendanceRecord{}).Error; err != nil {
			return err
		}
		for _, m := range []any{&models.AttendanceSession{}, &models.RegistrationHistory{}, &models.Registration{}} {
			if err := tx.Unscoped().Where("retreat_id = ?", retreat.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Delete(&retreat).Error
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to delete retreat: " + err.Error())
	}

	zap.L().Info("retreat deleted", zap.Uint("retreat_id", retreat.ID), zap.Uint("admin_id", adminID))
	return nil, nil
}

type PublicRetreat struct {
	Year      int                `json:"year"`
	Type      models.RetreatType `json:"type"`
	TotalDays int                `json:"total_days"`
	StartDate time.Time          `json:"start_date"`
	EndDate   time.Time          `json:"end_date"`
	Venue     string             `json:"venue"`
	Theme     string             `json:"theme,omitempty"`
}

type PublicRetreatOutput struct {
	Body PublicRetreat
}

// HandleUpcoming returns the next retreat that has not ended yet.
func (h *RetreatHandler) HandleUpcoming(ctx context.Context, input *struct{}) (*PublicRetreatOutput, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var retreat models.Retreat
	err := h.db.WithContext(ctx).Where("end_date >= ?", today).Order("start_date asc").First(&retreat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, huma.Error404NotFound("No upcoming retreat")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load retreat")
	}

	return &PublicRetreatOutput{Body: PublicRetreat{
		Year:      retreat.Year,
		Type:      retreat.Type,
		TotalDays: retreat.TotalDays,
		StartDate: retreat.StartDate,
		EndDate:   retreat.EndDate,
		Venue:     retreat.Venue,
		Theme:     retreat.Theme,
	}}, nil
}
