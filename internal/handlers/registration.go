package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gracechurch/retreat-api/internal/auth"
	"github.com/gracechurch/retreat-api/internal/models"
	"github.com/gracechurch/retreat-api/internal/notifier"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegistrationHandler struct {
	db          *gorm.DB
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
}

func NewRegistrationHandler(db *gorm.DB, notifier notifier.Notifier, authHandler *auth.AuthHandler) *RegistrationHandler {
	return &RegistrationHandler{db: db, notifier: notifier, authHandler: authHandler}
}

type RegistrationBody struct {
	Name           string                `json:"name" doc:"Attendee name" validate:"required"`
	Gender         models.Gender         `json:"gender" enum:"Male,Female" validate:"oneof=Male Female"`
	Age            int                   `json:"age" minimum:"0" maximum:"120" validate:"min=0,max=120"`
	Category       models.Category       `json:"category" enum:"Adult,Youth,Campus,Children" validate:"oneof=Adult Youth Campus Children"`
	Nationality    string                `json:"nationality,omitempty"`
	Location       string                `json:"location,omitempty"`
	InvitationType models.InvitationType `json:"invitation_type" enum:"Member,Invited,Newcomer" validate:"oneof=Member Invited Newcomer"`
	Day            int                   `json:"day" minimum:"1" doc:"Retreat day the attendee registered on" validate:"min=1"`
	Note           string                `json:"note,omitempty"`
}

func (b RegistrationBody) fields() models.RegistrationFields {
	return models.RegistrationFields{
		Name:           b.Name,
		Gender:         b.Gender,
		Age:            b.Age,
		Category:       b.Category,
		Nationality:    b.Nationality,
		Location:       b.Location,
		InvitationType: b.InvitationType,
		Day:            b.Day,
		Note:           b.Note,
	}
}

func (b RegistrationBody) check(retreat models.Retreat) error {
	if err := validate.Struct(b); err != nil {
		return validationError(err)
	}
	if b.Day > retreat.TotalDays {
		return huma.Error400BadRequest(fmt.Sprintf("Day %d is beyond the retreat's %d days", b.Day, retreat.TotalDays))
	}
	return nil
}

type RegistrationOutput struct {
	Body models.Registration
}

type CreateRegistrationInput struct {
	auth.AuthInput
	RetreatID uint `path:"id"`
	Body      RegistrationBody
}

// save writes the registration and its history snapshot in one transaction.
func (h *RegistrationHandler) save(ctx context.Context, registration *models.Registration, adminID uint) error {
	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(registration).Error; err != nil {
			return err
		}

		history := models.RegistrationHistory{
			RegistrationID:     registration.ID,
			RetreatID:          registration.RetreatID,
			ChangedByID:        adminID,
			RegistrationFields: registration.RegistrationFields,
		}
		return tx.Create(&history).Error
	})
}

func (h *RegistrationHandler) notify(retreat models.Retreat, registration models.Registration, updated bool) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.NotifyRegistration(retreat, registration, updated); err != nil {
		// The registration is stored; a failed notification is not fatal.
		zap.L().Warn("failed to send registration notification", zap.Error(err))
	}
}

func (h *RegistrationHandler) HandleCreate(ctx context.Context, input *CreateRegistrationInput) (*RegistrationOutput, error) {
	adminID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	retreat, err := loadRetreat(ctx, h.db, input.RetreatID)
	if err != nil {
		return nil, err
	}
	if err := input.Body.check(retreat); err != nil {
		return nil, err
	}

	registration := models.Registration{RetreatID: retreat.ID, RegistrationFields: input.Body.fields()}
	if err := h.save(ctx, &registration, adminID); err != nil {
		return nil, huma.Error500InternalServerError("Failed to process registration: " + err.Error())
	}

	h.notify(retreat, registration, false)
	return &RegistrationOutput{Body: registration}, nil
}

type ListRegistrationsInput struct {
	auth.AuthInput
	RetreatID uint            `path:"id"`
	Day       int             `query:"day" doc:"Only registrations of this day"`
	Category  models.Category `query:"category" doc:"Only registrations of this category"`
}

type ListRegistrationsOutput struct {
	Body []models.Registration
}

func (h *RegistrationHandler) HandleList(ctx context.Context, input *ListRegistrationsInput) (*ListRegistrationsOutput, error) {
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

	registrations := []models.Registration{}
	if err := q.Order("id asc").Find(&registrations).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list registrations")
	}
	return &ListRegistrationsOutput{Body: registrations}, nil
}

type RegistrationIDInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *RegistrationHandler) load(ctx context.Context, id uint) (models.Registration, error) {
	var registration models.Registration
	if err := h.db.WithContext(ctx).First(&registration, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return registration, huma.Error404NotFound("Registration not found")
		}
		return registration, huma.Error500InternalServerError("Failed to load registration")
	}
	return registration, nil
}

func (h *RegistrationHandler) HandleGet(ctx context.Context, input *RegistrationIDInput) (*RegistrationOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	registration, err := h.load(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &RegistrationOutput{Body: registration}, nil
}

type UpdateRegistrationInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body RegistrationBody
}

func (h *RegistrationHandler) HandleUpdate(ctx context.Context, input *UpdateRegistrationInput) (*RegistrationOutput, error) {
	adminID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	registration, err := h.load(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	retreat, err := loadRetreat(ctx, h.db, registration.RetreatID)
	if err != nil {
		return nil, err
	}
	if err := input.Body.check(retreat); err != nil {
		return nil, err
	}

	registration.RegistrationFields = input.Body.fields()
	if err := h.save(ctx, &registration, adminID); err != nil {
		return nil, huma.Error500InternalServerError("Failed to process registration: " + err.Error())
	}

	h.notify(retreat, registration, true)
	return &RegistrationOutput{Body: registration}, nil
}

func (h *RegistrationHandler) HandleDelete(ctx context.Context, input *RegistrationIDInput) (*struct{}, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	registration, err := h.load(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if err := h.db.WithContext(ctx).Unscoped().Delete(&registration).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to delete registration")
	}
	return nil, nil
}

type HistoryRequest struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Diff bool `query:"diff" default:"true" doc:"Only report fields that changed since the previous entry"`
}

// HistoryFields holds a snapshot; with diffing, unchanged fields are nil.
type HistoryFields struct {
	Name           *string                `json:"name,omitempty"`
	Gender         *models.Gender         `json:"gender,omitempty"`
	Age            *int                   `json:"age,omitempty"`
	Category       *models.Category       `json:"category,omitempty"`
	Nationality    *string                `json:"nationality,omitempty"`
	Location       *string                `json:"location,omitempty"`
	InvitationType *models.InvitationType `json:"invitation_type,omitempty"`
	Day            *int                   `json:"day,omitempty"`
	Note           *string                `json:"note,omitempty"`
}

type HistoryEntry struct {
	ID                 uint          `json:"id"`
	CreatedAt          time.Time     `json:"created_at"`
	ChangedByID        uint          `json:"changed_by_id"`
	RegistrationFields HistoryFields `json:"registration_fields"`
}

type HistoryResponse struct {
	Body struct {
		History []HistoryEntry `json:"history"`
	}
}

func changed[T comparable](cur T, prev *T) *T {
	if prev != nil && *prev == cur {
		return nil
	}
	return &cur
}

func historyFields(cur models.RegistrationFields, prev *models.RegistrationFields) HistoryFields {
	if prev == nil {
		return HistoryFields{
			Name:           &cur.Name,
			Gender:         &cur.Gender,
			Age:            &cur.Age,
			Category:       &cur.Category,
			Nationality:    &cur.Nationality,
			Location:       &cur.Location,
			InvitationType: &cur.InvitationType,
			Day:            &cur.Day,
			Note:           &cur.Note,
		}
	}
	return HistoryFields{
		Name:           changed(cur.Name, &prev.Name),
		Gender:         changed(cur.Gender, &prev.Gender),
		Age:            changed(cur.Age, &prev.Age),
		Category:       changed(cur.Category, &prev.Category),
		Nationality:    changed(cur.Nationality, &prev.Nationality),
		Location:       changed(cur.Location, &prev.Location),
		InvitationType: changed(cur.InvitationType, &prev.InvitationType),
		Day:            changed(cur.Day, &prev.Day),
		Note:           changed(cur.Note, &prev.Note),
	}
}

// HandleHistory lists the snapshots of a registration, newest first.
func (h *RegistrationHandler) HandleHistory(ctx context.Context, input *HistoryRequest) (*HistoryResponse, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var history []models.RegistrationHistory
	if err := h.db.WithContext(ctx).Where("registration_id = ?", input.ID).Order("created_at desc, id desc").Find(&history).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load history")
	}
	if len(history) == 0 {
		return nil, huma.Error404NotFound("No history for this registration")
	}

	res := &HistoryResponse{}
	res.Body.History = make([]HistoryEntry, len(history))
	for i, entry := range history {
		var prev *models.RegistrationFields
		if input.Diff && i+1 < len(history) {
			prev = &history[i+1].RegistrationFields
		}
		res.Body.History[i] = HistoryEntry{
			ID:                 entry.ID,
			CreatedAt:          entry.CreatedAt,
			ChangedByID:        entry.ChangedByID,
			RegistrationFields: historyFields(entry.RegistrationFields, prev),
		}
	}
	return res, nil
}
