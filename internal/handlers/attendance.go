package handlers

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gracechurch/retreat-api/internal/attendance"
	"github.com/gracechurch/retreat-api/internal/auth"
	"github.com/gracechurch/retreat-api/internal/models"
	"gorm.io/gorm"
)

type AttendanceHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewAttendanceHandler(db *gorm.DB, authHandler *auth.AuthHandler) *AttendanceHandler {
	return &AttendanceHandler{db: db, authHandler: authHandler}
}

type UpsertAttendanceInput struct {
	auth.AuthInput
	SessionID uint `path:"id"`
	Body      struct {
		Male   int `json:"male" minimum:"0"`
		Female int `json:"female" minimum:"0"`
	}
}

type AttendanceRecordOutput struct {
	Body models.AttendanceRecord
}

// HandleUpsert records the head count of one session, replacing any earlier
// count.
func (h *AttendanceHandler) HandleUpsert(ctx context.Context, input *UpsertAttendanceInput) (*AttendanceRecordOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var session models.AttendanceSession
	if err := h.db.WithContext(ctx).First(&session, input.SessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Session not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load session")
	}

	var record models.AttendanceRecord
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		record, err = attendance.Upsert(tx, session.ID, attendance.Counts{Male: input.Body.Male, Female: input.Body.Female})
		return err
	})
	if errors.Is(err, attendance.ErrNegativeCount) {
		return nil, huma.Error400BadRequest(err.Error())
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to save attendance: " + err.Error())
	}
	return &AttendanceRecordOutput{Body: record}, nil
}

type RetreatAttendanceInput struct {
	auth.AuthInput
	RetreatID uint `path:"id"`
}

type AttendanceRecordsOutput struct {
	Body []models.AttendanceRecord
}

func (h *AttendanceHandler) HandleList(ctx context.Context, input *RetreatAttendanceInput) (*AttendanceRecordsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if _, err := loadRetreat(ctx, h.db, input.RetreatID); err != nil {
		return nil, err
	}

	records := []models.AttendanceRecord{}
	if err := h.db.WithContext(ctx).Where("session_id IN (?)", sessionIDs(h.db, input.RetreatID)).Order("session_id asc").Find(&records).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list attendance")
	}
	return &AttendanceRecordsOutput{Body: records}, nil
}

type AttendanceEdit struct {
	SessionID uint `json:"session_id"`
	Male      int  `json:"male" minimum:"0"`
	Female    int  `json:"female" minimum:"0"`
}

type CommitAttendanceInput struct {
	auth.AuthInput
	RetreatID uint `path:"id"`
	Body      struct {
		Records []AttendanceEdit `json:"records" doc:"Edited head counts; all are saved together or not at all"`
	}
}

// draft checks that every edit targets a session of the retreat and collects
// the edits into a draft.
func (h *AttendanceHandler) draft(ctx context.Context, retreatID uint, edits []AttendanceEdit) (*attendance.Draft, error) {
	if _, err := loadRetreat(ctx, h.db, retreatID); err != nil {
		return nil, err
	}

	var owned []uint
	if err := sessionIDs(h.db.WithContext(ctx), retreatID).Pluck("id", &owned).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load sessions")
	}

	draft := attendance.NewDraft()
	for _, edit := range edits {
		if !slices.Contains(owned, edit.SessionID) {
			return nil, huma.Error400BadRequest(fmt.Sprintf("Session %d does not belong to this retreat", edit.SessionID))
		}
		if err := draft.Set(edit.SessionID, attendance.Counts{Male: edit.Male, Female: edit.Female}); err != nil {
			return nil, huma.Error400BadRequest(fmt.Sprintf("Session %d: %v", edit.SessionID, err))
		}
	}
	return draft, nil
}

// HandleCommit saves a batch of edited head counts of one retreat in a single
// transaction.
func (h *AttendanceHandler) HandleCommit(ctx context.Context, input *CommitAttendanceInput) (*AttendanceRecordsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	draft, err := h.draft(ctx, input.RetreatID, input.Body.Records)
	if err != nil {
		return nil, err
	}
	if !draft.Dirty() {
		return &AttendanceRecordsOutput{Body: []models.AttendanceRecord{}}, nil
	}

	records, err := draft.Commit(ctx, h.db)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to save attendance: " + err.Error())
	}
	return &AttendanceRecordsOutput{Body: records}, nil
}

// AttendanceView is the head count of a session as it would read after a
// commit.
type AttendanceView struct {
	SessionID uint `json:"session_id"`
	Male      int  `json:"male"`
	Female    int  `json:"female"`
	Total     int  `json:"total"`
	Pending   bool `json:"pending" doc:"The count comes from the unsaved edits"`
}

type AttendancePreviewOutput struct {
	Body []AttendanceView
}

// HandlePreview overlays a batch of edits on the stored records without
// writing anything.
func (h *AttendanceHandler) HandlePreview(ctx context.Context, input *CommitAttendanceInput) (*AttendancePreviewOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	draft, err := h.draft(ctx, input.RetreatID, input.Body.Records)
	if err != nil {
		return nil, err
	}

	var committed []models.AttendanceRecord
	if err := h.db.WithContext(ctx).Where("session_id IN (?)", sessionIDs(h.db, input.RetreatID)).Find(&committed).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list attendance")
	}

	merged := draft.Merged(committed)
	views := make([]AttendanceView, 0, len(merged))
	for _, id := range slices.Sorted(maps.Keys(merged)) {
		c := merged[id]
		_, pending := draft.Get(id)
		views = append(views, AttendanceView{SessionID: id, Male: c.Male, Female: c.Female, Total: c.Total(), Pending: pending})
	}
	return &AttendancePreviewOutput{Body: views}, nil
}
