// Package attendance stores head counts per session. Edits are collected in a
// Draft and only reach the database on Commit.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/gracechurch/retreat-api/internal/models"
	"gorm.io/gorm"
)

var ErrNegativeCount = errors.New("head counts cannot be negative")

type Counts struct {
	Male   int `json:"male"`
	Female int `json:"female"`
}

func (c Counts) Total() int {
	return c.Male + c.Female
}

func (c Counts) validate() error {
	if c.Male < 0 || c.Female < 0 {
		return ErrNegativeCount
	}
	return nil
}

// Upsert creates or updates the record of a session.
func Upsert(tx *gorm.DB, sessionID uint, c Counts) (models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	if err := c.validate(); err != nil {
		return record, err
	}

	if err := tx.FirstOrInit(&record, models.AttendanceRecord{SessionID: sessionID}).Error; err != nil {
		return record, err
	}
	record.Male = c.Male
	record.Female = c.Female

	if err := tx.Save(&record).Error; err != nil {
		return record, fmt.Errorf("save attendance for session %d: %w", sessionID, err)
	}
	return record, nil
}

// Draft holds unsaved head counts keyed by session id.
type Draft struct {
	edits map[uint]Counts
}

func NewDraft() *Draft {
	return &Draft{edits: make(map[uint]Counts)}
}

func (d *Draft) Set(sessionID uint, c Counts) error {
	if err := c.validate(); err != nil {
		return err
	}
	d.edits[sessionID] = c
	return nil
}

func (d *Draft) Get(sessionID uint) (Counts, bool) {
	c, ok := d.edits[sessionID]
	return c, ok
}

func (d *Draft) Dirty() bool {
	return len(d.edits) > 0
}

// SessionIDs returns the edited sessions in ascending order.
func (d *Draft) SessionIDs() []uint {
	return slices.Sorted(maps.Keys(d.edits))
}

// Discard drops every pending edit.
func (d *Draft) Discard() {
	clear(d.edits)
}

// Merged overlays the draft on the committed records.
func (d *Draft) Merged(committed []models.AttendanceRecord) map[uint]Counts {
	merged := make(map[uint]Counts, len(committed)+len(d.edits))
	for _, r := range committed {
		merged[r.SessionID] = Counts{Male: r.Male, Female: r.Female}
	}
	for id, c := range d.edits {
		merged[id] = c
	}
	return merged
}

// Commit writes every edit in one transaction and clears the draft. On error
// nothing is written and the draft is kept.
func (d *Draft) Commit(ctx context.Context, db *gorm.DB) ([]models.AttendanceRecord, error) {
	records := make([]models.AttendanceRecord, 0, len(d.edits))
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range d.SessionIDs() {
			record, err := Upsert(tx, id, d.edits[id])
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.Discard()
	return records, nil
}
