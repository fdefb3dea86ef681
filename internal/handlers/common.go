package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gracechurch/retreat-api/internal/models"
	"gorm.io/gorm"
)

var validate = validator.New()

func cookieAuth(o *huma.Operation) {
	o.Security = []map[string][]string{{"cookieAuth": {}}, {"apiKeyAuth": {}}}
}

func created(o *huma.Operation) {
	o.DefaultStatus = http.StatusCreated
}

// validationError turns validator output into a single 400 message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return huma.Error400BadRequest(err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return huma.Error400BadRequest("Validation failed: " + strings.Join(msgs, "; "))
}

func loadRetreat(ctx context.Context, db *gorm.DB, id uint) (models.Retreat, error) {
	var retreat models.Retreat
	if err := db.WithContext(ctx).First(&retreat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return retreat, huma.Error404NotFound("Retreat not found")
		}
		return retreat, huma.Error500InternalServerError("Failed to load retreat: " + err.Error())
	}
	return retreat, nil
}

// sessionIDs selects the ids of every session of a retreat.
func sessionIDs(db *gorm.DB, retreatID uint) *gorm.DB {
	return db.Model(&models.AttendanceSession{}).Select("id").Where("retreat_id = ?", retreatID)
}
