package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gracechurch/retreat-api/internal/auth"
	"github.com/gracechurch/retreat-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AdminHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewAdminHandler(db *gorm.DB, authHandler *auth.AuthHandler) *AdminHandler {
	return &AdminHandler{db: db, authHandler: authHandler}
}

type ListAdminsInput struct {
	auth.AuthInput
}

type ListAdminsOutput struct {
	Body []models.Admin
}

func (h *AdminHandler) HandleList(ctx context.Context, input *ListAdminsInput) (*ListAdminsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	admins := []models.Admin{}
	if err := h.db.WithContext(ctx).Order("username asc").Find(&admins).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list admins")
	}
	return &ListAdminsOutput{Body: admins}, nil
}

type CreateAdminInput struct {
	auth.AuthInput
	Body struct {
		Username  string `json:"username" validate:"required"`
		Email     string `json:"email,omitempty" validate:"omitempty,email"`
		Password  string `json:"password" minLength:"8" validate:"min=8"`
		DiscordID string `json:"discord_id,omitempty" doc:"Discord account allowed to sign in as this admin"`
	}
}

type AdminOutput struct {
	Body models.Admin
}

func (h *AdminHandler) HandleCreate(ctx context.Context, input *CreateAdminInput) (*AdminOutput, error) {
	adminID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(input.Body); err != nil {
		return nil, validationError(err)
	}

	admin, err := auth.CreateAdmin(ctx, h.db, auth.NewAdmin{
		Username:  input.Body.Username,
		Email:     input.Body.Email,
		Password:  input.Body.Password,
		DiscordID: input.Body.DiscordID,
	})
	if errors.Is(err, auth.ErrAdminExists) {
		return nil, huma.Error409Conflict("An admin with this username or Discord account already exists")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to create admin: " + err.Error())
	}

	zap.L().Info("admin created", zap.Uint("admin_id", admin.ID), zap.Uint("created_by", adminID))
	return &AdminOutput{Body: admin}, nil
}

type DeleteAdminInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *AdminHandler) HandleDelete(ctx context.Context, input *DeleteAdminInput) (*struct{}, error) {
	adminID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if input.ID == adminID {
		return nil, huma.Error400BadRequest("You cannot delete your own account")
	}

	var admin models.Admin
	if err := h.db.WithContext(ctx).First(&admin, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Admin not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load admin")
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("admin_id = ?", admin.ID).Delete(&models.APIKey{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&admin).Error
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to delete admin")
	}
	return nil, nil
}

type PreferencesOutput struct {
	Body models.Preferences
}

func (h *AdminHandler) HandleGetPreferences(ctx context.Context, input *auth.AuthInput) (*PreferencesOutput, error) {
	adminID, err := h.authHandler.Authorize(ctx, *input)
	if err != nil {
		return nil, err
	}

	var admin models.Admin
	if err := h.db.WithContext(ctx).First(&admin, adminID).Error; err != nil {
		return nil, huma.Error404NotFound("Admin not found")
	}
	return &PreferencesOutput{Body: admin.Preferences}, nil
}

type UpdatePreferencesInput struct {
	auth.AuthInput
	Body models.Preferences
}

func (h *AdminHandler) HandleUpdatePreferences(ctx context.Context, input *UpdatePreferencesInput) (*PreferencesOutput, error) {
	adminID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if input.Body.Theme != "light" && input.Body.Theme != "dark" {
		return nil, huma.Error400BadRequest("Theme must be light or dark")
	}

	err = h.db.WithContext(ctx).Model(&models.Admin{}).Where("id = ?", adminID).
		Updates(map[string]any{
			"pref_sidebar_open": input.Body.SidebarOpen,
			"pref_theme":        input.Body.Theme,
		}).Error
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to save preferences")
	}
	return &PreferencesOutput{Body: input.Body}, nil
}
