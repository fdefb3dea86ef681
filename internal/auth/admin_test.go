package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/gracechurch/retreat-api/internal/models"
)

func TestCreateAdmin(t *testing.T) {
	_, db, _ := setupAuth(t)
	ctx := context.Background()

	admin, err := CreateAdmin(ctx, db, NewAdmin{Username: "elder", Password: "long enough", DiscordID: "777"})
	if err != nil {
		t.Fatalf("CreateAdmin returned error: %v", err)
	}
	if !CheckPassword(admin.PasswordHash, "long enough") {
		t.Error("expected stored hash to match the password")
	}
	if admin.Preferences != models.DefaultPreferences() {
		t.Errorf("expected default preferences, got %+v", admin.Preferences)
	}

	if _, err := CreateAdmin(ctx, db, NewAdmin{Username: "pastor", Password: "long enough"}); !errors.Is(err, ErrAdminExists) {
		t.Errorf("expected ErrAdminExists for a taken username, got %v", err)
	}
	if _, err := CreateAdmin(ctx, db, NewAdmin{Username: "other", Password: "long enough", DiscordID: "777"}); !errors.Is(err, ErrAdminExists) {
		t.Errorf("expected ErrAdminExists for a linked Discord account, got %v", err)
	}
	if _, err := CreateAdmin(ctx, db, NewAdmin{Username: "short", Password: "1234"}); err == nil {
		t.Error("expected an error for a short password")
	}
}
