package auth

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/gracechurch/retreat-api/internal/config"
	"github.com/gracechurch/retreat-api/internal/database"
	"github.com/gracechurch/retreat-api/internal/models"
	"gorm.io/gorm"
)

func setupAuth(t *testing.T) (*AuthHandler, *gorm.DB, models.Admin) {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	admin := models.Admin{
		Username:     "pastor",
		Email:        "pastor@example.com",
		PasswordHash: hash,
		Preferences:  models.DefaultPreferences(),
	}
	db.Create(&admin)

	cfg := &config.Config{JWTSecret: "test-secret", FrontendURL: "http://localhost/admin"}
	return NewAuthHandler(cfg, db), db, admin
}

func TestHandleMe(t *testing.T) {
	handler, db, admin := setupAuth(t)

	t.Run("Authenticated", func(t *testing.T) {
		token, _ := handler.GenerateToken(admin.ID)
		input := &AuthInput{
			Cookie: "theme=dark; auth_token=" + token,
		}
		resp, err := handler.HandleMe(context.Background(), input)
		if err != nil {
			t.Fatalf("HandleMe returned error: %v", err)
		}

		if resp.Body.Username != admin.Username {
			t.Errorf("expected username %s, got %s", admin.Username, resp.Body.Username)
		}
		if resp.Body.Email != admin.Email {
			t.Errorf("expected email %s, got %s", admin.Email, resp.Body.Email)
		}
	})

	t.Run("APIKey", func(t *testing.T) {
		key := models.APIKey{AdminID: admin.ID, Key: "k-123", Name: "sheets"}
		db.Create(&key)

		resp, err := handler.HandleMe(context.Background(), &AuthInput{APIKey: "k-123"})
		if err != nil {
			t.Fatalf("HandleMe returned error: %v", err)
		}
		if resp.Body.ID != admin.ID {
			t.Errorf("expected admin %d, got %d", admin.ID, resp.Body.ID)
		}

		var stored models.APIKey
		db.First(&stored, key.ID)
		if stored.LastUsedAt == nil {
			t.Error("expected last_used_at to be set")
		}
	})

	t.Run("ExpiredAPIKey", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		db.Create(&models.APIKey{AdminID: admin.ID, Key: "k-old", ExpiresAt: &past})

		if _, err := handler.HandleMe(context.Background(), &AuthInput{APIKey: "k-old"}); err == nil {
			t.Fatal("expected error for expired key, got nil")
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		input := &AuthInput{}
		_, err := handler.HandleMe(context.Background(), input)
		if err == nil {
			t.Fatal("expected error for unauthenticated request, got nil")
		}
	})

	t.Run("DeletedAdmin", func(t *testing.T) {
		gone := models.Admin{Username: "former"}
		db.Create(&gone)
		token, _ := handler.GenerateToken(gone.ID)
		db.Unscoped().Delete(&gone)

		if _, err := handler.HandleMe(context.Background(), &AuthInput{Cookie: "auth_token=" + token}); err == nil {
			t.Fatal("expected error for deleted admin, got nil")
		}
	})
}

func TestHandleLogin(t *testing.T) {
	handler, _, admin := setupAuth(t)

	t.Run("Success", func(t *testing.T) {
		input := &LoginInput{}
		input.Body.Username = "pastor"
		input.Body.Password = "correct horse"

		resp, err := handler.HandleLogin(context.Background(), input)
		if err != nil {
			t.Fatalf("HandleLogin returned error: %v", err)
		}
		if resp.SetCookie.Name != CookieName || resp.SetCookie.Value == "" {
			t.Fatalf("expected auth cookie, got %+v", resp.SetCookie)
		}

		adminID, _, err := handler.ParseToken(resp.SetCookie.Value)
		if err != nil {
			t.Fatalf("issued token does not parse: %v", err)
		}
		if adminID != admin.ID {
			t.Errorf("expected admin %d, got %d", admin.ID, adminID)
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		input := &LoginInput{}
		input.Body.Username = "pastor"
		input.Body.Password = "battery staple"

		if _, err := handler.HandleLogin(context.Background(), input); err == nil {
			t.Fatal("expected error for wrong password")
		}
	})

	t.Run("UnknownUser", func(t *testing.T) {
		input := &LoginInput{}
		input.Body.Username = "nobody"
		input.Body.Password = "correct horse"

		if _, err := handler.HandleLogin(context.Background(), input); err == nil {
			t.Fatal("expected error for unknown user")
		}
	})
}

func TestHandleLogout(t *testing.T) {
	handler, _, _ := setupAuth(t)

	resp, err := handler.HandleLogout(context.Background(), &struct{}{})
	if err != nil {
		t.Fatalf("HandleLogout returned error: %v", err)
	}
	if resp.SetCookie.Value != "" || resp.SetCookie.MaxAge >= 0 {
		t.Errorf("expected cleared cookie, got %+v", resp.SetCookie)
	}
}

func TestParseToken_RejectsForeignSecret(t *testing.T) {
	handler, _, admin := setupAuth(t)
	other := NewAuthHandler(&config.Config{JWTSecret: "other-secret"}, nil)

	token, _ := other.GenerateToken(admin.ID)
	if _, _, err := handler.ParseToken(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestDiscordLogin(t *testing.T) {
	handler, _, _ := setupAuth(t)

	t.Run("NotConfigured", func(t *testing.T) {
		if _, err := handler.HandleDiscordLogin(context.Background(), &struct{}{}); err == nil {
			t.Fatal("expected error when discord is not configured")
		}
	})

	t.Run("RedirectCarriesState", func(t *testing.T) {
		cfg := &config.Config{DiscordClientID: "id", DiscordClientSecret: "secret", DiscordRedirectURL: "http://localhost/cb"}
		h := NewAuthHandler(cfg, nil)

		resp, err := h.HandleDiscordLogin(context.Background(), &struct{}{})
		if err != nil {
			t.Fatalf("HandleDiscordLogin returned error: %v", err)
		}
		u, err := url.Parse(resp.Location)
		if err != nil {
			t.Fatalf("invalid redirect: %v", err)
		}
		if got := u.Query().Get("state"); got == "" || got != resp.SetCookie.Value {
			t.Errorf("state %q does not match cookie %q", got, resp.SetCookie.Value)
		}
	})

	t.Run("CallbackStateMismatch", func(t *testing.T) {
		input := &DiscordCallbackInput{Code: "abc", State: "one", Cookie: StateCookieName + "=two"}
		if _, err := handler.HandleDiscordCallback(context.Background(), input); err == nil {
			t.Fatal("expected error for mismatched state")
		}
	})
}
