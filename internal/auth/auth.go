package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gracechurch/retreat-api/internal/config"
	"github.com/gracechurch/retreat-api/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"
)

const (
	CookieName      = "auth_token"
	StateCookieName = "oauth_state"
	TokenDuration   = 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type AuthHandler struct {
	oauthConfig *oauth2.Config
	db          *gorm.DB
	cfg         *config.Config
	userAPI     string
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		db:      db,
		cfg:     cfg,
		userAPI: DiscordUserAPI,
	}
}

// AuthInput carries the credentials of a huma operation. Either the session
// cookie or an API key is accepted.
type AuthInput struct {
	Cookie string `header:"Cookie" doc:"Session cookie (auth_token)"`
	APIKey string `header:"X-API-KEY" doc:"Admin API key"`
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *AuthHandler) GenerateToken(adminID uint) (string, error) {
	claims := jwt.MapClaims{
		"admin_id": adminID,
		"exp":      time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// ParseToken validates a session token and returns its admin id and expiry.
func (h *AuthHandler) ParseToken(tokenString string) (uint, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, time.Time{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, time.Time{}, ErrInvalidToken
	}
	adminID, ok := claims["admin_id"].(float64)
	if !ok || adminID <= 0 {
		return 0, time.Time{}, ErrInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, time.Time{}, ErrInvalidToken
	}
	return uint(adminID), exp.Time, nil
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) http.Cookie {
	return http.Cookie{
		Name:     CookieName,
		Value:    value,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
}

// cookieValue extracts a named cookie from a raw Cookie header.
func cookieValue(header, name string) string {
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return ""
	}
	for _, c := range cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// lookupAPIKey resolves an unexpired API key to its admin and marks it used.
func (h *AuthHandler) lookupAPIKey(ctx context.Context, key string) (uint, error) {
	var keyModel models.APIKey
	if err := h.db.WithContext(ctx).Where("key = ?", key).First(&keyModel).Error; err != nil {
		return 0, huma.Error401Unauthorized("Unauthorized: invalid API key")
	}
	now := time.Now()
	if keyModel.Expired(now) {
		return 0, huma.Error401Unauthorized("Unauthorized: API key expired")
	}
	h.db.WithContext(ctx).Model(&keyModel).Update("last_used_at", now)
	return keyModel.AdminID, nil
}

// Authorize resolves the admin behind a huma request.
func (h *AuthHandler) Authorize(ctx context.Context, in AuthInput) (uint, error) {
	if in.APIKey != "" {
		return h.lookupAPIKey(ctx, in.APIKey)
	}

	tokenString := cookieValue(in.Cookie, CookieName)
	if tokenString == "" {
		return 0, huma.Error401Unauthorized("Unauthorized: No token found")
	}
	adminID, _, err := h.ParseToken(tokenString)
	if err != nil {
		return 0, huma.Error401Unauthorized("Unauthorized: Invalid token")
	}

	if !h.adminExists(ctx, adminID) {
		return 0, huma.Error401Unauthorized("Unauthorized: account no longer exists")
	}
	return adminID, nil
}

// adminExists reports whether a token still belongs to a live account.
func (h *AuthHandler) adminExists(ctx context.Context, adminID uint) bool {
	var admin models.Admin
	return h.db.WithContext(ctx).Select("id").First(&admin, adminID).Error == nil
}

type LoginInput struct {
	Body struct {
		Username string `json:"username" minLength:"1"`
		Password string `json:"password" minLength:"1"`
	}
}

type SessionOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Message string `json:"message"`
	}
}

func (h *AuthHandler) HandleLogin(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
	var admin models.Admin
	if err := h.db.WithContext(ctx).Where("username = ?", input.Body.Username).First(&admin).Error; err != nil {
		return nil, huma.Error401Unauthorized("Invalid username or password")
	}
	if admin.PasswordHash == "" || !CheckPassword(admin.PasswordHash, input.Body.Password) {
		zap.L().Warn("failed login", zap.String("username", input.Body.Username))
		return nil, huma.Error401Unauthorized("Invalid username or password")
	}

	token, err := h.GenerateToken(admin.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	res := &SessionOutput{SetCookie: h.sessionCookie(token, time.Now().Add(TokenDuration))}
	res.Body.Message = fmt.Sprintf("Welcome %s! You are logged in.", admin.Username)
	return res, nil
}

func (h *AuthHandler) HandleLogout(ctx context.Context, input *struct{}) (*SessionOutput, error) {
	res := &SessionOutput{SetCookie: h.sessionCookie("", time.Unix(0, 0))}
	res.SetCookie.MaxAge = -1
	res.Body.Message = "Logged out"
	return res, nil
}

type MeOutput struct {
	Body models.Admin
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *AuthInput) (*MeOutput, error) {
	adminID, err := h.Authorize(ctx, *input)
	if err != nil {
		return nil, err
	}

	var admin models.Admin
	if err := h.db.WithContext(ctx).First(&admin, adminID).Error; err != nil {
		return nil, huma.Error404NotFound("Admin not found")
	}
	return &MeOutput{Body: admin}, nil
}

type RedirectOutput struct {
	Status    int
	Location  string      `header:"Location"`
	SetCookie http.Cookie `header:"Set-Cookie"`
}

func (h *AuthHandler) HandleDiscordLogin(ctx context.Context, input *struct{}) (*RedirectOutput, error) {
	if !h.cfg.DiscordLoginEnabled() {
		return nil, huma.Error404NotFound("Discord login is not configured")
	}

	state := uuid.NewString()
	return &RedirectOutput{
		Status:   http.StatusTemporaryRedirect,
		Location: h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline),
		SetCookie: http.Cookie{
			Name:     StateCookieName,
			Value:    state,
			Expires:  time.Now().Add(10 * time.Minute),
			HttpOnly: true,
			Secure:   h.cfg.CookieSecure,
			Path:     "/auth/discord",
		},
	}, nil
}

type DiscordCallbackInput struct {
	Code   string `query:"code"`
	State  string `query:"state"`
	Cookie string `header:"Cookie"`
}

func (h *AuthHandler) HandleDiscordCallback(ctx context.Context, input *DiscordCallbackInput) (*RedirectOutput, error) {
	if input.Code == "" {
		return nil, huma.Error400BadRequest("Code not found")
	}
	expected := cookieValue(input.Cookie, StateCookieName)
	if expected == "" || expected != input.State {
		return nil, huma.Error400BadRequest("Invalid OAuth state")
	}

	token, err := h.oauthConfig.Exchange(ctx, input.Code)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to exchange token")
	}

	resp, err := h.oauthConfig.Client(ctx, token).Get(h.userAPI)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get user info")
	}
	defer resp.Body.Close()

	var discordUser struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&discordUser); err != nil {
		return nil, huma.Error500InternalServerError("Failed to decode user info")
	}

	var admin models.Admin
	if err := h.db.WithContext(ctx).Where("discord_id = ?", discordUser.ID).First(&admin).Error; err != nil {
		zap.L().Warn("discord login without admin account",
			zap.String("discord_id", discordUser.ID),
			zap.String("discord_username", discordUser.Username))
		return nil, huma.Error403Forbidden("Access denied: this Discord account is not linked to an admin")
	}

	jwtToken, err := h.GenerateToken(admin.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	return &RedirectOutput{
		Status:    http.StatusTemporaryRedirect,
		Location:  h.cfg.FrontendURL,
		SetCookie: h.sessionCookie(jwtToken, time.Now().Add(TokenDuration)),
	}, nil
}
