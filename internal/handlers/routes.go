package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gracechurch/retreat-api/internal/auth"
	"github.com/gracechurch/retreat-api/internal/config"
	"github.com/gracechurch/retreat-api/internal/logging"
	"github.com/gracechurch/retreat-api/internal/notifier"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handlers struct {
	Auth         *auth.AuthHandler
	Admin        *AdminHandler
	APIKey       *APIKeyHandler
	Retreat      *RetreatHandler
	Registration *RegistrationHandler
	Session      *SessionHandler
	Attendance   *AttendanceHandler
	Report       *ReportHandler
}

func NewHandlers(cfg *config.Config, db *gorm.DB, n notifier.Notifier) *Handlers {
	authHandler := auth.NewAuthHandler(cfg, db)
	return &Handlers{
		Auth:         authHandler,
		Admin:        NewAdminHandler(db, authHandler),
		APIKey:       NewAPIKeyHandler(db, authHandler),
		Retreat:      NewRetreatHandler(db, authHandler),
		Registration: NewRegistrationHandler(db, n, authHandler),
		Session:      NewSessionHandler(db, n, authHandler),
		Attendance:   NewAttendanceHandler(db, authHandler),
		Report:       NewReportHandler(db, authHandler),
	}
}

func RegisterRoutes(r *chi.Mux, cfg *config.Config, h *Handlers) huma.API {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(zap.L()))
	r.Use(middleware.Recoverer)

	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-KEY"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	humaConfig := huma.DefaultConfig("Retreat API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, humaConfig)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	huma.Get(api, "/public/retreats/upcoming", h.Retreat.HandleUpcoming)

	// Auth routes
	huma.Post(api, "/auth/login", h.Auth.HandleLogin)
	huma.Post(api, "/auth/logout", h.Auth.HandleLogout)
	huma.Get(api, "/auth/discord/login", h.Auth.HandleDiscordLogin)
	huma.Get(api, "/auth/discord/callback", h.Auth.HandleDiscordCallback)

	// Protected routes
	huma.Get(api, "/me", h.Auth.HandleMe, cookieAuth)
	huma.Get(api, "/me/preferences", h.Admin.HandleGetPreferences, cookieAuth)
	huma.Put(api, "/me/preferences", h.Admin.HandleUpdatePreferences, cookieAuth)

	huma.Get(api, "/admins", h.Admin.HandleList, cookieAuth)
	huma.Post(api, "/admins", h.Admin.HandleCreate, cookieAuth, created)
	huma.Delete(api, "/admins/{id}", h.Admin.HandleDelete, cookieAuth)

	huma.Get(api, "/api-keys", h.APIKey.HandleList, cookieAuth)
	huma.Post(api, "/api-keys", h.APIKey.HandleCreate, cookieAuth, created)
	huma.Delete(api, "/api-keys/{id}", h.APIKey.HandleDelete, cookieAuth)

	huma.Get(api, "/retreats", h.Retreat.HandleList, cookieAuth)
	huma.Post(api, "/retreats", h.Retreat.HandleCreate, cookieAuth, created)
	huma.Get(api, "/retreats/{id}", h.Retreat.HandleGet, cookieAuth)
	huma.Put(api, "/retreats/{id}", h.Retreat.HandleUpdate, cookieAuth)
	huma.Delete(api, "/retreats/{id}", h.Retreat.HandleDelete, cookieAuth)

	huma.Get(api, "/retreats/{id}/registrations", h.Registration.HandleList, cookieAuth)
	huma.Post(api, "/retreats/{id}/registrations", h.Registration.HandleCreate, cookieAuth, created)
	huma.Get(api, "/registrations/{id}", h.Registration.HandleGet, cookieAuth)
	huma.Put(api, "/registrations/{id}", h.Registration.HandleUpdate, cookieAuth)
	huma.Delete(api, "/registrations/{id}", h.Registration.HandleDelete, cookieAuth)
	huma.Get(api, "/registrations/{id}/history", h.Registration.HandleHistory, cookieAuth)

	huma.Post(api, "/retreats/{id}/sessions/generate", h.Session.HandleGenerate, cookieAuth, created)
	huma.Get(api, "/retreats/{id}/sessions", h.Session.HandleList, cookieAuth)
	huma.Put(api, "/sessions/{id}", h.Session.HandleUpdate, cookieAuth)
	huma.Delete(api, "/sessions/{id}", h.Session.HandleDelete, cookieAuth)

	huma.Put(api, "/sessions/{id}/attendance", h.Attendance.HandleUpsert, cookieAuth)
	huma.Get(api, "/retreats/{id}/attendance", h.Attendance.HandleList, cookieAuth)
	huma.Put(api, "/retreats/{id}/attendance", h.Attendance.HandleCommit, cookieAuth)
	huma.Post(api, "/retreats/{id}/attendance/preview", h.Attendance.HandlePreview, cookieAuth)

	huma.Get(api, "/retreats/{id}/report", h.Report.HandleReport, cookieAuth)
	r.With(h.Auth.AuthMiddleware).Get("/retreats/{id}/report.pdf", h.Report.ServePDF)

	return api
}
