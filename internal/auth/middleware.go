package auth

import (
	"context"
	"net/http"
	"time"
)

type contextKey string

const AdminIDKey contextKey = "admin_id"

// AdminIDFromContext returns the admin set by AuthMiddleware.
func AdminIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(AdminIDKey).(uint)
	return id, ok
}

// AuthMiddleware guards plain chi routes with the same rules as Authorize.
func (h *AuthHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// 1. Check for API Key Header
		if apiKey := r.Header.Get("X-API-KEY"); apiKey != "" {
			adminID, err := h.lookupAPIKey(ctx, apiKey)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, AdminIDKey, adminID)))
			return
		}

		// 2. Fallback to JWT Cookie
		cookie, err := r.Cookie(CookieName)
		if err != nil {
			if err == http.ErrNoCookie {
				http.Error(w, "Unauthorized: No token found", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		adminID, exp, err := h.ParseToken(cookie.Value)
		if err != nil {
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}
		if !h.adminExists(ctx, adminID) {
			http.Error(w, "Unauthorized: account no longer exists", http.StatusUnauthorized)
			return
		}

		// Sliding session: refresh token if it's more than halfway through its duration
		if time.Until(exp) < TokenDuration/2 {
			newToken, err := h.GenerateToken(adminID)
			if err == nil {
				c := h.sessionCookie(newToken, time.Now().Add(TokenDuration))
				http.SetCookie(w, &c)
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, AdminIDKey, adminID)))
	})
}
