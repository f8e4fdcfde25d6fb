package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type ctxKey string

const ctxSlotKey ctxKey = "cart_slot"

const sessionCookieMaxAge = 365 * 24 * 60 * 60

// sessionMiddleware identifies the browser profile by cookie, issuing a new
// one when absent or unreadable, and exposes the derived cart slot key.
func (a *API) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if c, err := r.Cookie(a.cookieName); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				sessionID = id.String()
			}
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     a.cookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   sessionCookieMaxAge,
				HttpOnly: true,
				Secure:   a.cookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), ctxSlotKey, a.slotKeys.For(sessionID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func slotKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(ctxSlotKey).(string)
	return key
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	// A browser form cannot set headers, so it posts the token as a field.
	if isFormPost(r) {
		return strings.TrimSpace(r.PostFormValue("access_token"))
	}
	return ""
}
