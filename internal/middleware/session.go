package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const SessionContextKey = contextKey("session_id")

const (
	SessionName   = "classroom-session"
	sessionIDKey  = "sid"
	sessionMaxAge = 3600 * 8
)

// NewCookieStore builds the signed cookie store that carries the session id.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// SessionMiddleware makes sure every request carries a session id, issuing a
// new one when the cookie is missing or cannot be decoded.
func SessionMiddleware(store sessions.Store, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := store.Get(r, SessionName)
			if err != nil {
				logger.Debug().Err(err).Msg("Discarding unreadable session cookie")
			}
			id, _ := session.Values[sessionIDKey].(string)
			if id == "" {
				id = uuid.NewString()
				session.Values[sessionIDKey] = id
				if err := session.Save(r, w); err != nil {
					logger.Error().Err(err).Msg("Failed to save session")
					http.Error(w, "Failed to save session", http.StatusInternalServerError)
					return
				}
			}
			ctx := context.WithValue(r.Context(), SessionContextKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionID returns the id stored by SessionMiddleware.
func SessionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(SessionContextKey).(string)
	return id, ok && id != ""
}
