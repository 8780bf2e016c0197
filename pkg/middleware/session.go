package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/httputil"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "session_id"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// SessionConfig controls the anonymous-session cookie.
type SessionConfig struct {
	CookieDomain string
	SecureCookie bool
	MaxAge       time.Duration
}

// Session resolves the anonymous session token from the X-Session-ID
// header or the session_id cookie. When neither is present a new UUID is
// issued. The resolved token is echoed back in both places so clients that
// persist it in local storage and clients relying on cookies agree.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 365 * 24 * time.Hour
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			if id == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					id = c.Value
				}
			}

			switch {
			case id == "":
				id = uuid.NewString()
			case !sessionIDPattern.MatchString(id):
				httputil.WriteError(w, r, apperrors.InvalidInput("malformed session id"), nil)
				return
			}

			w.Header().Set(SessionHeader, id)
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				Domain:   cfg.CookieDomain,
				MaxAge:   int(cfg.MaxAge.Seconds()),
				Secure:   cfg.SecureCookie,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
		})
	}
}

// WithSessionID stores the anonymous session token in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the session token set by Session, or "".
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}
