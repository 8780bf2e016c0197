package http

import (
	"net/http"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/httputil"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/middleware"
)

// RequireUser rejects requests that OptionalAuth left anonymous.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware.UserIDFromContext(r.Context()) == "" {
			httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ownerFromRequest picks the signed-in user, falling back to the
// anonymous session.
func ownerFromRequest(r *http.Request) (domain.Owner, error) {
	owner, err := domain.OwnerFor(
		middleware.UserIDFromContext(r.Context()),
		middleware.SessionIDFromContext(r.Context()),
	)
	if err != nil {
		return domain.Owner{}, apperrors.Unauthorized("a session id or sign-in is required")
	}
	return owner, nil
}
