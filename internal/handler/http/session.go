package http

import (
	"log/slog"
	"net/http"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/service"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/httputil"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/middleware"
)

// SessionHandler exposes the session token and the login-time merge.
type SessionHandler struct {
	merge  *service.MergeService
	logger *slog.Logger
}

func NewSessionHandler(merge *service.MergeService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{merge: merge, logger: logger}
}

// SessionResponse tells the client who the server thinks it is.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, SessionResponse{
		SessionID: middleware.SessionIDFromContext(r.Context()),
		UserID:    middleware.UserIDFromContext(r.Context()),
	})
}

// Merge handles POST /api/v1/session/merge. The caller must be signed in
// and present the session token it browsed with before login.
func (h *SessionHandler) Merge(w http.ResponseWriter, r *http.Request) {
	result, err := h.merge.MergeSession(r.Context(),
		middleware.SessionIDFromContext(r.Context()),
		middleware.UserIDFromContext(r.Context()),
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}
