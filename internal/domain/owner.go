package domain

import (
	"fmt"

	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
)

// Owner identifies who a cart line or wishlist entry belongs to: an
// anonymous browsing session or an authenticated user, never both.
type Owner struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// SessionOwner returns the owner for an anonymous session token.
func SessionOwner(sessionID string) Owner { return Owner{SessionID: sessionID} }

// UserOwner returns the owner for an authenticated user ID.
func UserOwner(userID string) Owner { return Owner{UserID: userID} }

// IsAnonymous reports whether the owner is a session.
func (o Owner) IsAnonymous() bool { return o.UserID == "" }

// Validate enforces that exactly one of the two identifiers is set.
func (o Owner) Validate() error {
	switch {
	case o.SessionID == "" && o.UserID == "":
		return apperrors.InvalidInput("owner requires a session id or a user id")
	case o.SessionID != "" && o.UserID != "":
		return apperrors.InvalidInput("owner cannot be both a session and a user")
	}
	return nil
}

// Key is a stable string form used for locks, cache keys and log fields.
func (o Owner) Key() string {
	if o.IsAnonymous() {
		return "session:" + o.SessionID
	}
	return "user:" + o.UserID
}

// OwnerFor picks the user when authenticated, else the session.
func OwnerFor(userID, sessionID string) (Owner, error) {
	if userID != "" {
		return UserOwner(userID), nil
	}
	if sessionID != "" {
		return SessionOwner(sessionID), nil
	}
	return Owner{}, fmt.Errorf("resolve owner: %w", apperrors.ErrUnauthorized)
}
