// Package postgres implements the repository ports on PostgreSQL via pgx.
package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
)

// ownerClause returns the predicate selecting rows owned by o, bound to
// placeholder $n, along with its argument. The column prefix lets callers
// qualify it in joins.
func ownerClause(prefix string, o domain.Owner, n int) (string, any) {
	if o.IsAnonymous() {
		return fmt.Sprintf("%ssession_id = $%d AND %suser_id IS NULL", prefix, n, prefix), o.SessionID
	}
	return fmt.Sprintf("%suser_id = $%d", prefix, n), o.UserID
}

// ownerColumns splits an owner into nullable column values.
func ownerColumns(o domain.Owner) (sessionID, userID *string) {
	if o.IsAnonymous() {
		return &o.SessionID, nil
	}
	return nil, &o.UserID
}

func ownerFromColumns(sessionID, userID *string) domain.Owner {
	var o domain.Owner
	if sessionID != nil {
		o.SessionID = *sessionID
	}
	if userID != nil {
		o.UserID = *userID
	}
	return o
}

func marshalOptions(opts map[string]any) ([]byte, error) {
	if len(opts) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("marshal selected options: %w", err)
	}
	return b, nil
}

func unmarshalOptions(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var opts map[string]any
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("unmarshal selected options: %w", err)
	}
	return opts, nil
}

func limitOffset(page, perPage int) (int, int) {
	if perPage <= 0 {
		perPage = 20
	}
	if page < 1 {
		page = 1
	}
	return perPage, (page - 1) * perPage
}
