package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/scope"
	"github.com/hisaabdost/backend/internal/storage"
)

// EnsureProfile creates a personal-context profile if the user has none.
func (s *SQLiteStore) EnsureProfile(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO profiles (user_id, active_context_id, updated_at) VALUES (?, NULL, ?) ON CONFLICT(user_id) DO NOTHING",
		userID, time.Now().Unix(),
	)
	return wrap("ensure profile", err)
}

// GetProfile retrieves a user's profile.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile := &models.Profile{}
	var active sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, active_context_id, updated_at FROM profiles WHERE user_id = ?",
		userID,
	).Scan(&profile.UserID, &active, &profile.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile %s: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get profile", err)
	}
	if active.Valid {
		profile.ActiveContextID = &active.String
	}
	return profile, nil
}

// SetActiveContext writes the active context column. Switching to a group and
// checking that the user is an active member happen in the same statement, so a
// membership revoked concurrently can never be persisted as the active context.
// updated_at is bookkeeping only; active_context_id is the sole state read back.
func (s *SQLiteStore) SetActiveContext(ctx context.Context, userID string, groupID *string) error {
	var group any
	if groupID != nil {
		group = *groupID
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, active_context_id, updated_at)
		SELECT ?, ?, ?
		WHERE ? IS NULL OR EXISTS (
			SELECT 1 FROM memberships
			WHERE group_id = ? AND user_id = ? AND is_active = 1
		)
		ON CONFLICT(user_id) DO UPDATE SET
			active_context_id = excluded.active_context_id,
			updated_at = excluded.updated_at`,
		userID, group, time.Now().Unix(),
		group,
		group, userID,
	)
	if err != nil {
		return wrap("set active context", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return wrap("set active context", err)
	}
	if n == 0 {
		return fmt.Errorf("set active context for %s: %w", userID, scope.ErrNotMember)
	}
	return nil
}
