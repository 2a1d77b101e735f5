package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/storage"
)

// CreateGroup persists a new group and makes its creator the owner.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, created_by, created_at) VALUES (?, ?, ?, ?)",
		group.ID, group.Name, group.CreatedBy, group.CreatedAt,
	)
	if err != nil {
		return wrap("insert group", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO memberships (group_id, user_id, role, is_active, joined_at) VALUES (?, ?, ?, 1, ?)",
		group.ID, group.CreatedBy, models.RoleOwner, group.CreatedAt,
	)
	if err != nil {
		return wrap("insert owner membership", err)
	}

	return wrap("commit transaction", tx.Commit())
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get group", err)
	}
	return group, nil
}

// ListGroupsForUser retrieves the groups a user actively belongs to.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.created_by, g.created_at
		FROM groups g
		JOIN memberships m ON m.group_id = g.id
		WHERE m.user_id = ? AND m.is_active = 1
		ORDER BY g.name, g.id`,
		userID,
	)
	if err != nil {
		return nil, wrap("list groups", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt); err != nil {
			return nil, wrap("scan group", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterate groups", err)
	}
	return groups, nil
}

const membershipColumns = "group_id, user_id, role, is_active, joined_at"

func scanMembership(row interface{ Scan(...any) error }) (*models.Membership, error) {
	m := &models.Membership{}
	var role string
	if err := row.Scan(&m.GroupID, &m.UserID, &role, &m.IsActive, &m.JoinedAt); err != nil {
		return nil, err
	}
	m.Role = models.Role(role)
	return m, nil
}

func (s *SQLiteStore) queryMemberships(ctx context.Context, query string, args ...any) ([]*models.Membership, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("list memberships", err)
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, wrap("scan membership", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterate memberships", err)
	}
	return memberships, nil
}

// ListMemberships retrieves a user's active memberships.
func (s *SQLiteStore) ListMemberships(ctx context.Context, userID string) ([]*models.Membership, error) {
	return s.queryMemberships(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE user_id = ? AND is_active = 1 ORDER BY joined_at, group_id",
		userID,
	)
}

// ListGroupMemberships retrieves the active memberships of a group.
func (s *SQLiteStore) ListGroupMemberships(ctx context.Context, groupID string) ([]*models.Membership, error) {
	return s.queryMemberships(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE group_id = ? AND is_active = 1 ORDER BY joined_at, user_id",
		groupID,
	)
}

// GetMembership retrieves one membership row, active or not.
func (s *SQLiteStore) GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	m, err := scanMembership(s.db.QueryRowContext(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("membership %s/%s: %w", groupID, userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get membership", err)
	}
	return m, nil
}

// UpsertMembership adds a user to a group, or reactivates and re-roles an existing row.
func (s *SQLiteStore) UpsertMembership(ctx context.Context, m *models.Membership) error {
	if !m.Role.Valid() {
		return fmt.Errorf("invalid role %q", m.Role)
	}
	if m.JoinedAt == 0 {
		m.JoinedAt = time.Now().Unix()
	}
	m.IsActive = true

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memberships (group_id, user_id, role, is_active, joined_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(group_id, user_id) DO UPDATE SET
			role = excluded.role,
			is_active = 1,
			joined_at = excluded.joined_at`,
		m.GroupID, m.UserID, m.Role, m.JoinedAt,
	)
	return wrap("upsert membership", err)
}

// DeactivateMembership marks a membership inactive. Rows are kept so that
// records the user created in the group stay attributed.
func (s *SQLiteStore) DeactivateMembership(ctx context.Context, groupID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE memberships SET is_active = 0 WHERE group_id = ? AND user_id = ? AND is_active = 1",
		groupID, userID,
	)
	if err != nil {
		return wrap("deactivate membership", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("deactivate membership", err)
	}
	if n == 0 {
		return fmt.Errorf("membership %s/%s: %w", groupID, userID, storage.ErrNotFound)
	}
	return nil
}
