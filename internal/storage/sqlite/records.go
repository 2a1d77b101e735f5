package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/scope"
	"github.com/hisaabdost/backend/internal/storage"
)

// table describes how one record kind maps onto its SQL table.
// The scope columns are common to all tables; columns lists the rest.
type table[T any] struct {
	name    string
	columns []string
	scope   func(*T) *models.Scope
	// fields returns pointers to the data fields, in column order, for Scan.
	fields func(*T) []any
	// values returns the data field values, in column order, for Exec.
	values func(*T) []any
}

func (t table[T]) selectList() string {
	return "id, owner_user_id, group_id, created_by, created_at, updated_at, " + strings.Join(t.columns, ", ")
}

func (t table[T]) scan(row interface{ Scan(...any) error }) (*T, error) {
	record := new(T)
	sc := t.scope(record)
	var owner, group sql.NullString
	dest := append([]any{&sc.ID, &owner, &group, &sc.CreatedBy, &sc.CreatedAt, &sc.UpdatedAt}, t.fields(record)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	sc.OwnerUserID = owner.String
	sc.GroupID = group.String
	return record, nil
}

// scopeClause renders a predicate as SQL. Group predicates also require the
// viewing user to be an active member, so a revoked member reads nothing even
// if an older session still points at the group.
func scopeClause(p scope.Predicate) (string, []any) {
	if p.IsPersonal() {
		return "owner_user_id = ? AND group_id IS NULL", []any{p.UserID()}
	}
	return `group_id = ? AND EXISTS (
		SELECT 1 FROM memberships m
		WHERE m.group_id = ? AND m.user_id = ? AND m.is_active = 1)`,
		[]any{p.GroupID(), p.GroupID(), p.UserID()}
}

// recordStore implements storage.RecordStore for one table.
type recordStore[T any] struct {
	db *sql.DB
	t  table[T]
}

var _ storage.RecordStore[models.Expense] = (*recordStore[models.Expense])(nil)

// List returns the records of the predicate's context, newest first.
func (s *recordStore[T]) List(ctx context.Context, p scope.Predicate) ([]*T, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	where, args := scopeClause(p)
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY created_at DESC, id", s.t.selectList(), s.t.name, where),
		args...,
	)
	if err != nil {
		return nil, wrap("list "+s.t.name, err)
	}
	defer rows.Close()

	records := []*T{}
	for rows.Next() {
		record, err := s.t.scan(rows)
		if err != nil {
			return nil, wrap("scan "+s.t.name, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterate "+s.t.name, err)
	}
	return records, nil
}

// Get returns one record of the predicate's context.
func (s *recordStore[T]) Get(ctx context.Context, p scope.Predicate, id string) (*T, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	where, args := scopeClause(p)
	record, err := s.t.scan(s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND %s", s.t.selectList(), s.t.name, where),
		append([]any{id}, args...)...,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s %s: %w", s.t.name, id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get "+s.t.name, err)
	}
	return record, nil
}

// Insert stamps the record with the predicate and persists it. Group records
// are only written when the acting user is an active member of the group.
func (s *recordStore[T]) Insert(ctx context.Context, p scope.Predicate, record *T) error {
	sc := s.t.scope(record)
	if err := p.Stamp(sc); err != nil {
		return err
	}
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if sc.CreatedAt == 0 {
		sc.CreatedAt = now
	}
	sc.UpdatedAt = now

	columns := s.t.selectList()
	args := append([]any{sc.ID, nullable(sc.OwnerUserID), nullable(sc.GroupID), sc.CreatedBy, sc.CreatedAt, sc.UpdatedAt},
		s.t.values(record)...)

	guard := "1"
	if !p.IsPersonal() {
		guard = "EXISTS (SELECT 1 FROM memberships WHERE group_id = ? AND user_id = ? AND is_active = 1)"
		args = append(args, p.GroupID(), p.UserID())
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s WHERE %s", s.t.name, columns, placeholders(6+len(s.t.columns)), guard),
		args...,
	)
	if err != nil {
		return wrap("insert "+s.t.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("insert "+s.t.name, err)
	}
	if n == 0 {
		return fmt.Errorf("insert %s into group %s: %w", s.t.name, p.GroupID(), scope.ErrNotMember)
	}
	return nil
}

// Update overwrites the data columns of a record in the predicate's context.
func (s *recordStore[T]) Update(ctx context.Context, p scope.Predicate, record *T) error {
	if err := p.Validate(); err != nil {
		return err
	}
	sc := s.t.scope(record)
	if sc.OwnerUserID != "" || sc.GroupID != "" {
		if err := p.Check(*sc); err != nil {
			return err
		}
	}

	sets := make([]string, len(s.t.columns))
	for i, c := range s.t.columns {
		sets[i] = c + " = ?"
	}
	now := time.Now().Unix()
	where, whereArgs := scopeClause(p)
	args := append(s.t.values(record), now, sc.ID)
	args = append(args, whereArgs...)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s, updated_at = ? WHERE id = ? AND %s", s.t.name, strings.Join(sets, ", "), where),
		args...,
	)
	if err != nil {
		return wrap("update "+s.t.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("update "+s.t.name, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", s.t.name, sc.ID, storage.ErrNotFound)
	}

	// Report back the stored scope rather than whatever the caller sent.
	stored, err := s.Get(ctx, p, sc.ID)
	if err != nil {
		return err
	}
	*sc = *s.t.scope(stored)
	return nil
}

// Delete removes a record in the predicate's context.
func (s *recordStore[T]) Delete(ctx context.Context, p scope.Predicate, id string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	where, args := scopeClause(p)
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ? AND %s", s.t.name, where),
		append([]any{id}, args...)...,
	)
	if err != nil {
		return wrap("delete "+s.t.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("delete "+s.t.name, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", s.t.name, id, storage.ErrNotFound)
	}
	return nil
}
