package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/hisaabdost/backend/internal/calculator"
	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/session"
	"github.com/hisaabdost/backend/internal/storage"
	"github.com/hisaabdost/backend/pkg/api"
	"github.com/hisaabdost/backend/pkg/api/apiconnect"
)

// RecordService serves List, Create, Update and Delete of one record kind
// under the caller's active context.
type RecordService[T any] struct {
	name     string
	records  *session.Scoped[T]
	groups   storage.GroupStore
	sessions *session.Manager

	// prepare validates a record and fills defaults before it is written.
	prepare func(*T) error
}

var _ apiconnect.RecordServiceHandler[models.Expense] = (*RecordService[models.Expense])(nil)

func newRecordService[T any](name string, sessions *session.Manager, groups storage.GroupStore, records *session.Scoped[T], prepare func(*T) error) *RecordService[T] {
	return &RecordService[T]{
		name:     name,
		records:  records,
		groups:   groups,
		sessions: sessions,
		prepare:  prepare,
	}
}

// scopeOf returns the embedded scope of a record.
func scopeOf(record any) *models.Scope {
	return record.(interface{ RecordScope() *models.Scope }).RecordScope()
}

// List returns every record of the active context.
func (s *RecordService[T]) List(ctx context.Context, req *connect.Request[api.ListRequest]) (*connect.Response[api.ListResponse[T]], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.sessions.Filter(ctx, userID)
	if err != nil {
		slog.Warn(s.name+" List failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	items, err := s.records.ListWith(ctx, p)
	if err != nil {
		slog.Warn(s.name+" List failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	if items == nil {
		items = []*T{}
	}

	return connect.NewResponse(&api.ListResponse[T]{
		Context: describe(ctx, s.groups, p.Context()),
		Items:   items,
	}), nil
}

// Create stores a record in the active context. Scope fields sent by the
// client are ignored.
func (s *RecordService[T]) Create(ctx context.Context, req *connect.Request[api.CreateRequest[T]]) (*connect.Response[api.CreateResponse[T]], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info(s.name+" Create request received", "user_id", userID)

	record := req.Msg.Record
	if record == nil {
		return nil, invalidArgument("record is required")
	}
	*scopeOf(record) = models.Scope{}
	if err := s.prepare(record); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.records.Create(ctx, userID, record); err != nil {
		slog.Error(s.name+" Create failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info(s.name+" created", "id", scopeOf(record).ID)
	return connect.NewResponse(&api.CreateResponse[T]{Record: record}), nil
}

// Update replaces the data fields of a record in the active context.
func (s *RecordService[T]) Update(ctx context.Context, req *connect.Request[api.UpdateRequest[T]]) (*connect.Response[api.UpdateResponse[T]], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	record := req.Msg.Record
	if record == nil || scopeOf(record).ID == "" {
		return nil, invalidArgument("record with id is required")
	}
	slog.Info(s.name+" Update request received", "user_id", userID, "id", scopeOf(record).ID)

	*scopeOf(record) = models.Scope{ID: scopeOf(record).ID}
	if err := s.prepare(record); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.records.Update(ctx, userID, record); err != nil {
		slog.Error(s.name+" Update failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.UpdateResponse[T]{Record: record}), nil
}

// Delete removes a record of the active context.
func (s *RecordService[T]) Delete(ctx context.Context, req *connect.Request[api.DeleteRequest]) (*connect.Response[api.DeleteResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info(s.name+" Delete request received", "user_id", userID, "id", req.Msg.ID)

	if req.Msg.ID == "" {
		return nil, invalidArgument("id is required")
	}
	if err := s.records.Delete(ctx, userID, req.Msg.ID); err != nil {
		slog.Error(s.name+" Delete failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.DeleteResponse{}), nil
}

// Validation errors, returned as InvalidArgument.
var (
	errAmount    = errors.New("amount must be positive")
	errCategory  = errors.New("category is required")
	errNegative  = errors.New("amounts must not be negative")
	errTitle     = errors.New("title is required")
	errDirection = errors.New(`direction must be "lent" or "borrowed"`)
	errEntryType = errors.New(`type must be "deposit" or "withdrawal"`)
	errParty     = errors.New("counterparty is required")
)

func prepareExpense(e *models.Expense) error {
	if !e.Amount.IsPositive() {
		return errAmount
	}
	e.Category = strings.TrimSpace(e.Category)
	if e.Category == "" {
		return errCategory
	}
	if e.SpentAt == 0 {
		e.SpentAt = time.Now().Unix()
	}
	return nil
}

func prepareBudget(b *models.Budget) error {
	b.Category = strings.TrimSpace(b.Category)
	if b.Category == "" {
		return errCategory
	}
	if !b.Limit.IsPositive() {
		return errors.New("limit must be positive")
	}
	if b.Month == "" {
		b.Month = time.Now().UTC().Format(calculator.MonthLayout)
	}
	_, err := calculator.ParseMonth(b.Month)
	return err
}

func prepareIncome(i *models.Income) error {
	if i.Amount.IsNegative() {
		return errNegative
	}
	if i.Month == "" {
		i.Month = time.Now().UTC().Format(calculator.MonthLayout)
	}
	_, err := calculator.ParseMonth(i.Month)
	return err
}

func prepareGoal(g *models.Goal) error {
	g.Title = strings.TrimSpace(g.Title)
	if g.Title == "" {
		return errTitle
	}
	if !g.TargetAmount.IsPositive() {
		return errors.New("target_amount must be positive")
	}
	if g.SavedAmount.IsNegative() || g.Deadline < 0 {
		return errNegative
	}
	return nil
}

func prepareLoan(l *models.Loan) error {
	l.Counterparty = strings.TrimSpace(l.Counterparty)
	if l.Counterparty == "" {
		return errParty
	}
	if l.Direction != models.LoanLent && l.Direction != models.LoanBorrowed {
		return errDirection
	}
	if !l.Amount.IsPositive() {
		return errAmount
	}
	if l.Repaid.IsNegative() {
		return errNegative
	}
	return nil
}

func prepareWalletEntry(w *models.WalletEntry) error {
	if w.Type != models.WalletDeposit && w.Type != models.WalletWithdrawal {
		return errEntryType
	}
	if !w.Amount.IsPositive() {
		return errAmount
	}
	if w.OccurredAt == 0 {
		w.OccurredAt = time.Now().Unix()
	}
	return nil
}
