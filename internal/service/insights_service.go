package service

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/hisaabdost/backend/internal/calculator"
	"github.com/hisaabdost/backend/internal/session"
	"github.com/hisaabdost/backend/internal/storage"
	"github.com/hisaabdost/backend/pkg/api"
	"github.com/hisaabdost/backend/pkg/api/apiconnect"
)

var _ apiconnect.InsightsServiceHandler = (*InsightsService)(nil)

// InsightsService builds the analytics dashboard of the active context.
type InsightsService struct {
	records  *Records
	groups   storage.GroupStore
	sessions *session.Manager
	now      func() time.Time
}

// NewInsightsService creates an InsightsService reading through records.
func NewInsightsService(sessions *session.Manager, groups storage.GroupStore, records *Records) *InsightsService {
	return &InsightsService{records: records, groups: groups, sessions: sessions, now: time.Now}
}

// GetDashboard returns the dashboard of the requested month, the current one
// by default.
func (s *InsightsService) GetDashboard(ctx context.Context, req *connect.Request[api.GetDashboardRequest]) (*connect.Response[api.GetDashboardResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	month := req.Msg.Month
	if month == "" {
		month = now.UTC().Format(calculator.MonthLayout)
	}
	slog.Info("GetDashboard request received", "user_id", userID, "month", month)

	if _, err := calculator.ParseMonth(month); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	// One predicate for every list keeps the dashboard inside a single context
	// even if the user switches while it is being built.
	p, err := s.sessions.Filter(ctx, userID)
	if err != nil {
		return nil, s.failed(userID, err)
	}
	var r calculator.Records
	if r.Expenses, err = s.records.Expenses.ListWith(ctx, p); err != nil {
		return nil, s.failed(userID, err)
	}
	if r.Budgets, err = s.records.Budgets.ListWith(ctx, p); err != nil {
		return nil, s.failed(userID, err)
	}
	if r.Income, err = s.records.Income.ListWith(ctx, p); err != nil {
		return nil, s.failed(userID, err)
	}
	if r.Goals, err = s.records.Goals.ListWith(ctx, p); err != nil {
		return nil, s.failed(userID, err)
	}
	if r.Loans, err = s.records.Loans.ListWith(ctx, p); err != nil {
		return nil, s.failed(userID, err)
	}
	if r.Wallet, err = s.records.Wallet.ListWith(ctx, p); err != nil {
		return nil, s.failed(userID, err)
	}

	dashboard, err := calculator.BuildDashboard(r, month, now)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	slog.Info("GetDashboard successful",
		"user_id", userID,
		"month", month,
		"alerts_count", len(dashboard.Alerts),
	)

	return connect.NewResponse(&api.GetDashboardResponse{
		Context:   describe(ctx, s.groups, p.Context()),
		Dashboard: dashboard,
	}), nil
}

func (s *InsightsService) failed(userID string, err error) error {
	slog.Warn("GetDashboard failed", "user_id", userID, "error", err)
	return toConnectError(err)
}
