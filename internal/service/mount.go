package service

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/hisaabdost/backend/internal/auth"
	"github.com/hisaabdost/backend/internal/cache"
	"github.com/hisaabdost/backend/internal/metrics"
	"github.com/hisaabdost/backend/internal/middleware"
	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/session"
	"github.com/hisaabdost/backend/internal/storage"
	"github.com/hisaabdost/backend/pkg/api/apiconnect"
)

// Records are the cached, context-scoped stores of every record kind.
type Records struct {
	Expenses *session.Scoped[models.Expense]
	Budgets  *session.Scoped[models.Budget]
	Income   *session.Scoped[models.Income]
	Goals    *session.Scoped[models.Goal]
	Loans    *session.Scoped[models.Loan]
	Wallet   *session.Scoped[models.WalletEntry]
}

// NewRecords binds each record store of store to its cached collection.
func NewRecords(sessions *session.Manager, store storage.Store) *Records {
	return &Records{
		Expenses: session.NewScoped(sessions, cache.Expenses, store.Expenses()),
		Budgets:  session.NewScoped(sessions, cache.Budgets, store.Budgets()),
		Income:   session.NewScoped(sessions, cache.Income, store.Income()),
		Goals:    session.NewScoped(sessions, cache.Goals, store.Goals()),
		Loans:    session.NewScoped(sessions, cache.Loans, store.Loans()),
		Wallet:   session.NewScoped(sessions, cache.Wallet, store.Wallet()),
	}
}

// Deps is what the RPC services need.
type Deps struct {
	Store         storage.Store
	Sessions      *session.Manager
	Authenticator auth.Authenticator
	JWT           *auth.JWTManager
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// Mount registers every service on mux. AuthService is public; everything
// else requires a bearer token.
func Mount(mux *http.ServeMux, d Deps) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	public := connect.WithInterceptors(middleware.LoggingInterceptor(d.Metrics))
	private := connect.WithInterceptors(
		middleware.RequireAuth(d.JWT),
		middleware.LoggingInterceptor(d.Metrics),
	)

	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(d.Authenticator, d.JWT, logger), public))
	mux.Handle(apiconnect.NewContextServiceHandler(NewContextService(d.Sessions, d.Store), private))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(d.Store, d.Sessions.Invalidator()), private))

	records := NewRecords(d.Sessions, d.Store)
	mux.Handle(apiconnect.NewRecordServiceHandler[models.Expense](apiconnect.ExpenseServiceName,
		newRecordService("Expense", d.Sessions, d.Store, records.Expenses, prepareExpense), private))
	mux.Handle(apiconnect.NewRecordServiceHandler[models.Budget](apiconnect.BudgetServiceName,
		newRecordService("Budget", d.Sessions, d.Store, records.Budgets, prepareBudget), private))
	mux.Handle(apiconnect.NewRecordServiceHandler[models.Income](apiconnect.IncomeServiceName,
		newRecordService("Income", d.Sessions, d.Store, records.Income, prepareIncome), private))
	mux.Handle(apiconnect.NewRecordServiceHandler[models.Goal](apiconnect.GoalServiceName,
		newRecordService("Goal", d.Sessions, d.Store, records.Goals, prepareGoal), private))
	mux.Handle(apiconnect.NewRecordServiceHandler[models.Loan](apiconnect.LoanServiceName,
		newRecordService("Loan", d.Sessions, d.Store, records.Loans, prepareLoan), private))
	mux.Handle(apiconnect.NewRecordServiceHandler[models.WalletEntry](apiconnect.WalletServiceName,
		newRecordService("Wallet", d.Sessions, d.Store, records.Wallet, prepareWalletEntry), private))

	mux.Handle(apiconnect.NewInsightsServiceHandler(NewInsightsService(d.Sessions, d.Store, records), private))
}
