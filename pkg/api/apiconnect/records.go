package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/pkg/api"
)

// RecordServiceHandler is the server side of a record service: List, Create,
// Update and Delete of one record type under the caller's active context.
type RecordServiceHandler[T any] interface {
	List(context.Context, *connect.Request[api.ListRequest]) (*connect.Response[api.ListResponse[T]], error)
	Create(context.Context, *connect.Request[api.CreateRequest[T]]) (*connect.Response[api.CreateResponse[T]], error)
	Update(context.Context, *connect.Request[api.UpdateRequest[T]]) (*connect.Response[api.UpdateResponse[T]], error)
	Delete(context.Context, *connect.Request[api.DeleteRequest]) (*connect.Response[api.DeleteResponse], error)
}

// NewRecordServiceHandler mounts a record service under service's name.
func NewRecordServiceHandler[T any](service string, svc RecordServiceHandler[T], opts ...connect.HandlerOption) (string, http.Handler) {
	return route(service, map[string]*connect.Handler{
		"List":   unary(service, "List", svc.List, opts),
		"Create": unary(service, "Create", svc.Create, opts),
		"Update": unary(service, "Update", svc.Update, opts),
		"Delete": unary(service, "Delete", svc.Delete, opts),
	})
}

// RecordServiceClient calls a record service.
type RecordServiceClient[T any] struct {
	list   *connect.Client[api.ListRequest, api.ListResponse[T]]
	create *connect.Client[api.CreateRequest[T], api.CreateResponse[T]]
	update *connect.Client[api.UpdateRequest[T], api.UpdateResponse[T]]
	delete *connect.Client[api.DeleteRequest, api.DeleteResponse]
}

// NewRecordServiceClient constructs a client for the record service named service.
func NewRecordServiceClient[T any](httpClient connect.HTTPClient, baseURL, service string, opts ...connect.ClientOption) *RecordServiceClient[T] {
	return &RecordServiceClient[T]{
		list:   client[api.ListRequest, api.ListResponse[T]](httpClient, baseURL, service, "List", opts),
		create: client[api.CreateRequest[T], api.CreateResponse[T]](httpClient, baseURL, service, "Create", opts),
		update: client[api.UpdateRequest[T], api.UpdateResponse[T]](httpClient, baseURL, service, "Update", opts),
		delete: client[api.DeleteRequest, api.DeleteResponse](httpClient, baseURL, service, "Delete", opts),
	}
}

func (c *RecordServiceClient[T]) List(ctx context.Context, req *connect.Request[api.ListRequest]) (*connect.Response[api.ListResponse[T]], error) {
	return c.list.CallUnary(ctx, req)
}

func (c *RecordServiceClient[T]) Create(ctx context.Context, req *connect.Request[api.CreateRequest[T]]) (*connect.Response[api.CreateResponse[T]], error) {
	return c.create.CallUnary(ctx, req)
}

func (c *RecordServiceClient[T]) Update(ctx context.Context, req *connect.Request[api.UpdateRequest[T]]) (*connect.Response[api.UpdateResponse[T]], error) {
	return c.update.CallUnary(ctx, req)
}

func (c *RecordServiceClient[T]) Delete(ctx context.Context, req *connect.Request[api.DeleteRequest]) (*connect.Response[api.DeleteResponse], error) {
	return c.delete.CallUnary(ctx, req)
}

// Typed constructors for each record service.

func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RecordServiceClient[models.Expense] {
	return NewRecordServiceClient[models.Expense](httpClient, baseURL, ExpenseServiceName, opts...)
}

func NewBudgetServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RecordServiceClient[models.Budget] {
	return NewRecordServiceClient[models.Budget](httpClient, baseURL, BudgetServiceName, opts...)
}

func NewIncomeServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RecordServiceClient[models.Income] {
	return NewRecordServiceClient[models.Income](httpClient, baseURL, IncomeServiceName, opts...)
}

func NewGoalServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RecordServiceClient[models.Goal] {
	return NewRecordServiceClient[models.Goal](httpClient, baseURL, GoalServiceName, opts...)
}

func NewLoanServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RecordServiceClient[models.Loan] {
	return NewRecordServiceClient[models.Loan](httpClient, baseURL, LoanServiceName, opts...)
}

func NewWalletServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RecordServiceClient[models.WalletEntry] {
	return NewRecordServiceClient[models.WalletEntry](httpClient, baseURL, WalletServiceName, opts...)
}
