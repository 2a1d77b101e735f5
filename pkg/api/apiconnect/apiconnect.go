// Package apiconnect wires the api messages to Connect handlers and clients,
// one constructor pair per service.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/hisaabdost/backend/pkg/api"
)

// Fully-qualified service names.
const (
	AuthServiceName     = "hisaab.v1.AuthService"
	ContextServiceName  = "hisaab.v1.ContextService"
	GroupServiceName    = "hisaab.v1.GroupService"
	ExpenseServiceName  = "hisaab.v1.ExpenseService"
	BudgetServiceName   = "hisaab.v1.BudgetService"
	IncomeServiceName   = "hisaab.v1.IncomeService"
	GoalServiceName     = "hisaab.v1.GoalService"
	LoanServiceName     = "hisaab.v1.LoanService"
	WalletServiceName   = "hisaab.v1.WalletService"
	InsightsServiceName = "hisaab.v1.InsightsService"
)

// Procedure returns the RPC path of method on service.
func Procedure(service, method string) string {
	return "/" + service + "/" + method
}

// handlerOptions puts the JSON codec first so callers can still override it.
func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
}

func unary[Req, Res any](service, method string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) *connect.Handler {
	return connect.NewUnaryHandler(Procedure(service, method), fn, handlerOptions(opts)...)
}

func client[Req, Res any](httpClient connect.HTTPClient, baseURL, service, method string, opts []connect.ClientOption) *connect.Client[Req, Res] {
	return connect.NewClient[Req, Res](httpClient, strings.TrimRight(baseURL, "/")+Procedure(service, method), clientOptions(opts)...)
}

// route serves each procedure from its handler and 404s anything else.
func route(service string, handlers map[string]*connect.Handler) (string, http.Handler) {
	byPath := make(map[string]http.Handler, len(handlers))
	for method, h := range handlers {
		byPath[Procedure(service, method)] = h
	}
	return "/" + service + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := byPath[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}
