package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/hisaabdost/backend/internal/auth"
	"github.com/hisaabdost/backend/internal/middleware"
	"github.com/hisaabdost/backend/internal/scope"
	"github.com/hisaabdost/backend/internal/storage"
)

var (
	// ErrNotGroupAdmin means the caller may not manage the group's members.
	ErrNotGroupAdmin = errors.New("only the group owner or an admin can do this")
	// ErrOwnerRemoval means someone tried to remove the group owner.
	ErrOwnerRemoval = errors.New("the group owner cannot be removed")
)

// toConnectError maps domain errors to Connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return err
	case errors.Is(err, scope.ErrUnauthenticated):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, scope.ErrNotMember), errors.Is(err, ErrNotGroupAdmin):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, ErrOwnerRemoval):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, scope.ErrTransient):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, scope.ErrScopeViolation):
		slog.Error("Scope violation", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// callerID returns the authenticated user or an Unauthenticated error.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}
