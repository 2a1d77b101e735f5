package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/hisaabdost/backend/internal/auth"
	"github.com/hisaabdost/backend/internal/metrics"
	"github.com/hisaabdost/backend/internal/models"
)

type ping struct{}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "user-1", Email: "ayesha@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var gotUser, gotEmail string
	next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		gotUser, gotEmail = GetUserID(ctx), GetEmail(ctx)
		return connect.NewResponse(&ping{}), nil
	}
	handler := RequireAuth(jwtManager)(next)

	tests := []struct {
		name   string
		header string
		ok     bool
	}{
		{"valid token", "Bearer " + token, true},
		{"missing header", "", false},
		{"wrong scheme", "Basic " + token, false},
		{"garbage token", "Bearer not-a-token", false},
		{"other secret", "Bearer " + mustToken(t, auth.NewJWTManager("other", time.Hour)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser, gotEmail = "", ""
			req := connect.NewRequest(&ping{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}

			_, err := handler(context.Background(), req)
			if !tt.ok {
				if connect.CodeOf(err) != connect.CodeUnauthenticated {
					t.Fatalf("expected Unauthenticated, got %v", err)
				}
				if gotUser != "" {
					t.Error("handler ran without a valid token")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotUser != "user-1" || gotEmail != "ayesha@example.com" {
				t.Errorf("expected user-1/ayesha@example.com in context, got %q/%q", gotUser, gotEmail)
			}
		})
	}
}

func mustToken(t *testing.T, m *auth.JWTManager) string {
	t.Helper()
	token, err := m.Generate(&models.User{ID: "user-2", Email: "bilal@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return token
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	want := connect.NewError(connect.CodePermissionDenied, errors.New("nope"))
	handler := LoggingInterceptor(metrics.New())(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, want
	})

	_, err := handler(WithUser(context.Background(), "user-1", "a@example.com"), connect.NewRequest(&ping{}))
	if !errors.Is(err, want) {
		t.Errorf("expected the handler's error back, got %v", err)
	}

	// A nil Metrics is allowed.
	handler = LoggingInterceptor(nil)(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&ping{}), nil
	})
	if _, err := handler(context.Background(), connect.NewRequest(&ping{})); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
