// Package auth handles account credentials and session tokens.
package auth

import (
	"context"

	"github.com/hisaabdost/backend/internal/models"
)

// Authenticator is a way of proving who a user is. Services depend on this
// interface so other methods (passkeys, OAuth) can be added without touching them.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
