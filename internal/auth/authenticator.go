package auth

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Authenticator is the identity collaborator the RPC layer depends on.
// The ledger never sees credentials; it only receives the verified user ID.
type Authenticator interface {
	// Register creates a new account and returns it.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies credentials and returns the matching user.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential against the implementation's rules.
	ValidateCredential(credential string) error
}
