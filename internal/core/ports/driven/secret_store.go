package driven

import (
	"context"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
)

// SecretStore persists credentials under a (service, account) key. Concrete
// backends are the OS keychain and an opt-in plaintext file; an in-memory
// implementation backs tests.
//
// Backends are assumed to serialize their own operations; the helper process
// itself issues calls sequentially.
type SecretStore interface {
	// Get retrieves the credential filed under (service, account).
	// Returns (nil, nil) when no such credential exists.
	Get(ctx context.Context, service, account string) (*domain.Credential, error)

	// List returns every credential whose service key matches the given
	// service exactly, across all accounts.
	List(ctx context.Context, service string) ([]domain.Credential, error)

	// AddOrUpdate upserts a credential, replacing any existing secret for
	// the same (service, account) key.
	AddOrUpdate(ctx context.Context, cred *domain.Credential) error

	// Remove deletes the credential filed under (service, account).
	// Removing an absent credential is not an error.
	Remove(ctx context.Context, service, account string) error
}
