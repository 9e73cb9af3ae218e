package driving

import (
	"context"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
)

// HostProvider knows how to obtain, persist, and erase credentials for one
// class of remote hosts. Providers are registered with the registry at
// startup; the first provider whose Matches predicate accepts the request
// serves it.
type HostProvider interface {
	// ID is the stable slug used by credential.provider to force selection.
	ID() string

	// Name is the human-readable display name.
	Name() string

	// Authorities lists the legacy authority ids (GCM_AUTHORITY values)
	// this provider answers for.
	Authorities() []string

	// Matches reports whether this provider can serve the request. The
	// predicate is deterministic and depends only on protocol, host, path,
	// and the wwwauth challenges.
	Matches(req *domain.Request) bool

	// Get returns a credential for the request, consulting the secret store
	// first and performing the provider's authentication dance on a miss.
	// Returning (nil, nil) declines the request: the helper exits zero with
	// no output so Git can fall through to the next helper.
	Get(ctx context.Context, req *domain.Request) (*domain.Credential, error)

	// Store persists a credential Git has just validated.
	Store(ctx context.Context, req *domain.Request) error

	// Erase removes a credential Git has just rejected.
	Erase(ctx context.Context, req *domain.Request) error
}
