package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gitcred-cli/internal/logger"
)

// CredentialService bridges host providers to the secret-store backend. It
// owns the service-key convention: "<namespace>:<canonical-url>" where the
// canonical URL has a lowercased host, no query or fragment, and a path only
// when the caller asked for path-scoped credentials.
type CredentialService struct {
	store     driven.SecretStore
	namespace string
}

// NewCredentialService creates the facade over a secret-store backend.
// An empty namespace defaults to "git".
func NewCredentialService(store driven.SecretStore, namespace string) *CredentialService {
	if namespace == "" {
		namespace = "git"
	}
	return &CredentialService{store: store, namespace: namespace}
}

// ServiceName builds the storage key for a request fingerprint.
func (s *CredentialService) ServiceName(req *domain.Request, withPath bool) string {
	path := ""
	if withPath {
		path = req.Path
	}
	return s.ServiceNameFor(req.Protocol, req.Host, path)
}

// ServiceNameFor builds a storage key from explicit URL components. Host
// providers use this when their storage host differs from the request host
// (for example gist.github.com filing under github.com).
func (s *CredentialService) ServiceNameFor(protocol, host, path string) string {
	u := url.URL{Scheme: protocol, Host: strings.ToLower(host)}
	if path != "" {
		u.Path = "/" + strings.TrimPrefix(path, "/")
	}
	return fmt.Sprintf("%s:%s", s.namespace, strings.TrimSuffix(u.String(), "/"))
}

// Get returns the stored credential for a service key. With an empty
// account, the first credential filed under the service is returned.
// A miss is (nil, nil).
func (s *CredentialService) Get(ctx context.Context, service, account string) (*domain.Credential, error) {
	if account != "" {
		return s.store.Get(ctx, service, account)
	}
	creds, err := s.store.List(ctx, service)
	if err != nil {
		return nil, err
	}
	if len(creds) == 0 {
		return nil, nil
	}
	return &creds[0], nil
}

// Save upserts a credential, replacing any existing secret for the same
// (service, account) key.
func (s *CredentialService) Save(ctx context.Context, service, account, secret string) error {
	logger.Debug("storing credential for %s (account=%s)", service, account)
	return s.store.AddOrUpdate(ctx, domain.NewCredential(service, account, secret))
}

// Remove deletes the credential for (service, account). With an empty
// account every credential filed under the service is removed.
func (s *CredentialService) Remove(ctx context.Context, service, account string) error {
	if account != "" {
		return s.store.Remove(ctx, service, account)
	}
	creds, err := s.store.List(ctx, service)
	if err != nil {
		return err
	}
	for _, c := range creds {
		if err := s.store.Remove(ctx, service, c.Account); err != nil {
			return err
		}
	}
	return nil
}
