// Package memory provides an in-memory secret store for testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SecretStore = (*Store)(nil)

type key struct {
	service string
	account string
}

// Store is an in-memory implementation of driven.SecretStore for testing.
type Store struct {
	mu      sync.RWMutex
	secrets map[key]string
}

// NewStore creates a new in-memory secret store.
func NewStore() *Store {
	return &Store{secrets: make(map[key]string)}
}

// Get retrieves the credential filed under (service, account).
func (s *Store) Get(ctx context.Context, service, account string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secret, ok := s.secrets[key{service, account}]
	if !ok {
		return nil, nil
	}
	return domain.NewCredential(service, account, secret), nil
}

// List returns every credential filed under the service key, sorted by
// account for deterministic tests.
func (s *Store) List(ctx context.Context, service string) ([]domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var creds []domain.Credential
	for k, secret := range s.secrets {
		if k.service == service {
			creds = append(creds, *domain.NewCredential(k.service, k.account, secret))
		}
	}
	sort.Slice(creds, func(i, j int) bool { return creds[i].Account < creds[j].Account })
	return creds, nil
}

// AddOrUpdate upserts a credential.
func (s *Store) AddOrUpdate(ctx context.Context, cred *domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[key{cred.Service, cred.Account}] = cred.Secret
	return nil
}

// Remove deletes the credential filed under (service, account).
func (s *Store) Remove(ctx context.Context, service, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, key{service, account})
	return nil
}

// Len reports the number of stored credentials.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.secrets)
}
