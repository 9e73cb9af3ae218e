// Package keyring implements the secret store on the operating system
// keychain: Secret Service on freedesktop platforms, Keychain on macOS, and
// Credential Manager on Windows, all through the zalando/go-keyring facade.
package keyring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SecretStore = (*Store)(nil)

// keychainService is the keychain-level service name under which every
// gitcred entry is filed. The Git service key and account are encoded in
// the keychain username so one keychain service holds the whole namespace.
const keychainService = "gitcred"

// indexKey is the keychain entry that tracks every (service, account) pair,
// because the keychain API cannot enumerate entries.
const indexKey = "gitcred::index"

// Store files credentials in the OS keychain.
type Store struct{}

// New creates a keychain-backed secret store.
func New() *Store {
	return &Store{}
}

// Available probes whether the platform keychain is usable. Callers fall
// back to a file store (with an explicit opt-in) when it is not.
func Available() bool {
	probe := "gitcred::probe"
	if err := keyring.Set(keychainService, probe, "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(keychainService, probe)
	return true
}

func entryKey(service, account string) string {
	return service + "\x1f" + account
}

// Get retrieves the credential filed under (service, account).
func (s *Store) Get(ctx context.Context, service, account string) (*domain.Credential, error) {
	secret, err := keyring.Get(keychainService, entryKey(service, account))
	if err == keyring.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keychain get: %w", err)
	}
	return domain.NewCredential(service, account, secret), nil
}

// List returns every credential filed under the service key.
func (s *Store) List(ctx context.Context, service string) ([]domain.Credential, error) {
	index, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	var creds []domain.Credential
	for _, key := range index {
		svc, account, ok := strings.Cut(key, "\x1f")
		if !ok || svc != service {
			continue
		}
		cred, err := s.Get(ctx, svc, account)
		if err != nil {
			return nil, err
		}
		if cred != nil {
			creds = append(creds, *cred)
		}
	}
	return creds, nil
}

// AddOrUpdate upserts a credential.
func (s *Store) AddOrUpdate(ctx context.Context, cred *domain.Credential) error {
	key := entryKey(cred.Service, cred.Account)
	if err := keyring.Set(keychainService, key, cred.Secret); err != nil {
		return fmt.Errorf("keychain set: %w", err)
	}
	return s.updateIndex(func(index map[string]bool) {
		index[key] = true
	})
}

// Remove deletes the credential filed under (service, account).
func (s *Store) Remove(ctx context.Context, service, account string) error {
	key := entryKey(service, account)
	if err := keyring.Delete(keychainService, key); err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("keychain delete: %w", err)
	}
	return s.updateIndex(func(index map[string]bool) {
		delete(index, key)
	})
}

func (s *Store) readIndex() ([]string, error) {
	raw, err := keyring.Get(keychainService, indexKey)
	if err == keyring.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keychain index: %w", err)
	}
	var index []string
	if err := json.Unmarshal([]byte(raw), &index); err != nil {
		return nil, fmt.Errorf("keychain index: %w", domain.ErrStoreCorrupt)
	}
	return index, nil
}

func (s *Store) updateIndex(mutate func(map[string]bool)) error {
	existing, err := s.readIndex()
	if err != nil {
		return err
	}
	index := make(map[string]bool, len(existing))
	for _, key := range existing {
		index[key] = true
	}
	mutate(index)

	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	raw, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	if err := keyring.Set(keychainService, indexKey, string(raw)); err != nil {
		return fmt.Errorf("keychain index: %w", err)
	}
	return nil
}
