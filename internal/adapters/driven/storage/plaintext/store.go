// Package plaintext implements the secret store as an unencrypted TOML file.
// It exists for headless environments without a keychain and is refused
// unless the user opted in explicitly. Writes go through a sibling temp file
// with fsync and rename, guarded by a cross-process file lock.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SecretStore = (*Store)(nil)

// entry is one stored credential in the TOML document.
type entry struct {
	Service string `toml:"service"`
	Account string `toml:"account"`
	Secret  string `toml:"secret"`
}

type document struct {
	Credentials []entry `toml:"credential"`
}

// Store files credentials in a plaintext TOML file.
type Store struct {
	path string
	lock *flock.Flock
}

// New creates a plaintext store writing to <dir>/credentials.toml.
func New(dir string) *Store {
	path := filepath.Join(dir, "credentials.toml")
	return &Store{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get retrieves the credential filed under (service, account).
func (s *Store) Get(ctx context.Context, service, account string) (*domain.Credential, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, e := range doc.Credentials {
		if e.Service == service && e.Account == account {
			return domain.NewCredential(e.Service, e.Account, e.Secret), nil
		}
	}
	return nil, nil
}

// List returns every credential filed under the service key.
func (s *Store) List(ctx context.Context, service string) ([]domain.Credential, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	var creds []domain.Credential
	for _, e := range doc.Credentials {
		if e.Service == service {
			creds = append(creds, *domain.NewCredential(e.Service, e.Account, e.Secret))
		}
	}
	return creds, nil
}

// AddOrUpdate upserts a credential.
func (s *Store) AddOrUpdate(ctx context.Context, cred *domain.Credential) error {
	return s.mutate(func(doc *document) {
		for i := range doc.Credentials {
			if doc.Credentials[i].Service == cred.Service && doc.Credentials[i].Account == cred.Account {
				doc.Credentials[i].Secret = cred.Secret
				return
			}
		}
		doc.Credentials = append(doc.Credentials, entry{
			Service: cred.Service,
			Account: cred.Account,
			Secret:  cred.Secret,
		})
	})
}

// Remove deletes the credential filed under (service, account).
func (s *Store) Remove(ctx context.Context, service, account string) error {
	return s.mutate(func(doc *document) {
		kept := doc.Credentials[:0]
		for _, e := range doc.Credentials {
			if e.Service != service || e.Account != account {
				kept = append(kept, e)
			}
		}
		doc.Credentials = kept
	})
}

func (s *Store) load() (*document, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var doc document
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrStoreCorrupt, s.path, err)
	}
	return &doc, nil
}

func (s *Store) mutate(apply func(*document)) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(s.path), err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", s.path, err)
	}
	defer s.lock.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	apply(doc)
	sort.Slice(doc.Credentials, func(i, j int) bool {
		if doc.Credentials[i].Service != doc.Credentials[j].Service {
			return doc.Credentials[i].Service < doc.Credentials[j].Service
		}
		return doc.Credentials[i].Account < doc.Credentials[j].Account
	})
	return s.save(doc)
}

func (s *Store) save(doc *document) error {
	raw, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "credentials-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		if runtime.GOOS == "windows" {
			_ = os.Remove(s.path)
			return os.Rename(tmpPath, s.path)
		}
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", s.path, err)
	}
	return nil
}
