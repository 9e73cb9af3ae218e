package azure

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/custodia-labs/gitcred-cli/internal/adapters/driven/ini"
	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/logger"
)

// Cache is the durable record of per-organization authorities and signed-in
// users for Azure Repos. Keys are dotted: org.<org>.authority, org.<org>.user
// and remote.<url>.user. An empty remote-level user marks an explicit
// sign-out that suppresses the organization-level user.
//
// Every operation reloads the backing file, applies its change, and commits,
// so concurrent helper invocations can lose an update but never corrupt the
// file.
type Cache struct {
	store *ini.Store
}

// NewCache wraps the transactional store backing the cache file.
func NewCache(store *ini.Store) *Cache {
	return &Cache{store: store}
}

func orgAuthorityKey(org string) string { return "org." + strings.ToLower(org) + ".authority" }
func orgUserKey(org string) string      { return "org." + strings.ToLower(org) + ".user" }
func remoteUserKey(uri string) string   { return "remote." + uri + ".user" }

// reload refreshes the working copy. A corrupt file is logged and treated
// as empty rather than failing the credential operation.
func (c *Cache) reload() error {
	if err := c.store.Reload(); err != nil {
		if errors.Is(err, domain.ErrStoreCorrupt) {
			logger.Warn("cache file %s is corrupt, treating as empty: %v", c.store.Path(), err)
			return nil
		}
		return err
	}
	return nil
}

func (c *Cache) mutate(apply func(*ini.Store)) error {
	if err := c.reload(); err != nil {
		return err
	}
	apply(c.store)
	if err := c.store.Commit(); err != nil {
		return fmt.Errorf("commit cache: %w", err)
	}
	return nil
}

// Authority returns the cached authority endpoint for an organization.
// I/O errors are logged and reported as a miss so a fresh discovery runs.
func (c *Cache) Authority(org string) (string, bool) {
	if err := c.reload(); err != nil {
		logger.Warn("reading cache: %v", err)
		return "", false
	}
	return c.store.Get(orgAuthorityKey(org))
}

// UpdateAuthority records the discovered authority for an organization.
func (c *Cache) UpdateAuthority(org, authority string) error {
	return c.mutate(func(s *ini.Store) {
		s.Set(orgAuthorityKey(org), authority)
	})
}

// EraseAuthority removes the cached authority for an organization.
func (c *Cache) EraseAuthority(org string) error {
	return c.mutate(func(s *ini.Store) {
		s.Remove(orgAuthorityKey(org))
	})
}

// Clear removes every cached authority. Signed-in users are kept.
func (c *Cache) Clear() error {
	return c.mutate(func(s *ini.Store) {
		for _, org := range s.SectionScopes("org") {
			s.Remove("org." + org + ".authority")
		}
	})
}

// OrgUser returns the organization-level signed-in user.
func (c *Cache) OrgUser(org string) (string, bool) {
	if err := c.reload(); err != nil {
		logger.Warn("reading cache: %v", err)
		return "", false
	}
	return c.store.Get(orgUserKey(org))
}

// RemoteUser returns the remote-level signed-in user. The value may be the
// empty string, which records an explicit sign-out.
func (c *Cache) RemoteUser(uri string) (string, bool) {
	if err := c.reload(); err != nil {
		logger.Warn("reading cache: %v", err)
		return "", false
	}
	return c.store.Get(remoteUserKey(uri))
}

// SignInOrg records the signed-in user at organization scope.
func (c *Cache) SignInOrg(org, user string) error {
	return c.mutate(func(s *ini.Store) {
		s.Set(orgUserKey(org), user)
	})
}

// SignInRemote records the signed-in user for one remote.
func (c *Cache) SignInRemote(uri, user string) error {
	return c.mutate(func(s *ini.Store) {
		s.Set(remoteUserKey(uri), user)
	})
}

// SignOutOrg removes the organization-level user.
func (c *Cache) SignOutOrg(org string) error {
	return c.mutate(func(s *ini.Store) {
		s.Remove(orgUserKey(org))
	})
}

// SignOutRemote clears the remote-level user. With explicit set, an empty
// value is written instead so the organization-level user stays suppressed;
// nothing else ever writes an empty user.
func (c *Cache) SignOutRemote(uri string, explicit bool) error {
	return c.mutate(func(s *ini.Store) {
		if explicit {
			s.Set(remoteUserKey(uri), "")
		} else {
			s.Remove(remoteUserKey(uri))
		}
	})
}

// OrgUsers returns every organization-level user keyed by organization.
func (c *Cache) OrgUsers() map[string]string {
	if err := c.reload(); err != nil {
		logger.Warn("reading cache: %v", err)
		return nil
	}
	users := make(map[string]string)
	for _, org := range c.store.SectionScopes("org") {
		if user, ok := c.store.Get("org." + org + ".user"); ok {
			users[org] = user
		}
	}
	return users
}

// RemoteUsers returns every remote-level user keyed by remote URL. Keys
// that do not parse as absolute URLs are skipped.
func (c *Cache) RemoteUsers() map[string]string {
	if err := c.reload(); err != nil {
		logger.Warn("reading cache: %v", err)
		return nil
	}
	users := make(map[string]string)
	for _, key := range c.store.Keys() {
		uri, ok := strings.CutPrefix(key, "remote.")
		if !ok {
			continue
		}
		uri, ok = strings.CutSuffix(uri, ".user")
		if !ok {
			continue
		}
		if u, err := url.Parse(uri); err != nil || !u.IsAbs() || u.Host == "" {
			logger.Debug("skipping unparseable remote key %q", uri)
			continue
		}
		value, _ := c.store.Get(key)
		users[uri] = value
	}
	return users
}

// EffectiveUser resolves the user serving a get for the given remote. A
// non-empty remote-level user wins; an empty remote-level user suppresses
// the organization-level one; otherwise the organization-level user applies.
func (c *Cache) EffectiveUser(remote, org string) (string, bool) {
	if user, ok := c.RemoteUser(remote); ok {
		if user == "" {
			return "", false
		}
		return user, true
	}
	return c.OrgUser(org)
}

// RecordSignIn updates the cache after Git confirmed a credential worked.
// The first user becomes the organization-level user; a different user is
// pinned to the remote; a matching user removes the remote-level pin so the
// remote inherits again.
func (c *Cache) RecordSignIn(remote, org, user string) error {
	return c.mutate(func(s *ini.Store) {
		current, ok := s.Get(orgUserKey(org))
		switch {
		case !ok:
			s.Set(orgUserKey(org), user)
			s.Remove(remoteUserKey(remote))
		case current != user:
			s.Set(remoteUserKey(remote), user)
		default:
			s.Remove(remoteUserKey(remote))
		}
	})
}

// RecordSignOut updates the cache after Git rejected a credential. When an
// organization-level user exists the remote is marked explicitly signed out
// so the next attempt re-prompts instead of inheriting. The authority is
// dropped too since a failure may indicate it went stale.
func (c *Cache) RecordSignOut(remote, org string) error {
	return c.mutate(func(s *ini.Store) {
		if _, ok := s.Get(orgUserKey(org)); ok {
			s.Set(remoteUserKey(remote), "")
		} else {
			s.Remove(remoteUserKey(remote))
		}
		s.Remove(orgAuthorityKey(org))
	})
}

// Orgs lists every organization present in the cache, sorted.
func (c *Cache) Orgs() []string {
	if err := c.reload(); err != nil {
		logger.Warn("reading cache: %v", err)
		return nil
	}
	orgs := c.store.SectionScopes("org")
	sort.Strings(orgs)
	return orgs
}
