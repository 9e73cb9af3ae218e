package azure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitcred-cli/internal/adapters/driven/ini"
)

const widgetsRemote = "https://dev.azure.com/contoso/_git/widgets"

func newCache(t *testing.T) *Cache {
	t.Helper()
	return NewCache(ini.New(filepath.Join(t.TempDir(), "azrepos.ini")))
}

func TestCacheAuthority(t *testing.T) {
	c := newCache(t)

	_, ok := c.Authority("contoso")
	assert.False(t, ok)

	require.NoError(t, c.UpdateAuthority("contoso", "https://login.microsoftonline.com/T1"))

	authority, ok := c.Authority("contoso")
	require.True(t, ok)
	assert.Equal(t, "https://login.microsoftonline.com/T1", authority)

	require.NoError(t, c.EraseAuthority("contoso"))
	_, ok = c.Authority("contoso")
	assert.False(t, ok)
}

func TestCacheClearRemovesAuthoritiesOnly(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.UpdateAuthority("contoso", "https://login.microsoftonline.com/T1"))
	require.NoError(t, c.UpdateAuthority("fabrikam", "https://login.microsoftonline.com/T2"))
	require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))

	require.NoError(t, c.Clear())

	_, ok := c.Authority("contoso")
	assert.False(t, ok)
	_, ok = c.Authority("fabrikam")
	assert.False(t, ok)
	user, ok := c.OrgUser("contoso")
	require.True(t, ok, "clear must keep signed-in users")
	assert.Equal(t, "alice@contoso.com", user)
}

func TestEffectiveUser(t *testing.T) {
	t.Run("remote user wins over org user", func(t *testing.T) {
		c := newCache(t)
		require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))
		require.NoError(t, c.SignInRemote(widgetsRemote, "bob@contoso.com"))

		user, ok := c.EffectiveUser(widgetsRemote, "contoso")

		require.True(t, ok)
		assert.Equal(t, "bob@contoso.com", user)
	})

	t.Run("empty remote user suppresses the org user", func(t *testing.T) {
		c := newCache(t)
		require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))
		require.NoError(t, c.SignOutRemote(widgetsRemote, true))

		_, ok := c.EffectiveUser(widgetsRemote, "contoso")

		assert.False(t, ok, "explicit sign-out must yield no user")
	})

	t.Run("org user is the fallback", func(t *testing.T) {
		c := newCache(t)
		require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))

		user, ok := c.EffectiveUser(widgetsRemote, "contoso")

		require.True(t, ok)
		assert.Equal(t, "alice@contoso.com", user)
	})

	t.Run("no users at all", func(t *testing.T) {
		c := newCache(t)

		_, ok := c.EffectiveUser(widgetsRemote, "contoso")

		assert.False(t, ok)
	})
}

func TestSignOutRemote(t *testing.T) {
	t.Run("implicit removes the entry", func(t *testing.T) {
		c := newCache(t)
		require.NoError(t, c.SignInRemote(widgetsRemote, "bob@contoso.com"))

		require.NoError(t, c.SignOutRemote(widgetsRemote, false))

		_, ok := c.RemoteUser(widgetsRemote)
		assert.False(t, ok)
	})

	t.Run("explicit writes the empty marker", func(t *testing.T) {
		c := newCache(t)
		require.NoError(t, c.SignInRemote(widgetsRemote, "bob@contoso.com"))

		require.NoError(t, c.SignOutRemote(widgetsRemote, true))

		user, ok := c.RemoteUser(widgetsRemote)
		require.True(t, ok)
		assert.Equal(t, "", user)
	})
}

func TestRecordSignIn(t *testing.T) {
	t.Run("first user signs in at org scope", func(t *testing.T) {
		c := newCache(t)
		require.NoError(t, c.SignInRemote(widgetsRemote, "stale@contoso.com"))

		require.NoError(t, c.RecordSignIn(widgetsRemote, "contoso", "alice@contoso.com"))

		user, ok := c.OrgUser("contoso")
		require.True(t, ok)
		assert.Equal(t, "alice@contoso.com", user)
		_, ok = c.RemoteUser(widgetsRemote)
		assert.False(t, ok, "the remote-level entry must be cleared")
	})

	t.Run("different user pins the remote", func(t *testing.T) {
		c := newCache(t)
		require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))

		require.NoError(t, c.RecordSignIn(widgetsRemote, "contoso", "bob@contoso.com"))

		user, ok := c.RemoteUser(widgetsRemote)
		require.True(t, ok)
		assert.Equal(t, "bob@contoso.com", user)
		user, _ = c.OrgUser("contoso")
		assert.Equal(t, "alice@contoso.com", user, "the org user must be untouched")
	})

	t.Run("matching user restores inheritance", func(t *testing.T) {
		c := newCache(t)
		require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))
		require.NoError(t, c.SignInRemote(widgetsRemote, "alice@contoso.com"))

		require.NoError(t, c.RecordSignIn(widgetsRemote, "contoso", "alice@contoso.com"))

		_, ok := c.RemoteUser(widgetsRemote)
		assert.False(t, ok)
	})
}

func TestRecordSignOut(t *testing.T) {
	t.Run("with an org user the remote is marked signed out", func(t *testing.T) {
		c := newCache(t)
		require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))
		require.NoError(t, c.UpdateAuthority("contoso", "https://login.microsoftonline.com/T1"))

		require.NoError(t, c.RecordSignOut(widgetsRemote, "contoso"))

		user, ok := c.RemoteUser(widgetsRemote)
		require.True(t, ok)
		assert.Equal(t, "", user)
		_, ok = c.Authority("contoso")
		assert.False(t, ok, "a rejected credential must drop the cached authority")
	})

	t.Run("without an org user the remote entry is removed", func(t *testing.T) {
		c := newCache(t)
		require.NoError(t, c.SignInRemote(widgetsRemote, "bob@contoso.com"))

		require.NoError(t, c.RecordSignOut(widgetsRemote, "contoso"))

		_, ok := c.RemoteUser(widgetsRemote)
		assert.False(t, ok)
	})
}

func TestOrgAndRemoteUsers(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))
	require.NoError(t, c.SignInOrg("fabrikam", "bob@fabrikam.com"))
	require.NoError(t, c.SignInRemote(widgetsRemote, "carol@contoso.com"))
	// An unparseable remote key must be skipped, not fail the listing.
	require.NoError(t, c.SignInRemote("not a url", "broken"))

	assert.Equal(t, map[string]string{
		"contoso":  "alice@contoso.com",
		"fabrikam": "bob@fabrikam.com",
	}, c.OrgUsers())
	assert.Equal(t, map[string]string{
		widgetsRemote: "carol@contoso.com",
	}, c.RemoteUsers())
	assert.Equal(t, []string{"contoso", "fabrikam"}, c.Orgs())
}

func TestCacheToleratesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "azrepos.ini")
	require.NoError(t, os.WriteFile(path, []byte("org.contoso.user=alice\ngarbage line\n"), 0o600))
	c := NewCache(ini.New(path))

	_, ok := c.OrgUser("contoso")
	assert.False(t, ok, "a corrupt file reads as empty")

	// Writes recover the file.
	require.NoError(t, c.SignInOrg("contoso", "alice@contoso.com"))
	user, ok := c.OrgUser("contoso")
	require.True(t, ok)
	assert.Equal(t, "alice@contoso.com", user)
}
