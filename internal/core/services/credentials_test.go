package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitcred-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
)

func TestServiceNameFor(t *testing.T) {
	s := NewCredentialService(memory.NewStore(), "")

	tests := []struct {
		name     string
		protocol string
		host     string
		path     string
		want     string
	}{
		{"bare host", "https", "example.com", "", "git:https://example.com"},
		{"host lowercased", "https", "Example.COM", "", "git:https://example.com"},
		{"port kept", "https", "example.com:8443", "", "git:https://example.com:8443"},
		{"path appended", "https", "dev.azure.com", "contoso", "git:https://dev.azure.com/contoso"},
		{"leading slash normalized", "https", "example.com", "/a/b", "git:https://example.com/a/b"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.ServiceNameFor(tc.protocol, tc.host, tc.path))
		})
	}
}

func TestServiceNameHonorsNamespace(t *testing.T) {
	s := NewCredentialService(memory.NewStore(), "corp")
	req := &domain.Request{Protocol: "https", Host: "example.com", Path: "team/repo"}

	assert.Equal(t, "corp:https://example.com", s.ServiceName(req, false))
	assert.Equal(t, "corp:https://example.com/team/repo", s.ServiceName(req, true))
}

func TestGetWithEmptyAccountReturnsFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := NewCredentialService(store, "git")
	require.NoError(t, store.AddOrUpdate(ctx, domain.NewCredential("git:https://example.com", "bob", "pw-bob")))
	require.NoError(t, store.AddOrUpdate(ctx, domain.NewCredential("git:https://example.com", "alice", "pw-alice")))

	cred, err := s.Get(ctx, "git:https://example.com", "")

	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "alice", cred.Account, "listing is account-sorted")

	cred, err = s.Get(ctx, "git:https://example.com", "bob")
	require.NoError(t, err)
	assert.Equal(t, "pw-bob", cred.Secret)

	cred, err = s.Get(ctx, "git:https://other.example.com", "")
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestRemoveWithEmptyAccountRemovesAll(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := NewCredentialService(store, "git")
	require.NoError(t, store.AddOrUpdate(ctx, domain.NewCredential("git:https://example.com", "alice", "a")))
	require.NoError(t, store.AddOrUpdate(ctx, domain.NewCredential("git:https://example.com", "bob", "b")))
	require.NoError(t, store.AddOrUpdate(ctx, domain.NewCredential("git:https://other.example.com", "carol", "c")))

	require.NoError(t, s.Remove(ctx, "git:https://example.com", ""))

	assert.Equal(t, 1, store.Len(), "other services must survive")
	cred, err := store.Get(ctx, "git:https://other.example.com", "carol")
	require.NoError(t, err)
	assert.NotNil(t, cred)
}

func TestSaveReplacesExistingSecret(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := NewCredentialService(store, "git")

	require.NoError(t, s.Save(ctx, "git:https://example.com", "alice", "old"))
	require.NoError(t, s.Save(ctx, "git:https://example.com", "alice", "new"))

	cred, err := s.Get(ctx, "git:https://example.com", "alice")
	require.NoError(t, err)
	assert.Equal(t, "new", cred.Secret)
	assert.Equal(t, 1, store.Len())
}
