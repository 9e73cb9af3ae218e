package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
)

// stubProvider implements driving.HostProvider with a host-suffix predicate.
type stubProvider struct {
	id          string
	authorities []string
	suffix      string
}

func (p *stubProvider) ID() string            { return p.id }
func (p *stubProvider) Name() string          { return p.id }
func (p *stubProvider) Authorities() []string { return p.authorities }

func (p *stubProvider) Matches(req *domain.Request) bool {
	return p.suffix == "*" || strings.HasSuffix(req.HostName(), p.suffix)
}

func (p *stubProvider) Get(_ context.Context, _ *domain.Request) (*domain.Credential, error) {
	return nil, nil
}

func (p *stubProvider) Store(_ context.Context, _ *domain.Request) error { return nil }
func (p *stubProvider) Erase(_ context.Context, _ *domain.Request) error { return nil }

func newTestRegistry(env *EnvSettings) *Registry {
	r := NewRegistry(NewResolver(env, nil))
	r.Register(&stubProvider{id: "azure-repos", authorities: []string{"msa", "aad"}, suffix: "dev.azure.com"})
	r.Register(&stubProvider{id: "github", authorities: []string{"github"}, suffix: "github.com"})
	r.Register(&stubProvider{id: "generic", suffix: "*"})
	return r
}

func TestRegistrySelectsFirstMatch(t *testing.T) {
	r := newTestRegistry(nil)

	p, err := r.Select(context.Background(), &domain.Request{Protocol: "https", Host: "dev.azure.com"})
	require.NoError(t, err)
	assert.Equal(t, "azure-repos", p.ID())

	p, err = r.Select(context.Background(), &domain.Request{Protocol: "https", Host: "github.com"})
	require.NoError(t, err)
	assert.Equal(t, "github", p.ID())
}

func TestRegistryGenericIsTerminalFallback(t *testing.T) {
	r := newTestRegistry(nil)

	p, err := r.Select(context.Background(), &domain.Request{Protocol: "https", Host: "example.com"})

	require.NoError(t, err)
	assert.Equal(t, "generic", p.ID())
}

func TestRegistryNoMatchWithoutFallback(t *testing.T) {
	r := NewRegistry(NewResolver(nil, nil))
	r.Register(&stubProvider{id: "github", suffix: "github.com"})

	_, err := r.Select(context.Background(), &domain.Request{Protocol: "https", Host: "example.com"})

	assert.ErrorIs(t, err, domain.ErrNoProvider)
}

func TestRegistryForcedProvider(t *testing.T) {
	t.Run("known id skips matching", func(t *testing.T) {
		r := newTestRegistry(&EnvSettings{Provider: "github"})

		p, err := r.Select(context.Background(), &domain.Request{Protocol: "https", Host: "dev.azure.com"})

		require.NoError(t, err)
		assert.Equal(t, "github", p.ID())
	})

	t.Run("id is case-insensitive", func(t *testing.T) {
		r := newTestRegistry(&EnvSettings{Provider: "GitHub"})

		p, err := r.Select(context.Background(), &domain.Request{Protocol: "https", Host: "example.com"})

		require.NoError(t, err)
		assert.Equal(t, "github", p.ID())
	})

	t.Run("unknown id is fatal", func(t *testing.T) {
		r := newTestRegistry(&EnvSettings{Provider: "gitlab"})

		_, err := r.Select(context.Background(), &domain.Request{Protocol: "https", Host: "example.com"})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "gitlab")
	})

	t.Run("auto falls through to matching", func(t *testing.T) {
		r := newTestRegistry(&EnvSettings{Provider: "auto"})

		p, err := r.Select(context.Background(), &domain.Request{Protocol: "https", Host: "github.com"})

		require.NoError(t, err)
		assert.Equal(t, "github", p.ID())
	})
}

func TestRegistryDeprecatedAuthorityAlias(t *testing.T) {
	t.Run("known authority selects its provider", func(t *testing.T) {
		r := newTestRegistry(&EnvSettings{Authority: "aad"})

		p, err := r.Select(context.Background(), &domain.Request{Protocol: "https", Host: "example.com"})

		require.NoError(t, err)
		assert.Equal(t, "azure-repos", p.ID())
	})

	t.Run("unknown authority falls back to matching", func(t *testing.T) {
		r := newTestRegistry(&EnvSettings{Authority: "kerberos"})

		p, err := r.Select(context.Background(), &domain.Request{Protocol: "https", Host: "github.com"})

		require.NoError(t, err)
		assert.Equal(t, "github", p.ID())
	})
}
