package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driving"
	"github.com/custodia-labs/gitcred-cli/internal/logger"
)

// Registry holds the ordered list of host providers and selects one for
// each request. Registration order is significant: the first provider whose
// match predicate accepts the request wins, and the generic provider is
// registered last as the terminal fallback.
type Registry struct {
	settings  *Resolver
	providers []driving.HostProvider
}

// NewRegistry creates an empty provider registry.
func NewRegistry(settings *Resolver) *Registry {
	return &Registry{settings: settings}
}

// Register appends a provider to the match order.
func (r *Registry) Register(p driving.HostProvider) {
	r.providers = append(r.providers, p)
}

// Providers returns the registered providers in match order.
func (r *Registry) Providers() []driving.HostProvider {
	return r.providers
}

// Select picks the provider for a request. A credential.provider setting
// (or GCM_PROVIDER) overrides matching entirely; an unknown forced id is a
// fatal configuration error. The deprecated credential.authority setting is
// honored as an alias when it names a known authority.
func (r *Registry) Select(ctx context.Context, req *domain.Request) (driving.HostProvider, error) {
	remote := req.URL()

	if id, ok := r.settings.Get(ctx, remote, PropProvider); ok && id != "" && !strings.EqualFold(id, "auto") {
		p := r.byID(id)
		if p == nil {
			return nil, fmt.Errorf("unknown credential provider %q", id)
		}
		logger.Debug("provider %s forced by configuration", p.ID())
		return p, nil
	}

	if authority, ok := r.settings.Get(ctx, remote, PropAuthority); ok && authority != "" && !strings.EqualFold(authority, "auto") {
		logger.Warn("credential.authority is deprecated; use credential.provider instead")
		if p := r.byAuthority(authority); p != nil {
			return p, nil
		}
		logger.Warn("no provider answers for authority %q; falling back to matching", authority)
	}

	for _, p := range r.providers {
		if p.Matches(req) {
			logger.Debug("provider %s matched %s", p.ID(), req.HostName())
			return p, nil
		}
	}
	return nil, domain.ErrNoProvider
}

func (r *Registry) byID(id string) driving.HostProvider {
	for _, p := range r.providers {
		if strings.EqualFold(p.ID(), id) {
			return p
		}
	}
	return nil
}

func (r *Registry) byAuthority(authority string) driving.HostProvider {
	for _, p := range r.providers {
		for _, a := range p.Authorities() {
			if strings.EqualFold(a, authority) {
				return p
			}
		}
	}
	return nil
}
