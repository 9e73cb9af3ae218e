// Package generic implements the fallback host provider used when no
// host-specific provider claims a request. It serves stored credentials,
// defers to the OS transport for Windows integrated authentication, and
// otherwise prompts for a username and password.
package generic

import (
	"context"
	"runtime"
	"strings"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driving"
	"github.com/custodia-labs/gitcred-cli/internal/core/services"
	"github.com/custodia-labs/gitcred-cli/internal/logger"
)

// ProviderID is the credential.provider slug.
const ProviderID = "generic"

// Ensure Provider implements the interface.
var _ driving.HostProvider = (*Provider)(nil)

// Provider is the terminal fallback in the registry.
type Provider struct {
	settings *services.Resolver
	creds    *services.CredentialService
	prompter driven.Prompter

	// windowsAuthAvailable reports whether the OS transport can speak
	// Negotiate or NTLM natively. Overridable in tests.
	windowsAuthAvailable func() bool
}

// New creates the generic provider.
func New(settings *services.Resolver, creds *services.CredentialService, prompter driven.Prompter) *Provider {
	return &Provider{
		settings: settings,
		creds:    creds,
		prompter: prompter,
		windowsAuthAvailable: func() bool {
			return runtime.GOOS == "windows"
		},
	}
}

// ID implements driving.HostProvider.
func (p *Provider) ID() string { return ProviderID }

// Name implements driving.HostProvider.
func (p *Provider) Name() string { return "Generic" }

// Authorities implements driving.HostProvider.
func (p *Provider) Authorities() []string { return nil }

// Matches accepts every HTTP remote. The registry consults this provider
// last, so the predicate is the terminal fallback.
func (p *Provider) Matches(req *domain.Request) bool {
	return req.Protocol == "http" || req.Protocol == "https"
}

// Get implements driving.HostProvider.
func (p *Provider) Get(ctx context.Context, req *domain.Request) (*domain.Credential, error) {
	service := p.serviceName(ctx, req)

	cred, err := p.creds.Get(ctx, service, req.Username)
	if err != nil {
		return nil, err
	}
	if cred != nil {
		logger.Debug("serving stored credential for %s", service)
		return cred, nil
	}

	if p.useWindowsAuth(ctx, req) {
		// An empty username and password tell Git to let the HTTP
		// transport negotiate with the OS identity.
		logger.Debug("deferring to Windows integrated authentication for %s", req.HostName())
		return domain.NewCredential(service, "", ""), nil
	}

	username, password, err := p.prompter.PromptCredentials(ctx, driven.CredentialPrompt{
		Resource: req.Remote(),
		Username: req.Username,
	})
	if err != nil {
		return nil, err
	}
	return domain.NewCredential(service, username, password), nil
}

// Store implements driving.HostProvider.
func (p *Provider) Store(ctx context.Context, req *domain.Request) error {
	if req.Password == "" {
		// The sentinel credential for integrated auth carries no secret
		// and must not displace anything in the store.
		return nil
	}
	return p.creds.Save(ctx, p.serviceName(ctx, req), req.Username, req.Password)
}

// Erase implements driving.HostProvider.
func (p *Provider) Erase(ctx context.Context, req *domain.Request) error {
	return p.creds.Remove(ctx, p.serviceName(ctx, req), req.Username)
}

// useWindowsAuth reports whether the request should be answered with the
// integrated-auth sentinel: the server offered Negotiate or NTLM, the
// platform supports it, and the user has not switched it off.
func (p *Provider) useWindowsAuth(ctx context.Context, req *domain.Request) bool {
	if !p.windowsAuthAvailable() {
		return false
	}
	if !p.settings.GetBool(ctx, req.URL(), services.PropAllowWindowsAuth, true) {
		return false
	}
	for _, challenge := range req.WWWAuth {
		scheme, _, _ := strings.Cut(strings.TrimSpace(challenge), " ")
		if strings.EqualFold(scheme, "negotiate") || strings.EqualFold(scheme, "ntlm") {
			return true
		}
	}
	return false
}

func (p *Provider) serviceName(ctx context.Context, req *domain.Request) string {
	return p.creds.ServiceName(req, p.settings.UseHTTPPath(ctx, req.URL()))
}
