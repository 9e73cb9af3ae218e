// Package github implements the GitHub host provider, covering github.com,
// gist.github.com, and GitHub Enterprise Server instances. Credentials for
// gists are filed under the main host so both share one sign-in.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driving"
	"github.com/custodia-labs/gitcred-cli/internal/core/services"
	"github.com/custodia-labs/gitcred-cli/internal/logger"
)

const (
	// ProviderID is the credential.provider slug.
	ProviderID = "github"

	// dotcomHost is the hosted service.
	dotcomHost = "github.com"

	// oauthClientID identifies the helper's OAuth application on
	// github.com. Enterprise instances do not ship this application, so
	// OAuth modes are auto-detected off for them.
	oauthClientID = "0120e057bd645470c1ed"
)

// oauthScopes is what the helper asks for: repository and gist access plus
// workflow pushes, which GitHub rejects without the explicit scope.
var oauthScopes = []string{"repo", "gist", "workflow"}

// Ensure Provider implements the interface.
var _ driving.HostProvider = (*Provider)(nil)

// OAuthClient runs the token grant flows the provider needs.
type OAuthClient interface {
	AuthorizationCode(ctx context.Context, cfg *oauth2.Config) (*domain.OAuthToken, error)
	DeviceCode(ctx context.Context, cfg *oauth2.Config) (*domain.OAuthToken, error)
}

// Provider serves GitHub remotes.
type Provider struct {
	settings *services.Resolver
	creds    *services.CredentialService
	oauth    OAuthClient
	prompter driven.Prompter

	httpClient *http.Client
	// lookupLogin resolves the account name a token belongs to.
	lookupLogin func(ctx context.Context, host, token string) (string, error)
}

// New creates the GitHub provider.
func New(settings *services.Resolver, creds *services.CredentialService, oauth OAuthClient, prompter driven.Prompter) *Provider {
	p := &Provider{
		settings:   settings,
		creds:      creds,
		oauth:      oauth,
		prompter:   prompter,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	p.lookupLogin = p.apiLogin
	return p
}

// ID implements driving.HostProvider.
func (p *Provider) ID() string { return ProviderID }

// Name implements driving.HostProvider.
func (p *Provider) Name() string { return "GitHub" }

// Authorities implements driving.HostProvider.
func (p *Provider) Authorities() []string {
	return []string{"github"}
}

// Matches accepts github.com, gist.github.com, and self-hosted instances
// whose first label is github or gist.github.
func (p *Provider) Matches(req *domain.Request) bool {
	if req.Protocol != "http" && req.Protocol != "https" {
		return false
	}
	host := req.HostName()
	if host == dotcomHost || host == "gist."+dotcomHost {
		return true
	}
	return strings.HasPrefix(host, "github.") || strings.HasPrefix(host, "gist.github.")
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
		return domain.NewCredential(service, cred.Account, cred.Secret), nil
	}

	return p.acquire(ctx, req, service)
}

// Store implements driving.HostProvider.
func (p *Provider) Store(ctx context.Context, req *domain.Request) error {
	return p.creds.Save(ctx, p.serviceName(ctx, req), req.Username, req.Password)
}

// Erase implements driving.HostProvider.
func (p *Provider) Erase(ctx context.Context, req *domain.Request) error {
	return p.creds.Remove(ctx, p.serviceName(ctx, req), req.Username)
}

// acquire runs one of the supported authentication mechanisms, chosen by
// configuration or, given several, by asking the user.
func (p *Provider) acquire(ctx context.Context, req *domain.Request, service string) (*domain.Credential, error) {
	host := storageHost(req.HostName())
	modes := p.authModes(ctx, req, host)
	if modes == domain.AuthModeNone {
		return nil, fmt.Errorf("no authentication mechanism is enabled for %s", host)
	}

	mode, err := p.chooseMode(ctx, modes)
	if err != nil {
		return nil, err
	}

	switch mode {
	case domain.AuthModeBrowser:
		token, err := p.oauth.AuthorizationCode(ctx, oauthConfig(host))
		if err != nil {
			return nil, err
		}
		return p.tokenCredential(ctx, host, service, token.AccessToken)
	case domain.AuthModeDeviceCode:
		token, err := p.oauth.DeviceCode(ctx, oauthConfig(host))
		if err != nil {
			return nil, err
		}
		return p.tokenCredential(ctx, host, service, token.AccessToken)
	case domain.AuthModePAT:
		pat, err := p.prompter.PromptSecret(ctx, fmt.Sprintf("Personal access token for https://%s", host))
		if err != nil {
			return nil, err
		}
		return p.tokenCredential(ctx, host, service, pat)
	default:
		username, password, err := p.prompter.PromptCredentials(ctx, driven.CredentialPrompt{
			Resource: "https://" + host,
			Username: req.Username,
		})
		if err != nil {
			return nil, err
		}
		return domain.NewCredential(service, username, password), nil
	}
}

// chooseMode picks the mechanism to run. A single configured mode wins
// outright; otherwise the user picks from a menu.
func (p *Provider) chooseMode(ctx context.Context, modes domain.AuthMode) (domain.AuthMode, error) {
	order := []struct {
		mode  domain.AuthMode
		label string
	}{
		{domain.AuthModeBrowser, "Web browser"},
		{domain.AuthModeDeviceCode, "Device code"},
		{domain.AuthModePAT, "Personal access token"},
		{domain.AuthModeBasic, "Username and password"},
	}

	var available []struct {
		mode  domain.AuthMode
		label string
	}
	for _, o := range order {
		if modes.Has(o.mode) {
			available = append(available, o)
		}
	}
	if len(available) == 1 {
		return available[0].mode, nil
	}

	labels := make([]string, len(available))
	for i, o := range available {
		labels[i] = o.label
	}
	choice, err := p.prompter.Select(ctx, "Select an authentication method", labels)
	if err != nil {
		return domain.AuthModeNone, err
	}
	return available[choice].mode, nil
}

// authModes returns the configured mechanisms, auto-detecting when unset:
// github.com dropped password authentication, and enterprise instances do
// not carry the helper's OAuth application.
func (p *Provider) authModes(ctx context.Context, req *domain.Request, host string) domain.AuthMode {
	if modes := p.settings.GitHubAuthModes(ctx, req.URL()); modes != domain.AuthModeNone {
		return modes
	}
	if host == dotcomHost {
		return domain.AuthModeBrowser | domain.AuthModeDeviceCode | domain.AuthModePAT
	}
	return domain.AuthModeBasic | domain.AuthModePAT
}

// tokenCredential resolves the login the token belongs to and wraps both as
// the credential.
func (p *Provider) tokenCredential(ctx context.Context, host, service, token string) (*domain.Credential, error) {
	login, err := p.lookupLogin(ctx, host, token)
	if err != nil {
		logger.Warn("resolving token owner: %v", err)
		login = "oauth2"
	}
	return domain.NewCredential(service, login, token), nil
}

// apiLogin asks the GitHub API who the token belongs to.
func (p *Provider) apiLogin(ctx context.Context, host, token string) (string, error) {
	client := gogithub.NewClient(p.httpClient)
	if host != dotcomHost {
		base := "https://" + host
		var err error
		client, err = client.WithEnterpriseURLs(base, base)
		if err != nil {
			return "", fmt.Errorf("enterprise API base: %w", err)
		}
	}
	user, _, err := client.WithAuthToken(token).Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("get authenticated user: %w", err)
	}
	return user.GetLogin(), nil
}

// serviceName files the credential under the main host so gists share it.
func (p *Provider) serviceName(ctx context.Context, req *domain.Request) string {
	path := ""
	if p.settings.UseHTTPPath(ctx, req.URL()) {
		path = req.Path
	}
	return p.creds.ServiceNameFor(req.Protocol, storageHost(req.HostName()), path)
}

// storageHost normalizes gist.<host> to <host>.
func storageHost(host string) string {
	if rest, ok := strings.CutPrefix(host, "gist."); ok && rest != "" {
		return rest
	}
	return host
}

// oauthConfig builds the endpoints for a host. Enterprise instances use the
// same URL layout as github.com.
func oauthConfig(host string) *oauth2.Config {
	base := "https://" + host
	return &oauth2.Config{
		ClientID: oauthClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:       base + "/login/oauth/authorize",
			TokenURL:      base + "/login/oauth/access_token",
			DeviceAuthURL: base + "/login/device/code",
		},
		Scopes: oauthScopes,
	}
}
