// Package azure implements the Azure Repos host provider: Entra ID bearer
// tokens (or exchanged personal access tokens) for dev.azure.com and
// visualstudio.com remotes, backed by a per-organization authority and user
// cache.
package azure

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driving"
	"github.com/custodia-labs/gitcred-cli/internal/core/services"
	"github.com/custodia-labs/gitcred-cli/internal/logger"
)

const (
	// ProviderID is the credential.provider slug.
	ProviderID = "azure-repos"

	// clientID is the Visual Studio IDE first-party application, which is
	// pre-consented for the Azure DevOps scope.
	clientID = "872cd9fa-d31f-45e0-9eab-6e460a02d1f1"
	// devOpsScope requests delegated access to Azure DevOps.
	devOpsScope = "499b84ac-1321-427f-aa17-267ca6975798/.default"

	// patBaseURL hosts the token administration API.
	patBaseURL = "https://vssps.dev.azure.com"
)

// Ensure Provider implements the interface.
var _ driving.HostProvider = (*Provider)(nil)

// OAuthClient runs the token grant flows the provider needs.
type OAuthClient interface {
	AuthorizationCode(ctx context.Context, cfg *oauth2.Config) (*domain.OAuthToken, error)
	DeviceCode(ctx context.Context, cfg *oauth2.Config) (*domain.OAuthToken, error)
	Refresh(ctx context.Context, cfg *oauth2.Config, refreshToken string) (*domain.OAuthToken, error)
}

// Provider serves Azure Repos remotes.
type Provider struct {
	settings *services.Resolver
	creds    *services.CredentialService
	cache    *Cache
	oauth    OAuthClient

	httpClient *http.Client
	patBase    string
}

// New creates the Azure Repos provider.
func New(settings *services.Resolver, creds *services.CredentialService, cache *Cache, oauth OAuthClient) *Provider {
	return &Provider{
		settings:   settings,
		creds:      creds,
		cache:      cache,
		oauth:      oauth,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		patBase:    patBaseURL,
	}
}

// ID implements driving.HostProvider.
func (p *Provider) ID() string { return ProviderID }

// Name implements driving.HostProvider.
func (p *Provider) Name() string { return "Azure Repos" }

// Authorities implements driving.HostProvider. These are the legacy
// GCM_AUTHORITY spellings that meant "use Microsoft authentication".
func (p *Provider) Authorities() []string {
	return []string{"msa", "aad", "microsoft", "azure-devops", "live", "liveconnect"}
}

// Matches accepts visualstudio.com and dev.azure.com remotes. Plain http is
// accepted here on purpose so Get can refuse it with a clear message rather
// than silently falling through to the generic provider.
func (p *Provider) Matches(req *domain.Request) bool {
	if req.Protocol != "http" && req.Protocol != "https" {
		return false
	}
	host := req.HostName()
	return strings.HasSuffix(host, ".visualstudio.com") ||
		host == "dev.azure.com" ||
		strings.HasSuffix(host, ".dev.azure.com")
}

// unencryptedError is shown to the user verbatim; it still matches the
// unsupported-protocol sentinel for classification.
type unencryptedError struct{}

func (unencryptedError) Error() string { return "Unencrypted HTTP is not supported for Azure Repos" }

func (unencryptedError) Is(target error) bool { return target == domain.ErrUnsupportedProtocol }

// Get implements driving.HostProvider.
func (p *Provider) Get(ctx context.Context, req *domain.Request) (*domain.Credential, error) {
	if req.Protocol == "http" {
		return nil, unencryptedError{}
	}

	org, err := organizationFromRequest(req)
	if err != nil {
		return nil, err
	}
	remote := req.Remote()
	service := p.serviceName(ctx, req, org)

	user, signedIn := p.cache.EffectiveUser(remote, org)
	if signedIn || !p.explicitlySignedOut(remote) {
		cred, err := p.creds.Get(ctx, service, user)
		if err != nil {
			return nil, err
		}
		if cred != nil {
			logger.Debug("serving stored credential for %s", service)
			return domain.NewCredential(service, cred.Account, cred.Secret), nil
		}
	}

	token, err := p.acquireToken(ctx, req, org, user)
	if err != nil {
		return nil, err
	}

	username := token.UserPrincipal()
	if username == "" {
		username = user
	}

	if token.RefreshToken != "" && username != "" {
		if err := p.creds.Save(ctx, refreshService(service), username, token.RefreshToken); err != nil {
			logger.Warn("storing refresh token: %v", err)
		}
	}

	if p.credentialType(ctx, req) == "pat" {
		pat, err := createPAT(ctx, p.httpClient, p.patBase, org, token.AccessToken)
		if err != nil {
			return nil, err
		}
		return domain.NewCredential(service, patUsername, pat), nil
	}

	return domain.NewCredential(service, username, token.AccessToken), nil
}

// Store implements driving.HostProvider.
func (p *Provider) Store(ctx context.Context, req *domain.Request) error {
	org, err := organizationFromRequest(req)
	if err != nil {
		return err
	}
	service := p.serviceName(ctx, req, org)

	if err := p.creds.Save(ctx, service, req.Username, req.Password); err != nil {
		return err
	}
	return p.cache.RecordSignIn(req.Remote(), org, req.Username)
}

// Erase implements driving.HostProvider.
func (p *Provider) Erase(ctx context.Context, req *domain.Request) error {
	org, err := organizationFromRequest(req)
	if err != nil {
		return err
	}
	service := p.serviceName(ctx, req, org)

	if err := p.creds.Remove(ctx, service, req.Username); err != nil {
		return err
	}
	return p.cache.RecordSignOut(req.Remote(), org)
}

// acquireToken obtains a bearer token, trying a stored refresh token before
// falling back to an interactive flow.
func (p *Provider) acquireToken(ctx context.Context, req *domain.Request, org, user string) (*domain.OAuthToken, error) {
	authority, ok := p.cache.Authority(org)
	if !ok {
		var err error
		authority, err = discoverAuthority(ctx, p.httpClient, organizationURL(req, org))
		if err != nil {
			return nil, err
		}
		if err := p.cache.UpdateAuthority(org, authority); err != nil {
			logger.Warn("caching authority: %v", err)
		}
	}

	cfg := &oauth2.Config{
		ClientID: clientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:       authority + "/oauth2/v2.0/authorize",
			TokenURL:      authority + "/oauth2/v2.0/token",
			DeviceAuthURL: authority + "/oauth2/v2.0/devicecode",
		},
		Scopes: []string{devOpsScope},
	}

	service := p.serviceName(ctx, req, org)
	if user != "" {
		if stored, err := p.creds.Get(ctx, refreshService(service), user); err == nil && stored != nil {
			token, err := p.oauth.Refresh(ctx, cfg, stored.Secret)
			if err == nil {
				return token, nil
			}
			logger.Debug("refresh token rejected, falling back to interactive: %v", err)
			_ = p.creds.Remove(ctx, refreshService(service), user)
		}
	}

	if !p.settings.Interactive(ctx, req.URL()) {
		return nil, fmt.Errorf("%w: an Azure Repos sign-in is required", domain.ErrInteractionDisabled)
	}

	flow, _ := p.settings.Get(ctx, req.URL(), services.PropMSAuthFlow)
	switch strings.ToLower(flow) {
	case "devicecode":
		return p.oauth.DeviceCode(ctx, cfg)
	case "embedded":
		logger.Warn("embedded web view is not supported; using the system browser")
		fallthrough
	default:
		return p.oauth.AuthorizationCode(ctx, cfg)
	}
}

func (p *Provider) credentialType(ctx context.Context, req *domain.Request) string {
	v, _ := p.settings.Get(ctx, req.URL(), services.PropAzReposCredentialType)
	return strings.ToLower(v)
}

// serviceName scopes the storage key to the organization: on dev.azure.com
// the organization is the first path segment, so the key keeps it even when
// useHttpPath is off.
func (p *Provider) serviceName(ctx context.Context, req *domain.Request, org string) string {
	host := req.HostName()
	if host == "dev.azure.com" {
		return p.creds.ServiceNameFor(req.Protocol, req.Host, org)
	}
	return p.creds.ServiceName(req, p.settings.UseHTTPPath(ctx, req.URL()))
}

func (p *Provider) explicitlySignedOut(remote string) bool {
	user, ok := p.cache.RemoteUser(remote)
	return ok && user == ""
}

// refreshService is the sibling storage key refresh tokens file under, kept
// apart from the bearer credential so an erase leaves the grant intact.
func refreshService(service string) string {
	return service + "/refresh_token"
}

// organizationFromRequest derives the organization from the host or, for
// dev.azure.com, the first path segment.
func organizationFromRequest(req *domain.Request) (string, error) {
	host := req.HostName()

	if org, ok := strings.CutSuffix(host, ".visualstudio.com"); ok {
		// <org>.visualstudio.com, possibly with a subdomain such as
		// <org>.vsrm.visualstudio.com; the organization is the first label.
		if i := strings.IndexByte(org, '.'); i >= 0 {
			org = org[:i]
		}
		if org != "" {
			return org, nil
		}
	}

	if org, ok := strings.CutSuffix(host, ".dev.azure.com"); ok && org != "" {
		return org, nil
	}

	if host == "dev.azure.com" {
		path := strings.TrimPrefix(req.Path, "/")
		if i := strings.IndexByte(path, '/'); i >= 0 {
			path = path[:i]
		}
		if path != "" {
			return path, nil
		}
	}

	return "", fmt.Errorf("cannot determine the Azure DevOps organization from %q", req.Host)
}

// organizationURL is the address probed for authority discovery.
func organizationURL(req *domain.Request, org string) string {
	if req.HostName() == "dev.azure.com" {
		return "https://dev.azure.com/" + org
	}
	return "https://" + req.HostName()
}
