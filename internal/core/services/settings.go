package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gitcred-cli/internal/logger"
)

// Setting property names: the <property> half of credential.<property>.
const (
	PropProvider              = "provider"
	PropAuthority             = "authority" // deprecated alias of provider
	PropInteractive           = "interactive"
	PropAllowWindowsAuth      = "allowWindowsAuth"
	PropGitHubAuthModes       = "gitHubAuthModes"
	PropNamespace             = "namespace"
	PropCredentialStore       = "credentialStore"
	PropPlaintextStorePath    = "plaintextStorePath"
	PropMSAuthFlow            = "msauthFlow"
	PropUseHTTPPath           = "useHttpPath"
	PropAzReposCredentialType = "azreposCredentialType"
	PropHTTPProxy             = "httpProxy"
)

// Resolver resolves credential.* settings for a remote URL. Precedence:
// a registered environment variable, then Git configuration from the most
// specific URL scope to the least, then the caller's default.
//
// The resolver is initialized once at startup and read-only afterwards.
type Resolver struct {
	env *EnvSettings
	git driven.GitConfig
}

// NewResolver creates a settings resolver. git may be nil, in which case
// only environment variables are consulted.
func NewResolver(envSettings *EnvSettings, git driven.GitConfig) *Resolver {
	if envSettings == nil {
		envSettings = &EnvSettings{}
	}
	return &Resolver{env: envSettings, git: git}
}

// Get resolves a setting for the given remote. remote may be nil, in which
// case only unscoped Git config entries apply.
func (r *Resolver) Get(ctx context.Context, remote *url.URL, property string) (string, bool) {
	if v, ok := r.envValue(property); ok {
		return v, true
	}
	return r.gitValue(ctx, remote, property)
}

// GetBool resolves a boolean setting, recognizing Git-style spellings
// (1/true/yes/on and 0/false/no/off, case-insensitively).
func (r *Resolver) GetBool(ctx context.Context, remote *url.URL, property string, def bool) bool {
	v, ok := r.Get(ctx, remote, property)
	if !ok {
		return def
	}
	b, ok := ParseBool(v)
	if !ok {
		logger.Warn("setting credential.%s has unrecognized boolean value %q", property, v)
		return def
	}
	return b
}

// Interactive reports whether interactive prompts are permitted.
// Defaults to true; "false", "0", "no", "off", and "never" disable it.
func (r *Resolver) Interactive(ctx context.Context, remote *url.URL) bool {
	v, ok := r.Get(ctx, remote, PropInteractive)
	if !ok {
		return true
	}
	switch strings.ToLower(v) {
	case "never":
		return false
	}
	b, ok := ParseBool(v)
	return !ok || b
}

// Namespace returns the credential-store key prefix, defaulting to "git".
func (r *Resolver) Namespace(ctx context.Context, remote *url.URL) string {
	if v, ok := r.Get(ctx, remote, PropNamespace); ok && v != "" {
		return v
	}
	return "git"
}

// UseHTTPPath reports whether credentials are scoped to the request path.
func (r *Resolver) UseHTTPPath(ctx context.Context, remote *url.URL) bool {
	return r.GetBool(ctx, remote, PropUseHTTPPath, false)
}

// GitHubAuthModes returns the configured GitHub authentication modes, or
// AuthModeNone when unset so the provider auto-detects.
func (r *Resolver) GitHubAuthModes(ctx context.Context, remote *url.URL) domain.AuthMode {
	v, ok := r.Get(ctx, remote, PropGitHubAuthModes)
	if !ok {
		return domain.AuthModeNone
	}
	return domain.ParseAuthModes(v)
}

// envValue returns the environment override for a property, if registered.
func (r *Resolver) envValue(property string) (string, bool) {
	var v string
	switch {
	case strings.EqualFold(property, PropInteractive):
		v = r.env.Interactive
	case strings.EqualFold(property, PropProvider):
		v = r.env.Provider
	case strings.EqualFold(property, PropAuthority):
		v = r.env.Authority
	case strings.EqualFold(property, PropAllowWindowsAuth):
		v = r.env.AllowWindowsAuth
	case strings.EqualFold(property, PropHTTPProxy):
		v = r.env.HTTPProxy
	case strings.EqualFold(property, PropGitHubAuthModes):
		v = r.env.GitHubAuthModes
	case strings.EqualFold(property, PropNamespace):
		v = r.env.Namespace
	case strings.EqualFold(property, PropCredentialStore):
		v = r.env.CredentialStore
	case strings.EqualFold(property, PropPlaintextStorePath):
		v = r.env.PlaintextStorePath
	case strings.EqualFold(property, PropMSAuthFlow):
		v = r.env.MSAuthFlow
	}
	return v, v != ""
}

// gitValue scans the credential section of Git config for the best-scoped
// value. Later entries win ties, matching Git's last-one-wins rule.
func (r *Resolver) gitValue(ctx context.Context, remote *url.URL, property string) (string, bool) {
	if r.git == nil {
		return "", false
	}
	entries, err := r.git.Entries(ctx, "credential")
	if err != nil {
		logger.Warn("reading git configuration: %v", err)
		return "", false
	}

	best := -1
	var value string
	found := false
	for _, e := range entries {
		if !strings.EqualFold(e.Name, property) {
			continue
		}
		score := scopeScore(e.Scope, remote)
		if score < 0 {
			continue
		}
		// >= so the most recently set entry wins a tie.
		if score >= best {
			best = score
			value = e.Value
			found = true
		}
	}
	return value, found
}

// scopeScore ranks how specifically a config scope matches the remote.
// Returns -1 for no match; larger scores are more specific. An empty scope
// (bare credential.<property>) matches everything with the lowest score.
func scopeScore(scope string, remote *url.URL) int {
	if scope == "" {
		return 0
	}
	if remote == nil {
		return -1
	}

	var scheme, hostport, path string
	rest := scope
	if i := strings.Index(rest, "://"); i >= 0 {
		scheme = strings.ToLower(rest[:i])
		rest = rest[i+3:]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		hostport = rest[:i]
		path = rest[i:]
	} else {
		hostport = rest
	}
	hostport = strings.ToLower(hostport)

	if scheme != "" && scheme != remote.Scheme {
		return -1
	}

	scopeHost, scopePort := splitHostPort(hostport)
	remoteHost, remotePort := splitHostPort(strings.ToLower(remote.Host))
	if scopePort != "" && scopePort != remotePort {
		return -1
	}
	// Host labels match suffix-style: "visualstudio.com" matches
	// "microsoft.visualstudio.com" but not "notvisualstudio.com".
	if scopeHost != "" && scopeHost != remoteHost &&
		!strings.HasSuffix(remoteHost, "."+scopeHost) {
		return -1
	}

	if path != "" {
		remotePath := remote.EscapedPath()
		trimmed := strings.TrimSuffix(path, "/")
		if remotePath != trimmed && !strings.HasPrefix(remotePath, trimmed+"/") {
			return -1
		}
	}

	score := 1 + len(scopeHost)*100 + len(strings.TrimSuffix(path, "/"))*10
	if scheme != "" {
		score++
	}
	return score
}

func splitHostPort(hostport string) (host, port string) {
	if i := strings.LastIndexByte(hostport, ':'); i >= 0 && !strings.Contains(hostport[i+1:], "]") {
		return hostport[:i], hostport[i+1:]
	}
	return hostport, ""
}

// ParseBool parses Git-style boolean spellings. The second return reports
// whether the value was recognized at all.
func ParseBool(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}
