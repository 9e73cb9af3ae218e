package services

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvSettings holds the GCM_* environment variables. Each maps to a
// credential.<property> setting with higher precedence than Git
// configuration. Values are kept as raw strings; interpretation (booleans,
// mode lists) happens in the resolver so env and Git config behave the same.
type EnvSettings struct {
	Interactive        string `env:"GCM_INTERACTIVE"`
	Provider           string `env:"GCM_PROVIDER"`
	Authority          string `env:"GCM_AUTHORITY"` // deprecated, aliases a provider id
	AllowWindowsAuth   string `env:"GCM_ALLOW_WINDOWSAUTH"`
	HTTPProxy          string `env:"GCM_HTTP_PROXY"` // deprecated
	GitHubAuthModes    string `env:"GCM_GITHUB_AUTHMODES"`
	Namespace          string `env:"GCM_NAMESPACE"`
	CredentialStore    string `env:"GCM_CREDENTIAL_STORE"`
	PlaintextStorePath string `env:"GCM_PLAINTEXT_STORE_PATH"`
	MSAuthFlow         string `env:"GCM_MSAUTH_FLOW"`
	Trace              string `env:"GCM_TRACE"`
	TraceSecrets       string `env:"GCM_TRACE_SECRETS"`
}

// LoadEnv reads the GCM_* variables from the process environment.
func LoadEnv() (*EnvSettings, error) {
	var e EnvSettings
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &e, nil
}
