package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Request is the credential fingerprint Git presents when invoking the
// helper: the attributes read from the key=value dictionary on stdin.
// A Request is immutable once parsed.
type Request struct {
	// Protocol is "http" or "https".
	Protocol string
	// Host is the remote host, possibly including a ":port" suffix.
	Host string
	// Path is the repository path without a leading slash, if Git was
	// configured to send it (credential.useHttpPath).
	Path string
	// Username is the user Git already knows, from the URL or a previous
	// helper in the chain.
	Username string
	// Password carries the secret on store/erase; empty on get.
	Password string
	// WWWAuth holds the WWW-Authenticate challenges Git echoed from the
	// server, in header order.
	WWWAuth []string
	// Extra preserves unrecognized attributes so forward-compatible Git
	// extensions survive a round trip. Lookup is case-insensitive; the
	// original key spelling is kept.
	Extra map[string]string
}

// Validate checks the attributes Git is required to send.
func (r *Request) Validate() error {
	if r.Protocol == "" {
		return fmt.Errorf("%w: missing protocol", ErrMalformedInput)
	}
	if r.Protocol != "http" && r.Protocol != "https" {
		return fmt.Errorf("%w: protocol %q", ErrMalformedInput, r.Protocol)
	}
	if r.Host == "" {
		return fmt.Errorf("%w: missing host", ErrMalformedInput)
	}
	return nil
}

// HostName returns the host without any port suffix, lowercased.
func (r *Request) HostName() string {
	host := r.Host
	if i := strings.LastIndex(host, ":"); i >= 0 {
		if _, err := fmt.Sscanf(host[i+1:], "%d", new(int)); err == nil {
			host = host[:i]
		}
	}
	return strings.ToLower(host)
}

// URL reconstructs the remote URL described by the fingerprint. The userinfo
// and any secret are deliberately omitted.
func (r *Request) URL() *url.URL {
	u := &url.URL{
		Scheme: r.Protocol,
		Host:   strings.ToLower(r.Host),
	}
	if r.Path != "" {
		u.Path = "/" + strings.TrimPrefix(r.Path, "/")
	}
	return u
}

// Remote returns the canonical remote URL string used as a cache key.
func (r *Request) Remote() string {
	return strings.TrimSuffix(r.URL().String(), "/")
}
