package azure

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/logger"
)

const (
	// authorityBase is the Microsoft identity platform endpoint.
	authorityBase = "https://login.microsoftonline.com"
	// commonAuthority serves both work and personal accounts.
	commonAuthority = authorityBase + "/common"
	// organizationsAuthority serves work and school accounts only.
	organizationsAuthority = authorityBase + "/organizations"
)

// discoverAuthority determines the Entra authority for an organization by
// probing its URL unauthenticated. A 401 challenge names the authority
// directly; failing that, the resource tenant header does: the first
// non-empty tenant GUID selects the tenant authority, a single empty GUID
// means a personal (MSA backed) organization, anything else falls back to
// the common endpoint.
func discoverAuthority(ctx context.Context, client *http.Client, orgURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, orgURL, nil)
	if err != nil {
		return "", fmt.Errorf("authority probe: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: authority probe %s: %v", domain.ErrTransient, orgURL, err)
	}
	defer resp.Body.Close()

	for _, challenge := range resp.Header.Values("WWW-Authenticate") {
		if uri, ok := bearerAuthorizationURI(challenge); ok {
			logger.Debug("authority from challenge: %s", uri)
			return uri, nil
		}
	}

	var tenants []uuid.UUID
	for _, header := range resp.Header.Values("X-VSS-ResourceTenant") {
		for _, field := range strings.Split(header, ",") {
			id, err := uuid.Parse(strings.TrimSpace(field))
			if err != nil {
				continue
			}
			tenants = append(tenants, id)
		}
	}
	for _, id := range tenants {
		if id != uuid.Nil {
			authority := authorityBase + "/" + id.String()
			logger.Debug("authority from resource tenant: %s", authority)
			return authority, nil
		}
	}
	if len(tenants) == 1 {
		return organizationsAuthority, nil
	}
	return commonAuthority, nil
}

// bearerAuthorizationURI extracts the authorization_uri parameter from a
// Bearer challenge. The first challenge carrying one wins.
func bearerAuthorizationURI(challenge string) (string, bool) {
	rest, ok := cutPrefixFold(challenge, "Bearer")
	if !ok {
		return "", false
	}
	for _, param := range strings.FieldsFunc(rest, func(r rune) bool { return r == ' ' || r == ',' }) {
		value, ok := cutPrefixFold(param, "authorization_uri=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"`)
		if value != "" {
			return value, true
		}
	}
	return "", false
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
