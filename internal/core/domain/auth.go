package domain

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// OAuthToken represents the result of one OAuth 2.0 token grant.
type OAuthToken struct {
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
	// IDToken is the OpenID Connect identity token, when issued.
	IDToken string `json:"id_token,omitempty"`
	// Expiry is when the access token expires.
	Expiry time.Time `json:"expiry,omitempty"`
	// AccountIdentifier is the authenticated account name derived from the
	// identity token, for example a user principal name.
	AccountIdentifier string `json:"account_identifier,omitempty"`
}

// IsExpired returns true if the access token has expired.
func (t *OAuthToken) IsExpired() bool {
	if t.Expiry.IsZero() {
		return false
	}
	return time.Now().After(t.Expiry)
}

// UserPrincipal extracts the authenticated account name from the identity
// token. The token signature is not verified here; the value is only used as
// a display name and cache key, never as an authorization decision.
func (t *OAuthToken) UserPrincipal() string {
	if t.AccountIdentifier != "" {
		return t.AccountIdentifier
	}
	parts := strings.Split(t.IDToken, ".")
	if len(parts) != 3 {
		return ""
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return ""
	}
	var claims struct {
		PreferredUsername string `json:"preferred_username"`
		UPN               string `json:"upn"`
		Email             string `json:"email"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return ""
	}
	switch {
	case claims.PreferredUsername != "":
		return claims.PreferredUsername
	case claims.UPN != "":
		return claims.UPN
	default:
		return claims.Email
	}
}
