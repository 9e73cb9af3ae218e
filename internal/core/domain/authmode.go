package domain

import "strings"

// AuthMode represents the authentication mechanisms a provider may use to
// obtain a credential. This is a bitfield: providers can support several
// modes at once and users can restrict the set via configuration.
type AuthMode uint8

const (
	// AuthModeNone indicates no mechanism is available.
	AuthModeNone AuthMode = 0
	// AuthModeBasic indicates username/password prompting.
	AuthModeBasic AuthMode = 1 << 0
	// AuthModeBrowser indicates the OAuth authorization-code flow through
	// the system browser.
	AuthModeBrowser AuthMode = 1 << 1
	// AuthModeDeviceCode indicates the OAuth device-code flow.
	AuthModeDeviceCode AuthMode = 1 << 2
	// AuthModePAT indicates prompting for a personal access token.
	AuthModePAT AuthMode = 1 << 3

	// AuthModeAll enables every mechanism.
	AuthModeAll = AuthModeBasic | AuthModeBrowser | AuthModeDeviceCode | AuthModePAT
)

// Has returns true if mode m includes every bit of want.
func (m AuthMode) Has(want AuthMode) bool {
	return m&want == want
}

// Count returns the number of distinct mechanisms enabled.
func (m AuthMode) Count() int {
	n := 0
	for _, bit := range []AuthMode{AuthModeBasic, AuthModeBrowser, AuthModeDeviceCode, AuthModePAT} {
		if m.Has(bit) {
			n++
		}
	}
	return n
}

// String returns the space-separated configuration spelling of the modes.
func (m AuthMode) String() string {
	if m == AuthModeNone {
		return "none"
	}
	var parts []string
	if m.Has(AuthModeBasic) {
		parts = append(parts, "basic")
	}
	if m.Has(AuthModeBrowser) {
		parts = append(parts, "oauth")
	}
	if m.Has(AuthModeDeviceCode) {
		parts = append(parts, "devicecode")
	}
	if m.Has(AuthModePAT) {
		parts = append(parts, "pat")
	}
	return strings.Join(parts, " ")
}

// ParseAuthModes parses a space-separated list of mode names, as accepted by
// credential.gitHubAuthModes and GCM_GITHUB_AUTHMODES. Unknown names are
// ignored; an empty or unrecognized value yields AuthModeNone so the caller
// can fall back to auto-detection.
func ParseAuthModes(s string) AuthMode {
	mode := AuthModeNone
	for _, field := range strings.Fields(strings.ToLower(s)) {
		switch field {
		case "basic":
			mode |= AuthModeBasic
		case "oauth", "browser":
			mode |= AuthModeBrowser
		case "devicecode", "device":
			mode |= AuthModeDeviceCode
		case "pat":
			mode |= AuthModePAT
		case "all":
			mode |= AuthModeAll
		}
	}
	return mode
}
