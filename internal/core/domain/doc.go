// Package domain defines the core entities for the gitcred credential helper.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Request: the credential fingerprint Git sends on stdin
//   - Credential: a (username, secret) pair under a service key
//   - OAuthToken: the result of one OAuth 2.0 token grant
//   - AuthMode: the bitfield of authentication mechanisms
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
