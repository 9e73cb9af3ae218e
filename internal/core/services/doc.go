// Package services implements the application services of the credential
// helper: the host-provider registry, the scoped settings resolver, and the
// credential-store facade. Services depend only on domain types and the
// driven ports; all I/O happens behind those ports.
package services
