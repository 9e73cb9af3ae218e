// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services and host providers depend on these interfaces, and
// infrastructure adapters implement them:
//
//   - SecretStore: keyed credential persistence (OS keychain, plaintext file)
//   - Prompter: interactive terminal prompts for credentials and menus
//   - GitConfig: read and mutate Git configuration at its three scopes
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or provider package
package driven
