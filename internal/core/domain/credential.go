package domain

// Credential is a (username, secret) pair filed in a secret store under an
// opaque service key. The secret never appears in traces unless secret
// tracing has been explicitly enabled.
type Credential struct {
	// Service is the storage key, typically "<namespace>:<canonical-url>".
	Service string
	// Account is the username half of the pair.
	Account string
	// Secret is the password, token, or PAT.
	Secret string
}

// NewCredential creates a credential for the given service key.
func NewCredential(service, account, secret string) *Credential {
	return &Credential{Service: service, Account: account, Secret: secret}
}
