package domain

import "errors"

// Domain errors represent credential-helper failures that callers are
// expected to branch on. These are distinct from infrastructure errors.
var (
	// ErrMalformedInput indicates the request dictionary read from Git could
	// not be parsed. Fatal for this invocation.
	ErrMalformedInput = errors.New("malformed credential request")

	// ErrUnsupportedProtocol indicates the remote protocol cannot be served,
	// for example plain HTTP against Azure Repos.
	ErrUnsupportedProtocol = errors.New("unsupported protocol")

	// ErrNoProvider indicates no registered host provider matched the request.
	ErrNoProvider = errors.New("no credential provider matches")

	// ErrInteractionDisabled indicates a prompt is required but interactive
	// mode has been disabled via credential.interactive or GCM_INTERACTIVE.
	ErrInteractionDisabled = errors.New("cannot prompt because user interactivity has been disabled")

	// ErrAuthFailed indicates the upstream identity provider rejected the
	// credentials (bad password, dead refresh token, revoked PAT).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrCanceled indicates the user or a flow timeout canceled an
	// interactive operation. Mapped to exit code 130.
	ErrCanceled = errors.New("operation canceled")

	// ErrTransient indicates a network-level failure that survived the
	// internal retry budget. The Git operation itself may be retried.
	ErrTransient = errors.New("transient network failure")

	// ErrStoreCorrupt indicates a persistent store file could not be parsed.
	// Callers typically log and treat the store as empty.
	ErrStoreCorrupt = errors.New("store file is corrupt")

	// ErrStateMismatch indicates the OAuth redirect carried a state value
	// that does not match the one issued for this flow.
	ErrStateMismatch = errors.New("OAuth state mismatch")
)
