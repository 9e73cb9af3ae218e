package driven

import "context"

// CredentialPrompt describes a basic-auth prompt: which host the credential
// is for and an optional pre-filled username.
type CredentialPrompt struct {
	// Resource is the host or URL shown to the user.
	Resource string
	// Username pre-fills the username field when Git already knows it.
	Username string
}

// Prompter asks the user for input on the controlling terminal. All methods
// return domain.ErrCanceled when the user aborts, and
// domain.ErrInteractionDisabled when no terminal is attached.
//
// GUI prompt helpers (web views, credential dialogs) would implement this
// same interface; the core never depends on a concrete prompter.
type Prompter interface {
	// PromptCredentials asks for a username and password.
	PromptCredentials(ctx context.Context, p CredentialPrompt) (username, password string, err error)

	// PromptSecret asks for a single secret value, such as a personal
	// access token.
	PromptSecret(ctx context.Context, title string) (string, error)

	// Select asks the user to choose one of the given options and returns
	// its index.
	Select(ctx context.Context, title string, options []string) (int, error)

	// Display shows a message the user must act on, such as a device-code
	// verification URL. It does not wait for acknowledgement.
	Display(ctx context.Context, message string) error
}
