// Package prompt implements the prompter port on the controlling terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driven"
)

// Ensure Terminal implements the interface.
var _ driven.Prompter = (*Terminal)(nil)

// Terminal prompts on stderr so prompts never mix with the credential
// dictionary Git reads from stdout. When no terminal is attached, or when
// interactivity is disabled, every prompt fails with the interaction
// sentinel instead of hanging.
type Terminal struct {
	// interactive is false when prompting has been disabled through
	// configuration rather than by the absence of a terminal.
	interactive bool
	// isTerminal is swapped in tests.
	isTerminal func() bool
}

// NewTerminal creates a terminal prompter. Pass interactive false to refuse
// every prompt regardless of the attached terminal.
func NewTerminal(interactive bool) *Terminal {
	return &Terminal{
		interactive: interactive,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
		},
	}
}

func (t *Terminal) check() error {
	if !t.interactive || !t.isTerminal() {
		return domain.ErrInteractionDisabled
	}
	return nil
}

// PromptCredentials asks for a username and password for the given resource.
// A pre-filled username is kept and only the password is requested.
func (t *Terminal) PromptCredentials(ctx context.Context, p driven.CredentialPrompt) (string, string, error) {
	if err := t.check(); err != nil {
		return "", "", err
	}

	username := p.Username
	password := ""

	var fields []huh.Field
	if username == "" {
		fields = append(fields, huh.NewInput().
			Title(fmt.Sprintf("Username for %s", p.Resource)).
			Value(&username).
			Validate(requireValue("username")))
	}
	fields = append(fields, huh.NewInput().
		Title(fmt.Sprintf("Password for %s", p.Resource)).
		EchoMode(huh.EchoModePassword).
		Value(&password).
		Validate(requireValue("password")))

	form := huh.NewForm(huh.NewGroup(fields...)).WithOutput(os.Stderr)
	if err := form.RunWithContext(ctx); err != nil {
		return "", "", mapAbort(ctx, err)
	}
	return username, password, nil
}

// PromptSecret asks for a single secret value, such as a personal access
// token.
func (t *Terminal) PromptSecret(ctx context.Context, title string) (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}

	var secret string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			EchoMode(huh.EchoModePassword).
			Value(&secret).
			Validate(requireValue("value")),
	)).WithOutput(os.Stderr)
	if err := form.RunWithContext(ctx); err != nil {
		return "", mapAbort(ctx, err)
	}
	return secret, nil
}

// Select asks the user to choose one of the given options.
func (t *Terminal) Select(ctx context.Context, title string, options []string) (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}

	huhOptions := make([]huh.Option[int], len(options))
	for i, opt := range options {
		huhOptions[i] = huh.NewOption(opt, i)
	}

	var choice int
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().
			Title(title).
			Options(huhOptions...).
			Value(&choice),
	)).WithOutput(os.Stderr)
	if err := form.RunWithContext(ctx); err != nil {
		return 0, mapAbort(ctx, err)
	}
	return choice, nil
}

// Display writes a message to stderr. It is used for device-code
// instructions and works without a terminal attached to stdin.
func (t *Terminal) Display(ctx context.Context, message string) error {
	if !t.interactive {
		return domain.ErrInteractionDisabled
	}
	_, err := fmt.Fprintln(os.Stderr, message)
	return err
}

func requireValue(name string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func mapAbort(ctx context.Context, err error) error {
	if errors.Is(err, huh.ErrUserAborted) || ctx.Err() != nil {
		return domain.ErrCanceled
	}
	return fmt.Errorf("prompt: %w", err)
}
