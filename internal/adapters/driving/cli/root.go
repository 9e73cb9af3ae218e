// Package cli is the command-line surface of the helper. Git invokes the
// binary with one of the credential subcommands and speaks the key/value
// protocol over stdin/stdout; humans invoke configure, unconfigure, and
// version directly.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitcred-cli/internal/adapters/driven/gitconfig"
	"github.com/custodia-labs/gitcred-cli/internal/adapters/driven/ini"
	"github.com/custodia-labs/gitcred-cli/internal/adapters/driven/oauth"
	"github.com/custodia-labs/gitcred-cli/internal/adapters/driven/prompt"
	"github.com/custodia-labs/gitcred-cli/internal/adapters/driven/storage/keyring"
	"github.com/custodia-labs/gitcred-cli/internal/adapters/driven/storage/plaintext"
	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gitcred-cli/internal/core/services"
	"github.com/custodia-labs/gitcred-cli/internal/logger"
	"github.com/custodia-labs/gitcred-cli/internal/providers/azure"
	"github.com/custodia-labs/gitcred-cli/internal/providers/generic"
	"github.com/custodia-labs/gitcred-cli/internal/providers/github"
)

// appDirName names the per-user data directory holding persistent state.
const appDirName = "gitcred"

var rootCmd = &cobra.Command{
	Use:   "gitcred",
	Short: "A universal Git credential helper",
	Long: `gitcred is a Git credential helper for Azure Repos, GitHub, and
generic HTTP remotes. Git runs it via the credential.helper setting; the
get, store, and erase subcommands speak Git's credential protocol on
standard input and output.

Run 'gitcred configure' once to register the helper in your Git
configuration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Dependencies the subcommands use, wired once in Execute. Tests inject
// their own.
var (
	version = "dev"
	commit  = "none"

	envSettings      *services.EnvSettings
	providerRegistry *services.Registry
	gitConfig        driven.GitConfig
)

// Execute runs the selected command. The return value is the process exit
// code. The heavier dependencies (credential store, OAuth client, provider
// registry) are wired lazily by the commands that need them, so version and
// help work on machines with no usable keychain.
func Execute(appVersion, appCommit string) int {
	version, commit = appVersion, appCommit

	env, err := services.LoadEnv()
	if err != nil {
		return fatal(err)
	}
	envSettings = env
	if on, _ := services.ParseBool(env.Trace); on {
		logger.SetVerbose(true)
	}
	if on, _ := services.ParseBool(env.TraceSecrets); on {
		logger.SetTraceSecrets(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, domain.ErrCanceled) || errors.Is(ctx.Err(), context.Canceled) {
			return 130
		}
		return fatal(err)
	}
	return 0
}

// wire builds the dependency graph: settings resolver over environment and
// Git config, the credential store backend, the OAuth client, and the
// provider registry in match order with generic as the terminal fallback.
// Tests install their own registry instead.
func wire(ctx context.Context) error {
	if providerRegistry != nil {
		return nil
	}
	if gitConfig == nil {
		gitConfig = gitconfig.New()
	}
	settings := services.NewResolver(envSettings, gitConfig)

	store, err := selectStore(ctx, settings)
	if err != nil {
		return err
	}
	creds := services.NewCredentialService(store, settings.Namespace(ctx, nil))

	prompter := prompt.NewTerminal(settings.Interactive(ctx, nil))
	oauthClient := oauth.NewClient(prompter)
	cache := azure.NewCache(ini.New(filepath.Join(xdg.DataHome, appDirName, "azrepos.ini")))

	providerRegistry = services.NewRegistry(settings)
	providerRegistry.Register(azure.New(settings, creds, cache, oauthClient))
	providerRegistry.Register(github.New(settings, creds, oauthClient, prompter))
	providerRegistry.Register(generic.New(settings, creds, prompter))
	return nil
}

// selectStore picks the credential store backend. The platform keychain is
// the default; the plaintext file requires an explicit opt-in because it
// stores secrets unencrypted.
func selectStore(ctx context.Context, settings *services.Resolver) (driven.SecretStore, error) {
	backend, _ := settings.Get(ctx, nil, services.PropCredentialStore)
	switch backend {
	case "", "auto", "keyring":
		if keyring.Available() {
			return keyring.New(), nil
		}
		if backend != "" {
			return nil, errors.New("the platform keychain is not available")
		}
		return nil, errors.New("no usable credential store; set GCM_CREDENTIAL_STORE=plaintext to opt in to unencrypted file storage")
	case "plaintext":
		dir, _ := settings.Get(ctx, nil, services.PropPlaintextStorePath)
		if dir == "" {
			dir = filepath.Join(xdg.DataHome, appDirName, "store")
		}
		logger.Warn("credentials are stored unencrypted under %s", dir)
		return plaintext.New(dir), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q", backend)
	}
}

// fatal prints the single-line error Git users see and returns the exit code.
func fatal(err error) int {
	fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
	return 1
}
