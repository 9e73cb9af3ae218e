package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitcred-cli/internal/adapters/driven/gitconfig"
	"github.com/custodia-labs/gitcred-cli/internal/core/ports/driven"
)

// azureScope is the config scope that needs useHttpPath so credentials on
// the shared dev.azure.com host stay separated per organization.
const azureScope = "https://dev.azure.com"

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Register the helper in your Git configuration",
	Long: `Set credential.helper to this executable in the global (or, with
--system, the machine-wide) Git configuration. An empty helper entry is
written first so earlier helpers configured at broader scopes do not run
ahead of this one.`,
	Args: cobra.NoArgs,
	RunE: runConfigure,
}

var unconfigureCmd = &cobra.Command{
	Use:   "unconfigure",
	Short: "Remove the helper from your Git configuration",
	Args:  cobra.NoArgs,
	RunE:  runUnconfigure,
}

var configureSystem bool

func init() {
	configureCmd.Flags().BoolVar(
		&configureSystem, "system", false, "Modify the system Git configuration instead of the global one")
	unconfigureCmd.Flags().BoolVar(
		&configureSystem, "system", false, "Modify the system Git configuration instead of the global one")

	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(unconfigureCmd)
}

func configLevel() driven.ConfigLevel {
	if configureSystem {
		return driven.ConfigSystem
	}
	return driven.ConfigGlobal
}

func runConfigure(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if gitConfig == nil {
		gitConfig = gitconfig.New()
	}

	helper, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	level := configLevel()
	if err := gitConfig.UnsetAll(ctx, level, "credential", "", "helper"); err != nil {
		return err
	}
	if err := gitConfig.Add(ctx, level, "credential", "", "helper", ""); err != nil {
		return err
	}
	if err := gitConfig.Add(ctx, level, "credential", "", "helper", helper); err != nil {
		return err
	}
	if err := gitConfig.Add(ctx, level, "credential", azureScope, "useHttpPath", "true"); err != nil {
		return err
	}

	cmd.Printf("Configured %s as the Git credential helper\n", helper)
	return nil
}

func runUnconfigure(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if gitConfig == nil {
		gitConfig = gitconfig.New()
	}

	level := configLevel()
	if err := gitConfig.UnsetAll(ctx, level, "credential", "", "helper"); err != nil {
		return err
	}
	if err := gitConfig.UnsetAll(ctx, level, "credential", azureScope, "useHttpPath"); err != nil {
		return err
	}

	cmd.Println("Removed the Git credential helper configuration")
	return nil
}
