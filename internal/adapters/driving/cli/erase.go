package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitcred-cli/internal/adapters/driving/gitcredential"
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Discard the credential read from standard input",
	Long: `Discard a stored credential. Git invokes erase after a server
rejects a credential, so providers also drop the cached sign-in state that
produced it.`,
	Args: cobra.NoArgs,
	RunE: runErase,
}

func init() {
	rootCmd.AddCommand(eraseCmd)
}

func runErase(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := wire(ctx); err != nil {
		return err
	}

	req, err := gitcredential.ReadRequest(cmd.InOrStdin())
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	provider, err := providerRegistry.Select(ctx, req)
	if err != nil {
		return err
	}
	return provider.Erase(ctx, req)
}
