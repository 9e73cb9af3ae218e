package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitcred-cli/internal/adapters/driving/gitcredential"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Record that the credential read from standard input worked",
	Args:  cobra.NoArgs,
	RunE:  runStore,
}

func init() {
	rootCmd.AddCommand(storeCmd)
}

func runStore(cmd *cobra.Command, _ []string) error {
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
	return provider.Store(ctx, req)
}
