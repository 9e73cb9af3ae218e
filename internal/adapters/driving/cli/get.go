package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitcred-cli/internal/adapters/driving/gitcredential"
	"github.com/custodia-labs/gitcred-cli/internal/logger"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Return a credential for the request read from standard input",
	Args:  cobra.NoArgs,
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, _ []string) error {
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

	cred, err := provider.Get(ctx, req)
	if err != nil {
		return err
	}
	if cred == nil {
		// A provider may decline without error; Git then moves on to the
		// next configured helper.
		logger.Debug("provider %s declined %s", provider.ID(), req.HostName())
		return nil
	}
	return gitcredential.WriteCredential(cmd.OutOrStdout(), req, cred)
}
