package libraries

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/cmd/assetstream/cmdutil"
	"github.com/marmos91/assetstream/internal/cli/prompt"
	"github.com/marmos91/assetstream/pkg/apiclient"
)

var removeForce bool

var removeCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a library",
	Long: `Remove a library from the server. Everything it requested from the
loader is released.

You will be prompted for confirmation unless --force is specified.

Examples:
  assetstream libraries remove weapons
  assetstream libraries remove weapons --force`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Skip confirmation prompt")
}

func runRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Remove library '%s'?", name), removeForce)
	if err != nil {
		if prompt.IsAborted(err) {
			fmt.Println("\nAborted.")
			return nil
		}
		return err
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	if err := cmdutil.GetClient().RemoveLibrary(ctx, name); err != nil {
		if apiclient.IsNotFound(err) {
			return fmt.Errorf("library %q not found", name)
		}
		return fmt.Errorf("failed to remove library: %w", err)
	}

	cmdutil.PrintSuccess("Library '%s' removed", name)
	return nil
}
