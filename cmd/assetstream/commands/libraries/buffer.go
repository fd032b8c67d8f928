package libraries

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/cmd/assetstream/cmdutil"
	"github.com/marmos91/assetstream/pkg/apiclient"
)

var bufferTarget cmdutil.TargetFlags

var bufferCmd = &cobra.Command{
	Use:   "buffer <name>",
	Short: "Move the resident window of a library",
	Long: `Set the buffer target of a library. Positions inside the window are
loaded at high priority, positions in the margin around it at default
priority, and everything else the library had loaded is released.

Examples:
  # One position with two neighbours on each side
  assetstream libraries buffer weapons --index 10 --margin 2

  # The item with a given unique ID
  assetstream libraries buffer weapons --id sword-01 --margin 4

  # Page 3 of 20 items, keeping one page either side warm
  assetstream libraries buffer weapons --page 3 --page-size 20 --buffer-pages 1

  # Positions 8..12 at high priority plus a margin of 5
  assetstream libraries buffer weapons --index 10 --extent 2 --margin 5`,
	Args: cobra.ExactArgs(1),
	RunE: runBuffer,
}

func init() {
	bufferTarget.AddTo(bufferCmd)
}

func runBuffer(cmd *cobra.Command, args []string) error {
	target, err := bufferTarget.Target(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	st, err := cmdutil.GetClient().SetBufferTarget(ctx, args[0], target)
	if err != nil {
		if apiclient.IsNotFound(err) {
			return fmt.Errorf("library %q or target item not found: %w", args[0], err)
		}
		return fmt.Errorf("failed to set buffer target: %w", err)
	}
	return printStatus(st)
}
