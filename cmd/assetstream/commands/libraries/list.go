package libraries

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/cmd/assetstream/cmdutil"
	"github.com/marmos91/assetstream/internal/cli/output"
	"github.com/marmos91/assetstream/pkg/apiclient"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List libraries",
	Long: `List all libraries registered on the server.

Examples:
  assetstream libraries list
  assetstream libraries list -o json`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	libs, err := cmdutil.GetClient().ListLibraries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list libraries: %w", err)
	}

	if len(libs) == 0 {
		cmdutil.PrintSuccess("No libraries registered.")
		if cmdutil.Flags.Output != "" && cmdutil.Flags.Output != string(output.FormatTable) {
			return cmdutil.PrintOutput([]apiclient.LibraryStatus{})
		}
		return nil
	}
	return cmdutil.PrintOutput(output.LibraryList(libs))
}
