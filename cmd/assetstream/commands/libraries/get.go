package libraries

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/cmd/assetstream/cmdutil"
	"github.com/marmos91/assetstream/internal/cli/output"
	"github.com/marmos91/assetstream/pkg/apiclient"
)

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show one library",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	st, err := cmdutil.GetClient().GetLibrary(ctx, args[0])
	if err != nil {
		if apiclient.IsNotFound(err) {
			return fmt.Errorf("library %q not found", args[0])
		}
		return fmt.Errorf("failed to get library: %w", err)
	}
	return printStatus(st)
}

// printStatus prints a single library, as a one-row table or as a document.
func printStatus(st *apiclient.LibraryStatus) error {
	p, err := cmdutil.GetPrinter()
	if err != nil {
		return err
	}
	if p.Format() == output.FormatTable {
		return p.Print(output.LibraryList{*st})
	}
	return p.Print(st)
}
