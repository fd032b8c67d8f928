package libraries

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/cmd/assetstream/cmdutil"
	"github.com/marmos91/assetstream/internal/cli/output"
	"github.com/marmos91/assetstream/pkg/apiclient"
)

var (
	sortMustHave   string
	sortMustNot    string
	sortOrder      string
	sortDescending bool
	sortAsync      bool
)

var sortCmd = &cobra.Command{
	Use:   "sort <name>",
	Short: "Filter and sort a library",
	Long: `Filter a library by tags and sort the result by a tag priority list.

Items carrying none of the --order tags are dropped from the order. With
--async the sort runs on the server's worker pool and the command returns
immediately; use "libraries ids" to read the committed order.

Examples:
  assetstream libraries sort weapons --order blade,ranged
  assetstream libraries sort weapons --must-have rare --must-not cursed --order rarity --descending
  assetstream libraries sort weapons --order blade --async`,
	Args: cobra.ExactArgs(1),
	RunE: runSort,
}

func init() {
	sortCmd.Flags().StringVar(&sortMustHave, "must-have", "", "Comma-separated tags every item must carry")
	sortCmd.Flags().StringVar(&sortMustNot, "must-not", "", "Comma-separated tags no item may carry")
	sortCmd.Flags().StringVar(&sortOrder, "order", "", "Comma-separated tag priority list (required)")
	sortCmd.Flags().BoolVar(&sortDescending, "descending", false, "Sort each tag bucket by descending weight")
	sortCmd.Flags().BoolVar(&sortAsync, "async", false, "Run the sort in the background")
	_ = sortCmd.MarkFlagRequired("order")
}

func runSort(cmd *cobra.Command, args []string) error {
	req := apiclient.SortRequest{
		MustHave:   cmdutil.SplitTags(sortMustHave),
		MustNot:    cmdutil.SplitTags(sortMustNot),
		Order:      cmdutil.SplitTags(sortOrder),
		Descending: sortDescending,
		Async:      sortAsync,
	}
	if len(req.Order) == 0 {
		return fmt.Errorf("--order needs at least one tag")
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	resp, err := cmdutil.GetClient().Sort(ctx, args[0], req)
	if err != nil {
		return fmt.Errorf("failed to sort library: %w", err)
	}

	if resp.Async {
		cmdutil.PrintSuccess("Sort of '%s' scheduled (version %d)", resp.Library, resp.Version)
		p, err := cmdutil.GetPrinter()
		if err != nil {
			return err
		}
		if p.Format() != output.FormatTable {
			return p.Print(resp)
		}
		return nil
	}
	return printIDs(&apiclient.IDsResponse{Library: resp.Library, Version: resp.Version, IDs: resp.IDs})
}

var idsWait time.Duration

var idsCmd = &cobra.Command{
	Use:   "ids <name>",
	Short: "Show the committed sorted order of a library",
	Long: `Show the unique IDs of a library's committed sorted order. When a sort is
still running the server waits up to --wait for it to commit.

Examples:
  assetstream libraries ids weapons
  assetstream libraries ids weapons --wait 5s -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runIDs,
}

func init() {
	idsCmd.Flags().DurationVar(&idsWait, "wait", 0, "Maximum time to wait for an in-flight sort (default: server default)")
}

func runIDs(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	resp, err := cmdutil.GetClient().SortedIDs(ctx, args[0], idsWait)
	if err != nil {
		return fmt.Errorf("failed to get sorted ids: %w", err)
	}
	return printIDs(resp)
}

type idList []string

func (l idList) Headers() []string { return []string{"#", "Unique ID"} }

func (l idList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, id := range l {
		rows[i] = []string{fmt.Sprintf("%d", i), id}
	}
	return rows
}

func printIDs(resp *apiclient.IDsResponse) error {
	p, err := cmdutil.GetPrinter()
	if err != nil {
		return err
	}
	if p.Format() != output.FormatTable {
		return p.Print(resp)
	}
	if len(resp.IDs) == 0 {
		p.Printf("Library '%s' (version %d) has no sorted items.\n", resp.Library, resp.Version)
		return nil
	}
	return p.Print(idList(resp.IDs))
}
