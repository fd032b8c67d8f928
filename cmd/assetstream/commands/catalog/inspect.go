package catalog

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/cmd/assetstream/cmdutil"
	"github.com/marmos91/assetstream/pkg/catalogfile"
)

var (
	inspectMustHave   string
	inspectMustNot    string
	inspectOrder      string
	inspectDescending bool
	inspectTarget     cmdutil.TargetFlags
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Preview the sorted order and resident window of a catalog",
	Long: `Filter and sort a catalog file locally and show which positions a buffer
target would load at high and at default priority.

Items carrying none of the --order tags are dropped from the order. Without
any target flag only the sorted order is shown.

Examples:
  # Sort blades before ranged weapons
  assetstream catalog inspect weapons.yaml --order blade,ranged

  # Only rare items, highest rarity first, window on the second page
  assetstream catalog inspect weapons.yaml --must-have rare --order rarity \
    --descending --page 1 --page-size 10 --buffer-pages 1

  # Window around a specific item
  assetstream catalog inspect weapons.yaml --order blade --id sword-01 --margin 3`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectMustHave, "must-have", "", "Comma-separated tags every item must carry")
	inspectCmd.Flags().StringVar(&inspectMustNot, "must-not", "", "Comma-separated tags no item may carry")
	inspectCmd.Flags().StringVar(&inspectOrder, "order", "", "Comma-separated tag priority list (required)")
	inspectCmd.Flags().BoolVar(&inspectDescending, "descending", false, "Sort each tag bucket by descending weight")
	inspectTarget.AddTo(inspectCmd)
	_ = inspectCmd.MarkFlagRequired("order")
}

func runInspect(cmd *cobra.Command, args []string) error {
	f, err := catalogfile.Load(args[0])
	if err != nil {
		return err
	}

	req := PlanRequest{
		MustHave:   cmdutil.SplitTags(inspectMustHave),
		MustNot:    cmdutil.SplitTags(inspectMustNot),
		Order:      cmdutil.SplitTags(inspectOrder),
		Descending: inspectDescending,
	}
	if len(req.Order) == 0 {
		return fmt.Errorf("--order needs at least one tag")
	}
	if hasTargetFlags(cmd) {
		t, err := inspectTarget.Target(cmd)
		if err != nil {
			return err
		}
		req.Target = &t
	}

	placements, err := Plan(f, req)
	if err != nil {
		return err
	}

	if len(placements) == 0 {
		cmdutil.PrintSuccess("No items match.")
		return nil
	}
	return cmdutil.PrintOutput(placements)
}

func hasTargetFlags(cmd *cobra.Command) bool {
	for _, name := range []string{"kind", "index", "id", "extent", "margin", "page", "page-size", "buffer-pages"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}
