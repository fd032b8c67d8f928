package catalog

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/pkg/catalogfile"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate catalog files",
	Long: `Validate one or more catalog files.

Files ending in .json are read as JSON, everything else as YAML. Every item
needs at least one resource with a non-empty id.

Examples:
  assetstream catalog validate weapons.yaml armor.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0

	for _, path := range args {
		f, err := catalogfile.Load(path)
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(out, "%s: %v\n", path, err)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s: OK (%d items, tags: %s)\n", path, len(f.Items), tagSummary(f))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d catalog files are invalid", failed, len(args))
	}
	return nil
}

// tagSummary lists the tags used by f with the number of items carrying
// each one.
func tagSummary(f *catalogfile.File) string {
	counts := map[string]int{}
	for _, it := range f.Items {
		for tag := range it.Descriptors {
			counts[tag]++
		}
	}
	if len(counts) == 0 {
		return "none"
	}

	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	s := ""
	for i, tag := range tags {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s(%d)", tag, counts[tag])
	}
	return s
}
