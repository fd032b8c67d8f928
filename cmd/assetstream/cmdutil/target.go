package cmdutil

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/pkg/apiclient"
)

// TargetFlags are the buffer target flags shared by the commands that
// place a window on a sorted order.
type TargetFlags struct {
	Kind        string
	Index       int
	UniqueID    string
	Extent      int
	Margin      int
	Page        int
	PageSize    int
	BufferPages int
}

// AddTo registers the target flags on cmd.
func (f *TargetFlags) AddTo(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.Kind, "kind", "", "Target kind (index|unique_id|page|around); inferred from the other flags when empty")
	fs.IntVar(&f.Index, "index", 0, "Sorted position to target (index, around)")
	fs.StringVar(&f.UniqueID, "id", "", "Unique ID of the item to target (unique_id)")
	fs.IntVar(&f.Extent, "extent", 0, "Positions kept at high priority on either side of --index (around)")
	fs.IntVar(&f.Margin, "margin", 0, "Positions kept at default priority on either side of the window")
	fs.IntVar(&f.Page, "page", 0, "Page to target (page)")
	fs.IntVar(&f.PageSize, "page-size", 0, "Items per page (page)")
	fs.IntVar(&f.BufferPages, "buffer-pages", 0, "Whole pages kept at default priority on either side (page)")
}

// Target builds the wire form of the flags. When --kind is empty the kind
// is inferred: --id selects unique_id, --page-size selects page, --extent
// selects around and anything else targets --index.
func (f *TargetFlags) Target(cmd *cobra.Command) (apiclient.BufferTarget, error) {
	kind := f.Kind
	if kind == "" {
		changed := cmd.Flags().Changed
		switch {
		case changed("id"):
			kind = "unique_id"
		case changed("page-size") || changed("page"):
			kind = "page"
		case changed("extent"):
			kind = "around"
		default:
			kind = "index"
		}
	}

	t := apiclient.BufferTarget{Kind: kind, Margin: f.Margin}
	switch kind {
	case "index":
		t.Index = f.Index
	case "unique_id":
		if f.UniqueID == "" {
			return t, fmt.Errorf("--id is required for unique_id targets")
		}
		t.UniqueID = f.UniqueID
	case "around":
		t.Index = f.Index
		t.Extent = f.Extent
	case "page":
		if f.PageSize <= 0 {
			return t, fmt.Errorf("--page-size must be positive for page targets")
		}
		t.Margin = 0
		t.Page = f.Page
		t.PageSize = f.PageSize
		t.BufferPages = f.BufferPages
	default:
		return t, fmt.Errorf("invalid target kind: %q (valid: index, unique_id, page, around)", kind)
	}
	return t, nil
}
