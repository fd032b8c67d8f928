package catalog

import (
	"fmt"

	"github.com/marmos91/assetstream/internal/cli/output"
	"github.com/marmos91/assetstream/pkg/apiclient"
	"github.com/marmos91/assetstream/pkg/catalog"
	"github.com/marmos91/assetstream/pkg/catalogfile"
	"github.com/marmos91/assetstream/pkg/filter"
	"github.com/marmos91/assetstream/pkg/sorter"
	"github.com/marmos91/assetstream/pkg/window"
)

// Load tiers as shown in placements.
const (
	TierHigh    = "high"
	TierDefault = "default"
)

// PlanRequest is a filter, a sort and an optional buffer target.
type PlanRequest struct {
	MustHave   []string
	MustNot    []string
	Order      []string
	Descending bool
	Target     *apiclient.BufferTarget
}

// Plan runs req against the items of f the same way a library would and
// returns the sorted order with the tier every position would load at.
func Plan(f *catalogfile.File, req PlanRequest) (output.Placements, error) {
	cat, err := catalog.New(f.CatalogItems())
	if err != nil {
		return nil, err
	}

	crit := filter.NewCriteria(toTags(req.MustHave), toTags(req.MustNot))
	sorted := sorter.Sort(cat, filter.Apply(cat, crit), toTags(req.Order), req.Descending)

	var sets window.Sets
	if req.Target != nil {
		t, err := resolveTarget(cat, sorted, *req.Target)
		if err != nil {
			return nil, err
		}
		sets = window.Compute(len(sorted), t)
	}

	placements := make(output.Placements, len(sorted))
	for i, h := range sorted {
		it := cat.Item(h)
		desc := make(map[string]float64, len(it.Descriptors))
		for tag, v := range it.Descriptors {
			desc[string(tag)] = v
		}

		tier := ""
		if resident, core := sets.Contains(i); resident {
			tier = TierDefault
			if core {
				tier = TierHigh
			}
		}
		placements[i] = output.Placement{
			Position:    i,
			UniqueID:    it.UniqueID,
			Tier:        tier,
			Descriptors: desc,
		}
	}
	return placements, nil
}

func resolveTarget(cat *catalog.Catalog, sorted []catalog.Handle, bt apiclient.BufferTarget) (window.Target, error) {
	switch bt.Kind {
	case "index":
		return window.ByIndex(bt.Index, bt.Margin), nil
	case "unique_id":
		for i, h := range sorted {
			if cat.UniqueID(h) == bt.UniqueID {
				return window.ByIndex(i, bt.Margin), nil
			}
		}
		return window.Target{}, fmt.Errorf("item %q is not in the sorted order", bt.UniqueID)
	case "page":
		return window.ByPage(bt.Page, bt.PageSize, bt.BufferPages), nil
	case "around":
		return window.AroundIndex(len(sorted), bt.Index, bt.Extent, bt.Margin), nil
	default:
		return window.Target{}, fmt.Errorf("unknown target kind: %q", bt.Kind)
	}
}

func toTags(ss []string) []catalog.Tag {
	tags := make([]catalog.Tag, len(ss))
	for i, s := range ss {
		tags[i] = catalog.Tag(s)
	}
	return tags
}
