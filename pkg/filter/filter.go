// Package filter evaluates tag-membership predicates over a catalog.
//
// The engine is a pure function of its inputs. Remembering the last
// criteria to skip redundant work is the caller's job (see package library),
// which keeps that optimization observable on its own.
package filter

import (
	"github.com/marmos91/assetstream/pkg/catalog"
)

// Criteria selects items whose descriptor tags include every MustHave tag
// and none of the MustNot tags. Empty sets impose no constraint.
type Criteria struct {
	MustHave catalog.TagSet
	MustNot  catalog.TagSet
}

// NewCriteria builds criteria from tag slices.
func NewCriteria(mustHave, mustNot []catalog.Tag) Criteria {
	return Criteria{
		MustHave: catalog.NewTagSet(mustHave...),
		MustNot:  catalog.NewTagSet(mustNot...),
	}
}

// Equal reports whether both criteria select the same items for any catalog.
func (c Criteria) Equal(other Criteria) bool {
	return c.MustHave.Equal(other.MustHave) && c.MustNot.Equal(other.MustNot)
}

// Clone returns criteria that share no maps with c.
func (c Criteria) Clone() Criteria {
	return Criteria{MustHave: c.MustHave.Clone(), MustNot: c.MustNot.Clone()}
}

// Matches reports whether it satisfies the criteria.
func (c Criteria) Matches(it *catalog.Item) bool {
	for t := range c.MustHave {
		if !it.HasTag(t) {
			return false
		}
	}
	for t := range c.MustNot {
		if it.HasTag(t) {
			return false
		}
	}
	return true
}

// Apply returns the handles of every catalog item matching crit, in catalog
// iteration order.
func Apply(cat *catalog.Catalog, crit Criteria) []catalog.Handle {
	return ApplyTo(cat, cat.Handles(), crit)
}

// ApplyTo filters an existing subset of cat, preserving its order.
func ApplyTo(cat *catalog.Catalog, subset []catalog.Handle, crit Criteria) []catalog.Handle {
	out := make([]catalog.Handle, 0, len(subset))
	for _, h := range subset {
		if crit.Matches(cat.Item(h)) {
			out = append(out, h)
		}
	}
	return out
}
