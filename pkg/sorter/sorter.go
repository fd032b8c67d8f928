// Package sorter orders a filtered subset by a caller-supplied tag priority
// list.
//
// Items are partitioned into one bucket per tag in the order list. An item
// lands in the first bucket whose tag it carries; items carrying none of
// the tags are dropped from the result. Each bucket is stable-sorted by the
// item's value for that bucket's tag and the buckets are concatenated in
// order-list sequence.
package sorter

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/marmos91/assetstream/pkg/catalog"
)

// InvariantError is the panic value raised when an item placed in a bucket
// has no value for that bucket's tag. Bucket placement checks membership
// first, so this only fires on corrupted catalog state.
type InvariantError struct {
	Handle catalog.Handle
	Tag    catalog.Tag
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("sorter: item %d placed in bucket %q has no value for it", e.Handle, e.Tag)
}

// Sort returns subset reordered by order. See the package documentation for
// the bucketing rules. Equal values keep their relative subset order, so the
// result is deterministic for identical inputs.
//
// Sort panics with *InvariantError if a bucketed item lacks the bucket
// tag's value.
func Sort(cat *catalog.Catalog, subset []catalog.Handle, order []catalog.Tag, descending bool) []catalog.Handle {
	if len(order) == 0 || len(subset) == 0 {
		return []catalog.Handle{}
	}

	buckets := make([][]catalog.Handle, len(order))
	kept := 0
	for _, h := range subset {
		it := cat.Item(h)
		for i, tag := range order {
			if it.HasTag(tag) {
				buckets[i] = append(buckets[i], h)
				kept++
				break
			}
		}
	}

	out := make([]catalog.Handle, 0, kept)
	for i, bucket := range buckets {
		tag := order[i]
		sortBucket(cat, bucket, tag, descending)
		out = append(out, bucket...)
	}
	return out
}

func sortBucket(cat *catalog.Catalog, bucket []catalog.Handle, tag catalog.Tag, descending bool) {
	if len(bucket) < 2 {
		// Still validate single-element buckets.
		for _, h := range bucket {
			mustValue(cat, h, tag)
		}
		return
	}

	values := make(map[catalog.Handle]float64, len(bucket))
	for _, h := range bucket {
		values[h] = mustValue(cat, h, tag)
	}

	slices.SortStableFunc(bucket, func(a, b catalog.Handle) int {
		if descending {
			return cmp.Compare(values[b], values[a])
		}
		return cmp.Compare(values[a], values[b])
	})
}

func mustValue(cat *catalog.Catalog, h catalog.Handle, tag catalog.Tag) float64 {
	v, ok := cat.Item(h).Value(tag)
	if !ok {
		panic(&InvariantError{Handle: h, Tag: tag})
	}
	return v
}
