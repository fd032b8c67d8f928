// Package catalog holds the authoritative set of loadable items for one
// library.
//
// Items are stored in an arena and addressed by Handle, a stable integer
// index. Filtered, sorted and requested sets elsewhere in the module are
// slices or sets of handles, so identity comparison is an integer compare
// and no item is ever aliased mutably.
package catalog

import (
	"errors"
	"maps"
	"slices"
)

// ErrEmptyCatalog is returned when a catalog is built from no items.
var ErrEmptyCatalog = errors.New("catalog: no items")

// Handle is the stable index of an item inside its Catalog.
type Handle int

// Catalog is an immutable arena of items.
// It is safe for concurrent reads once constructed.
type Catalog struct {
	items []Item
}

// New builds a catalog from items. Each item is copied: later changes to
// the caller's slices or maps do not leak into the catalog.
func New(items []Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{items: make([]Item, len(items))}
	for i, it := range items {
		c.items[i] = Item{
			UniqueID:    it.UniqueID,
			Resources:   slices.Clone(it.Resources),
			Descriptors: maps.Clone(it.Descriptors),
			Observer:    it.Observer,
		}
		if c.items[i].Descriptors == nil {
			c.items[i].Descriptors = map[Tag]float64{}
		}
	}
	return c, nil
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Item returns the item behind h. The returned pointer must be treated as
// read-only.
func (c *Catalog) Item(h Handle) *Item {
	return &c.items[h]
}

// Handles returns every handle in catalog iteration order.
func (c *Catalog) Handles() []Handle {
	out := make([]Handle, len(c.items))
	for i := range c.items {
		out[i] = Handle(i)
	}
	return out
}

// Valid reports whether h addresses an item of this catalog.
func (c *Catalog) Valid(h Handle) bool {
	return h >= 0 && int(h) < len(c.items)
}

// UniqueID returns the unique id of the item behind h.
func (c *Catalog) UniqueID(h Handle) string {
	return c.items[h].UniqueID
}

// Notify delivers a status change to the item's observer, if any.
func (c *Catalog) Notify(h Handle, loaded bool) {
	c.items[h].notify(loaded)
}
