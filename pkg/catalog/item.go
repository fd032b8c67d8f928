package catalog

// StatusObserver receives load-status changes for a single item.
//
// Notify(true) fires when the item's resources finished loading and
// Notify(false) fires when the item is unloaded or its load failed.
// Calls always arrive on the coordinator goroutine, one at a time.
// Implementations must not block and must not call back into the
// registry synchronously.
type StatusObserver interface {
	Notify(loaded bool)
}

// ObserverFunc adapts a plain function to StatusObserver.
type ObserverFunc func(loaded bool)

// Notify calls f(loaded).
func (f ObserverFunc) Notify(loaded bool) {
	f(loaded)
}

// ResourceRef identifies one resource the streaming loader must make
// resident for an item. ID is opaque to the prioritizer. Bundles optionally
// narrows a primary resource to named sub-bundles.
type ResourceRef struct {
	ID      string   `json:"id" yaml:"id" jsonschema:"required,description=Opaque resource identifier resolved by the loader source"`
	Bundles []string `json:"bundles,omitempty" yaml:"bundles,omitempty" jsonschema:"description=Optional named sub-bundles to load with the resource"`
}

// Keys expands the reference into the concrete keys a source resolves.
// A reference without bundles expands to its ID; with bundles it expands
// to "ID#bundle" for every bundle.
func (r ResourceRef) Keys() []string {
	if len(r.Bundles) == 0 {
		return []string{r.ID}
	}
	keys := make([]string, 0, len(r.Bundles))
	for _, b := range r.Bundles {
		keys = append(keys, r.ID+"#"+b)
	}
	return keys
}

// Item describes a loadable unit. Identity and descriptors are fixed once
// the item enters a Catalog; load state lives with the owning library.
type Item struct {
	// UniqueID names the item for by-id lookups. It may be empty when
	// items are only ever addressed by their sorted position.
	UniqueID string

	// Resources are handed to the streaming loader when the item becomes
	// resident.
	Resources []ResourceRef

	// Descriptors maps each tag the item carries to its sort weight.
	Descriptors map[Tag]float64

	// Observer is notified of load status changes. May be nil.
	Observer StatusObserver
}

// HasTag reports whether the item carries t.
func (it *Item) HasTag(t Tag) bool {
	_, ok := it.Descriptors[t]
	return ok
}

// Value returns the weight stored for t and whether the tag is present.
func (it *Item) Value(t Tag) (float64, bool) {
	v, ok := it.Descriptors[t]
	return v, ok
}

// notify forwards to the observer when one is registered.
func (it *Item) notify(loaded bool) {
	if it.Observer != nil {
		it.Observer.Notify(loaded)
	}
}
