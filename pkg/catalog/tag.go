package catalog

import "sort"

// Tag is an opaque descriptor category attached to an item.
// Tags are compared for equality only; no hierarchy is implied.
type Tag string

// TagSet is an unordered set of tags.
// The zero value is an empty set and is ready to use for reads.
type TagSet map[Tag]struct{}

// NewTagSet builds a set from the given tags. Duplicates collapse.
func NewTagSet(tags ...Tag) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Contains reports whether t is a member of the set.
func (s TagSet) Contains(t Tag) bool {
	_, ok := s[t]
	return ok
}

// ContainsAll reports whether every tag of other is in s.
func (s TagSet) ContainsAll(other TagSet) bool {
	for t := range other {
		if _, ok := s[t]; !ok {
			return false
		}
	}
	return true
}

// Disjoint reports whether s and other share no tag.
func (s TagSet) Disjoint(other TagSet) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for t := range small {
		if _, ok := large[t]; ok {
			return false
		}
	}
	return true
}

// Len returns the number of tags in the set.
func (s TagSet) Len() int {
	return len(s)
}

// Equal reports whether both sets hold exactly the same tags.
// A nil set equals an empty set.
func (s TagSet) Equal(other TagSet) bool {
	if len(s) != len(other) {
		return false
	}
	for t := range s {
		if _, ok := other[t]; !ok {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set.
func (s TagSet) Clone() TagSet {
	out := make(TagSet, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order, mostly for logging.
func (s TagSet) Sorted() []Tag {
	out := make([]Tag, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
