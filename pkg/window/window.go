// Package window computes which positions of a sorted sequence must be
// resident around a moving target.
//
// A Target names an inclusive index range and a margin. Compute turns it
// into two disjoint index sets: the core, loaded at high priority, and the
// margin around it, loaded at default priority. Every index it returns is
// valid for the sequence length it was given.
package window

import (
	"fmt"
	"math"
)

// Mode records how a target was derived, so it can be re-derived later
// against a new sorted sequence.
type Mode int

const (
	// ModeRange targets were built from an index or index range.
	ModeRange Mode = iota
	// ModePage targets were built from a page index and page size.
	ModePage
)

func (m Mode) String() string {
	switch m {
	case ModeRange:
		return "range"
	case ModePage:
		return "page"
	default:
		return "unknown"
	}
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode written by MarshalText.
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "range":
		*m = ModeRange
	case "page":
		*m = ModePage
	default:
		return fmt.Errorf("window: unknown mode %q", text)
	}
	return nil
}

// Target is an inclusive index range into a sorted sequence plus a margin
// on each side of it.
type Target struct {
	Start  int  `json:"start"`
	End    int  `json:"end"`
	Margin int  `json:"margin"`
	Mode   Mode `json:"mode"`
}

// Sets is the outcome of Compute. Both slices are ascending and disjoint.
type Sets struct {
	Core   []int
	Margin []int
}

// Resident returns the union of the core and margin indices.
func (s Sets) Resident() []int {
	out := make([]int, 0, len(s.Core)+len(s.Margin))
	out = append(out, s.Core...)
	return append(out, s.Margin...)
}

// Contains reports whether idx is in either set, and whether it is core.
func (s Sets) Contains(idx int) (resident, core bool) {
	for _, i := range s.Core {
		if i == idx {
			return true, true
		}
	}
	for _, i := range s.Margin {
		if i == idx {
			return true, false
		}
	}
	return false, false
}

// ByIndex targets a single position.
func ByIndex(index, margin int) Target {
	return Target{Start: index, End: index, Margin: margin, Mode: ModeRange}
}

// ByPage targets page pageIndex of pageSize items, keeping bufferPages
// whole pages resident on either side.
func ByPage(pageIndex, pageSize, bufferPages int) Target {
	start := mulSat(pageIndex, pageSize)
	return Target{
		Start:  start,
		End:    addSat(addSat(start, pageSize), -1),
		Margin: mulSat(bufferPages, pageSize),
		Mode:   ModePage,
	}
}

// AroundIndex targets index plus extent positions on either side. The two
// ends are clamped independently to the sequence of length n.
func AroundIndex(n, index, extent, margin int) Target {
	if extent < 0 {
		extent = 0
	}
	return Target{
		Start:  clamp(addSat(index, -extent), 0, n-1),
		End:    clamp(addSat(index, extent), 0, n-1),
		Margin: margin,
		Mode:   ModeRange,
	}
}

// Compute resolves t against a sequence of length n.
//
// The core is [Start, End] clipped to [0, n-1]. It is empty when Start > End
// or when the range lies entirely outside the sequence. The margin is
// [Start-Margin, Start-1] and [End+1, End+Margin], clipped the same way.
// A negative margin is treated as zero. An inverted range yields no margin
// either, since there is nothing to surround.
func Compute(n int, t Target) Sets {
	sets := Sets{Core: []int{}, Margin: []int{}}
	if n <= 0 || t.Start > t.End {
		return sets
	}

	margin := max(t.Margin, 0)

	for i := max(addSat(t.Start, -margin), 0); i < min(t.Start, n); i++ {
		sets.Margin = append(sets.Margin, i)
	}
	for i := max(t.Start, 0); i <= min(t.End, n-1); i++ {
		sets.Core = append(sets.Core, i)
	}
	for i := max(addSat(t.End, 1), 0); i <= min(addSat(t.End, margin), n-1); i++ {
		sets.Margin = append(sets.Margin, i)
	}
	return sets
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

// addSat adds without wrapping, saturating at the int bounds.
func addSat(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

// mulSat multiplies without wrapping, saturating at the int bounds.
func mulSat(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	p := a * b
	if p/b == a && !(a == -1 && b == math.MinInt) && !(b == -1 && a == math.MinInt) {
		return p
	}
	if (a < 0) != (b < 0) {
		return math.MinInt
	}
	return math.MaxInt
}
