package index

import "fmt"

// Range is an inclusive span of row indices. A range with Last < First is empty.
type Range struct {
	First int
	Last  int
}

// Empty is the canonical empty range.
var Empty = Range{First: 0, Last: -1}

// NewRange returns the range covering [start, start+length).
func NewRange(start, length int) Range {
	if length <= 0 {
		return Empty
	}
	return Range{First: start, Last: start + length - 1}
}

func (r Range) String() string {
	if r.IsEmpty() {
		return "[]"
	}
	return fmt.Sprintf("[%d,%d]", r.First, r.Last)
}

// IsEmpty returns true if the range holds no index.
func (r Range) IsEmpty() bool {
	return r.Last < r.First
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	if r.IsEmpty() {
		return 0
	}
	return r.Last - r.First + 1
}

// Contains checks if i falls in the range.
func (r Range) Contains(i int) bool {
	return !r.IsEmpty() && i >= r.First && i <= r.Last
}

// Covers checks if o lies entirely within r.
func (r Range) Covers(o Range) bool {
	if o.IsEmpty() {
		return true
	}
	return r.Contains(o.First) && r.Contains(o.Last)
}

// Intersects checks if both ranges share at least one index.
func (r Range) Intersects(o Range) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return r.First <= o.Last && o.First <= r.Last
}

// Intersect returns the common span.
func (r Range) Intersect(o Range) Range {
	if !r.Intersects(o) {
		return Empty
	}
	return Range{First: max(r.First, o.First), Last: min(r.Last, o.Last)}
}

// Clamp restricts the range to [0, count-1].
func (r Range) Clamp(count int) Range {
	if count <= 0 || r.IsEmpty() {
		return Empty
	}
	out := Range{First: max(r.First, 0), Last: min(r.Last, count-1)}
	if out.IsEmpty() {
		return Empty
	}
	return out
}

// Expand widens both edges by n.
func (r Range) Expand(n int) Range {
	if r.IsEmpty() || n <= 0 {
		return r
	}
	return Range{First: r.First - n, Last: r.Last + n}
}

// Start returns the first index, for (start, length) style APIs.
func (r Range) Start() int {
	return r.First
}
