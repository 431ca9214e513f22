// Package index maps between scroll offsets, row heights and row indices.
package index

// RangeForViewport computes the overscanned index range visible at offset.
// Negative offsets clamp to zero. The result never leaves [0, count-1] and
// never holds more than ceil(viewportHeight/rowHeight) + 2*overscan rows.
func RangeForViewport(offset, viewportHeight, rowHeight, count, overscan int) Range {
	if count <= 0 || rowHeight <= 0 || viewportHeight <= 0 {
		return Empty
	}
	offset = max(offset, 0)
	overscan = max(overscan, 0)

	rows := RowsForHeight(viewportHeight, rowHeight)
	first := offset / rowHeight
	// Past the end: pin the window to the tail.
	if first+rows > count {
		first = max(count-rows, 0)
	}
	r := Range{First: first, Last: first + rows - 1}

	return r.Expand(overscan).Clamp(count)
}

// RowsForHeight returns how many rows of rowHeight a viewport spans, rounding up.
func RowsForHeight(viewportHeight, rowHeight int) int {
	if viewportHeight <= 0 || rowHeight <= 0 {
		return 0
	}
	return (viewportHeight + rowHeight - 1) / rowHeight
}

// OffsetForIndex returns the scroll offset of the top edge of a row.
func OffsetForIndex(index, rowHeight int) int {
	if index <= 0 || rowHeight <= 0 {
		return 0
	}
	return index * rowHeight
}

// IndexForOffset returns the row under the given offset, clamped to count.
func IndexForOffset(offset, rowHeight, count int) int {
	if count <= 0 || rowHeight <= 0 || offset <= 0 {
		return 0
	}
	return min(offset/rowHeight, count-1)
}

// MaxOffset returns the largest offset that still fills the viewport.
func MaxOffset(viewportHeight, rowHeight, count int) int {
	if rowHeight <= 0 {
		return 0
	}
	return max(count*rowHeight-viewportHeight, 0)
}
