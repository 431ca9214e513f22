package model

import (
	"context"
	"fmt"

	"github.com/rowscope/rowscope/internal/index"
	"github.com/rowscope/rowscope/internal/model1"
)

// Error represents a model error.
type Error string

const (
	// ErrInvalidRange flags a read outside [0, count).
	ErrInvalidRange = Error("invalid range requested")

	// ErrCountUnavailable flags a provider that could not report its size.
	ErrCountUnavailable = Error("provider count unavailable")

	// ErrNoProvider flags a grid used before a provider was set.
	ErrNoProvider = Error("no provider configured")
)

func (e Error) Error() string {
	return string(e)
}

// FetchRange is a contiguous run of indices requested in one call.
type FetchRange struct {
	Start  int
	Length int
}

func (f FetchRange) String() string {
	return fmt.Sprintf("(%d,%d)", f.Start, f.Length)
}

// Range returns the inclusive index span.
func (f FetchRange) Range() index.Range {
	return index.NewRange(f.Start, f.Length)
}

// End returns the first index past the run.
func (f FetchRange) End() int {
	return f.Start + f.Length
}

// FetchError reports a failed visible fetch.
type FetchError struct {
	Range FetchRange
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed: %v", e.Range, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Fetcher retrieves rows by index.
type Fetcher interface {
	FetchRange(ctx context.Context, start, length int) (model1.Rows, error)
}

// CacheListener represents a window cache listener.
type CacheListener interface {
	// ItemsReplaced notifies entries in [start, start+count) changed.
	ItemsReplaced(start, count int)

	// CacheReset notifies all entries were dropped.
	CacheReset()

	// FetchFailed notifies a visible fetch failed. Indices stay Absent.
	FetchFailed(*FetchError)
}

// GridListener represents a grid model listener.
type GridListener interface {
	// GridChanged notifies content changed for [start, start+count).
	GridChanged(start, count int)

	// GridReset notifies the row count or ordering changed.
	GridReset(count int)

	// GridFetchFailed notifies a recoverable fetch or count failure.
	GridFetchFailed(error)
}

// EditEvent describes a committed cell edit.
type EditEvent struct {
	Row    int
	Column string
	Old    string
	New    string
	Patch  string
}

// EditListener receives committed cell edits.
type EditListener interface {
	CellEditCommitted(EditEvent)
}
