package dao

import (
	"context"

	"github.com/rowscope/rowscope/internal/aws"
	"github.com/rowscope/rowscope/internal/model1"
	"github.com/rowscope/rowscope/internal/render"
)

// Error represents a data access error.
type Error string

const (
	ErrUnknownSource = Error("unknown data source")
	ErrReadOnly      = Error("data source is read only")
	ErrNoColumn      = Error("no such column")
	ErrOutOfRange    = Error("row index out of range")
	ErrClosed        = Error("data source is closed")
)

func (e Error) Error() string {
	return string(e)
}

// Provider serves rows of an ordered collection by index.
type Provider interface {
	// Header describes the row fields.
	Header() model1.Header

	// Count returns the number of rows.
	Count(ctx context.Context) (int, error)

	// FetchRange returns at most length rows starting at start, in index order.
	FetchRange(ctx context.Context, start, length int) (model1.Rows, error)

	// Events streams structural changes.
	Events() <-chan model1.ChangeEvent

	// Close releases the source.
	Close() error
}

// Sorter is implemented by providers that may order rows themselves.
type Sorter interface {
	// SortsItself returns true if the provider owns ordering.
	SortsItself() bool

	// Sort applies descriptions, primary key first. An empty list restores
	// natural order.
	Sort(context.Context, model1.SortDescriptions) error
}

// Sequence exposes the backing rows for local reordering.
type Sequence interface {
	Len() int
	At(i int) model1.Row

	// Reorder permutes rows so that new position i holds old row order[i].
	Reorder(order []int) error
}

// Updater is implemented by editable providers.
type Updater interface {
	SetValue(ctx context.Context, index int, column, value string) error
}

// Reloader is implemented by providers caching a remote listing.
// Reload drops the cache and emits a Reset.
type Reloader interface {
	Reload()
}

// Colorizer is implemented by providers with custom row colors.
type Colorizer interface {
	ColorerFunc() render.ColorerFunc
}

// Factory provides AWS client configuration and management.
type Factory interface {
	Client() aws.Connection
	Profile() string
	Region() string
}
