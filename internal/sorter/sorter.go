package sorter

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/rowscope/rowscope/internal/dao"
	"github.com/rowscope/rowscope/internal/model1"
	"github.com/rowscope/rowscope/internal/render"
)

// Error represents a sort error.
type Error string

const (
	// ErrDuplicateSortKey flags a description list holding a key twice.
	ErrDuplicateSortKey = Error("duplicate sort key")

	// ErrNotSortable flags a provider that can neither sort nor be reordered.
	ErrNotSortable = Error("provider is not sortable")

	// ErrUnknownKey flags a description naming no column.
	ErrUnknownKey = Error("unknown sort key")
)

func (e Error) Error() string {
	return string(e)
}

// CompareFunc orders two rows. It returns a negative number when a sorts
// first, zero when they tie.
type CompareFunc func(a, b model1.Row) int

// Request is handed to listeners before a sort is applied. Setting Cancel
// aborts the sort. Setting Compare replaces the default comparator for Key.
type Request struct {
	Key       string
	Direction model1.SortDirection
	Cancel    bool
	Compare   CompareFunc
}

// Listener represents a sort listener.
type Listener interface {
	// SortRequested fires before a sort is applied.
	SortRequested(*Request)

	// SortChanged fires after the ordering changed.
	SortChanged(model1.SortDescriptions)
}

// Invalidator drops cached rows once the ordering changed.
type Invalidator interface {
	Invalidate()
}

// Coordinator maintains sort descriptions and applies them to a provider.
type Coordinator struct {
	provider  dao.Provider
	columns   render.Columns
	cache     Invalidator
	descs     model1.SortDescriptions
	compare   CompareFunc
	listeners []Listener
	mx        sync.RWMutex
}

// NewCoordinator returns a coordinator sorting p. cols resolve description
// keys and inv is invalidated after every applied sort.
func NewCoordinator(p dao.Provider, cols render.Columns, inv Invalidator) *Coordinator {
	return &Coordinator{
		provider: p,
		columns:  cols,
		cache:    inv,
	}
}

// AddListener registers a sort listener.
func (c *Coordinator) AddListener(l Listener) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.listeners = append(c.listeners, l)
}

// RemoveListener unregisters a sort listener.
func (c *Coordinator) RemoveListener(l Listener) {
	c.mx.Lock()
	defer c.mx.Unlock()

	for i, lis := range c.listeners {
		if lis == l {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// Descriptions returns the active descriptions, primary key first.
func (c *Coordinator) Descriptions() model1.SortDescriptions {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.descs.Clone()
}

// ApplySort makes key the primary sort key. An empty key clears every
// description and restores natural order. Existing keys stay on as
// tie-breakers in their prior relative order.
func (c *Coordinator) ApplySort(ctx context.Context, key string, dir model1.SortDirection) error {
	req := Request{Key: key, Direction: dir}
	if key != "" {
		if _, ok := c.columns.Find(key); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
		c.fireRequested(&req)
		if req.Cancel {
			slog.Debug("Sort cancelled by listener", "key", key)
			return nil
		}
	}

	c.mx.Lock()
	prev, prevCmp := c.descs, c.compare
	c.descs, c.compare = promote(c.descs, key, dir), req.Compare
	descs, cmp := c.descs.Clone(), c.compare
	c.mx.Unlock()

	if err := c.apply(ctx, descs, cmp); err != nil {
		c.mx.Lock()
		c.descs, c.compare = prev, prevCmp
		c.mx.Unlock()
		return err
	}
	c.fireChanged(descs)

	return nil
}

// ToggleSort flips key if it is already primary, else sorts it ascending.
func (c *Coordinator) ToggleSort(ctx context.Context, key string) error {
	dir := model1.Ascending
	if dd := c.Descriptions(); len(dd) > 0 && dd[0].Key == key {
		dir = dd[0].Direction.Flip()
	}

	return c.ApplySort(ctx, key, dir)
}

// Reapply sorts again with the active descriptions, e.g. after a reset.
func (c *Coordinator) Reapply(ctx context.Context) error {
	c.mx.RLock()
	descs, cmp := c.descs.Clone(), c.compare
	c.mx.RUnlock()

	if len(descs) == 0 {
		return nil
	}
	if err := c.apply(ctx, descs, cmp); err != nil {
		return err
	}
	c.fireChanged(descs)

	return nil
}

func (c *Coordinator) apply(ctx context.Context, descs model1.SortDescriptions, cmp CompareFunc) error {
	mustBeUnique(descs)

	if s, ok := c.provider.(dao.Sorter); ok && s.SortsItself() {
		if err := s.Sort(ctx, descs); err != nil {
			return fmt.Errorf("provider sort %v: %w", descs, err)
		}
	} else {
		seq, ok := c.provider.(dao.Sequence)
		if !ok {
			return ErrNotSortable
		}
		if err := c.sortLocal(seq, descs, cmp); err != nil {
			return err
		}
	}
	if c.cache != nil {
		c.cache.Invalidate()
	}

	return nil
}

type keyed struct {
	pos  int
	row  model1.Row
	keys []string
}

// sortLocal stably orders seq by descs, falling back on insertion order.
func (c *Coordinator) sortLocal(seq dao.Sequence, descs model1.SortDescriptions, primary CompareFunc) error {
	cols := make([]render.Column, len(descs))
	for i, d := range descs {
		col, ok := c.columns.Find(d.Key)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownKey, d.Key)
		}
		cols[i] = col
	}

	rr := make([]keyed, seq.Len())
	for i := range rr {
		row := seq.At(i)
		kk := make([]string, len(cols))
		for j, col := range cols {
			kk[j] = col.SortKey(row)
		}
		rr[i] = keyed{pos: i, row: row, keys: kk}
	}

	slices.SortStableFunc(rr, func(a, b keyed) int {
		for j, d := range descs {
			var n int
			if j == 0 && primary != nil {
				n = primary(a.row, b.row)
			} else {
				n = model1.Compare(cols[j].Attrs(), a.keys[j], b.keys[j])
			}
			if d.Direction == model1.Descending {
				n = -n
			}
			if n != 0 {
				return n
			}
		}
		switch {
		case a.row.Seq < b.row.Seq:
			return -1
		case a.row.Seq > b.row.Seq:
			return 1
		default:
			return 0
		}
	})

	order := make([]int, len(rr))
	for i, r := range rr {
		order[i] = r.pos
	}

	return seq.Reorder(order)
}

// promote moves key to the front with dir. An empty key clears the list.
func promote(dd model1.SortDescriptions, key string, dir model1.SortDirection) model1.SortDescriptions {
	if key == "" {
		return nil
	}
	out := make(model1.SortDescriptions, 0, len(dd)+1)
	out = append(out, model1.SortDescription{Key: key, Direction: dir})
	for _, d := range dd {
		if d.Key != key {
			out = append(out, d)
		}
	}

	return out
}

func mustBeUnique(dd model1.SortDescriptions) {
	seen := make(map[string]struct{}, len(dd))
	for _, d := range dd {
		if _, ok := seen[d.Key]; ok {
			panic(fmt.Errorf("%w: %q in %v", ErrDuplicateSortKey, d.Key, dd))
		}
		seen[d.Key] = struct{}{}
	}
}

func (c *Coordinator) snapshotListeners() []Listener {
	c.mx.RLock()
	defer c.mx.RUnlock()

	ll := make([]Listener, len(c.listeners))
	copy(ll, c.listeners)

	return ll
}

func (c *Coordinator) fireRequested(r *Request) {
	for _, l := range c.snapshotListeners() {
		l.SortRequested(r)
		if r.Cancel {
			return
		}
	}
}

func (c *Coordinator) fireChanged(dd model1.SortDescriptions) {
	for _, l := range c.snapshotListeners() {
		l.SortChanged(dd.Clone())
	}
}
