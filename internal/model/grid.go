package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rowscope/rowscope/internal/dao"
	"github.com/rowscope/rowscope/internal/index"
	"github.com/rowscope/rowscope/internal/model1"
	"github.com/rowscope/rowscope/internal/pool"
	"github.com/rowscope/rowscope/internal/render"
	"github.com/rowscope/rowscope/internal/selection"
	"github.com/rowscope/rowscope/internal/sorter"
)

const (
	// DefaultOverscan is the number of extra rows kept on each edge.
	DefaultOverscan = 2

	// DefaultRefreshRate paces count retries.
	DefaultRefreshRate = 2 * time.Second
)

// GridOptions configures a grid.
type GridOptions struct {
	Overscan      int
	Prefetch      int
	RowHeight     int
	Workers       int
	FetchTimeout  time.Duration
	RefreshRate   time.Duration
	SelectionMode selection.Mode
}

func (o GridOptions) withDefaults() GridOptions {
	if o.Overscan < 1 {
		o.Overscan = DefaultOverscan
	}
	if o.RowHeight <= 0 {
		o.RowHeight = 1
	}
	if o.Workers <= 0 {
		o.Workers = DefaultFetchWorkers
	}
	if o.RefreshRate <= 0 {
		o.RefreshRate = DefaultRefreshRate
	}
	return o
}

// Grid drives a virtualized view over a provider. Viewport changes flow to
// the recycling pool and the window cache; fetch completions flow back as
// grid notifications.
type Grid struct {
	provider   dao.Provider
	columns    render.Columns
	opts       GridOptions
	cache      *WindowCache
	prefetcher *Prefetcher
	pool       *pool.Pool
	selection  *selection.Model
	sorter     *sorter.Coordinator

	offset    int
	height    int
	visible   index.Range
	countErr  error
	listeners []GridListener
	editors   []EditListener
	cancelFn  context.CancelFunc
	mx        sync.RWMutex
}

// NewGrid returns a grid over p. Custom columns are appended to the
// provider header columns.
func NewGrid(p dao.Provider, opts GridOptions, extra ...render.Column) *Grid {
	opts = opts.withDefaults()
	g := Grid{
		provider: p,
		columns:  append(render.NewColumns(p.Header()), extra...),
		opts:     opts,
		visible:  index.Empty,
	}
	g.cache = NewWindowCache(p, WithWorkers(opts.Workers), WithFetchTimeout(opts.FetchTimeout))
	g.prefetcher = NewPrefetcher(g.cache, opts.Prefetch)
	g.selection = selection.NewModel(opts.SelectionMode, 0)
	g.pool = pool.New(g.selection.IsSelected)
	g.sorter = sorter.NewCoordinator(p, g.columns, g.cache)
	g.cache.AddListener(&g)

	return &g
}

// Provider returns the data source.
func (g *Grid) Provider() dao.Provider {
	return g.provider
}

// Columns returns the grid columns.
func (g *Grid) Columns() render.Columns {
	return g.columns
}

// Cache returns the window cache.
func (g *Grid) Cache() *WindowCache {
	return g.cache
}

// Selection returns the selection model.
func (g *Grid) Selection() *selection.Model {
	return g.selection
}

// Sorter returns the sort coordinator.
func (g *Grid) Sorter() *sorter.Coordinator {
	return g.sorter
}

// Options returns the effective options.
func (g *Grid) Options() GridOptions {
	return g.opts
}

// Count returns the number of rows.
func (g *Grid) Count() int {
	return g.cache.Count()
}

// Visible returns the overscanned range bound to the pool.
func (g *Grid) Visible() index.Range {
	g.mx.RLock()
	defer g.mx.RUnlock()
	return g.visible
}

// Offset returns the current scroll offset.
func (g *Grid) Offset() int {
	g.mx.RLock()
	defer g.mx.RUnlock()
	return g.offset
}

// AddListener registers a grid listener.
func (g *Grid) AddListener(l GridListener) {
	g.mx.Lock()
	defer g.mx.Unlock()
	g.listeners = append(g.listeners, l)
}

// RemoveListener unregisters a grid listener.
func (g *Grid) RemoveListener(l GridListener) {
	g.mx.Lock()
	defer g.mx.Unlock()

	for i, lis := range g.listeners {
		if lis == l {
			g.listeners = append(g.listeners[:i], g.listeners[i+1:]...)
			return
		}
	}
}

// AddEditListener registers an edit listener.
func (g *Grid) AddEditListener(l EditListener) {
	g.mx.Lock()
	defer g.mx.Unlock()
	g.editors = append(g.editors, l)
}

// SetViewport scrolls to offset with a viewport of height. It rebinds the
// pool, reads the window and schedules fetches for its gaps.
func (g *Grid) SetViewport(offset, height int) error {
	g.mx.Lock()
	g.offset, g.height = max(offset, 0), height
	err := g.layoutLocked()
	g.mx.Unlock()

	return err
}

// ScrollTo moves the viewport so row i is at the top.
func (g *Grid) ScrollTo(i int) error {
	g.mx.RLock()
	height := g.height
	g.mx.RUnlock()

	offset := min(index.OffsetForIndex(i, g.opts.RowHeight), index.MaxOffset(height, g.opts.RowHeight, g.Count()))

	return g.SetViewport(offset, height)
}

func (g *Grid) layoutLocked() error {
	count := g.cache.Count()
	g.offset = min(g.offset, index.MaxOffset(g.height, g.opts.RowHeight, count))
	r := index.RangeForViewport(g.offset, g.height, g.opts.RowHeight, count, g.opts.Overscan)
	items, err := g.cache.Read(r)
	if err != nil {
		return err
	}
	g.visible = r
	g.pool.Update(r, func(c *pool.Container) {
		c.SetItem(items[c.Index()-r.First])
	})
	g.prefetcher.Update(r)
	if ff := g.cache.Flush(); len(ff) > 0 {
		slog.Debug("Fetching", "ranges", ff, "visible", r)
	}

	return nil
}

// Items returns the bound containers ordered by index.
func (g *Grid) Items() []*pool.Container {
	g.mx.RLock()
	defer g.mx.RUnlock()
	return g.pool.Bound()
}

// Item returns the current content at i.
func (g *Grid) Item(i int) model1.Item {
	return g.cache.Peek(i)
}

// Reset recounts the provider and drops every cached row. A failed count
// leaves the grid empty and is retried by Watch.
func (g *Grid) Reset(ctx context.Context) error {
	count, err := g.recount(ctx)

	return g.resetTo(ctx, count, err)
}

// recount asks the provider for its size, bounded by the fetch timeout.
// It may block and never runs on the dispatch goroutine.
func (g *Grid) recount(ctx context.Context) (int, error) {
	if g.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.FetchTimeout)
		defer cancel()
	}
	count, err := g.provider.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCountUnavailable, err)
	}

	return count, nil
}

func (g *Grid) resetTo(ctx context.Context, count int, err error) error {
	g.mx.Lock()
	g.countErr = err
	g.pool.Release()
	g.prefetcher.Reset()
	g.mx.Unlock()

	g.cache.SetCount(count)
	g.selection.SetCount(count)
	g.selection.Clear()
	if serr := g.sorter.Reapply(ctx); serr != nil {
		slog.Warn("Sort reapply failed", "error", serr)
	}
	g.cache.Invalidate()

	g.mx.Lock()
	lerr := g.layoutLocked()
	g.mx.Unlock()

	if err != nil {
		slog.Warn("Provider count unavailable", "error", err)
		g.fireFetchFailed(err)
		return err
	}

	return lerr
}

// Refresh refetches the visible window.
func (g *Grid) Refresh(ctx context.Context) error {
	g.mx.RLock()
	r := g.visible
	g.mx.RUnlock()

	if r.IsEmpty() {
		return g.Reset(ctx)
	}
	g.cache.InvalidateRange(r.First, r.Len())

	g.mx.Lock()
	defer g.mx.Unlock()

	return g.layoutLocked()
}

// Sort applies key as primary sort key and rebinds the view.
func (g *Grid) Sort(ctx context.Context, key string, dir model1.SortDirection) error {
	if err := g.sorter.ApplySort(ctx, key, dir); err != nil {
		return err
	}

	g.mx.Lock()
	defer g.mx.Unlock()

	return g.layoutLocked()
}

// Watch keeps the grid live: fetch completions are applied through
// dispatch, provider events are followed and a failed count is retried.
// Provider counts run on the calling goroutine; only their results go
// through dispatch. A nil dispatch applies everything inline.
func (g *Grid) Watch(ctx context.Context, dispatch func(func())) error {
	ctx, dispatch = g.watch(ctx, dispatch)
	count, err := g.recount(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	dispatch(func() {
		if err := g.resetTo(ctx, count, err); err != nil && !isCountErr(err) {
			slog.Warn("Grid reset failed", "error", err)
		}
	})

	return nil
}

// Resume restarts a stopped watch, keeping count, selection and sort,
// and refetches the visible rows.
func (g *Grid) Resume(ctx context.Context, dispatch func(func())) error {
	ctx, dispatch = g.watch(ctx, dispatch)
	if g.Visible().IsEmpty() {
		g.resetVia(ctx, dispatch)
		return nil
	}
	dispatch(func() {
		if err := g.Refresh(ctx); err != nil {
			slog.Warn("Grid refresh failed", "error", err)
		}
	})

	return nil
}

// Reload asks a reloadable provider to drop what it cached. The provider
// announces a reset that Watch follows. Other providers get a Refresh.
func (g *Grid) Reload(ctx context.Context) error {
	r, ok := g.provider.(dao.Reloader)
	if !ok {
		return g.Refresh(ctx)
	}
	r.Reload()

	return nil
}

func (g *Grid) watch(ctx context.Context, dispatch func(func())) (context.Context, func(func())) {
	g.mx.Lock()
	if g.cancelFn != nil {
		g.cancelFn()
	}
	ctx, g.cancelFn = context.WithCancel(ctx)
	g.mx.Unlock()

	if dispatch == nil {
		dispatch = func(f func()) { f() }
	}
	go g.cache.Run(ctx, dispatch)
	go g.eventLoop(ctx, dispatch)
	go g.watchLoop(ctx, dispatch)

	return ctx, dispatch
}

// resetVia recounts on the calling goroutine and applies the result
// through dispatch.
func (g *Grid) resetVia(ctx context.Context, dispatch func(func())) {
	count, err := g.recount(ctx)
	if ctx.Err() != nil {
		return
	}
	dispatch(func() { _ = g.resetTo(ctx, count, err) })
}

func (g *Grid) eventLoop(ctx context.Context, dispatch func(func())) {
	events := g.provider.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			g.dispatchEvent(ctx, evt, dispatch)
		}
	}
}

func (g *Grid) watchLoop(ctx context.Context, dispatch func(func())) {
	ticker := time.NewTicker(g.opts.RefreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.mx.RLock()
			failed := g.countErr != nil
			g.mx.RUnlock()
			if failed {
				g.resetVia(ctx, dispatch)
			}
		}
	}
}

// HandleEvent applies a provider change notification.
func (g *Grid) HandleEvent(ctx context.Context, evt model1.ChangeEvent) {
	g.dispatchEvent(ctx, evt, func(f func()) { f() })
}

func (g *Grid) dispatchEvent(ctx context.Context, evt model1.ChangeEvent, dispatch func(func())) {
	slog.Debug("Provider event", "kind", evt.Kind, "start", evt.Start, "count", evt.Count)

	switch evt.Kind {
	case model1.ChangeItemsReplaced:
		dispatch(func() {
			g.cache.InvalidateRange(evt.Start, evt.Count)
			g.relayout()
		})
	case model1.ChangeSorted:
		dispatch(func() {
			g.cache.Invalidate()
			g.relayout()
		})
	default:
		count, err := g.recount(ctx)
		if ctx.Err() != nil {
			return
		}
		dispatch(func() {
			if err := g.resetTo(ctx, count, err); err != nil {
				slog.Warn("Reset failed", "event", evt.Kind, "error", err)
			}
		})
	}
}

func (g *Grid) relayout() {
	g.mx.Lock()
	err := g.layoutLocked()
	g.mx.Unlock()
	if err != nil {
		slog.Warn("Relayout failed", "error", err)
	}
}

// Stop ends the watch.
func (g *Grid) Stop() {
	g.mx.Lock()
	defer g.mx.Unlock()

	if g.cancelFn != nil {
		g.cancelFn()
		g.cancelFn = nil
	}
}

// Close stops the grid and its fetch workers.
func (g *Grid) Close() {
	g.Stop()
	g.cache.Close()
}

// SetValue writes value to column of row through the provider.
// It returns the previous rendered value.
func (g *Grid) SetValue(ctx context.Context, row int, column, value string) (string, error) {
	u, ok := g.provider.(dao.Updater)
	if !ok {
		return "", dao.ErrReadOnly
	}
	col, ok := g.columns.Find(column)
	if !ok {
		return "", fmt.Errorf("%w: %q", dao.ErrNoColumn, column)
	}
	if !col.Attrs().Editable {
		return "", fmt.Errorf("%w: %q", render.ErrReadOnly, column)
	}
	it := g.cache.Peek(row)
	if it.Placeholder() {
		return "", fmt.Errorf("%w: row %d not loaded", ErrInvalidRange, row)
	}
	old := col.Value(it.Row)
	if err := u.SetValue(ctx, row, column, value); err != nil {
		return "", err
	}

	return old, nil
}

// ForwardEdit relays a committed edit to edit listeners.
func (g *Grid) ForwardEdit(evt EditEvent) {
	g.mx.RLock()
	ll := make([]EditListener, len(g.editors))
	copy(ll, g.editors)
	g.mx.RUnlock()

	for _, l := range ll {
		l.CellEditCommitted(evt)
	}
}

// ItemsReplaced rebinds containers showing refreshed rows.
func (g *Grid) ItemsReplaced(start, count int) {
	g.mx.Lock()
	g.pool.Refresh(start, count, g.bind)
	g.mx.Unlock()

	g.fireChanged(start, count)
}

// CacheReset rebinds every container.
func (g *Grid) CacheReset() {
	g.mx.Lock()
	g.pool.RefreshAll(g.bind)
	g.mx.Unlock()

	g.fireReset(g.cache.Count())
}

// FetchFailed surfaces a visible fetch failure.
func (g *Grid) FetchFailed(err *FetchError) {
	g.mx.Lock()
	g.pool.Refresh(err.Range.Start, err.Range.Length, g.bind)
	g.mx.Unlock()

	g.fireFetchFailed(err)
}

func (g *Grid) bind(c *pool.Container) {
	c.SetItem(g.cache.Peek(c.Index()))
}

func (g *Grid) snapshotListeners() []GridListener {
	g.mx.RLock()
	defer g.mx.RUnlock()

	ll := make([]GridListener, len(g.listeners))
	copy(ll, g.listeners)

	return ll
}

func (g *Grid) fireChanged(start, count int) {
	for _, l := range g.snapshotListeners() {
		l.GridChanged(start, count)
	}
}

func (g *Grid) fireReset(count int) {
	for _, l := range g.snapshotListeners() {
		l.GridReset(count)
	}
}

func (g *Grid) fireFetchFailed(err error) {
	for _, l := range g.snapshotListeners() {
		l.GridFetchFailed(err)
	}
}

func isCountErr(err error) bool {
	return errors.Is(err, ErrCountUnavailable)
}
