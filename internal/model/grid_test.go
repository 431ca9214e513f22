package model

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowscope/rowscope/internal/dao"
	"github.com/rowscope/rowscope/internal/index"
	"github.com/rowscope/rowscope/internal/model1"
	"github.com/rowscope/rowscope/internal/selection"
)

type fakeProvider struct {
	*fakeFetcher

	mx       sync.Mutex
	count    int
	countErr error
	onCount  func()
	events   chan model1.ChangeEvent
}

func newFakeProvider(count int) *fakeProvider {
	return &fakeProvider{
		fakeFetcher: newFakeFetcher(),
		count:       count,
		events:      make(chan model1.ChangeEvent, 8),
	}
}

func (*fakeProvider) Header() model1.Header {
	return model1.Header{{Name: "VALUE", Attrs: model1.Attrs{Sortable: true}}}
}

func (p *fakeProvider) Count(context.Context) (int, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.onCount != nil {
		p.onCount()
	}
	return p.count, p.countErr
}

func (p *fakeProvider) setCount(n int, err error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	p.count, p.countErr = n, err
}

type reloadProvider struct {
	*fakeProvider

	reloads atomic.Int32
}

func (p *reloadProvider) Reload() {
	p.reloads.Add(1)
	p.events <- model1.ChangeEvent{Kind: model1.ChangeReset}
}

func (p *fakeProvider) Events() <-chan model1.ChangeEvent {
	return p.events
}

func (*fakeProvider) Close() error {
	return nil
}

type gridRecorder struct {
	mx       sync.Mutex
	changed  []FetchRange
	resets   []int
	failures []error
	edits    []EditEvent
}

func (r *gridRecorder) GridChanged(start, count int) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.changed = append(r.changed, FetchRange{Start: start, Length: count})
}

func (r *gridRecorder) GridReset(count int) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.resets = append(r.resets, count)
}

func (r *gridRecorder) GridFetchFailed(err error) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.failures = append(r.failures, err)
}

func (r *gridRecorder) CellEditCommitted(evt EditEvent) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.edits = append(r.edits, evt)
}

func (r *gridRecorder) failureCount() int {
	r.mx.Lock()
	defer r.mx.Unlock()
	return len(r.failures)
}

// settle applies completions until nothing is in flight.
func settle(t *testing.T, c *WindowCache) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for len(c.InFlight()) > 0 {
		require.NoError(t, c.Next(ctx))
	}
}

func newTestGrid(t *testing.T, p dao.Provider, opts GridOptions) (*Grid, *gridRecorder) {
	t.Helper()

	if opts.Workers == 0 {
		opts.Workers = 1
	}
	g := NewGrid(p, opts)
	var rec gridRecorder
	g.AddListener(&rec)
	g.AddEditListener(&rec)
	t.Cleanup(g.Close)

	return g, &rec
}

func TestGridViewportScenario(t *testing.T) {
	p := newFakeProvider(1_000_000)
	g, rec := newTestGrid(t, p, GridOptions{RowHeight: 20, Overscan: 1, Prefetch: 10})
	require.NoError(t, g.Reset(context.Background()))
	require.NoError(t, g.SetViewport(12341*20, 21*20))

	assert.Equal(t, index.Range{First: 12340, Last: 12362}, g.Visible())
	assert.Len(t, g.Items(), 23)
	assert.Equal(t, []FetchRange{{Start: 12340, Length: 23}, {Start: 12363, Length: 10}}, g.Cache().InFlight())

	nextN(t, g.Cache(), 2)
	calls := p.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, fetchCall{start: 12340, length: 23}, calls[0])

	for _, c := range g.Items() {
		assert.Equal(t, model1.Present, c.Item().State)
		assert.Equal(t, c.Index(), c.Item().Index)
	}
	assert.Contains(t, rec.changed, FetchRange{Start: 12340, Length: 23})
}

func TestGridScrollRecyclesContainers(t *testing.T) {
	p := newFakeProvider(10_000)
	g, _ := newTestGrid(t, p, GridOptions{Overscan: 2})
	require.NoError(t, g.Reset(context.Background()))

	for off := 0; off < 500; off += 7 {
		require.NoError(t, g.SetViewport(off, 30))
		assert.LessOrEqual(t, len(g.Items()), 30+2*2)
		g.Cache().Drain()
	}
	assert.LessOrEqual(t, g.pool.Allocated(), 34)
}

func TestGridResetCountUnavailable(t *testing.T) {
	p := newFakeProvider(100)
	p.countErr = errors.New("offline")
	g, rec := newTestGrid(t, p, GridOptions{})

	err := g.Reset(context.Background())
	assert.ErrorIs(t, err, ErrCountUnavailable)
	assert.Zero(t, g.Count())
	assert.Empty(t, g.Items())
	require.Len(t, rec.failures, 1)
	assert.ErrorIs(t, rec.failures[0], ErrCountUnavailable)

	p.mx.Lock()
	p.countErr = nil
	p.mx.Unlock()
	require.NoError(t, g.SetViewport(0, 10))
	require.NoError(t, g.Reset(context.Background()))
	assert.Equal(t, 100, g.Count())
	assert.Len(t, g.Items(), 12)
}

func TestGridFetchFailureKeepsPlaceholders(t *testing.T) {
	p := newFakeProvider(100)
	p.err = errors.New("boom")
	g, rec := newTestGrid(t, p, GridOptions{Overscan: 1, Prefetch: 1})
	require.NoError(t, g.Reset(context.Background()))
	require.NoError(t, g.SetViewport(0, 5))

	nextN(t, g.Cache(), 2)
	assert.Equal(t, 1, rec.failureCount())
	for _, c := range g.Items() {
		assert.True(t, c.Item().Placeholder())
		assert.True(t, c.Item().Failed)
	}
}

func TestGridSortInvalidates(t *testing.T) {
	m := dao.NewMemory(model1.Header{
		{Name: "NAME", Attrs: model1.Attrs{Sortable: true, Editable: true}},
	}, model1.Rows{
		{Fields: model1.Fields{"c"}},
		{Fields: model1.Fields{"a"}},
		{Fields: model1.Fields{"b"}},
	})
	g, rec := newTestGrid(t, m, GridOptions{})
	ctx := context.Background()
	require.NoError(t, g.Reset(ctx))
	require.NoError(t, g.SetViewport(0, 10))
	nextN(t, g.Cache(), 1)
	assert.Equal(t, "c", g.Item(0).Row.Fields[0])

	require.NoError(t, g.Sort(ctx, "NAME", model1.Ascending))
	assert.Equal(t, uint64(2), g.Cache().Epoch())
	assert.Equal(t, model1.Loading, g.Item(0).State)
	nextN(t, g.Cache(), 1)
	assert.Equal(t, "a", g.Item(0).Row.Fields[0])
	assert.Equal(t, "c", g.Item(2).Row.Fields[0])
	assert.NotEmpty(t, rec.resets)
}

func TestGridProviderEvents(t *testing.T) {
	m := dao.NewPeople(20, 1)
	g, _ := newTestGrid(t, m, GridOptions{SelectionMode: selection.Multiple})
	ctx := context.Background()
	require.NoError(t, g.Reset(ctx))
	require.NoError(t, g.SetViewport(0, 10))
	settle(t, g.Cache())
	require.NoError(t, g.Selection().SelectRange(2, 4))

	m.Append(model1.Row{Fields: model1.Fields{"Zed", "40", "Oslo", "1d", "1 KiB", ""}})
	g.HandleEvent(ctx, <-m.Events())
	assert.Equal(t, 21, g.Count())
	assert.Zero(t, g.Selection().Len())
	assert.Equal(t, 21, g.Selection().Count())

	settle(t, g.Cache())
	require.NoError(t, m.SetValue(ctx, 1, "NAME", "Renamed"))
	g.HandleEvent(ctx, <-m.Events())
	assert.Equal(t, model1.Loading, g.Item(1).State)
	settle(t, g.Cache())
	assert.Equal(t, "Renamed", g.Item(1).Row.Fields[0])
}

func TestGridSetValueAndForwardEdit(t *testing.T) {
	m := dao.NewPeople(5, 1)
	g, rec := newTestGrid(t, m, GridOptions{})
	ctx := context.Background()
	require.NoError(t, g.Reset(ctx))
	require.NoError(t, g.SetViewport(0, 5))
	nextN(t, g.Cache(), 1)

	prev := g.Item(0).Row.Fields[0]
	old, err := g.SetValue(ctx, 0, "NAME", "Grace Hopper")
	require.NoError(t, err)
	assert.Equal(t, prev, old)

	_, err = g.SetValue(ctx, 0, "TENURE", "1d")
	assert.Error(t, err)
	_, err = g.SetValue(ctx, 0, "NOPE", "1d")
	assert.ErrorIs(t, err, dao.ErrNoColumn)

	evt := EditEvent{Row: 0, Column: "NAME", Old: old, New: "Grace Hopper"}
	g.ForwardEdit(evt)
	assert.Equal(t, []EditEvent{evt}, rec.edits)
}

func TestGridReadOnlyProvider(t *testing.T) {
	p := newFakeProvider(10)
	g, _ := newTestGrid(t, p, GridOptions{})

	_, err := g.SetValue(context.Background(), 0, "VALUE", "x")
	assert.ErrorIs(t, err, dao.ErrReadOnly)
}

func TestGridWatch(t *testing.T) {
	m := dao.NewPeople(1_000, 3)
	g, _ := newTestGrid(t, m, GridOptions{RefreshRate: 10 * time.Millisecond})

	var mx sync.Mutex
	dispatch := func(f func()) {
		mx.Lock()
		defer mx.Unlock()
		f()
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mx.Lock()
	require.NoError(t, g.SetViewport(0, 20))
	mx.Unlock()
	require.NoError(t, g.Watch(ctx, dispatch))

	assert.Eventually(t, func() bool {
		mx.Lock()
		defer mx.Unlock()
		for _, c := range g.Items() {
			if c.Item().State != model1.Present {
				return false
			}
		}
		return len(g.Items()) > 0
	}, 2*time.Second, 10*time.Millisecond)

	m.Append(model1.Row{Fields: model1.Fields{"Zed", "40", "Oslo", "1d", "1 KiB", ""}})
	assert.Eventually(t, func() bool {
		return g.Count() == 1_001
	}, 2*time.Second, 10*time.Millisecond)
	g.Stop()
}

func TestGridResumeKeepsSelection(t *testing.T) {
	m := dao.NewPeople(100, 5)
	g, _ := newTestGrid(t, m, GridOptions{SelectionMode: selection.Multiple})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, g.SetViewport(0, 10))
	require.NoError(t, g.Watch(ctx, nil))
	require.NoError(t, g.Selection().SelectRange(1, 3))
	g.Stop()

	require.NoError(t, g.Resume(ctx, nil))
	assert.Equal(t, 3, g.Selection().Len())
	assert.Equal(t, 100, g.Count())
	assert.Eventually(t, func() bool {
		return g.Item(0).State == model1.Present
	}, 2*time.Second, 10*time.Millisecond)
	g.Stop()
}

func TestGridCountsOutsideDispatch(t *testing.T) {
	p := newFakeProvider(50)
	p.countErr = errors.New("offline")
	var dispatching atomic.Bool
	var counts, blocked atomic.Int32
	p.onCount = func() {
		counts.Add(1)
		if dispatching.Load() {
			blocked.Add(1)
		}
	}
	g, _ := newTestGrid(t, p, GridOptions{RefreshRate: 10 * time.Millisecond})

	var mx sync.Mutex
	dispatch := func(f func()) {
		mx.Lock()
		defer mx.Unlock()
		dispatching.Store(true)
		defer dispatching.Store(false)
		f()
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, g.Watch(ctx, dispatch))

	assert.Eventually(t, func() bool {
		return counts.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, g.Count())

	p.setCount(50, nil)
	assert.Eventually(t, func() bool {
		return g.Count() == 50
	}, 2*time.Second, 10*time.Millisecond)

	p.setCount(60, nil)
	p.events <- model1.ChangeEvent{Kind: model1.ChangeItemsAdded, Start: 50, Count: 10}
	assert.Eventually(t, func() bool {
		return g.Count() == 60
	}, 2*time.Second, 10*time.Millisecond)
	g.Stop()

	assert.Zero(t, blocked.Load())
}

func TestGridReload(t *testing.T) {
	p := reloadProvider{fakeProvider: newFakeProvider(10)}
	g, _ := newTestGrid(t, &p, GridOptions{})
	ctx := context.Background()
	require.NoError(t, g.Reset(ctx))

	p.setCount(12, nil)
	require.NoError(t, g.Reload(ctx))
	assert.Equal(t, int32(1), p.reloads.Load())
	g.HandleEvent(ctx, <-p.Events())
	assert.Equal(t, 12, g.Count())
}

func TestGridReloadFallsBackToRefresh(t *testing.T) {
	p := newFakeProvider(10)
	g, _ := newTestGrid(t, p, GridOptions{})
	ctx := context.Background()
	require.NoError(t, g.Reset(ctx))
	require.NoError(t, g.SetViewport(0, 5))
	settle(t, g.Cache())
	require.Equal(t, model1.Present, g.Item(0).State)

	require.NoError(t, g.Reload(ctx))
	assert.Equal(t, model1.Loading, g.Item(0).State)
	settle(t, g.Cache())
	assert.Equal(t, model1.Present, g.Item(0).State)
}
