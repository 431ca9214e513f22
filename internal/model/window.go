package model

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rowscope/rowscope/internal/index"
	"github.com/rowscope/rowscope/internal/model1"
)

const (
	// DefaultFetchWorkers is the default number of concurrent fetches.
	DefaultFetchWorkers = 4

	completionBuffer = 64
)

type entry struct {
	row   model1.Row
	state model1.EntryState
}

type fetchRequest struct {
	FetchRange

	epoch    uint64
	prefetch bool
	ctx      context.Context
	cancel   context.CancelFunc
}

type completion struct {
	req  *fetchRequest
	rows model1.Rows
	err  error
}

// CacheStats tracks fetch activity.
type CacheStats struct {
	Issued    int
	Completed int
	Failed    int
	Discarded int
	Cancelled int
}

// CacheOption configures a WindowCache.
type CacheOption func(*WindowCache)

// WithWorkers sets the number of fetch workers.
func WithWorkers(n int) CacheOption {
	return func(c *WindowCache) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithFetchTimeout bounds each fetch once a worker starts it.
func WithFetchTimeout(d time.Duration) CacheOption {
	return func(c *WindowCache) {
		c.timeout = d
	}
}

// WindowCache holds fetched rows keyed by index and fills gaps in the
// background. Fetches run on worker goroutines; their results queue up until
// the consumer applies them with Next, Drain or Run.
type WindowCache struct {
	fetcher Fetcher
	workers int
	timeout time.Duration

	count           int
	epoch           uint64
	entries         map[int]entry
	failed          map[int]struct{}
	inflight        map[int]*fetchRequest
	pending         []FetchRange
	pendingPrefetch []FetchRange
	stats           CacheStats
	listeners       []CacheListener

	queue  *workQueue
	done   chan completion
	ctx    context.Context
	stopFn context.CancelFunc
	wg     sync.WaitGroup
	mx     sync.RWMutex
}

// NewWindowCache returns a cache over fetcher and starts its workers.
func NewWindowCache(f Fetcher, opts ...CacheOption) *WindowCache {
	c := WindowCache{
		fetcher:  f,
		workers:  DefaultFetchWorkers,
		entries:  make(map[int]entry),
		failed:   make(map[int]struct{}),
		inflight: make(map[int]*fetchRequest),
		queue:    newWorkQueue(),
		done:     make(chan completion, completionBuffer),
	}
	for _, o := range opts {
		o(&c)
	}
	c.ctx, c.stopFn = context.WithCancel(context.Background())
	for range c.workers {
		c.wg.Add(1)
		go c.worker()
	}

	return &c
}

// Close stops the workers. Pending completions are dropped.
func (c *WindowCache) Close() {
	c.stopFn()
	c.queue.close()
	c.wg.Wait()
}

// AddListener registers a cache listener.
func (c *WindowCache) AddListener(l CacheListener) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.listeners = append(c.listeners, l)
}

// RemoveListener unregisters a cache listener.
func (c *WindowCache) RemoveListener(l CacheListener) {
	c.mx.Lock()
	defer c.mx.Unlock()

	for i, listener := range c.listeners {
		if listener == l {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// Count returns the index space size.
func (c *WindowCache) Count() int {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.count
}

// SetCount resizes the index space, dropping entries past the end.
func (c *WindowCache) SetCount(n int) {
	c.mx.Lock()
	defer c.mx.Unlock()

	n = max(n, 0)
	if n < c.count {
		for i := range c.entries {
			if i >= n {
				delete(c.entries, i)
			}
		}
		for i := range c.failed {
			if i >= n {
				delete(c.failed, i)
			}
		}
	}
	c.count = n
}

// Epoch returns the current invalidation generation.
func (c *WindowCache) Epoch() uint64 {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.epoch
}

// Stats returns a snapshot of fetch counters.
func (c *WindowCache) Stats() CacheStats {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.stats
}

// InFlight returns outstanding fetches ordered by start.
func (c *WindowCache) InFlight() []FetchRange {
	c.mx.RLock()
	defer c.mx.RUnlock()

	ff := make([]FetchRange, 0, len(c.inflight))
	for _, r := range c.inflight {
		ff = append(ff, r.FetchRange)
	}
	sort.Slice(ff, func(i, j int) bool { return ff[i].Start < ff[j].Start })

	return ff
}

// State returns the entry state at i.
func (c *WindowCache) State(i int) model1.EntryState {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.entries[i].state
}

// Peek returns the item at i without scheduling a fetch.
func (c *WindowCache) Peek(i int) model1.Item {
	c.mx.RLock()
	defer c.mx.RUnlock()

	e := c.entries[i]
	_, failed := c.failed[i]

	return model1.Item{Index: i, Row: e.row, State: e.state, Failed: failed}
}

func (c *WindowCache) checkRange(r index.Range) error {
	if r.IsEmpty() {
		return nil
	}
	if r.First < 0 || r.Last >= c.count {
		return fmt.Errorf("%w: %s with count %d", ErrInvalidRange, r, c.count)
	}
	return nil
}

// ReadRange reads [start, start+length).
func (c *WindowCache) ReadRange(start, length int) ([]model1.Item, error) {
	if start < 0 || length < 0 {
		return nil, fmt.Errorf("%w: start=%d length=%d", ErrInvalidRange, start, length)
	}
	return c.Read(index.NewRange(start, length))
}

// Read returns one item per index in r. Present entries carry their row;
// Absent and Loading entries come back as placeholders. Absent runs are
// recorded and fetched on the next Flush. Read never blocks on a fetch.
func (c *WindowCache) Read(r index.Range) ([]model1.Item, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if err := c.checkRange(r); err != nil {
		return nil, err
	}
	items := make([]model1.Item, 0, r.Len())
	c.pending = c.scan(r, c.pending, func(i int, e entry, failed bool) {
		items = append(items, model1.Item{Index: i, Row: e.row, State: e.state, Failed: failed})
	})
	c.promote(r)

	return items, nil
}

// promote turns prefetches now overlapping a visible read into visible
// fetches so their failures are reported.
func (c *WindowCache) promote(r index.Range) {
	for _, req := range c.inflight {
		if !req.prefetch || !r.Intersects(req.Range()) {
			continue
		}
		req.prefetch = false
		c.queue.promote(req)
	}
}

// Prefetch records Absent runs of r, clamped to the index space, as
// best-effort fetches.
func (c *WindowCache) Prefetch(r index.Range) {
	c.mx.Lock()
	defer c.mx.Unlock()

	r = r.Clamp(c.count)
	if r.IsEmpty() {
		return
	}
	c.pendingPrefetch = c.scan(r, c.pendingPrefetch, nil)
}

// scan walks r once, coalescing consecutive Absent indices into runs.
func (c *WindowCache) scan(r index.Range, runs []FetchRange, fn func(int, entry, bool)) []FetchRange {
	runStart := -1
	for i := r.First; i <= r.Last; i++ {
		e, ok := c.entries[i]
		if fn != nil {
			_, failed := c.failed[i]
			fn(i, e, failed)
		}
		switch {
		case !ok && runStart < 0:
			runStart = i
		case ok && runStart >= 0:
			runs = append(runs, FetchRange{Start: runStart, Length: i - runStart})
			runStart = -1
		}
	}
	if runStart >= 0 {
		runs = append(runs, FetchRange{Start: runStart, Length: r.Last + 1 - runStart})
	}

	return runs
}

// Flush issues fetches for runs recorded since the last flush. Overlapping
// and adjacent runs merge into one Fetch Range; indices already Loading or
// Present are skipped.
func (c *WindowCache) Flush() []FetchRange {
	c.mx.Lock()
	defer c.mx.Unlock()

	var issued []FetchRange
	for _, batch := range []struct {
		runs     []FetchRange
		prefetch bool
	}{
		{runs: c.pending, prefetch: false},
		{runs: c.pendingPrefetch, prefetch: true},
	} {
		for _, run := range mergeRuns(batch.runs) {
			for _, fr := range c.scan(run.Range().Clamp(c.count), nil, nil) {
				if c.overlapsInFlight(fr) {
					continue
				}
				c.issue(fr, batch.prefetch)
				issued = append(issued, fr)
			}
		}
	}
	c.pending, c.pendingPrefetch = c.pending[:0], c.pendingPrefetch[:0]

	return issued
}

func (c *WindowCache) overlapsInFlight(fr FetchRange) bool {
	for _, req := range c.inflight {
		if req.Start < fr.End() && fr.Start < req.End() {
			slog.Warn("Fetch overlaps in-flight range, skipping", "range", fr, "inflight", req.FetchRange)
			return true
		}
	}
	return false
}

func (c *WindowCache) issue(fr FetchRange, prefetch bool) {
	req := fetchRequest{
		FetchRange: fr,
		epoch:      c.epoch,
		prefetch:   prefetch,
	}
	req.ctx, req.cancel = context.WithCancel(c.ctx)
	for i := fr.Start; i < fr.End(); i++ {
		c.entries[i] = entry{state: model1.Loading}
	}
	c.inflight[fr.Start] = &req
	c.stats.Issued++
	c.queue.push(&req)
}

// CancelPrefetchOutside abandons in-flight prefetches lying entirely outside r.
func (c *WindowCache) CancelPrefetchOutside(r index.Range) int {
	c.mx.Lock()
	defer c.mx.Unlock()

	var n int
	for start, req := range c.inflight {
		if !req.prefetch || r.Intersects(req.Range()) {
			continue
		}
		req.cancel()
		delete(c.inflight, start)
		c.clearLoading(req.FetchRange)
		c.stats.Cancelled++
		n++
	}
	kept := c.pendingPrefetch[:0]
	for _, fr := range c.pendingPrefetch {
		if r.Intersects(fr.Range()) {
			kept = append(kept, fr)
		}
	}
	c.pendingPrefetch = kept

	return n
}

func (c *WindowCache) clearLoading(fr FetchRange) {
	for i := fr.Start; i < fr.End(); i++ {
		if c.entries[i].state == model1.Loading {
			delete(c.entries, i)
		}
	}
}

// Invalidate drops every entry and starts a new epoch. Results of fetches
// still in flight are discarded when they arrive.
func (c *WindowCache) Invalidate() {
	c.mx.Lock()
	c.epoch++
	for _, req := range c.inflight {
		if req.prefetch {
			req.cancel()
		}
	}
	c.inflight = make(map[int]*fetchRequest)
	c.entries = make(map[int]entry)
	c.failed = make(map[int]struct{})
	c.pending, c.pendingPrefetch = nil, nil
	c.mx.Unlock()

	c.fireReset()
}

// InvalidateRange drops entries in [start, start+count) so the next read
// refetches them. In-flight fetches overlapping the range are abandoned.
func (c *WindowCache) InvalidateRange(start, count int) {
	c.mx.Lock()
	r := index.NewRange(start, count).Clamp(c.count)
	for s, req := range c.inflight {
		if !r.Intersects(req.Range()) {
			continue
		}
		if req.prefetch {
			req.cancel()
		}
		delete(c.inflight, s)
		c.clearLoading(req.FetchRange)
	}
	for i := r.First; i <= r.Last; i++ {
		delete(c.entries, i)
		delete(c.failed, i)
	}
	c.mx.Unlock()

	if !r.IsEmpty() {
		c.fireItemsReplaced(r.First, r.Len())
	}
}

// Next applies one completion, blocking until one is ready.
func (c *WindowCache) Next(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case comp := <-c.done:
		c.apply(comp)
		return nil
	}
}

// Drain applies every completion ready now and returns how many it saw.
func (c *WindowCache) Drain() int {
	var n int
	for {
		select {
		case comp := <-c.done:
			c.apply(comp)
			n++
		default:
			return n
		}
	}
}

// Run applies completions until ctx is done. When dispatch is set each
// apply is handed to it, e.g. to run on a UI event loop.
func (c *WindowCache) Run(ctx context.Context, dispatch func(func())) {
	for {
		select {
		case <-ctx.Done():
			return
		case comp := <-c.done:
			if dispatch == nil {
				c.apply(comp)
				continue
			}
			dispatch(func() { c.apply(comp) })
		}
	}
}

func (c *WindowCache) apply(comp completion) {
	req := comp.req
	defer req.cancel()

	c.mx.Lock()
	if cur, ok := c.inflight[req.Start]; !ok || cur != req || req.epoch != c.epoch {
		c.stats.Discarded++
		c.mx.Unlock()
		slog.Debug("Discarding stale fetch", "range", req.FetchRange, "epoch", req.epoch)
		return
	}
	delete(c.inflight, req.Start)

	if comp.err != nil {
		c.clearLoading(req.FetchRange)
		if req.prefetch {
			c.stats.Discarded++
			c.mx.Unlock()
			slog.Debug("Prefetch failed", "range", req.FetchRange, "error", comp.err)
			return
		}
		for i := req.Start; i < req.End(); i++ {
			c.failed[i] = struct{}{}
		}
		c.stats.Failed++
		c.mx.Unlock()
		slog.Warn("Fetch failed", "range", req.FetchRange, "error", comp.err)
		c.fireFetchFailed(&FetchError{Range: req.FetchRange, Cause: comp.err})
		return
	}

	n := min(len(comp.rows), req.Length)
	for k := range n {
		c.entries[req.Start+k] = entry{row: comp.rows[k], state: model1.Present}
		delete(c.failed, req.Start+k)
	}
	if n < req.Length {
		c.clearLoading(FetchRange{Start: req.Start + n, Length: req.Length - n})
	}
	c.stats.Completed++
	c.mx.Unlock()

	if n > 0 {
		c.fireItemsReplaced(req.Start, n)
	}
}

func (c *WindowCache) worker() {
	defer c.wg.Done()

	for {
		req, ok := c.queue.pop()
		if !ok {
			return
		}
		comp := completion{req: req}
		if comp.err = req.ctx.Err(); comp.err == nil {
			comp.rows, comp.err = c.fetch(req)
		}
		select {
		case c.done <- comp:
		case <-c.ctx.Done():
			return
		}
	}
}

// fetch runs one request. The timeout starts when a worker picks it up.
func (c *WindowCache) fetch(req *fetchRequest) (model1.Rows, error) {
	ctx := req.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	return c.fetcher.FetchRange(ctx, req.Start, req.Length)
}

func (c *WindowCache) snapshotListeners() []CacheListener {
	c.mx.RLock()
	defer c.mx.RUnlock()

	ll := make([]CacheListener, len(c.listeners))
	copy(ll, c.listeners)

	return ll
}

func (c *WindowCache) fireItemsReplaced(start, count int) {
	for _, l := range c.snapshotListeners() {
		l.ItemsReplaced(start, count)
	}
}

func (c *WindowCache) fireReset() {
	for _, l := range c.snapshotListeners() {
		l.CacheReset()
	}
}

func (c *WindowCache) fireFetchFailed(err *FetchError) {
	for _, l := range c.snapshotListeners() {
		l.FetchFailed(err)
	}
}

// mergeRuns sorts runs and coalesces overlapping or adjacent ones.
func mergeRuns(runs []FetchRange) []FetchRange {
	if len(runs) < 2 {
		return runs
	}
	rr := make([]FetchRange, len(runs))
	copy(rr, runs)
	sort.Slice(rr, func(i, j int) bool { return rr[i].Start < rr[j].Start })

	out := rr[:1]
	for _, r := range rr[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End() {
			last.Length = max(last.End(), r.End()) - last.Start
			continue
		}
		out = append(out, r)
	}

	return out
}
