package model

import (
	"log/slog"
	"sync"

	"github.com/rowscope/rowscope/internal/index"
)

// Direction represents the scroll direction.
type Direction int

const (
	DirNone Direction = iota
	DirForward
	DirBackward
)

func (d Direction) String() string {
	switch d {
	case DirForward:
		return "forward"
	case DirBackward:
		return "backward"
	default:
		return "none"
	}
}

// Prefetcher requests rows ahead of the scroll direction.
type Prefetcher struct {
	cache     *WindowCache
	lookahead int
	last      index.Range
	dir       Direction
	mx        sync.Mutex
}

// NewPrefetcher returns a prefetcher feeding cache. A lookahead of zero
// prefetches one visible range worth of rows.
func NewPrefetcher(c *WindowCache, lookahead int) *Prefetcher {
	return &Prefetcher{cache: c, lookahead: lookahead, last: index.Empty}
}

// Direction returns the last observed scroll direction.
func (p *Prefetcher) Direction() Direction {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.dir
}

// Reset forgets scroll history.
func (p *Prefetcher) Reset() {
	p.mx.Lock()
	defer p.mx.Unlock()
	p.last, p.dir = index.Empty, DirNone
}

// Update records the new visible range and schedules the lookahead window.
// Prefetches lying outside r are abandoned when the direction reverses or
// the view jumps. It returns the scheduled lookahead.
func (p *Prefetcher) Update(r index.Range) index.Range {
	p.mx.Lock()
	defer p.mx.Unlock()

	if r.IsEmpty() {
		return index.Empty
	}

	dir := p.dir
	switch {
	case p.last.IsEmpty():
	case r.First > p.last.First:
		dir = DirForward
	case r.First < p.last.First:
		dir = DirBackward
	}
	jumped := !p.last.IsEmpty() && !r.Intersects(p.last)
	reversed := p.dir != DirNone && dir != p.dir
	if jumped || reversed {
		if n := p.cache.CancelPrefetchOutside(r); n > 0 {
			slog.Debug("Prefetch cancelled", "count", n, "range", r, "direction", dir)
		}
	}
	p.last, p.dir = r, dir

	n := p.lookahead
	if n <= 0 {
		n = r.Len()
	}
	var ahead index.Range
	if dir == DirBackward {
		ahead = index.Range{First: r.First - n, Last: r.First - 1}
	} else {
		ahead = index.Range{First: r.Last + 1, Last: r.Last + n}
	}
	ahead = ahead.Clamp(p.cache.Count())
	if !ahead.IsEmpty() {
		p.cache.Prefetch(ahead)
	}

	return ahead
}
