package dao

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rowscope/rowscope/internal/model1"
)

const eventBuffer = 64

// Base carries the header and change stream shared by providers.
type Base struct {
	header   model1.Header
	events   chan model1.ChangeEvent
	done     chan struct{}
	closed   bool
	stopOnce sync.Once
	emx      sync.RWMutex

	resetPending bool
	delivering   bool
	omx          sync.Mutex
}

func (b *Base) init(h model1.Header) {
	b.header = h
	b.events = make(chan model1.ChangeEvent, eventBuffer)
	b.done = make(chan struct{})
}

// Header returns the row header.
func (b *Base) Header() model1.Header {
	return b.header.Clone()
}

// Events streams structural changes. The channel closes with the provider.
func (b *Base) Events() <-chan model1.ChangeEvent {
	return b.events
}

// Close closes the change stream.
func (b *Base) Close() error {
	b.stopOnce.Do(func() { close(b.done) })

	b.emx.Lock()
	defer b.emx.Unlock()

	if !b.closed {
		b.closed = true
		close(b.events)
	}
	return nil
}

func (b *Base) isClosed() bool {
	b.emx.RLock()
	defer b.emx.RUnlock()
	return b.closed
}

// emit never blocks. When the stream is full the event is folded into a
// Reset delivered as soon as there is room.
func (b *Base) emit(evt model1.ChangeEvent) {
	b.emx.RLock()
	defer b.emx.RUnlock()

	if b.closed {
		return
	}
	select {
	case b.events <- evt:
		return
	default:
	}

	b.omx.Lock()
	b.resetPending = true
	start := !b.delivering
	b.delivering = true
	b.omx.Unlock()
	if start {
		slog.Warn("Change stream full, coalescing into reset", "kind", evt.Kind, "start", evt.Start, "count", evt.Count)
		go b.deliverResets()
	}
}

// deliverResets sends one Reset per overflow burst. Events dropped while a
// Reset is waiting trigger another once it is delivered.
func (b *Base) deliverResets() {
	for {
		b.omx.Lock()
		if !b.resetPending {
			b.delivering = false
			b.omx.Unlock()
			return
		}
		b.resetPending = false
		b.omx.Unlock()

		if !b.sendReset() {
			return
		}
	}
}

func (b *Base) sendReset() bool {
	b.emx.RLock()
	defer b.emx.RUnlock()

	if b.closed {
		return false
	}
	select {
	case b.events <- model1.ChangeEvent{Kind: model1.ChangeReset}:
		return true
	case <-b.done:
		return false
	}
}

// rowStore holds rows in index order for providers backed by memory.
type rowStore struct {
	rows model1.Rows
	mx   sync.RWMutex
}

func (s *rowStore) set(rr model1.Rows) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.rows = rr
}

// Len returns the number of rows.
func (s *rowStore) Len() int {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return len(s.rows)
}

// At returns a copy of the row at i.
func (s *rowStore) At(i int) model1.Row {
	s.mx.RLock()
	defer s.mx.RUnlock()

	if i < 0 || i >= len(s.rows) {
		return model1.Row{}
	}
	return s.rows[i].Clone()
}

func (s *rowStore) slice(start, length int) (model1.Rows, error) {
	if start < 0 || length < 0 {
		return nil, fmt.Errorf("%w: start=%d length=%d", ErrOutOfRange, start, length)
	}
	s.mx.RLock()
	defer s.mx.RUnlock()

	if start >= len(s.rows) {
		return model1.Rows{}, nil
	}
	end := min(start+length, len(s.rows))

	return s.rows[start:end].Clone(), nil
}

// Reorder permutes rows so that new position i holds old row order[i].
func (s *rowStore) Reorder(order []int) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	if len(order) != len(s.rows) {
		return fmt.Errorf("reorder expects %d positions, got %d", len(s.rows), len(order))
	}
	out := make(model1.Rows, len(s.rows))
	seen := make([]bool, len(s.rows))
	for i, o := range order {
		if o < 0 || o >= len(s.rows) || seen[o] {
			return fmt.Errorf("reorder: invalid permutation at %d", i)
		}
		seen[o] = true
		out[i] = s.rows[o]
	}
	s.rows = out

	return nil
}
