package dao

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"time"

	"github.com/rowscope/rowscope/internal/model1"
	"github.com/rowscope/rowscope/internal/render"
)

const defaultMemoryRows = 100_000

// errInjected flags a simulated fetch failure.
var errInjected = errors.New("simulated fetch failure")

func init() {
	RegisterSource("mem", openMemory)
}

// openMemory serves mem://?rows=N&seed=S&latency=D&fail=P.
func openMemory(_ context.Context, _ Factory, u *url.URL) (Provider, error) {
	q := u.Query()
	n, seed := defaultMemoryRows, uint64(1)
	var err error
	if v := q.Get("rows"); v != "" {
		if n, err = strconv.Atoi(v); err != nil || n < 0 {
			return nil, fmt.Errorf("mem rows %q: invalid count", v)
		}
	}
	if v := q.Get("seed"); v != "" {
		if seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return nil, fmt.Errorf("mem seed %q: %w", v, err)
		}
	}

	var opts []MemoryOption
	if v := q.Get("latency"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("mem latency %q: %w", v, err)
		}
		opts = append(opts, WithLatency(d))
	}
	if v := q.Get("fail"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 || p > 1 {
			return nil, fmt.Errorf("mem fail %q: expecting a ratio in [0,1]", v)
		}
		opts = append(opts, WithFailRate(p))
	}

	return NewPeople(n, seed, opts...), nil
}

// MemoryOption configures a Memory provider.
type MemoryOption func(*Memory)

// WithLatency delays every fetch.
func WithLatency(d time.Duration) MemoryOption {
	return func(m *Memory) {
		m.latency = d
	}
}

// WithFailRate fails the given ratio of fetches.
func WithFailRate(p float64) MemoryOption {
	return func(m *Memory) {
		m.failRate = p
	}
}

// Memory serves an in-memory row sequence. Ordering is applied by the
// caller through the Sequence capability.
type Memory struct {
	Base
	rowStore

	nextSeq  int64
	latency  time.Duration
	failRate float64
}

// NewMemory returns a provider over rows, stamping insertion ordinals.
func NewMemory(h model1.Header, rows model1.Rows, opts ...MemoryOption) *Memory {
	m := Memory{}
	m.init(h)
	for i := range rows {
		rows[i].Seq = int64(i)
		if rows[i].ID == "" {
			rows[i].ID = strconv.Itoa(i)
		}
	}
	m.rows, m.nextSeq = rows, int64(len(rows))
	for _, o := range opts {
		o(&m)
	}

	return &m
}

// NewPeople generates n deterministic people records.
func NewPeople(n int, seed uint64, opts ...MemoryOption) *Memory {
	var (
		r      = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		people render.People
		rows   = make(model1.Rows, n)
	)
	for i := range rows {
		rows[i].ID = "p" + strconv.Itoa(i)
		_ = people.Render(render.Person{
			Name:   firstNames[r.IntN(len(firstNames))] + " " + lastNames[r.IntN(len(lastNames))],
			Age:    18 + r.IntN(70),
			City:   cities[r.IntN(len(cities))],
			Tenure: time.Duration(r.Int64N(int64(20*365*24*time.Hour))) + time.Minute,
			Quota:  r.Int64N(1 << 40),
		}, &rows[i])
	}

	return NewMemory(people.Header(), rows, opts...)
}

// Count returns the number of rows.
func (m *Memory) Count(context.Context) (int, error) {
	if m.isClosed() {
		return 0, ErrClosed
	}
	return m.Len(), nil
}

// FetchRange returns a copy of rows [start, start+length).
func (m *Memory) FetchRange(ctx context.Context, start, length int) (model1.Rows, error) {
	if m.isClosed() {
		return nil, ErrClosed
	}
	if m.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.latency):
		}
	}
	if m.failRate > 0 && rand.Float64() < m.failRate {
		return nil, fmt.Errorf("fetch [%d,+%d): %w", start, length, errInjected)
	}

	return m.slice(start, length)
}

// SetValue updates one field and announces the replacement.
func (m *Memory) SetValue(_ context.Context, index int, column, value string) error {
	col, ok := m.header.IndexOf(column, true)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoColumn, column)
	}
	if !m.header[col].Editable {
		return fmt.Errorf("%s: %w", column, ErrReadOnly)
	}

	m.mx.Lock()
	if index < 0 || index >= len(m.rows) {
		m.mx.Unlock()
		return fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	m.rows[index] = m.rows[index].Clone()
	m.rows[index].Fields[col] = value
	m.mx.Unlock()

	m.emit(model1.ChangeEvent{Kind: model1.ChangeItemsReplaced, Start: index, Count: 1})

	return nil
}

// Append adds rows at the tail.
func (m *Memory) Append(rows ...model1.Row) {
	if len(rows) == 0 {
		return
	}
	m.mx.Lock()
	start := len(m.rows)
	for _, r := range rows {
		r.Seq = m.nextSeq
		if r.ID == "" {
			r.ID = strconv.FormatInt(m.nextSeq, 10)
		}
		m.nextSeq++
		m.rows = append(m.rows, r)
	}
	m.mx.Unlock()

	m.emit(model1.ChangeEvent{Kind: model1.ChangeItemsAdded, Start: start, Count: len(rows)})
}

// Remove deletes count rows starting at start.
func (m *Memory) Remove(start, count int) error {
	m.mx.Lock()
	if start < 0 || count < 0 || start+count > len(m.rows) {
		m.mx.Unlock()
		return fmt.Errorf("%w: start=%d count=%d", ErrOutOfRange, start, count)
	}
	m.rows = append(m.rows[:start:start], m.rows[start+count:]...)
	m.mx.Unlock()

	m.emit(model1.ChangeEvent{Kind: model1.ChangeItemsRemoved, Start: start, Count: count})

	return nil
}

// Replace swaps the whole row set.
func (m *Memory) Replace(rows model1.Rows) {
	m.mx.Lock()
	for i := range rows {
		rows[i].Seq = int64(i)
	}
	m.rows, m.nextSeq = rows, int64(len(rows))
	m.mx.Unlock()

	m.emit(model1.ChangeEvent{Kind: model1.ChangeReset})
}

var (
	firstNames = []string{"Ada", "Alan", "Barbara", "Claude", "Dennis", "Edsger", "Frances", "Grace", "Hedy", "Ken", "Linus", "Margaret", "Niklaus", "Radia", "Rob", "Sophie", "Tim", "Yukihiro"}
	lastNames  = []string{"Allen", "Hamilton", "Hopper", "Kernighan", "Knuth", "Lamarr", "Liskov", "Lovelace", "Perlman", "Pike", "Ritchie", "Shannon", "Thompson", "Turing", "Wilson", "Wirth"}
	cities     = []string{"Amsterdam", "Berlin", "Boston", "Cairo", "Lagos", "Lima", "Lisbon", "Montreal", "Osaka", "Oslo", "Paris", "Sydney", "Tokyo", "Zurich"}
)
