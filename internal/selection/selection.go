package selection

import (
	"fmt"
	"sort"
	"sync"
)

// Mode represents a selection mode.
type Mode int

const (
	None Mode = iota
	Single
	Multiple
)

func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case Multiple:
		return "multiple"
	default:
		return "none"
	}
}

// ParseMode converts a config value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "none", "":
		return None, nil
	case "single":
		return Single, nil
	case "multiple", "multi":
		return Multiple, nil
	default:
		return None, fmt.Errorf("unknown selection mode %q", s)
	}
}

// Modifier represents the input modifier held during a click.
type Modifier int

const (
	ModNone Modifier = iota
	ModToggle
	ModRange
)

// Error represents a selection error.
type Error string

// ErrIndexOutOfRange flags an index outside [0, count).
const ErrIndexOutOfRange = Error("selection index out of range")

func (e Error) Error() string {
	return string(e)
}

// Listener represents a selection listener.
type Listener interface {
	// SelectionChanged notifies the selected set changed.
	SelectionChanged(added, removed []int)
}

// Model tracks selected indices.
type Model struct {
	mode      Mode
	selected  map[int]struct{}
	primary   int
	anchor    int
	count     int
	listeners []Listener
	mx        sync.RWMutex
}

// NewModel returns an empty selection over count indices.
func NewModel(m Mode, count int) *Model {
	return &Model{
		mode:     m,
		selected: make(map[int]struct{}),
		primary:  -1,
		anchor:   -1,
		count:    max(count, 0),
	}
}

// AddListener registers a selection listener.
func (m *Model) AddListener(l Listener) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.listeners = append(m.listeners, l)
}

// RemoveListener unregisters a selection listener.
func (m *Model) RemoveListener(l Listener) {
	m.mx.Lock()
	defer m.mx.Unlock()

	for i, lis := range m.listeners {
		if lis == l {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return
		}
	}
}

// Mode returns the current mode.
func (m *Model) Mode() Mode {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return m.mode
}

// SetMode switches modes. Switching to None clears the selection and
// switching to Single keeps only the primary index.
func (m *Model) SetMode(mode Mode) {
	m.mx.Lock()
	m.mode = mode
	var next map[int]struct{}
	switch mode {
	case None:
		next = map[int]struct{}{}
		m.primary, m.anchor = -1, -1
	case Single:
		next = map[int]struct{}{}
		if m.primary >= 0 {
			next[m.primary] = struct{}{}
		}
		m.anchor = m.primary
	default:
		next = m.selected
	}
	added, removed := m.swap(next)
	m.mx.Unlock()

	m.fire(added, removed)
}

// SetCount resizes the index space, dropping selected indices past the end.
func (m *Model) SetCount(n int) {
	m.mx.Lock()
	m.count = max(n, 0)
	next := make(map[int]struct{}, len(m.selected))
	for i := range m.selected {
		if i < m.count {
			next[i] = struct{}{}
		}
	}
	if m.primary >= m.count {
		m.primary = lowest(next)
	}
	if m.anchor >= m.count {
		m.anchor = -1
	}
	added, removed := m.swap(next)
	m.mx.Unlock()

	m.fire(added, removed)
}

// Count returns the index space size.
func (m *Model) Count() int {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return m.count
}

// IsSelected checks if i is selected.
func (m *Model) IsSelected(i int) bool {
	m.mx.RLock()
	defer m.mx.RUnlock()
	_, ok := m.selected[i]
	return ok
}

// Selected returns selected indices in ascending order.
func (m *Model) Selected() []int {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return sorted(m.selected)
}

// Len returns the number of selected indices.
func (m *Model) Len() int {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return len(m.selected)
}

// Primary returns the primary index or -1.
func (m *Model) Primary() int {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return m.primary
}

// Anchor returns the range anchor or -1.
func (m *Model) Anchor() int {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return m.anchor
}

func (m *Model) check(ii ...int) error {
	for _, i := range ii {
		if i < 0 || i >= m.count {
			return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, i, m.count)
		}
	}
	return nil
}

// Select replaces the selection with i.
func (m *Model) Select(i int) error {
	m.mx.Lock()
	if m.mode == None {
		m.mx.Unlock()
		return nil
	}
	if err := m.check(i); err != nil {
		m.mx.Unlock()
		return err
	}
	added, removed := m.selectLocked(i)
	m.mx.Unlock()

	m.fire(added, removed)
	return nil
}

func (m *Model) selectLocked(i int) ([]int, []int) {
	m.primary, m.anchor = i, i
	return m.swap(map[int]struct{}{i: {}})
}

// Toggle flips i. In Single mode toggling the sole selection clears it,
// any other index is selected.
func (m *Model) Toggle(i int) error {
	m.mx.Lock()
	if m.mode == None {
		m.mx.Unlock()
		return nil
	}
	if err := m.check(i); err != nil {
		m.mx.Unlock()
		return err
	}

	var added, removed []int
	_, on := m.selected[i]
	switch {
	case m.mode == Single && on:
		m.primary, m.anchor = -1, -1
		added, removed = m.swap(map[int]struct{}{})
	case m.mode == Single:
		added, removed = m.selectLocked(i)
	case on:
		delete(m.selected, i)
		removed = []int{i}
		if m.primary == i {
			m.primary = lowest(m.selected)
		}
	default:
		m.selected[i] = struct{}{}
		added = []int{i}
		m.primary, m.anchor = i, i
	}
	m.mx.Unlock()

	m.fire(added, removed)
	return nil
}

// SelectRange replaces the selection with the inclusive span between from
// and to. The anchor does not move. In Single mode it selects to.
func (m *Model) SelectRange(from, to int) error {
	m.mx.Lock()
	if m.mode == None {
		m.mx.Unlock()
		return nil
	}
	if err := m.check(from, to); err != nil {
		m.mx.Unlock()
		return err
	}
	added, removed := m.selectRangeLocked(from, to)
	m.mx.Unlock()

	m.fire(added, removed)
	return nil
}

func (m *Model) selectRangeLocked(from, to int) ([]int, []int) {
	if m.mode == Single {
		return m.selectLocked(to)
	}
	lo, hi := min(from, to), max(from, to)
	next := make(map[int]struct{}, hi-lo+1)
	for i := lo; i <= hi; i++ {
		next[i] = struct{}{}
	}
	m.primary = to

	return m.swap(next)
}

// SelectTo extends the selection from the anchor to i. Without an anchor it
// behaves like Select.
func (m *Model) SelectTo(i int) error {
	m.mx.Lock()
	if m.mode == None {
		m.mx.Unlock()
		return nil
	}
	if err := m.check(i); err != nil {
		m.mx.Unlock()
		return err
	}
	var added, removed []int
	if m.anchor < 0 {
		added, removed = m.selectLocked(i)
	} else {
		added, removed = m.selectRangeLocked(m.anchor, i)
	}
	m.mx.Unlock()

	m.fire(added, removed)
	return nil
}

// Click dispatches a pointer or key activation at i.
func (m *Model) Click(i int, mod Modifier) error {
	switch mod {
	case ModToggle:
		return m.Toggle(i)
	case ModRange:
		return m.SelectTo(i)
	default:
		return m.Select(i)
	}
}

// SelectAll selects every index. Multiple mode only.
func (m *Model) SelectAll() {
	m.mx.Lock()
	if m.mode != Multiple || m.count == 0 {
		m.mx.Unlock()
		return
	}
	added, removed := m.selectRangeLocked(0, m.count-1)
	m.primary = 0
	m.mx.Unlock()

	m.fire(added, removed)
}

// Clear drops the selection, anchor included.
func (m *Model) Clear() {
	m.mx.Lock()
	m.primary, m.anchor = -1, -1
	added, removed := m.swap(map[int]struct{}{})
	m.mx.Unlock()

	m.fire(added, removed)
}

// swap installs next and returns the diff against the previous set.
func (m *Model) swap(next map[int]struct{}) ([]int, []int) {
	var added, removed []int
	for i := range next {
		if _, ok := m.selected[i]; !ok {
			added = append(added, i)
		}
	}
	for i := range m.selected {
		if _, ok := next[i]; !ok {
			removed = append(removed, i)
		}
	}
	m.selected = next
	sort.Ints(added)
	sort.Ints(removed)

	return added, removed
}

func (m *Model) fire(added, removed []int) {
	if len(added) == 0 && len(removed) == 0 {
		return
	}
	m.mx.RLock()
	ll := make([]Listener, len(m.listeners))
	copy(ll, m.listeners)
	m.mx.RUnlock()

	for _, l := range ll {
		l.SelectionChanged(added, removed)
	}
}

func sorted(s map[int]struct{}) []int {
	ii := make([]int, 0, len(s))
	for i := range s {
		ii = append(ii, i)
	}
	sort.Ints(ii)

	return ii
}

func lowest(s map[int]struct{}) int {
	lo := -1
	for i := range s {
		if lo < 0 || i < lo {
			lo = i
		}
	}
	return lo
}
