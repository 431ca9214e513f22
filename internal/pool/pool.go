package pool

import (
	"sort"

	"github.com/rowscope/rowscope/internal/index"
	"github.com/rowscope/rowscope/internal/model1"
)

// Unbound marks a free container.
const Unbound = -1

// SelectedFunc reports whether an index is selected.
type SelectedFunc func(int) bool

// BindFunc populates a container for its index.
type BindFunc func(*Container)

// Container is a recyclable cell holder. It is bound to at most one index.
type Container struct {
	id       int
	index    int
	item     model1.Item
	editing  bool
	selected SelectedFunc

	// Payload carries presentation state owned by the caller. It is cleared
	// when the container is released.
	Payload any
}

// ID returns the container identity, stable across rebinds.
func (c *Container) ID() int {
	return c.id
}

// Index returns the bound index or Unbound.
func (c *Container) Index() int {
	return c.index
}

// IsBound checks if the container holds an index.
func (c *Container) IsBound() bool {
	return c.index != Unbound
}

// Item returns the item last set on the container.
func (c *Container) Item() model1.Item {
	return c.item
}

// SetItem stores the content for the bound index.
func (c *Container) SetItem(it model1.Item) {
	c.item = it
}

// Selected reports whether the bound index is selected.
func (c *Container) Selected() bool {
	if c.selected == nil || !c.IsBound() {
		return false
	}
	return c.selected(c.index)
}

// Editing checks if the container hosts an active edit.
func (c *Container) Editing() bool {
	return c.editing
}

// SetEditing flags an active edit on the container.
func (c *Container) SetEditing(b bool) {
	c.editing = b
}

func (c *Container) bind(i int, sel SelectedFunc) {
	c.index, c.selected = i, sel
	c.item = model1.Item{Index: i}
}

func (c *Container) clear() {
	c.index, c.selected = Unbound, nil
	c.item, c.editing, c.Payload = model1.Item{}, false, nil
}

// Stats tracks pool activity.
type Stats struct {
	Allocated int
	Reused    int
	Released  int
}

// Pool recycles containers across visible range changes. Free containers
// are reused last in, first out.
type Pool struct {
	bound    map[int]*Container
	free     []*Container
	all      int
	selected SelectedFunc
	stats    Stats
}

// New returns an empty pool. sel is handed to every bound container.
func New(sel SelectedFunc) *Pool {
	return &Pool{
		bound:    make(map[int]*Container),
		selected: sel,
	}
}

// Update rebinds the pool to r. Containers for indices leaving r are
// released first so they can serve the indices entering it. bind runs once
// per newly bound container.
func (p *Pool) Update(r index.Range, bind BindFunc) {
	for i, c := range p.bound {
		if r.Contains(i) {
			continue
		}
		delete(p.bound, i)
		c.clear()
		p.free = append(p.free, c)
		p.stats.Released++
	}
	for i := r.First; i <= r.Last; i++ {
		if _, ok := p.bound[i]; ok {
			continue
		}
		c := p.acquire()
		c.bind(i, p.selected)
		p.bound[i] = c
		if bind != nil {
			bind(c)
		}
	}
}

func (p *Pool) acquire() *Container {
	if n := len(p.free); n > 0 {
		c := p.free[n-1]
		p.free = p.free[:n-1]
		p.stats.Reused++
		return c
	}
	p.all++
	p.stats.Allocated++

	return &Container{id: p.all, index: Unbound}
}

// Refresh reruns bind on bound containers within [start, start+count).
func (p *Pool) Refresh(start, count int, bind BindFunc) int {
	var n int
	r := index.NewRange(start, count)
	for i, c := range p.bound {
		if r.Contains(i) {
			bind(c)
			n++
		}
	}

	return n
}

// RefreshAll reruns bind on every bound container.
func (p *Pool) RefreshAll(bind BindFunc) {
	for _, c := range p.bound {
		bind(c)
	}
}

// Release frees every bound container.
func (p *Pool) Release() {
	p.Update(index.Empty, nil)
}

// At returns the container bound to i.
func (p *Pool) At(i int) (*Container, bool) {
	c, ok := p.bound[i]
	return c, ok
}

// Bound returns bound containers ordered by index.
func (p *Pool) Bound() []*Container {
	cc := make([]*Container, 0, len(p.bound))
	for _, c := range p.bound {
		cc = append(cc, c)
	}
	sort.Slice(cc, func(i, j int) bool { return cc[i].index < cc[j].index })

	return cc
}

// BoundCount returns the number of bound containers.
func (p *Pool) BoundCount() int {
	return len(p.bound)
}

// FreeCount returns the number of idle containers.
func (p *Pool) FreeCount() int {
	return len(p.free)
}

// Allocated returns the number of containers ever created.
func (p *Pool) Allocated() int {
	return p.all
}

// Stats returns pool counters.
func (p *Pool) Stats() Stats {
	return p.stats
}
