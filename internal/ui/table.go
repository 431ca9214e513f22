// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"

	"github.com/rowscope/rowscope/internal/dao"
	"github.com/rowscope/rowscope/internal/model"
	"github.com/rowscope/rowscope/internal/model1"
	"github.com/rowscope/rowscope/internal/pool"
	"github.com/rowscope/rowscope/internal/render"
	"github.com/rowscope/rowscope/internal/selection"
	"github.com/rowscope/rowscope/internal/sorter"
)

const (
	// TitleFmt formats the table title with source and count.
	TitleFmt = " <%s>[%s] "

	// SelectionFmt extends the title with the selection size.
	SelectionFmt = "[%d selected] "

	loadingCell = "…"
	ascMark     = "↑"
	descMark    = "↓"
)

// VirtualTable renders the bound containers of a grid. Only the rows that
// fit the inner rect hold cells; scrolling moves the grid viewport.
type VirtualTable struct {
	*tview.Table

	name    string
	grid    *model.Grid
	actions *KeyActions
	colorer render.ColorerFunc
	errFn   func(error)
	top     int
	cursor  int
	rows    int
	col     int
	lastErr error
	mx      sync.RWMutex
}

// NewVirtualTable returns a new table.
func NewVirtualTable(name string) *VirtualTable {
	return &VirtualTable{
		Table:   tview.NewTable(),
		name:    name,
		actions: NewKeyActions(),
		colorer: render.DefaultColorer,
	}
}

// Init initializes the table component.
func (t *VirtualTable) Init(context.Context) error {
	t.SetFixed(1, 0)
	t.SetBorder(true)
	t.SetBorderAttributes(tcell.AttrBold)
	t.SetBorderPadding(0, 0, 1, 1)
	t.SetSelectable(true, false)
	t.SetBackgroundColor(tcell.ColorDefault)
	t.SetBorderColor(tcell.ColorDodgerBlue)
	t.SetInputCapture(t.keyboard)
	t.bindKeys()
	t.showMessage("Loading...", tcell.ColorGray)

	return nil
}

// Name returns the table name.
func (t *VirtualTable) Name() string {
	return t.name
}

// Actions returns the key actions.
func (t *VirtualTable) Actions() *KeyActions {
	return t.actions
}

// Hints returns menu hints for key bindings.
func (t *VirtualTable) Hints() MenuHints {
	return t.actions.Hints()
}

// SetErrorFn sets the callback for failed user actions.
func (t *VirtualTable) SetErrorFn(fn func(error)) {
	t.errFn = fn
}

// SetGrid binds the table to a grid.
func (t *VirtualTable) SetGrid(g *model.Grid) {
	t.mx.Lock()
	old := t.grid
	t.grid, t.top, t.cursor, t.rows, t.col = g, 0, 0, 0, 0
	t.colorer = render.DefaultColorer
	if c, ok := g.Provider().(dao.Colorizer); ok {
		t.colorer = c.ColorerFunc()
	}
	t.mx.Unlock()

	if old != nil {
		old.RemoveListener(t)
		old.Selection().RemoveListener(t)
		old.Sorter().RemoveListener(t)
	}
	g.AddListener(t)
	g.Selection().AddListener(t)
	g.Sorter().AddListener(t)
}

// Grid returns the bound grid.
func (t *VirtualTable) Grid() *model.Grid {
	t.mx.RLock()
	defer t.mx.RUnlock()

	return t.grid
}

// Cursor returns the index under the cursor.
func (t *VirtualTable) Cursor() int {
	t.mx.RLock()
	defer t.mx.RUnlock()

	return t.cursor
}

// Top returns the index of the first visible row.
func (t *VirtualTable) Top() int {
	t.mx.RLock()
	defer t.mx.RUnlock()

	return t.top
}

// CurrentColumn returns the key of the column under the cursor.
func (t *VirtualTable) CurrentColumn() string {
	g := t.Grid()
	if g == nil {
		return ""
	}
	cc := g.Columns()
	t.mx.RLock()
	defer t.mx.RUnlock()
	if t.col >= len(cc) {
		return ""
	}

	return cc[t.col].Key()
}

// Draw sizes the viewport to the inner rect before drawing.
func (t *VirtualTable) Draw(screen tcell.Screen) {
	_, _, _, h := t.GetInnerRect()
	t.resize(h - 1)
	t.render()
	t.Table.Draw(screen)
}

func (t *VirtualTable) resize(rows int) {
	t.mx.Lock()
	if rows < 0 {
		rows = 0
	}
	changed := rows != t.rows
	t.rows = rows
	t.mx.Unlock()

	if changed {
		t.clampAndScroll()
	}
}

// GotoIndex moves the cursor to index i.
func (t *VirtualTable) GotoIndex(i int) {
	t.mx.Lock()
	t.cursor = i
	t.mx.Unlock()
	t.clampAndScroll()
}

// MoveCursor shifts the cursor by delta rows.
func (t *VirtualTable) MoveCursor(delta int) {
	t.mx.Lock()
	t.cursor += delta
	t.mx.Unlock()
	t.clampAndScroll()
}

// MoveColumn shifts the current column by delta, wrapping around.
func (t *VirtualTable) MoveColumn(delta int) {
	g := t.Grid()
	if g == nil {
		return
	}
	n := len(g.Columns())
	if n == 0 {
		return
	}

	t.mx.Lock()
	defer t.mx.Unlock()
	t.col = ((t.col+delta)%n + n) % n
}

// clampAndScroll keeps the cursor inside [0, count) and the visible page.
func (t *VirtualTable) clampAndScroll() {
	g := t.Grid()
	if g == nil {
		return
	}
	count := g.Count()

	t.mx.Lock()
	t.cursor = max(min(t.cursor, count-1), 0)
	if t.cursor < t.top {
		t.top = t.cursor
	}
	if t.rows > 0 && t.cursor >= t.top+t.rows {
		t.top = t.cursor - t.rows + 1
	}
	t.top = max(min(t.top, count-t.rows), 0)
	top, rows := t.top, t.rows
	t.mx.Unlock()

	rh := g.Options().RowHeight
	if err := g.SetViewport(top*rh, rows*rh); err != nil {
		t.fail(err)
	}
}

func (t *VirtualTable) render() {
	g := t.Grid()
	if g == nil {
		return
	}

	t.mx.RLock()
	top, rows, cursor, col, lastErr := t.top, t.rows, t.cursor, t.col, t.lastErr
	colorer := t.colorer
	t.mx.RUnlock()

	t.Clear()
	cols := g.Columns()
	t.buildHeader(cols, g.Sorter().Descriptions(), col)

	count := g.Count()
	if count == 0 {
		msg := "No rows"
		if lastErr != nil {
			msg = lastErr.Error()
		}
		t.showMessage(msg, tcell.ColorGray)
		t.updateTitle(g, count)
		return
	}

	byIndex := make(map[int]*pool.Container, rows)
	for _, c := range g.Items() {
		byIndex[c.Index()] = c
	}
	header := g.Provider().Header()
	for r := 0; r < rows && top+r < count; r++ {
		i := top + r
		it := model1.Item{Index: i}
		selected := false
		if c, ok := byIndex[i]; ok {
			it, selected = c.Item(), c.Selected()
		}
		t.buildRow(r+1, cols, it, colorer(header, it, selected))
	}
	t.Select(cursor-top+1, 0)
	t.updateTitle(g, count)
}

func (t *VirtualTable) buildHeader(cols render.Columns, descs model1.SortDescriptions, current int) {
	for c, col := range cols {
		name := col.Key()
		if pos := descs.IndexOf(name); pos >= 0 {
			mark := ascMark
			if descs[pos].Direction == model1.Descending {
				mark = descMark
			}
			if len(descs) > 1 {
				mark += fmt.Sprintf("%d", pos+1)
			}
			name += mark
		}
		cell := tview.NewTableCell(name)
		cell.SetTextColor(tcell.ColorYellow)
		if c == current {
			cell.SetTextColor(tcell.ColorOrange)
		}
		cell.SetBackgroundColor(tcell.ColorDefault)
		cell.SetAttributes(tcell.AttrBold)
		cell.SetAlign(col.Attrs().Align)
		cell.SetExpansion(1)
		cell.SetSelectable(false)
		t.SetCell(0, c, cell)
	}
}

func (t *VirtualTable) buildRow(r int, cols render.Columns, it model1.Item, fg tcell.Color) {
	for c, col := range cols {
		var txt string
		switch {
		case it.Failed && c == 0:
			txt = model1.NAValue
		case it.Placeholder() && c == 0:
			txt = loadingCell
		case !it.Placeholder():
			txt = col.Value(it.Row)
		}
		cell := tview.NewTableCell(txt)
		cell.SetTextColor(fg)
		cell.SetBackgroundColor(tcell.ColorDefault)
		cell.SetAlign(col.Attrs().Align)
		cell.SetExpansion(1)
		cell.SetReference(it.Index)
		t.SetCell(r, c, cell)
	}
}

func (t *VirtualTable) updateTitle(g *model.Grid, count int) {
	title := fmt.Sprintf(TitleFmt, t.name, render.AsCount(count))
	if n := g.Selection().Len(); n > 0 {
		title += fmt.Sprintf(SelectionFmt, n)
	}
	t.SetTitle(title)
}

func (t *VirtualTable) showMessage(msg string, color tcell.Color) {
	cell := tview.NewTableCell(msg)
	cell.SetTextColor(color)
	cell.SetAlign(tview.AlignCenter)
	cell.SetSelectable(false)
	t.SetCell(1, 0, cell)
}

func (t *VirtualTable) fail(err error) {
	t.mx.Lock()
	t.lastErr = err
	t.mx.Unlock()
	if t.errFn != nil {
		t.errFn(err)
	}
}

// keyboard handles table keyboard input.
func (t *VirtualTable) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	if out, ok := t.actions.Dispatch(evt); ok {
		return out
	}

	switch evt.Key() {
	case tcell.KeyDown:
		t.MoveCursor(1)
	case tcell.KeyUp:
		t.MoveCursor(-1)
	case tcell.KeyPgDn, tcell.KeyCtrlF:
		t.MoveCursor(t.page())
	case tcell.KeyPgUp, tcell.KeyCtrlB:
		t.MoveCursor(-t.page())
	case tcell.KeyLeft:
		t.MoveColumn(-1)
	case tcell.KeyRight:
		t.MoveColumn(1)
	case tcell.KeyHome:
		t.GotoIndex(0)
	case tcell.KeyEnd:
		t.gotoEnd()
	default:
		return evt
	}

	return nil
}

func (t *VirtualTable) page() int {
	t.mx.RLock()
	defer t.mx.RUnlock()

	return max(t.rows, 1)
}

func (t *VirtualTable) gotoEnd() {
	if g := t.Grid(); g != nil {
		t.GotoIndex(g.Count() - 1)
	}
}

// bindKeys sets up common table key bindings.
func (t *VirtualTable) bindKeys() {
	t.actions.Bulk(KeyMap{
		KeyJ:                   NewKeyAction("Down", t.downCmd, false),
		KeyK:                   NewKeyAction("Up", t.upCmd, false),
		KeyH:                   NewKeyAction("Left", t.leftCmd, false),
		KeyL:                   NewKeyAction("Right", t.rightCmd, false),
		KeyG:                   NewKeyAction("Top", t.topCmd, false),
		KeyShiftG:              NewKeyAction("Bottom", t.bottomCmd, false),
		KeySpace:               NewKeyAction("Mark", t.markCmd, true),
		KeyShiftV:              NewKeyAction("Mark Range", t.markRangeCmd, true),
		tcell.KeyEnter:         NewKeyAction("Select", t.selectCmd, true),
		tcell.KeyCtrlA:         NewKeyAction("Mark All", t.markAllCmd, true),
		tcell.KeyCtrlBackslash: NewKeyAction("Clear Marks", t.clearMarksCmd, true),
		tcell.KeyCtrlS:         NewKeyAction("Sort Next", t.sortNextCmd, true),
		KeyShiftO:              NewKeyAction("Flip Sort", t.flipSortCmd, true),
		KeyShiftN:              NewKeyAction("Natural Order", t.naturalCmd, true),
	})
}

func (t *VirtualTable) downCmd(*tcell.EventKey) *tcell.EventKey {
	t.MoveCursor(1)
	return nil
}

func (t *VirtualTable) upCmd(*tcell.EventKey) *tcell.EventKey {
	t.MoveCursor(-1)
	return nil
}

func (t *VirtualTable) leftCmd(*tcell.EventKey) *tcell.EventKey {
	t.MoveColumn(-1)
	return nil
}

func (t *VirtualTable) rightCmd(*tcell.EventKey) *tcell.EventKey {
	t.MoveColumn(1)
	return nil
}

func (t *VirtualTable) topCmd(*tcell.EventKey) *tcell.EventKey {
	t.GotoIndex(0)
	return nil
}

func (t *VirtualTable) bottomCmd(*tcell.EventKey) *tcell.EventKey {
	t.gotoEnd()
	return nil
}

func (t *VirtualTable) selectCmd(*tcell.EventKey) *tcell.EventKey {
	t.click(selection.ModNone)
	return nil
}

func (t *VirtualTable) markCmd(*tcell.EventKey) *tcell.EventKey {
	t.click(selection.ModToggle)
	t.MoveCursor(1)
	return nil
}

func (t *VirtualTable) markRangeCmd(*tcell.EventKey) *tcell.EventKey {
	t.click(selection.ModRange)
	return nil
}

func (t *VirtualTable) click(mod selection.Modifier) {
	g := t.Grid()
	if g == nil || g.Count() == 0 {
		return
	}
	if err := g.Selection().Click(t.Cursor(), mod); err != nil {
		t.fail(err)
	}
}

func (t *VirtualTable) markAllCmd(*tcell.EventKey) *tcell.EventKey {
	if g := t.Grid(); g != nil {
		g.Selection().SelectAll()
	}
	return nil
}

func (t *VirtualTable) clearMarksCmd(*tcell.EventKey) *tcell.EventKey {
	if g := t.Grid(); g != nil {
		g.Selection().Clear()
	}
	return nil
}

// sortNextCmd sorts ascending on the next sortable column.
func (t *VirtualTable) sortNextCmd(*tcell.EventKey) *tcell.EventKey {
	g := t.Grid()
	if g == nil {
		return nil
	}
	cc := g.Columns()
	t.mx.Lock()
	for range cc {
		t.col = (t.col + 1) % len(cc)
		if cc[t.col].Attrs().Sortable {
			break
		}
	}
	t.mx.Unlock()

	t.sort(func(ctx context.Context, key string) error {
		return g.Sort(ctx, key, model1.Ascending)
	})
	return nil
}

func (t *VirtualTable) flipSortCmd(*tcell.EventKey) *tcell.EventKey {
	g := t.Grid()
	if g == nil {
		return nil
	}
	t.sort(func(ctx context.Context, key string) error {
		return g.Sorter().ToggleSort(ctx, key)
	})
	return nil
}

func (t *VirtualTable) naturalCmd(*tcell.EventKey) *tcell.EventKey {
	if g := t.Grid(); g != nil {
		if err := g.Sort(context.Background(), "", model1.Ascending); err != nil {
			t.fail(err)
		}
	}
	return nil
}

func (t *VirtualTable) sort(fn func(context.Context, string) error) {
	key := t.CurrentColumn()
	if key == "" {
		return
	}
	if err := fn(context.Background(), key); err != nil {
		t.fail(fmt.Errorf("sort %s: %w", strings.ToLower(key), err))
	}
}

// GridChanged implements model.GridListener.
func (*VirtualTable) GridChanged(int, int) {}

// GridReset implements model.GridListener.
func (t *VirtualTable) GridReset(int) {
	t.mx.Lock()
	t.lastErr = nil
	t.mx.Unlock()
	t.clampAndScroll()
}

// GridFetchFailed implements model.GridListener.
func (t *VirtualTable) GridFetchFailed(err error) {
	t.fail(err)
}

// SelectionChanged implements selection.Listener.
func (*VirtualTable) SelectionChanged(_, _ []int) {}

// SortRequested implements sorter.Listener.
func (*VirtualTable) SortRequested(*sorter.Request) {}

// SortChanged implements sorter.Listener.
func (t *VirtualTable) SortChanged(model1.SortDescriptions) {
	t.GotoIndex(0)
}
