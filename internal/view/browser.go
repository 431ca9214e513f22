// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/derailed/tcell/v2"

	"github.com/rowscope/rowscope/internal/model"
	"github.com/rowscope/rowscope/internal/model1"
	"github.com/rowscope/rowscope/internal/render"
	"github.com/rowscope/rowscope/internal/ui"
)

// markAllThreshold is the row count above which marking all rows asks first.
const markAllThreshold = 10_000

// Browser binds a virtual table to a live grid.
type Browser struct {
	*ui.VirtualTable

	app      *App
	grid     *model.Grid
	cancelFn context.CancelFunc
	watched  bool
	mx       sync.Mutex
}

// NewBrowser returns a browser over g.
func NewBrowser(app *App, name string, g *model.Grid) *Browser {
	return &Browser{
		VirtualTable: ui.NewVirtualTable(name),
		app:          app,
		grid:         g,
	}
}

// Init initializes the browser component.
func (b *Browser) Init(ctx context.Context) error {
	if err := b.VirtualTable.Init(ctx); err != nil {
		return err
	}
	b.SetGrid(b.grid)
	b.SetErrorFn(b.app.Flash().Err)
	b.grid.AddEditListener(b)
	b.bindKeys(b.Actions())

	return nil
}

// Start watches the grid, applying completions on the UI goroutine.
// Restarting after a pushed page resumes with marks and sort intact.
func (b *Browser) Start() {
	b.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	b.mx.Lock()
	b.cancelFn = cancel
	watch := b.grid.Watch
	if b.watched {
		watch = b.grid.Resume
	}
	b.watched = true
	b.mx.Unlock()

	go func() {
		if err := watch(ctx, b.app.Dispatch); err != nil && !errors.Is(err, context.Canceled) {
			b.app.Flash().Err(err)
		}
		b.app.Dispatch(func() {})
	}()
}

// Stop ends the grid watch.
func (b *Browser) Stop() {
	b.mx.Lock()
	defer b.mx.Unlock()

	if b.cancelFn != nil {
		b.cancelFn()
		b.cancelFn = nil
	}
	b.grid.Stop()
}

// Close releases the grid and its provider.
func (b *Browser) Close() {
	b.Stop()
	b.grid.Close()
	if err := b.grid.Provider().Close(); err != nil {
		slog.Warn("Provider close failed", "source", b.Name(), "error", err)
	}
}

// Refresh refetches the visible rows, reloading sources that cache a listing.
func (b *Browser) Refresh() error {
	return b.grid.Reload(context.Background())
}

// CellEditCommitted implements model.EditListener.
func (b *Browser) CellEditCommitted(evt model.EditEvent) {
	slog.Info("Cell edited",
		"source", b.Name(),
		"row", evt.Row,
		"column", evt.Column,
		"patch", evt.Patch,
	)
	b.app.Flash().Infof("Row %d %s: %q -> %q", evt.Row, evt.Column, evt.Old, evt.New)
}

func (b *Browser) bindKeys(aa *ui.KeyActions) {
	aa.Bulk(ui.KeyMap{
		ui.KeyE:        ui.NewKeyAction("Edit Cell", b.editCmd, true),
		ui.KeyShiftE:   ui.NewKeyAction("Edit Row", b.editRowCmd, true),
		ui.KeyD:        ui.NewKeyAction("Describe", b.describeCmd, true),
		tcell.KeyCtrlR: ui.NewKeyAction("Refresh", b.refreshCmd, true),
		tcell.KeyCtrlA: ui.NewKeyAction("Mark All", b.markAllCmd, true),
	})
}

// current returns the loaded item under the cursor.
func (b *Browser) current() (model1.Item, error) {
	if b.grid.Count() == 0 {
		return model1.Item{}, errors.New("no rows")
	}
	it := b.grid.Item(b.Cursor())
	if it.Placeholder() {
		return it, fmt.Errorf("row %d is not loaded yet", it.Index)
	}

	return it, nil
}

func (b *Browser) editCmd(*tcell.EventKey) *tcell.EventKey {
	it, err := b.current()
	if err != nil {
		b.app.Flash().Err(err)
		return nil
	}
	col, ok := b.grid.Columns().Find(b.CurrentColumn())
	if !ok {
		return nil
	}
	if !col.Attrs().Editable {
		b.app.Flash().Err(fmt.Errorf("%w: %s", render.ErrReadOnly, col.Key()))
		return nil
	}

	old := col.Value(it.Row)
	b.app.Edit(col.Key(), old, func(s string, ok bool) {
		if !ok || s == old {
			return
		}
		if _, err := CommitEdit(context.Background(), b.grid, it.Index, col.Key(), s); err != nil {
			b.app.Flash().Err(err)
		}
	})

	return nil
}

func (b *Browser) editRowCmd(*tcell.EventKey) *tcell.EventKey {
	it, err := b.current()
	if err != nil {
		b.app.Flash().Err(err)
		return nil
	}

	s := NewRowEdit(b.grid, it)
	defer s.Cleanup()
	switch err := s.Run(context.Background(), b.app.Application); {
	case errors.Is(err, ErrEditorCancelled):
		b.app.Flash().Info("Edit cancelled")
	case errors.Is(err, ErrNoChanges):
		b.app.Flash().Info("No changes")
	case err != nil:
		b.app.Flash().Err(err)
	}

	return nil
}

func (b *Browser) describeCmd(*tcell.EventKey) *tcell.EventKey {
	it, err := b.current()
	if err != nil {
		b.app.Flash().Err(err)
		return nil
	}
	if err := b.app.inject(NewDescribe(b.Name(), b.grid.Columns(), it)); err != nil {
		b.app.Flash().Err(err)
	}

	return nil
}

func (b *Browser) refreshCmd(*tcell.EventKey) *tcell.EventKey {
	if err := b.Refresh(); err != nil {
		b.app.Flash().Err(err)
		return nil
	}
	b.app.Flash().Info("Refreshing...")

	return nil
}

func (b *Browser) markAllCmd(*tcell.EventKey) *tcell.EventKey {
	n := b.grid.Count()
	if n <= markAllThreshold {
		b.grid.Selection().SelectAll()
		return nil
	}
	b.app.Confirm(fmt.Sprintf("Mark all %s rows?", render.AsCount(n)), b.grid.Selection().SelectAll)

	return nil
}
