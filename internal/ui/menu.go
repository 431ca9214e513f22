// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package ui

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"

	"github.com/rowscope/rowscope/internal/model"
)

const (
	menuIndexFmt = " [fuchsia::b]<%d>[white::-] %s "
	menuPlainFmt = " [dodgerblue::b]<%s>[white::-] %s "
	MenuRows     = 6
)

// Menu presents the key hints of the top component.
type Menu struct {
	*tview.Table
}

// NewMenu returns a new menu.
func NewMenu() *Menu {
	m := Menu{Table: tview.NewTable()}
	m.SetBackgroundColor(tcell.ColorDefault)
	m.SetBorderPadding(0, 0, 1, 1)

	return &m
}

// HydrateMenu lays hints out in columns of MenuRows.
func (m *Menu) HydrateMenu(hh MenuHints) {
	m.Clear()
	visible := make(MenuHints, 0, len(hh))
	for _, h := range hh {
		if h.Visible && !h.IsBlank() {
			visible = append(visible, h)
		}
	}
	sort.Sort(visible)

	for i, h := range visible {
		c := tview.NewTableCell(formatHint(h))
		c.SetBackgroundColor(tcell.ColorDefault)
		m.SetCell(i%MenuRows, i/MenuRows, c)
	}
}

func formatHint(h MenuHint) string {
	if i, err := strconv.Atoi(h.Mnemonic); err == nil {
		return fmt.Sprintf(menuIndexFmt, i, h.Description)
	}

	return fmt.Sprintf(menuPlainFmt, h.Mnemonic, h.Description)
}

// StackPushed notifies a component was added.
func (m *Menu) StackPushed(c model.Component) {
	m.hydrateFrom(c)
}

// StackPopped notifies a component was removed.
func (m *Menu) StackPopped(_, top model.Component) {
	if top == nil {
		m.Clear()
		return
	}
	m.hydrateFrom(top)
}

// StackTop notifies the top component.
func (m *Menu) StackTop(top model.Component) {
	m.hydrateFrom(top)
}

func (m *Menu) hydrateFrom(c model.Component) {
	if h, ok := c.(Hinter); ok {
		m.HydrateMenu(h.Hints())
	}
}
