// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package view

import (
	"context"
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"

	"github.com/rowscope/rowscope/internal/ui"
)

// HelpBind represents a single keybinding.
type HelpBind struct {
	Key  string
	Desc string
}

// HelpSection is a titled help column.
type HelpSection struct {
	Title string
	Binds []HelpBind
}

// Help lists key bindings and sources.
type Help struct {
	*tview.Table

	sections []HelpSection
}

// NewHelp builds the help page for the app and the hints of the active view.
func NewHelp(a *App, hints ui.MenuHints) *Help {
	h := Help{Table: tview.NewTable()}
	h.sections = []HelpSection{
		{Title: "SOURCES", Binds: sourceBinds(a)},
		{Title: "GENERAL", Binds: []HelpBind{
			{":", "Command"},
			{"#", "Goto Row"},
			{"?", "Help"},
			{"esc", "Back"},
			{"ctrl-c", "Quit"},
		}},
		{Title: "NAVIGATION", Binds: []HelpBind{
			{"j/down", "Down"},
			{"k/up", "Up"},
			{"h/left", "Left"},
			{"l/right", "Right"},
			{"g/home", "Top"},
			{"G/end", "Bottom"},
			{"pgdn", "Page Down"},
			{"pgup", "Page Up"},
		}},
		{Title: "VIEW", Binds: hintBinds(hints)},
	}

	return &h
}

func sourceBinds(a *App) []HelpBind {
	names := a.aliases.Names()
	bb := make([]HelpBind, 0, len(names))
	for _, n := range names {
		bb = append(bb, HelpBind{Key: ":" + n, Desc: a.aliases.Resolve(n)})
	}

	return bb
}

func hintBinds(hh ui.MenuHints) []HelpBind {
	bb := make([]HelpBind, 0, len(hh))
	for _, h := range hh {
		bb = append(bb, HelpBind{Key: strings.ToLower(h.Mnemonic), Desc: h.Description})
	}

	return bb
}

// Init builds the help table.
func (h *Help) Init(context.Context) error {
	h.SetBorder(true)
	h.SetTitle(" Help ")
	h.SetTitleAlign(tview.AlignCenter)
	h.SetBorderColor(tcell.ColorYellow)
	h.SetBackgroundColor(tcell.ColorDefault)
	h.SetSelectable(false, false)
	h.build()

	return nil
}

// Name returns the view name.
func (*Help) Name() string {
	return "help"
}

// Start implements model.Component.
func (*Help) Start() {}

// Stop implements model.Component.
func (*Help) Stop() {}

// Hints implements ui.Hinter.
func (*Help) Hints() ui.MenuHints {
	return ui.MenuHints{{Mnemonic: "esc", Description: "Back", Visible: true}}
}

// Sections returns the help columns.
func (h *Help) Sections() []HelpSection {
	return h.sections
}

func (h *Help) build() {
	h.Clear()
	for i, s := range h.sections {
		col := i * 3
		h.SetCell(0, col, tview.NewTableCell(s.Title).
			SetTextColor(tcell.ColorAqua).
			SetAttributes(tcell.AttrBold))
		for r, b := range s.Binds {
			h.SetCell(r+1, col, tview.NewTableCell("<"+b.Key+">").
				SetTextColor(tcell.ColorYellow))
			h.SetCell(r+1, col+1, tview.NewTableCell(tview.Escape(b.Desc)).
				SetTextColor(tcell.ColorWhite).
				SetExpansion(1))
		}
		h.SetCell(0, col+2, tview.NewTableCell("  "))
	}
}
