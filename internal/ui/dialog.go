// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package ui

import (
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

const (
	dialogOK     = "OK"
	dialogCancel = "Cancel"
)

// DialogCallback is called when dialog is dismissed.
type DialogCallback func()

// Dialog represents a modal dialog.
type Dialog struct {
	*tview.Modal

	pages  *Pages
	pageID string
	onDone DialogCallback
}

// NewDialog creates a new dialog.
func NewDialog(pages *Pages, pageID string) *Dialog {
	d := &Dialog{
		Modal:  tview.NewModal(),
		pages:  pages,
		pageID: pageID,
	}
	d.SetBackgroundColor(tcell.ColorDefault)
	d.SetTextColor(tcell.ColorWhite)

	return d
}

// SetMessage sets the dialog message.
func (d *Dialog) SetMessage(msg string) *Dialog {
	d.SetText(msg)
	return d
}

// SetButtons configures dialog buttons.
func (d *Dialog) SetButtons(labels ...string) *Dialog {
	d.AddButtons(labels)
	return d
}

// SetDoneCallback sets the callback for when dialog closes.
func (d *Dialog) SetDoneCallback(fn DialogCallback) *Dialog {
	d.onDone = fn
	return d
}

// SetButtonHandler dismisses the dialog then calls handler.
func (d *Dialog) SetButtonHandler(handler func(int, string)) *Dialog {
	d.SetDoneFunc(func(idx int, label string) {
		d.Dismiss()
		if handler != nil {
			handler(idx, label)
		}
	})
	return d
}

// SetColors configures dialog colors.
func (d *Dialog) SetColors(text, btnBg, btnText tcell.Color) *Dialog {
	d.SetTextColor(text)
	d.SetButtonBackgroundColor(btnBg)
	d.SetButtonTextColor(btnText)
	return d
}

// Show displays the dialog as an overlay.
func (d *Dialog) Show() {
	if d.pages != nil {
		d.pages.AddPage(d.pageID, d, true, true)
	}
}

// Dismiss removes the dialog.
func (d *Dialog) Dismiss() {
	if d.pages != nil {
		d.pages.RemovePage(d.pageID)
		if top := d.pages.Current(); top != nil {
			d.pages.StackTop(top)
		}
	}
	if d.onDone != nil {
		d.onDone()
	}
}

// PageID returns the dialog page identifier.
func (d *Dialog) PageID() string {
	return d.pageID
}

// InfoDialog creates a dialog with an OK button.
func InfoDialog(pages *Pages, msg string) *Dialog {
	return NewDialog(pages, "info-dialog").
		SetMessage(msg).
		SetButtons(dialogOK).
		SetButtonHandler(nil)
}

// ErrorDialog creates a red error dialog.
func ErrorDialog(pages *Pages, msg string) *Dialog {
	return NewDialog(pages, "error-dialog").
		SetMessage(msg).
		SetButtons(dialogOK).
		SetColors(tcell.ColorRed, tcell.ColorRed, tcell.ColorWhite).
		SetButtonHandler(nil)
}

// ConfirmDialog asks a yes/no question and calls ack on OK.
func ConfirmDialog(pages *Pages, msg string, ack func()) *Dialog {
	return NewDialog(pages, "confirm-dialog").
		SetMessage(msg).
		SetButtons(dialogOK, dialogCancel).
		SetColors(tcell.ColorYellow, tcell.ColorDarkOrange, tcell.ColorBlack).
		SetButtonHandler(func(_ int, label string) {
			if label == dialogOK && ack != nil {
				ack()
			}
		})
}
