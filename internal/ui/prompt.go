package ui

import (
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// PromptFunc receives the prompt text and whether it was committed.
type PromptFunc func(text string, ok bool)

// Prompt is a single line cell editor.
type Prompt struct {
	*tview.InputField

	doneFn PromptFunc
	active bool
}

// NewPrompt returns a new prompt.
func NewPrompt() *Prompt {
	p := Prompt{InputField: tview.NewInputField()}
	p.SetBorder(true)
	p.SetBorderColor(tcell.ColorOrange)
	p.SetFieldBackgroundColor(tcell.ColorDefault)
	p.SetBackgroundColor(tcell.ColorDefault)
	p.SetDoneFunc(p.done)

	return &p
}

// Edit opens the prompt on text and calls fn once the edit ends.
func (p *Prompt) Edit(label, text string, fn PromptFunc) {
	p.SetTitle(" " + label + " ")
	p.SetLabel(label + ": ")
	p.SetText(text)
	p.doneFn, p.active = fn, true
}

// IsActive checks if an edit is in progress.
func (p *Prompt) IsActive() bool {
	return p.active
}

func (p *Prompt) done(key tcell.Key) {
	if !p.active {
		return
	}
	fn := p.doneFn
	p.doneFn, p.active = nil, false
	if fn == nil {
		return
	}

	fn(p.GetText(), key != tcell.KeyEsc)
}
