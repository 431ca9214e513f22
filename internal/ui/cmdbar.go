// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package ui

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// IndicatorMode represents the command bar input mode.
type IndicatorMode int

const (
	// ModeNormal is the idle mode.
	ModeNormal IndicatorMode = iota

	// ModeCommand accepts a command or a source.
	ModeCommand

	// ModeGoto accepts a row index to jump to.
	ModeGoto
)

const (
	indicatorNormal  = "[gray::]◉ "
	indicatorCommand = "[orange::b]◉ "
	indicatorGoto    = "[aqua::b]◉ "
)

// String returns the mode prompt.
func (m IndicatorMode) String() string {
	switch m {
	case ModeCommand:
		return ":"
	case ModeGoto:
		return "#"
	default:
		return ">"
	}
}

func (m IndicatorMode) indicator() string {
	switch m {
	case ModeCommand:
		return indicatorCommand
	case ModeGoto:
		return indicatorGoto
	default:
		return indicatorNormal
	}
}

// CmdBar is a bordered input bar with ghost text completion.
type CmdBar struct {
	*tview.TextView

	mode              IndicatorMode
	cmdFn             func(string)
	gotoFn            func(string)
	activeFn          func(bool)
	isActive          bool
	text              []rune
	suggestions       []string
	suggestionIdx     int
	currentSuggestion string
	commands          []string
	mx                sync.RWMutex
}

// NewCmdBar creates a new command bar.
func NewCmdBar() *CmdBar {
	c := &CmdBar{
		TextView:      tview.NewTextView(),
		mode:          ModeNormal,
		suggestionIdx: -1,
	}
	c.SetBorder(true)
	c.SetBorderColor(tcell.ColorDarkCyan)
	c.SetBackgroundColor(tcell.ColorDefault)
	c.SetTextColor(tcell.ColorWhite)
	c.SetDynamicColors(true)
	c.SetWrap(false)
	c.SetInputCapture(c.keyboard)
	c.render()

	return c
}

func (c *CmdBar) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	if !c.IsActive() {
		return evt
	}

	switch evt.Key() {
	case tcell.KeyBackspace, tcell.KeyBackspace2, tcell.KeyDelete:
		c.mx.Lock()
		if len(c.text) > 0 {
			c.text = c.text[:len(c.text)-1]
		}
		c.mx.Unlock()
		c.updateSuggestions()
	case tcell.KeyEnter:
		c.execute()
		return nil
	case tcell.KeyEsc:
		c.Deactivate()
		return nil
	case tcell.KeyTab, tcell.KeyRight:
		c.mx.Lock()
		if c.currentSuggestion != "" {
			c.text = []rune(c.currentSuggestion)
		}
		c.mx.Unlock()
		c.clearSuggestions()
	case tcell.KeyUp:
		c.cycle(-1)
	case tcell.KeyDown:
		c.cycle(1)
	case tcell.KeyCtrlU, tcell.KeyCtrlW:
		c.mx.Lock()
		c.text = c.text[:0]
		c.mx.Unlock()
		c.clearSuggestions()
	case tcell.KeyRune:
		r := evt.Rune()
		if c.Mode() == ModeGoto && (r < '0' || r > '9') {
			return nil
		}
		c.mx.Lock()
		c.text = append(c.text, r)
		c.mx.Unlock()
		c.updateSuggestions()
	default:
		return evt
	}
	c.render()

	return nil
}

func (c *CmdBar) cycle(delta int) {
	c.mx.Lock()
	defer c.mx.Unlock()

	n := len(c.suggestions)
	if n == 0 {
		return
	}
	c.suggestionIdx = (c.suggestionIdx + delta + n) % n
	c.currentSuggestion = c.suggestions[c.suggestionIdx]
}

func (c *CmdBar) render() {
	c.mx.RLock()
	text := string(c.text)
	suggestion := c.currentSuggestion
	mode := c.mode
	c.mx.RUnlock()

	c.Clear()
	if suggestion != "" && strings.HasPrefix(suggestion, text) && len(suggestion) > len(text) {
		_, _ = fmt.Fprintf(c.TextView, "%s%s [white::b]%s[gray::]%s[-::]", mode.indicator(), mode, text, suggestion[len(text):])
		return
	}
	_, _ = fmt.Fprintf(c.TextView, "%s%s [white::b]%s", mode.indicator(), mode, text)
}

// Suggestions returns the commands matching text.
func (c *CmdBar) Suggestions(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ToLower(text)

	c.mx.RLock()
	defer c.mx.RUnlock()
	var matches []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, text) {
			matches = append(matches, cmd)
		}
	}

	return matches
}

func (c *CmdBar) updateSuggestions() {
	text := c.GetText()
	var ss []string
	if c.Mode() == ModeCommand {
		ss = c.Suggestions(text)
	}

	c.mx.Lock()
	defer c.mx.Unlock()
	c.suggestions, c.suggestionIdx, c.currentSuggestion = ss, -1, ""
	if len(ss) > 0 {
		c.suggestionIdx, c.currentSuggestion = 0, ss[0]
	}
}

func (c *CmdBar) clearSuggestions() {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.suggestions, c.suggestionIdx, c.currentSuggestion = nil, -1, ""
}

// SetCommands sets the available completions.
func (c *CmdBar) SetCommands(cmds []string) {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.commands = append(c.commands[:0], cmds...)
	sort.Strings(c.commands)
}

// GetText returns the current input text.
func (c *CmdBar) GetText() string {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return string(c.text)
}

// SetText sets the input text.
func (c *CmdBar) SetText(s string) {
	c.mx.Lock()
	c.text = []rune(s)
	c.mx.Unlock()
	c.render()
}

// Activate enters the given input mode.
func (c *CmdBar) Activate(mode IndicatorMode) {
	c.mx.Lock()
	c.mode, c.isActive = mode, true
	c.text = c.text[:0]
	c.mx.Unlock()
	c.clearSuggestions()
	c.render()

	if c.activeFn != nil {
		c.activeFn(true)
	}
}

// Deactivate returns to normal mode.
func (c *CmdBar) Deactivate() {
	c.mx.Lock()
	c.mode, c.isActive = ModeNormal, false
	c.text = c.text[:0]
	c.mx.Unlock()
	c.clearSuggestions()
	c.render()

	if c.activeFn != nil {
		c.activeFn(false)
	}
}

func (c *CmdBar) execute() {
	text, mode := strings.TrimSpace(c.GetText()), c.Mode()
	c.Deactivate()
	if text == "" {
		return
	}

	switch mode {
	case ModeCommand:
		if c.cmdFn != nil {
			c.cmdFn(text)
		}
	case ModeGoto:
		if c.gotoFn != nil {
			c.gotoFn(text)
		}
	}
}

// IsActive returns whether the bar accepts input.
func (c *CmdBar) IsActive() bool {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.isActive
}

// Mode returns the current mode.
func (c *CmdBar) Mode() IndicatorMode {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.mode
}

// SetCommandFn sets the command callback.
func (c *CmdBar) SetCommandFn(fn func(string)) {
	c.cmdFn = fn
}

// SetGotoFn sets the goto callback.
func (c *CmdBar) SetGotoFn(fn func(string)) {
	c.gotoFn = fn
}

// SetActiveFn sets the callback for active state changes.
func (c *CmdBar) SetActiveFn(fn func(bool)) {
	c.activeFn = fn
}
