// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package view

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"

	"github.com/rowscope/rowscope/internal/config"
	"github.com/rowscope/rowscope/internal/dao"
	"github.com/rowscope/rowscope/internal/model"
	"github.com/rowscope/rowscope/internal/ui"
)

const (
	// FlashDelay sets the flash auto-clear delay.
	FlashDelay = 5 * time.Second

	mainPage   = "main"
	promptPage = "prompt"
)

// FlashLevel represents flash message severity.
type FlashLevel int

const (
	// FlashInfo represents an info message.
	FlashInfo FlashLevel = iota
	// FlashWarn represents a warning message.
	FlashWarn
	// FlashErr represents an error message.
	FlashErr
)

// Flash shows transient status messages.
type Flash struct {
	*tview.TextView

	app    *App
	cancel context.CancelFunc
	mx     sync.Mutex
}

// NewFlash creates a new Flash instance.
func NewFlash(app *App) *Flash {
	f := &Flash{
		TextView: tview.NewTextView(),
		app:      app,
	}
	f.SetDynamicColors(true)
	f.SetTextAlign(tview.AlignLeft)
	f.SetBorderPadding(0, 0, 1, 1)

	return f
}

// Info displays an informational message.
func (f *Flash) Info(msg string) {
	f.setMessage(FlashInfo, msg)
}

// Infof displays a formatted informational message.
func (f *Flash) Infof(format string, args ...any) {
	f.Info(fmt.Sprintf(format, args...))
}

// Warn displays a warning message.
func (f *Flash) Warn(msg string) {
	f.setMessage(FlashWarn, msg)
}

// Err displays an error message.
func (f *Flash) Err(err error) {
	if err == nil {
		return
	}
	slog.Warn("Flash error", "error", err)
	f.setMessage(FlashErr, err.Error())
}

// Errf displays a formatted error message.
func (f *Flash) Errf(format string, args ...any) {
	f.Err(fmt.Errorf(format, args...))
}

// Clear clears the flash message.
func (f *Flash) Clear() {
	f.mx.Lock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.mx.Unlock()

	f.app.QueueUpdateDraw(func() {
		f.TextView.Clear()
	})
}

func (f *Flash) setMessage(level FlashLevel, msg string) {
	if msg == "" {
		f.Clear()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.mx.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.cancel = cancel
	f.mx.Unlock()

	f.app.QueueUpdateDraw(func() {
		f.TextView.Clear()
		f.SetTextColor(flashColor(level))
		_, _ = fmt.Fprintf(f.TextView, "%s %s", flashPrefix(level), tview.Escape(msg))
	})
	go f.autoClear(ctx)
}

func (f *Flash) autoClear(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(FlashDelay):
		f.Clear()
	}
}

func flashColor(level FlashLevel) tcell.Color {
	switch level {
	case FlashWarn:
		return tcell.ColorYellow
	case FlashErr:
		return tcell.ColorRed
	default:
		return tcell.ColorGreen
	}
}

func flashPrefix(level FlashLevel) string {
	switch level {
	case FlashWarn:
		return "[WARN]"
	case FlashErr:
		return "[ERROR]"
	default:
		return "[INFO]"
	}
}

// App represents the main application container.
type App struct {
	*tview.Application

	version string
	Main    *tview.Pages
	Content *ui.Pages
	config  *config.Config
	aliases *config.Aliases
	hotKeys *config.HotKeys
	factory dao.Factory
	command *Command
	cmdBar  *ui.CmdBar
	menu    *ui.Menu
	crumbs  *ui.Crumbs
	info    *AccountInfo
	prompt  *ui.Prompt
	flash   *Flash
	modal   bool
	actions *ui.KeyActions
	running bool
	mx      sync.RWMutex
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, aliases *config.Aliases, hk *config.HotKeys, f dao.Factory, version string) *App {
	a := App{
		Application: tview.NewApplication(),
		version:     version,
		Main:        tview.NewPages(),
		Content:     ui.NewPages(),
		config:      cfg,
		aliases:     aliases,
		hotKeys:     hk,
		factory:     f,
		cmdBar:      ui.NewCmdBar(),
		menu:        ui.NewMenu(),
		crumbs:      ui.NewCrumbs(),
		info:        NewAccountInfo(),
		prompt:      ui.NewPrompt(),
		actions:     ui.NewKeyActions(),
	}
	a.flash = NewFlash(&a)
	a.command = NewCommand(&a)

	return &a
}

// Init wires the layout and key bindings.
func (a *App) Init() error {
	a.Content.AddListener(a.crumbs)
	a.Content.AddListener(a.menu)

	a.cmdBar.SetCommands(a.command.Completions())
	a.cmdBar.SetActiveFn(func(active bool) {
		if active {
			a.SetFocus(a.cmdBar)
			return
		}
		a.focusTop()
	})
	a.cmdBar.SetCommandFn(func(line string) {
		if err := a.command.Run(line); err != nil {
			a.flash.Err(err)
		}
	})
	a.cmdBar.SetGotoFn(a.gotoRow)

	a.bindKeys()
	if err := a.bindHotKeys(); err != nil {
		return err
	}
	a.info.SetInfo(a.factory.Profile(), a.factory.Region(), "", a.version)

	a.Main.AddPage(mainPage, a.buildLayout(), true, true)
	a.SetRoot(a.Main, true)
	a.SetInputCapture(a.keyboard)
	a.EnableMouse(a.config.Rowscope.UI.EnableMouse)

	return nil
}

// Run opens the initial source and starts the event loop.
func (a *App) Run(source string) error {
	a.mx.Lock()
	a.running = true
	a.mx.Unlock()

	if err := a.command.Open(source); err != nil {
		a.flash.Err(err)
	}

	return a.Application.Run()
}

// Stop closes every page and stops the application.
func (a *App) Stop() {
	a.mx.Lock()
	a.running = false
	a.mx.Unlock()

	if top := a.Top(); top != nil {
		top.Stop()
	}
	for _, c := range a.Content.Components() {
		if b, ok := c.(*Browser); ok {
			b.Close()
		}
	}
	a.Application.Stop()
}

// IsRunning returns whether the application is currently running.
func (a *App) IsRunning() bool {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return a.running
}

// Flash returns the flash message handler.
func (a *App) Flash() *Flash {
	return a.flash
}

// Factory returns the AWS factory.
func (a *App) Factory() dao.Factory {
	return a.factory
}

// Config returns the app configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Dispatch applies f on the UI goroutine and redraws. It must not be
// called from the UI goroutine.
func (a *App) Dispatch(f func()) {
	a.Application.QueueUpdateDraw(f)
}

// QueueUpdateDraw queues f without blocking the caller.
func (a *App) QueueUpdateDraw(f func()) {
	go a.Application.QueueUpdateDraw(f)
}

// Top returns the active page.
func (a *App) Top() model.Component {
	return a.Content.Current()
}

// Browser returns the active browser, if any.
func (a *App) Browser() (*Browser, bool) {
	b, ok := a.Top().(*Browser)
	return b, ok
}

func (a *App) inject(c ui.Component) error {
	if err := c.Init(context.Background()); err != nil {
		return fmt.Errorf("init %s: %w", c.Name(), err)
	}
	a.Content.Push(c)
	a.SetFocus(c)

	return nil
}

func (a *App) popPage() {
	c, ok := a.Content.Pop()
	if !ok {
		return
	}
	if b, ok := c.(*Browser); ok {
		b.Close()
	}
	a.focusTop()
}

func (a *App) focusTop() {
	if p, ok := a.Top().(tview.Primitive); ok {
		a.SetFocus(p)
	}
}

// Edit opens the inline prompt over the content.
func (a *App) Edit(label, text string, fn ui.PromptFunc) {
	a.prompt.Edit(label, text, func(s string, ok bool) {
		a.Main.RemovePage(promptPage)
		a.focusTop()
		fn(s, ok)
	})
	a.Main.AddPage(promptPage, centered(a.prompt, 60, 3), true, true)
	a.SetFocus(a.prompt)
}

// Confirm asks a yes/no question over the content.
func (a *App) Confirm(msg string, ack func()) {
	d := ui.ConfirmDialog(a.Content, msg, ack)
	d.SetDoneCallback(func() {
		a.setModal(false)
		a.focusTop()
	})
	a.setModal(true)
	d.Show()
	a.SetFocus(d)
}

func (a *App) isModal() bool {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return a.modal
}

func (a *App) setModal(b bool) {
	a.mx.Lock()
	defer a.mx.Unlock()

	a.modal = b
}

func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

func (a *App) buildLayout() *tview.Flex {
	header := tview.NewFlex().
		AddItem(a.cmdBar, 0, 1, false).
		AddItem(a.info, 36, 0, false)

	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 4, 0, false).
		AddItem(a.Content, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flash, 1, 0, false).
		AddItem(a.menu, ui.MenuRows, 0, false)
}

func (a *App) bindKeys() {
	a.actions.Bulk(ui.KeyMap{
		ui.KeyColon:    ui.NewKeyAction("Command", a.activateCmd(ui.ModeCommand), false),
		ui.KeyHash:     ui.NewKeyAction("Goto", a.activateCmd(ui.ModeGoto), false),
		ui.KeyQuestion: ui.NewKeyAction("Help", a.helpCmd, false),
		tcell.KeyEsc:   ui.NewKeyAction("Back", a.backCmd, false),
		tcell.KeyCtrlC: ui.NewKeyAction("Quit", a.quitCmd, false),
	})
}

func (a *App) bindHotKeys() error {
	if a.hotKeys == nil {
		return nil
	}
	for _, name := range a.hotKeys.Names() {
		hk := a.hotKeys.Get(name)
		if hk == nil {
			continue
		}
		key, ok := ui.KeyFor(hk.ShortCut)
		if !ok {
			return fmt.Errorf("hotkey %q: invalid shortcut %q", name, hk.ShortCut)
		}
		src := hk.Source
		a.actions.Add(key, ui.NewKeyAction(hk.Description, func(*tcell.EventKey) *tcell.EventKey {
			if err := a.command.Run(src); err != nil {
				a.flash.Err(err)
			}
			return nil
		}, false))
	}

	return nil
}

func (a *App) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	if a.cmdBar.IsActive() || a.prompt.IsActive() || a.isModal() {
		return evt
	}
	if name, _ := a.Main.GetFrontPage(); name != mainPage {
		return evt
	}
	if out, ok := a.actions.Dispatch(evt); ok {
		return out
	}

	return evt
}

func (a *App) activateCmd(mode ui.IndicatorMode) ui.ActionHandler {
	return func(*tcell.EventKey) *tcell.EventKey {
		a.cmdBar.Activate(mode)
		return nil
	}
}

func (a *App) helpCmd(evt *tcell.EventKey) *tcell.EventKey {
	if _, ok := a.Top().(*Help); ok {
		return evt
	}
	a.showHelp()
	return nil
}

func (a *App) showHelp() {
	var hints ui.MenuHints
	if h, ok := a.Top().(ui.Hinter); ok {
		hints = h.Hints()
	}
	if err := a.inject(NewHelp(a, hints)); err != nil {
		a.flash.Err(err)
	}
}

func (a *App) backCmd(evt *tcell.EventKey) *tcell.EventKey {
	if a.Content.IsLast() {
		return evt
	}
	a.popPage()
	return nil
}

func (a *App) quitCmd(*tcell.EventKey) *tcell.EventKey {
	a.Stop()
	return nil
}

func (a *App) gotoRow(s string) {
	b, ok := a.Browser()
	if !ok {
		return
	}
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		a.flash.Errf("goto %q: %w", s, err)
		return
	}
	b.GotoIndex(i)
}

// refreshAccount looks up the caller account in the background.
func (a *App) refreshAccount() {
	conn := a.factory.Client()
	if conn == nil {
		return
	}
	go func() {
		if err := conn.CheckConnectivity(context.Background()); err != nil {
			slog.Warn("AWS connectivity check failed", "error", err)
			a.flash.Warn("AWS account unavailable")
			return
		}
		a.QueueUpdateDraw(func() {
			a.info.SetInfo(a.factory.Profile(), a.factory.Region(), conn.AccountID(), a.version)
		})
	}()
}
