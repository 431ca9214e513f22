package ui

import (
	"testing"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPage struct {
	*tview.Box

	name    string
	running bool
}

func newTestPage(n string) *testPage {
	return &testPage{Box: tview.NewBox(), name: n}
}

func (p *testPage) Name() string { return p.name }
func (p *testPage) Start()       { p.running = true }
func (p *testPage) Stop()        { p.running = false }

func (p *testPage) Hints() MenuHints {
	return MenuHints{{Mnemonic: "ctrl-r", Description: "Refresh " + p.name, Visible: true}}
}

func TestPagesStack(t *testing.T) {
	pp := NewPages()
	crumbs, menu := NewCrumbs(), NewMenu()
	pp.AddListener(crumbs)
	pp.AddListener(menu)

	a, b := newTestPage("people"), newTestPage("describe")
	pp.Push(a)
	pp.Push(b)

	assert.Equal(t, 2, pp.GetPageCount())
	assert.Equal(t, []string{"people", "describe"}, crumbs.Names())
	assert.False(t, a.running)
	assert.True(t, b.running)
	assert.Equal(t, b, pp.Current())
	name, _ := pp.GetFrontPage()
	assert.Equal(t, componentID(b), name)
	require.NotNil(t, menu.GetCell(0, 0))
	assert.Contains(t, menu.GetCell(0, 0).Text, "Refresh describe")

	pp.Pop()
	assert.Equal(t, 1, pp.GetPageCount())
	assert.Equal(t, []string{"people"}, crumbs.Names())
	assert.True(t, a.running)
	assert.False(t, b.running)
	assert.Contains(t, menu.GetCell(0, 0).Text, "Refresh people")

	pp.Stack.Clear()
	assert.Zero(t, pp.GetPageCount())
	assert.Empty(t, crumbs.Names())
}

func TestMenuHydrate(t *testing.T) {
	m := NewMenu()
	m.HydrateMenu(MenuHints{
		{Mnemonic: "b", Description: "Bravo", Visible: true},
		{Mnemonic: "a", Description: "Alpha", Visible: true},
		{Mnemonic: "0", Description: "All", Visible: true},
		{Mnemonic: "x", Description: "Hidden"},
	})

	assert.Equal(t, 3, m.GetRowCount())
	assert.Contains(t, m.GetCell(0, 0).Text, "<0>")
	assert.Contains(t, m.GetCell(1, 0).Text, "Alpha")
	assert.Contains(t, m.GetCell(2, 0).Text, "Bravo")
}

func TestCmdBar(t *testing.T) {
	var got []string
	c := NewCmdBar()
	c.SetCommands([]string{"people", "mem", "sort"})
	c.SetCommandFn(func(s string) { got = append(got, "cmd:"+s) })
	c.SetGotoFn(func(s string) { got = append(got, "goto:"+s) })

	typeIn := func(s string) {
		for _, r := range s {
			c.keyboard(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
		}
	}

	evt := tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone)
	assert.Equal(t, evt, c.keyboard(evt))

	c.Activate(ModeCommand)
	typeIn("pe")
	assert.Equal(t, []string{"people"}, c.Suggestions("pe"))
	c.keyboard(tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone))
	assert.Equal(t, "people", c.GetText())
	c.keyboard(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	assert.False(t, c.IsActive())

	c.Activate(ModeGoto)
	typeIn("4x2")
	assert.Equal(t, "42", c.GetText())
	c.keyboard(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))

	c.Activate(ModeCommand)
	typeIn("q")
	c.keyboard(tcell.NewEventKey(tcell.KeyEsc, 0, tcell.ModNone))
	assert.Equal(t, ModeNormal, c.Mode())

	assert.Equal(t, []string{"cmd:people", "goto:42"}, got)
}

func TestPrompt(t *testing.T) {
	var (
		text string
		ok   bool
	)
	p := NewPrompt()
	p.Edit("NAME", "Ada", func(s string, commit bool) { text, ok = s, commit })
	assert.True(t, p.IsActive())
	p.SetText("Grace")
	p.done(tcell.KeyEnter)
	assert.False(t, p.IsActive())
	assert.Equal(t, "Grace", text)
	assert.True(t, ok)

	p.Edit("NAME", "Ada", func(s string, commit bool) { text, ok = s, commit })
	p.done(tcell.KeyEsc)
	assert.False(t, ok)
}
