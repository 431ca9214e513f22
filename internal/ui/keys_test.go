package ui

import (
	"testing"

	"github.com/derailed/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyActionsHints(t *testing.T) {
	noop := func(*tcell.EventKey) *tcell.EventKey { return nil }
	aa := NewKeyActions()
	aa.Bulk(KeyMap{
		KeyShiftO:      NewKeyAction("Flip Sort", noop, true),
		KeySpace:       NewKeyAction("Mark", noop, true),
		KeyJ:           NewKeyAction("Down", noop, false),
		tcell.KeyCtrlS: NewKeyAction("Sort Next", noop, true),
	})

	hh := aa.Hints()
	require.Len(t, hh, 3)
	for _, h := range hh {
		assert.True(t, h.Visible)
		assert.NotEqual(t, "Down", h.Description)
	}

	aa.Delete(KeyShiftO, KeySpace)
	assert.Equal(t, 2, aa.Len())
	_, ok := aa.Get(KeySpace)
	assert.False(t, ok)
}

func TestKeyActionsDispatch(t *testing.T) {
	var hits []string
	record := func(s string) ActionHandler {
		return func(*tcell.EventKey) *tcell.EventKey {
			hits = append(hits, s)
			return nil
		}
	}
	aa := NewKeyActions()
	aa.Add(KeyJ, NewKeyAction("Down", record("j"), false))
	aa.Add(tcell.KeyCtrlA, NewKeyAction("All", record("ctrl-a"), true))

	uu := map[string]struct {
		evt *tcell.EventKey
		ok  bool
	}{
		"rune": {
			evt: tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone),
			ok:  true,
		},
		"named": {
			evt: tcell.NewEventKey(tcell.KeyCtrlA, 0, tcell.ModCtrl),
			ok:  true,
		},
		"unbound": {
			evt: tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone),
		},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			out, ok := aa.Dispatch(u.evt)
			assert.Equal(t, u.ok, ok)
			if ok {
				assert.Nil(t, out)
			}
		})
	}
	assert.ElementsMatch(t, []string{"j", "ctrl-a"}, hits)
}

func TestKeyName(t *testing.T) {
	assert.Equal(t, "space", KeyName(KeySpace))
	assert.Equal(t, "G", KeyName(KeyShiftG))
}

func TestKeyFor(t *testing.T) {
	uu := map[string]struct {
		name string
		key  tcell.Key
		ok   bool
	}{
		"rune":  {name: "x", key: tcell.Key('x'), ok: true},
		"shift": {name: "Shift-P", key: tcell.Key('P'), ok: true},
		"ctrl":  {name: "Ctrl-P", key: tcell.KeyCtrlP, ok: true},
		"fn":    {name: "F2", key: tcell.KeyF2, ok: true},
		"space": {name: "space", key: KeySpace, ok: true},
		"bad":   {name: "Hyper-Z"},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			key, ok := KeyFor(u.name)
			assert.Equal(t, u.ok, ok)
			if ok {
				assert.Equal(t, u.key, key)
			}
		})
	}
}
