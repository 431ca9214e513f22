package ui

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/derailed/tcell/v2"
)

// Rune keys share the tcell.Key space with named keys.
const (
	KeySpace    = tcell.Key(' ')
	KeyHash     = tcell.Key('#')
	KeySlash    = tcell.Key('/')
	KeyColon    = tcell.Key(':')
	KeyQuestion = tcell.Key('?')
	KeyShiftG   = tcell.Key('G')
	KeyShiftN   = tcell.Key('N')
	KeyShiftO   = tcell.Key('O')
	KeyShiftV   = tcell.Key('V')
	KeyD        = tcell.Key('d')
	KeyE        = tcell.Key('e')
	KeyG        = tcell.Key('g')
	KeyH        = tcell.Key('h')
	KeyJ        = tcell.Key('j')
	KeyK        = tcell.Key('k')
	KeyL        = tcell.Key('l')
	KeyQ        = tcell.Key('q')
	KeyY        = tcell.Key('y')
	KeyW        = tcell.Key('w')
	KeyShiftE   = tcell.Key('E')
)

// ActionHandler handles a keyboard command.
type ActionHandler func(*tcell.EventKey) *tcell.EventKey

// KeyAction represents a keyboard action.
type KeyAction struct {
	Description string
	Action      ActionHandler
	Visible     bool
}

// KeyMap tracks key to action mappings.
type KeyMap map[tcell.Key]KeyAction

// NewKeyAction returns a new keyboard action.
func NewKeyAction(d string, a ActionHandler, display bool) KeyAction {
	return KeyAction{Description: d, Action: a, Visible: display}
}

// KeyActions tracks the actions of a view.
type KeyActions struct {
	actions KeyMap
	mx      sync.RWMutex
}

// NewKeyActions returns an empty action set.
func NewKeyActions() *KeyActions {
	return &KeyActions{actions: make(KeyMap)}
}

// Add registers or replaces an action.
func (a *KeyActions) Add(k tcell.Key, ka KeyAction) {
	a.mx.Lock()
	defer a.mx.Unlock()

	a.actions[k] = ka
}

// Bulk registers several actions.
func (a *KeyActions) Bulk(km KeyMap) {
	a.mx.Lock()
	defer a.mx.Unlock()

	for k, v := range km {
		a.actions[k] = v
	}
}

// Get returns the action bound to k.
func (a *KeyActions) Get(k tcell.Key) (KeyAction, bool) {
	a.mx.RLock()
	defer a.mx.RUnlock()

	v, ok := a.actions[k]
	return v, ok
}

// Delete removes actions.
func (a *KeyActions) Delete(kk ...tcell.Key) {
	a.mx.Lock()
	defer a.mx.Unlock()

	for _, k := range kk {
		delete(a.actions, k)
	}
}

// Len returns the number of actions.
func (a *KeyActions) Len() int {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return len(a.actions)
}

// Hints returns the visible actions as menu hints.
func (a *KeyActions) Hints() MenuHints {
	a.mx.RLock()
	defer a.mx.RUnlock()

	kk := make([]tcell.Key, 0, len(a.actions))
	for k := range a.actions {
		kk = append(kk, k)
	}
	sort.Slice(kk, func(i, j int) bool { return kk[i] < kk[j] })

	hh := make(MenuHints, 0, len(kk))
	for _, k := range kk {
		act := a.actions[k]
		if !act.Visible {
			continue
		}
		hh = append(hh, MenuHint{
			Mnemonic:    KeyName(k),
			Description: act.Description,
			Visible:     act.Visible,
		})
	}

	return hh
}

// Dispatch runs the action bound to the event key, if any.
func (a *KeyActions) Dispatch(evt *tcell.EventKey) (*tcell.EventKey, bool) {
	k := evt.Key()
	if k == tcell.KeyRune {
		k = tcell.Key(evt.Rune())
	}
	act, ok := a.Get(k)
	if !ok {
		return evt, false
	}

	return act.Action(evt), true
}

// KeyName returns a display name for a key.
func KeyName(k tcell.Key) string {
	if k == KeySpace {
		return "space"
	}
	if n, ok := tcell.KeyNames[k]; ok {
		return n
	}
	return string(rune(k))
}

// KeyFor parses a shortcut such as "Shift-P", "Ctrl-P", "F2" or "x".
func KeyFor(name string) (tcell.Key, bool) {
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return tcell.Key(r), true
	}
	if strings.EqualFold(name, "space") {
		return KeySpace, true
	}
	if rest, ok := strings.CutPrefix(strings.ToLower(name), "shift-"); ok && len(rest) == 1 {
		return tcell.Key(strings.ToUpper(rest)[0]), true
	}
	for k, n := range tcell.KeyNames {
		if strings.EqualFold(n, name) {
			return k, true
		}
	}

	return 0, false
}
