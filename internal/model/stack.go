package model

import (
	"sync"
)

// Component represents a page that can be pushed on a stack.
type Component interface {
	Name() string
	Start()
	Stop()
}

// StackListener listens to stack events.
type StackListener interface {
	StackPushed(Component)
	StackPopped(old, top Component)
	StackTop(Component)
}

// Stack tracks the page history. Only the top component runs.
type Stack struct {
	components []Component
	listeners  []StackListener
	mx         sync.RWMutex
}

// NewStack returns a new stack.
func NewStack() *Stack {
	return &Stack{}
}

// AddListener registers a stack listener and replays the current top.
func (s *Stack) AddListener(l StackListener) {
	s.mx.Lock()
	s.listeners = append(s.listeners, l)
	s.mx.Unlock()

	if top := s.Top(); top != nil {
		l.StackTop(top)
	}
}

// RemoveListener removes a stack listener.
func (s *Stack) RemoveListener(l StackListener) {
	s.mx.Lock()
	defer s.mx.Unlock()

	for i, lis := range s.listeners {
		if lis == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Push stops the current top then adds and starts c.
func (s *Stack) Push(c Component) {
	if top := s.Top(); top != nil {
		top.Stop()
	}

	s.mx.Lock()
	s.components = append(s.components, c)
	s.mx.Unlock()

	for _, l := range s.snapshot() {
		l.StackPushed(c)
		l.StackTop(c)
	}
	c.Start()
}

// Pop stops and removes the top component, then restarts the new top.
func (s *Stack) Pop() (Component, bool) {
	s.mx.Lock()
	if len(s.components) == 0 {
		s.mx.Unlock()
		return nil, false
	}
	c := s.components[len(s.components)-1]
	s.components = s.components[:len(s.components)-1]
	s.mx.Unlock()

	c.Stop()
	top := s.Top()
	for _, l := range s.snapshot() {
		l.StackPopped(c, top)
		if top != nil {
			l.StackTop(top)
		}
	}
	if top != nil {
		top.Start()
	}

	return c, true
}

// Top returns the top component or nil.
func (s *Stack) Top() Component {
	s.mx.RLock()
	defer s.mx.RUnlock()

	if len(s.components) == 0 {
		return nil
	}
	return s.components[len(s.components)-1]
}

// Empty checks if stack is empty.
func (s *Stack) Empty() bool {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return len(s.components) == 0
}

// IsLast indicates if stack only has one item left.
func (s *Stack) IsLast() bool {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return len(s.components) == 1
}

// Len returns the stack depth.
func (s *Stack) Len() int {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return len(s.components)
}

// Clear pops every component.
func (s *Stack) Clear() {
	for {
		if _, ok := s.Pop(); !ok {
			return
		}
	}
}

// Components returns the stacked components, bottom first.
func (s *Stack) Components() []Component {
	s.mx.RLock()
	defer s.mx.RUnlock()

	cc := make([]Component, len(s.components))
	copy(cc, s.components)
	return cc
}

// Flatten returns all component names, bottom first.
func (s *Stack) Flatten() []string {
	s.mx.RLock()
	defer s.mx.RUnlock()

	ss := make([]string, len(s.components))
	for i, c := range s.components {
		ss[i] = c.Name()
	}
	return ss
}

func (s *Stack) snapshot() []StackListener {
	s.mx.RLock()
	defer s.mx.RUnlock()

	ll := make([]StackListener, len(s.listeners))
	copy(ll, s.listeners)
	return ll
}
