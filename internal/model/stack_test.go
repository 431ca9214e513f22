package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type page struct {
	name  string
	calls []string
}

func (p *page) Name() string { return p.name }
func (p *page) Start()       { p.calls = append(p.calls, "start") }
func (p *page) Stop()        { p.calls = append(p.calls, "stop") }

type stackRecorder struct {
	events []string
}

func (r *stackRecorder) StackPushed(c Component) {
	r.events = append(r.events, "push:"+c.Name())
}

func (r *stackRecorder) StackPopped(old, top Component) {
	name := "<nil>"
	if top != nil {
		name = top.Name()
	}
	r.events = append(r.events, "pop:"+old.Name()+">"+name)
}

func (r *stackRecorder) StackTop(c Component) {
	r.events = append(r.events, "top:"+c.Name())
}

func TestStackPushPop(t *testing.T) {
	s := NewStack()
	var rec stackRecorder
	s.AddListener(&rec)

	people, db := &page{name: "people"}, &page{name: "db"}
	s.Push(people)
	s.Push(db)
	assert.Equal(t, []string{"people", "db"}, s.Flatten())
	assert.Equal(t, []string{"start", "stop"}, people.calls)

	c, ok := s.Pop()
	assert.True(t, ok)
	assert.Equal(t, db, c)
	assert.True(t, s.IsLast())
	assert.Equal(t, []string{"start", "stop", "start"}, people.calls)
	assert.Equal(t, []string{"start", "stop"}, db.calls)

	assert.Equal(t, []string{
		"push:people", "top:people",
		"push:db", "top:db",
		"pop:db>people", "top:people",
	}, rec.events)

	s.Clear()
	assert.True(t, s.Empty())
	_, ok = s.Pop()
	assert.False(t, ok)
}

func TestStackListenerReplaysTop(t *testing.T) {
	s := NewStack()
	s.Push(&page{name: "people"})

	var rec stackRecorder
	s.AddListener(&rec)
	assert.Equal(t, []string{"top:people"}, rec.events)

	s.RemoveListener(&rec)
	s.Push(&page{name: "db"})
	assert.Len(t, rec.events, 1)
	assert.Equal(t, 2, s.Len())
}
