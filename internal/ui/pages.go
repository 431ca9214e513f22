package ui

import (
	"fmt"
	"log/slog"

	"github.com/derailed/tview"

	"github.com/rowscope/rowscope/internal/model"
)

// Pages shows the top of a component stack.
type Pages struct {
	*tview.Pages
	*model.Stack
}

// NewPages returns a new pages manager.
func NewPages() *Pages {
	p := Pages{
		Pages: tview.NewPages(),
		Stack: model.NewStack(),
	}
	p.Stack.AddListener(&p)

	return &p
}

// Current returns the top component.
func (p *Pages) Current() model.Component {
	return p.Stack.Top()
}

// StackPushed adds the component as the front page.
func (p *Pages) StackPushed(c model.Component) {
	prim, ok := c.(tview.Primitive)
	if !ok {
		slog.Error("Component is not a primitive", "name", c.Name())
		return
	}
	p.AddPage(componentID(c), prim, true, true)
}

// StackPopped removes the old component page.
func (p *Pages) StackPopped(o, _ model.Component) {
	p.RemovePage(componentID(o))
}

// StackTop brings the top component to the front.
func (p *Pages) StackTop(top model.Component) {
	if top == nil {
		return
	}
	p.SwitchToPage(componentID(top))
}

func componentID(c model.Component) string {
	return fmt.Sprintf("%s-%p", c.Name(), c)
}
