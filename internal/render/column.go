package render

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/rowscope/rowscope/internal/model1"
)

// Error represents a render error.
type Error string

const ErrReadOnly = Error("column is read only")

func (e Error) Error() string {
	return string(e)
}

// Column extracts, edits and orders one property of a row.
type Column interface {
	// Key returns the property key used by sort descriptions.
	Key() string

	// Attrs returns the column attributes.
	Attrs() model1.Attrs

	// Value returns the display value.
	Value(model1.Row) string

	// SortKey returns the value the sort comparator orders on.
	SortKey(model1.Row) string

	// Edit returns a copy of the row carrying the new value.
	Edit(model1.Row, string) (model1.Row, error)
}

// TextColumn reads a row field by position.
type TextColumn struct {
	model1.HeaderColumn
	pos int
}

// NewTextColumn returns a column bound to field pos.
func NewTextColumn(h model1.HeaderColumn, pos int) *TextColumn {
	return &TextColumn{HeaderColumn: h, pos: pos}
}

func (c *TextColumn) Key() string {
	return c.Name
}

func (c *TextColumn) Attrs() model1.Attrs {
	return c.HeaderColumn.Attrs
}

func (c *TextColumn) Value(r model1.Row) string {
	v := r.Field(c.pos)
	if c.Decorator != nil {
		return c.Decorator(v)
	}
	return v
}

func (c *TextColumn) SortKey(r model1.Row) string {
	return r.Field(c.pos)
}

func (c *TextColumn) Edit(r model1.Row, v string) (model1.Row, error) {
	if !c.Editable {
		return r, fmt.Errorf("%s: %w", c.Name, ErrReadOnly)
	}
	if c.pos < 0 || c.pos >= len(r.Fields) {
		return r, fmt.Errorf("no field %d for column %s", c.pos, c.Name)
	}
	out := r.Clone()
	out.Fields[c.pos] = v

	return out, nil
}

// TemplateColumn renders a text/template over the row fields keyed by
// header name, e.g. `{{.NAME}} ({{.AGE}})`.
type TemplateColumn struct {
	name   string
	attrs  model1.Attrs
	header model1.Header
	tpl    *template.Template
}

// NewTemplateColumn parses the template against the given header.
func NewTemplateColumn(name, text string, h model1.Header, attrs model1.Attrs) (*TemplateColumn, error) {
	tpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("column %s template: %w", name, err)
	}
	attrs.Editable = false

	return &TemplateColumn{
		name:   name,
		attrs:  attrs,
		header: h,
		tpl:    tpl,
	}, nil
}

func (c *TemplateColumn) Key() string {
	return c.name
}

func (c *TemplateColumn) Attrs() model1.Attrs {
	return c.attrs
}

func (c *TemplateColumn) Value(r model1.Row) string {
	var sb strings.Builder
	if err := c.tpl.Execute(&sb, r.Map(c.header)); err != nil {
		return ErrorValue
	}
	return sb.String()
}

func (c *TemplateColumn) SortKey(r model1.Row) string {
	return c.Value(r)
}

func (c *TemplateColumn) Edit(r model1.Row, _ string) (model1.Row, error) {
	return r, fmt.Errorf("%s: %w", c.name, ErrReadOnly)
}

// Columns represents an ordered set of columns.
type Columns []Column

// NewColumns returns one text column per header column.
func NewColumns(h model1.Header) Columns {
	cc := make(Columns, 0, len(h))
	for i, c := range h {
		if c.Hide {
			continue
		}
		cc = append(cc, NewTextColumn(c, i))
	}
	return cc
}

// Find returns the column for a key.
func (cc Columns) Find(key string) (Column, bool) {
	for _, c := range cc {
		if c.Key() == key {
			return c, true
		}
	}
	return nil, false
}

// Keys returns the column keys in display order.
func (cc Columns) Keys() []string {
	kk := make([]string, 0, len(cc))
	for _, c := range cc {
		kk = append(kk, c.Key())
	}
	return kk
}
