// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package view

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"gopkg.in/yaml.v3"

	"github.com/rowscope/rowscope/internal/model1"
	"github.com/rowscope/rowscope/internal/render"
	"github.com/rowscope/rowscope/internal/ui"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

// rowDoc is the describe document of one row.
type rowDoc struct {
	Index  int               `yaml:"index" json:"index"`
	ID     string            `yaml:"id,omitempty" json:"id,omitempty"`
	Fields yaml.Node         `yaml:"fields" json:"-"`
	Values map[string]string `yaml:"-" json:"fields"`
}

// Describe shows one row as YAML or JSON.
type Describe struct {
	*tview.TextView

	source  string
	doc     rowDoc
	format  string
	wrapOn  bool
	actions *ui.KeyActions
}

// NewDescribe returns a describe view of it.
func NewDescribe(source string, cols render.Columns, it model1.Item) *Describe {
	d := Describe{
		TextView: tview.NewTextView(),
		source:   source,
		format:   formatYAML,
		actions:  ui.NewKeyActions(),
		doc: rowDoc{
			Index:  it.Index,
			ID:     it.Row.ID,
			Fields: yaml.Node{Kind: yaml.MappingNode},
			Values: make(map[string]string, len(cols)),
		},
	}
	for _, c := range cols {
		v := c.Value(it.Row)
		d.doc.Values[c.Key()] = v
		d.doc.Fields.Content = append(d.doc.Fields.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: c.Key()},
			&yaml.Node{Kind: yaml.ScalarNode, Value: v},
		)
	}

	return &d
}

// Init initializes the describe view.
func (d *Describe) Init(context.Context) error {
	d.SetDynamicColors(true)
	d.SetWrap(false)
	d.SetScrollable(true)
	d.SetBorder(true)
	d.SetBorderPadding(0, 0, 1, 1)
	d.SetBorderColor(tcell.ColorAqua)
	d.SetInputCapture(d.keyboard)
	d.actions.Bulk(ui.KeyMap{
		ui.KeyY: ui.NewKeyAction("YAML", d.formatCmd(formatYAML), true),
		ui.KeyJ: ui.NewKeyAction("JSON", d.formatCmd(formatJSON), true),
		ui.KeyW: ui.NewKeyAction("Wrap", d.wrapCmd, true),
	})

	return nil
}

// Start renders the document.
func (d *Describe) Start() {
	d.Refresh()
}

// Stop implements model.Component.
func (*Describe) Stop() {}

// Name returns the view name.
func (*Describe) Name() string {
	return "describe"
}

// Hints returns the menu hints for this view.
func (d *Describe) Hints() ui.MenuHints {
	return d.actions.Hints()
}

// Refresh renders the document in the current format.
func (d *Describe) Refresh() {
	d.SetTitle(fmt.Sprintf(" %s(%s)[%d] ", d.format, d.source, d.doc.Index))
	d.SetText(d.content())
	d.ScrollToBeginning()
}

func (d *Describe) content() string {
	if d.format == formatJSON {
		bb, err := json.MarshalIndent(d.doc, "", "  ")
		if err != nil {
			return fmt.Sprintf("[red::]error generating JSON: %v[-::]", err)
		}
		return tview.Escape(string(bb))
	}

	bb, err := yaml.Marshal(&d.doc)
	if err != nil {
		return fmt.Sprintf("[red::]error generating YAML: %v[-::]", err)
	}

	return highlightYAML(string(bb))
}

func (d *Describe) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	if out, ok := d.actions.Dispatch(evt); ok {
		return out
	}

	return evt
}

func (d *Describe) formatCmd(format string) ui.ActionHandler {
	return func(*tcell.EventKey) *tcell.EventKey {
		d.format = format
		d.Refresh()
		return nil
	}
}

func (d *Describe) wrapCmd(*tcell.EventKey) *tcell.EventKey {
	d.wrapOn = !d.wrapOn
	d.SetWrap(d.wrapOn)
	d.SetWordWrap(d.wrapOn)
	return nil
}

// highlightYAML colors keys and typed values.
func highlightYAML(content string) string {
	var out strings.Builder
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		idx := strings.Index(line, ":")
		if idx <= 0 {
			out.WriteString(tview.Escape(line) + "\n")
			continue
		}
		key, value := line[:idx+1], strings.TrimSpace(line[idx+1:])
		indent := len(key) - len(strings.TrimLeft(key, " -"))
		if value == "" {
			fmt.Fprintf(&out, "%s[aqua::]%s[-::]\n", key[:indent], tview.Escape(key[indent:]))
			continue
		}
		fmt.Fprintf(&out, "%s[aqua::]%s[-::] %s\n", key[:indent], tview.Escape(key[indent:]), colorizeValue(value))
	}

	return out.String()
}

// colorizeValue colors booleans, numbers and nulls.
func colorizeValue(value string) string {
	trimmed := strings.Trim(value, `"'`)
	esc := tview.Escape(value)
	switch strings.ToLower(trimmed) {
	case "true":
		return "[green::]" + esc + "[-::]"
	case "false":
		return "[red::]" + esc + "[-::]"
	case "null", "~", model1.NAValue:
		return "[gray::]" + esc + "[-::]"
	}
	if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return "[fuchsia::]" + esc + "[-::]"
	}

	return esc
}
