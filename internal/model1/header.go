package model1

import (
	"fmt"
	"reflect"
)

// Attrs represents column attributes
type Attrs struct {
	Align     int  // tview alignment
	Wide      bool // Hidden in narrow view
	Time      bool // Duration column
	Capacity  bool // Byte sizes (right-align)
	Number    bool // Numeric (right-align)
	Editable  bool
	Sortable  bool
	Hide      bool // Always hidden
	Decorator DecoratorFunc
}

func (a Attrs) Merge(b Attrs) Attrs {
	if a.Align == 0 {
		a.Align = b.Align
	}
	a.Hide = a.Hide || b.Hide
	a.Wide = a.Wide || b.Wide
	a.Time = a.Time || b.Time
	a.Capacity = a.Capacity || b.Capacity
	a.Number = a.Number || b.Number
	a.Editable = a.Editable || b.Editable
	a.Sortable = a.Sortable || b.Sortable
	if a.Decorator == nil {
		a.Decorator = b.Decorator
	}
	return a
}

// HeaderColumn represents a table header column
type HeaderColumn struct {
	Name string
	Attrs
}

func (h HeaderColumn) String() string {
	return fmt.Sprintf("%s [%d::%t::%t]", h.Name, h.Align, h.Wide, h.Time)
}

// Header represents a table header (slice of columns)
type Header []HeaderColumn

func (h Header) Clone() Header {
	he := make(Header, len(h))
	copy(he, h)
	return he
}

func (h Header) Diff(header Header) bool {
	if len(h) != len(header) {
		return true
	}
	for i := range h {
		if h[i].Name != header[i].Name || !reflect.DeepEqual(h[i].Align, header[i].Align) {
			return true
		}
	}
	return false
}

func (h Header) IndexOf(colName string, includeWide bool) (int, bool) {
	for i, c := range h {
		if c.Wide && !includeWide {
			continue
		}
		if c.Name == colName {
			return i, true
		}
	}
	return -1, false
}

func (h Header) IsTimeCol(col int) bool {
	if col < 0 || col >= len(h) {
		return false
	}
	return h[col].Time
}

func (h Header) IsCapacityCol(col int) bool {
	if col < 0 || col >= len(h) {
		return false
	}
	return h[col].Capacity
}

func (h Header) ColumnNames(wide bool) []string {
	if len(h) == 0 {
		return nil
	}
	cc := make([]string, 0, len(h))
	for _, c := range h {
		if c.Hide || (!wide && c.Wide) {
			continue
		}
		cc = append(cc, c.Name)
	}
	return cc
}
