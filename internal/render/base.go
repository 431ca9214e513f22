package render

import (
	"github.com/derailed/tcell/v2"
	"github.com/rowscope/rowscope/internal/model1"
)

// ColorerFunc picks a row color.
type ColorerFunc func(h model1.Header, it model1.Item, selected bool) tcell.Color

// Base provides a base renderer implementation
type Base struct{}

// ColorerFunc returns the default colorer
func (*Base) ColorerFunc() ColorerFunc {
	return DefaultColorer
}

// DefaultColorer colors rows by cache state and selection.
func DefaultColorer(_ model1.Header, it model1.Item, selected bool) tcell.Color {
	return model1.ItemColor(it, selected)
}
