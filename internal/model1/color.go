package model1

import "github.com/derailed/tcell/v2"

var (
	// ModColor row modified color
	ModColor tcell.Color = tcell.ColorYellow

	// PendingColor row loading color
	PendingColor tcell.Color = tcell.ColorDarkCyan

	// ErrColor row error color
	ErrColor tcell.Color = tcell.ColorRed

	// StdColor row default color
	StdColor tcell.Color = tcell.ColorWhite

	// HighlightColor row highlight color
	HighlightColor tcell.Color = tcell.ColorAqua

	// SelectedColor row selected color
	SelectedColor tcell.Color = tcell.ColorGreen
)

// ItemColor picks a row color from its cache state.
func ItemColor(it Item, selected bool) tcell.Color {
	switch {
	case it.Failed:
		return ErrColor
	case it.Placeholder():
		return PendingColor
	case selected:
		return SelectedColor
	default:
		return StdColor
	}
}
