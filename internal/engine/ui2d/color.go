package ui2d

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Panel palette.
var (
	ColorTransparent  = Color{0, 0, 0, 0}
	ColorPanelBg      = Color{0.10, 0.11, 0.13, 0.92}
	ColorPanelBorder  = Color{0.32, 0.34, 0.38, 1}
	ColorButtonNormal = Color{0.18, 0.19, 0.22, 1}
	ColorButtonHover  = Color{0.26, 0.28, 0.32, 1}
	ColorButtonActive = Color{0.20, 0.36, 0.52, 1}
	ColorInputBg      = Color{0.06, 0.07, 0.08, 1}
	ColorInputBorder  = Color{0.24, 0.26, 0.30, 1}
	ColorText         = Color{0.92, 0.92, 0.92, 1}
	ColorHighlight    = Color{0.35, 0.65, 0.95, 1}
)

// WithAlpha returns c with alpha replaced.
func (c Color) WithAlpha(a float32) Color {
	return Color{c.R, c.G, c.B, a}
}
