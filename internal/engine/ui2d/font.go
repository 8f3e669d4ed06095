package ui2d

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	firstGlyph    = ' '
	lastGlyph     = '~'
	atlasCols     = 16
	glyphFallback = '?'
)

// Font is a fixed-width bitmap font rasterized into a single alpha atlas.
type Font struct {
	atlas          *image.Alpha
	glyphW, glyphH int
}

// NewFont rasterizes the printable ASCII range of the 7x13 basic font.
func NewFont() *Font {
	face := basicfont.Face7x13
	gw, gh := face.Advance, face.Height
	count := int(lastGlyph - firstGlyph + 1)
	rows := (count + atlasCols - 1) / atlasCols

	atlas := image.NewAlpha(image.Rect(0, 0, atlasCols*gw, rows*gh))
	d := font.Drawer{
		Dst:  atlas,
		Src:  image.Opaque,
		Face: face,
	}
	for r := firstGlyph; r <= lastGlyph; r++ {
		i := int(r - firstGlyph)
		x, y := (i%atlasCols)*gw, (i/atlasCols)*gh
		d.Dot = fixed.P(x, y+face.Ascent)
		d.DrawString(string(r))
	}

	return &Font{atlas: atlas, glyphW: gw, glyphH: gh}
}

// Atlas returns the glyph atlas; the alpha channel is the coverage.
func (f *Font) Atlas() *image.Alpha {
	return f.atlas
}

// GlyphSize returns the size of one glyph cell in pixels.
func (f *Font) GlyphSize() (int, int) {
	return f.glyphW, f.glyphH
}

// GetGlyphUV returns the atlas coordinates of r. Runes outside the
// printable ASCII range use '?'.
func (f *Font) GetGlyphUV(r rune) (u0, v0, u1, v1 float32) {
	if r < firstGlyph || r > lastGlyph {
		r = glyphFallback
	}
	i := int(r - firstGlyph)
	b := f.atlas.Bounds()
	aw, ah := float32(b.Dx()), float32(b.Dy())

	x, y := float32((i%atlasCols)*f.glyphW), float32((i/atlasCols)*f.glyphH)
	return x / aw, y / ah, (x + float32(f.glyphW)) / aw, (y + float32(f.glyphH)) / ah
}

// MeasureText returns the width of the longest line and the total height.
func (f *Font) MeasureText(text string, scale float32) (float32, float32) {
	lines, longest, cur := 1, 0, 0
	for _, r := range text {
		if r == '\n' {
			lines++
			cur = 0
			continue
		}
		cur++
		longest = max(longest, cur)
	}
	return float32(longest*f.glyphW) * scale, float32(lines*f.glyphH) * scale
}
