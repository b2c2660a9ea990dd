package gfx

import (
	"fmt"
	"image/color"

	"tinygo.org/x/tinyfont"
)

// Text rendering state and layout.
//
// The cursor's y coordinate is the glyph baseline, following the tinyfont
// convention: a glyph extends upward from the cursor by its height and the
// line advance moves the baseline down by the font's YAdvance times the
// text size. Text written past the right edge of the safe area wraps to the
// next line before the glyph is drawn, so no partial glyph ever appears at
// a boundary.

// SetCursor moves the text insertion point. x is the left edge of the next
// glyph cell, y its baseline.
func (d *Display) SetCursor(x, y int16) {
	d.cursorX = x
	d.cursorY = y
}

// Cursor returns the current text insertion point.
func (d *Display) Cursor() (x, y int16) {
	return d.cursorX, d.cursorY
}

// SetTextSize sets the integer magnification applied to glyphs: each source
// pixel becomes a size×size block. Values below 1 are clamped to 1.
func (d *Display) SetTextSize(size int16) {
	if size < 1 {
		size = 1
	}
	d.textSize = size
}

// SetTextColor sets the foreground color and makes glyph backgrounds
// transparent: clear bits leave the existing buffer content untouched.
func (d *Display) SetTextColor(c color.RGBA) {
	d.fg = c
	d.opaque = false
}

// SetTextBackground sets an opaque background color for subsequent glyphs:
// clear bits inside each glyph cell are painted with bg.
func (d *Display) SetTextBackground(bg color.RGBA) {
	d.bg = bg
	d.opaque = true
}

// SetFont selects the active font. nil restores the built-in 6x8 font.
func (d *Display) SetFont(f tinyfont.Fonter) {
	if f == nil {
		f = Font6x8
	}
	d.font = f
}

// SetWrap controls whether text wraps at the right edge of the safe area.
func (d *Display) SetWrap(wrap bool) {
	d.wrap = wrap
}

// TextCapacity returns how many whole glyph columns and rows fit inside the
// safe area at the current font and text size.
func (d *Display) TextCapacity() (cols, rows int) {
	sa := d.SafeArea()
	_, cw := tinyfont.LineWidth(d.font, "0")
	cellW := int(cw) * int(d.textSize)
	cellH := int(d.font.GetYAdvance()) * int(d.textSize)
	if cellW <= 0 || cellH <= 0 {
		return 0, 0
	}
	return sa.Dx() / cellW, sa.Dy() / cellH
}

// WriteString draws a string at the cursor, advancing it. '\n' moves to the
// next line, '\r' returns to the left edge of the current one.
func (d *Display) WriteString(s string) {
	for _, r := range s {
		d.writeRune(r)
	}
}

// Write implements io.Writer so the display can be a fmt output target.
func (d *Display) Write(p []byte) (int, error) {
	d.WriteString(string(p))
	return len(p), nil
}

// Printf formats per fmt.Printf and draws the result at the cursor.
func (d *Display) Printf(format string, args ...interface{}) {
	fmt.Fprintf(d, format, args...)
}

func (d *Display) writeRune(r rune) {
	switch r {
	case '\n':
		d.newline()
		return
	case '\r':
		d.cursorX = d.margin
		return
	}

	g := d.font.GetGlyph(r)
	info := g.Info()
	s := d.textSize
	advance := int16(info.XAdvance) * s

	if d.wrap && d.cursorX+advance > d.w-d.margin {
		d.newline()
	}

	if d.opaque {
		ya := int16(d.font.GetYAdvance())
		d.FillRectangle(d.cursorX, d.cursorY-(ya-1)*s, advance, ya*s, d.bg)
	}

	if s == 1 {
		g.Draw(d, d.cursorX, d.cursorY, d.fg)
	} else {
		// Glyphs are drawn through a scaler at origin (0, 0) so each glyph
		// pixel lands as a size×size block relative to the cursor.
		g.Draw(&glyphScaler{d: d, x: d.cursorX, y: d.cursorY, s: s}, 0, 0, d.fg)
	}
	d.cursorX += advance
}

func (d *Display) newline() {
	d.cursorX = d.margin
	d.cursorY += int16(d.font.GetYAdvance()) * d.textSize
}

// glyphScaler is a drivers.Displayer that magnifies glyph-relative pixel
// writes into size×size blocks at the cursor position.
type glyphScaler struct {
	d    *Display
	x, y int16
	s    int16
}

func (g *glyphScaler) Size() (int16, int16) {
	return g.d.Size()
}

func (g *glyphScaler) SetPixel(x, y int16, c color.RGBA) {
	g.d.FillRectangle(g.x+x*g.s, g.y+y*g.s, g.s, g.s, c)
}

func (g *glyphScaler) Display() error {
	return nil
}
