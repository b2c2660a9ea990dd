// Package gfx is a framebuffer graphics layer for the st7789 panel driver.
//
// All drawing operations mutate an in-memory RGB565 buffer and never touch
// the bus; nothing is visible on the panel until Flush is called, which
// streams the entire buffer in a single full-window transfer. Out-of-bounds
// pixel writes are silently dropped, so shape algorithms at the visible edge
// never need their own clipping.
//
// Display implements the tinygo.org/x/drivers Displayer interface, so
// tinyfont fonts (and anything else written against Displayer) can render
// straight into the buffer.
package gfx

import (
	"image"
	"image/color"

	"tinygo.org/x/tinyfont"

	"github.com/bartola/st7789/rgb565"
)

// Flusher is the capability the graphics layer needs from the panel: its
// logical size and a full-frame raw pixel write. *st7789.Dev implements it;
// tests substitute a recording fake.
type Flusher interface {
	Size() (w, h int16)
	Write(pix []byte) (int, error)
}

// Opts is the configuration for a Display.
type Opts struct {
	// SafeMargin is the border, in pixels, excluded from the text safe area
	// to keep glyphs clear of the panel's rounded corners. The right value
	// is a cosmetic calibration: 10 works for the GMT147SPI, some units want
	// 20. Defaults to 10.
	//
	// Set to a negative value for no margin.
	SafeMargin int

	// Font is the initial font. Defaults to Font6x8.
	Font tinyfont.Fonter
}

// Display owns a full-frame pixel buffer sized to the panel's logical
// resolution. It is not safe for concurrent use; every operation assumes a
// single caller owns the whole buffer for its duration.
type Display struct {
	panel Flusher
	buf   *rgb565.Image
	w, h  int16

	// Text state
	cursorX, cursorY int16
	textSize         int16
	fg               color.RGBA
	bg               color.RGBA
	opaque           bool
	font             tinyfont.Fonter
	wrap             bool
	margin           int16
}

// New allocates a framebuffer matching the panel's current size.
//
// opts can be nil to use defaults.
func New(panel Flusher, opts *Opts) *Display {
	if opts == nil {
		opts = &Opts{}
	}
	margin := opts.SafeMargin
	if margin == 0 {
		margin = 10
	}
	if margin < 0 {
		margin = 0
	}
	font := opts.Font
	if font == nil {
		font = Font6x8
	}
	w, h := panel.Size()
	return &Display{
		panel:    panel,
		buf:      rgb565.NewImage(image.Rect(0, 0, int(w), int(h))),
		w:        w,
		h:        h,
		textSize: 1,
		fg:       color.RGBA{255, 255, 255, 255},
		bg:       color.RGBA{255, 255, 255, 255},
		font:     font,
		wrap:     true,
		margin:   int16(margin),
	}
}

// Size returns the logical resolution of the framebuffer.
func (d *Display) Size() (w, h int16) {
	return d.w, d.h
}

// Image returns the underlying RGB565 buffer. It can be used with the
// standard image/draw package; mutations become visible on the next Flush.
func (d *Display) Image() *rgb565.Image {
	return d.buf
}

// SafeArea returns the sub-rectangle of the panel kept clear of the rounded
// corners by the configured margin.
func (d *Display) SafeArea() image.Rectangle {
	m := int(d.margin)
	return image.Rect(m, m, int(d.w)-m, int(d.h)-m)
}

// SetPixel sets a single pixel. Out-of-bounds coordinates are a no-op.
func (d *Display) SetPixel(x, y int16, c color.RGBA) {
	d.buf.SetRGB565(int(x), int(y), rgb565.FromRGBA(c))
}

// Pixel returns the stored color of a pixel. Out-of-bounds coordinates
// return black.
func (d *Display) Pixel(x, y int16) rgb565.Color {
	return d.buf.RGB565At(int(x), int(y))
}

// FillScreen fills the whole buffer with a color.
func (d *Display) FillScreen(c color.RGBA) {
	d.FillRectangle(0, 0, d.w, d.h, c)
}

// FillRectangle fills the rectangle with top-left corner (x, y) spanning
// columns [x, x+w-1] and rows [y, y+h-1]. Zero or negative dimensions draw
// nothing; parts outside the buffer are clipped.
func (d *Display) FillRectangle(x, y, w, h int16, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	col := rgb565.FromRGBA(c)
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			d.buf.SetRGB565(int(xx), int(yy), col)
		}
	}
}

// DrawRectangle draws the one-pixel outline of the same rectangle
// FillRectangle would fill.
func (d *Display) DrawRectangle(x, y, w, h int16, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	d.DrawFastHLine(x, x+w-1, y, c)
	d.DrawFastHLine(x, x+w-1, y+h-1, c)
	d.DrawFastVLine(x, y, y+h-1, c)
	d.DrawFastVLine(x+w-1, y, y+h-1, c)
}

// DrawFastVLine draws a vertical line faster than using SetPixel.
func (d *Display) DrawFastVLine(x, y0, y1 int16, c color.RGBA) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	d.FillRectangle(x, y0, 1, y1-y0+1, c)
}

// DrawFastHLine draws a horizontal line faster than using SetPixel.
func (d *Display) DrawFastHLine(x0, x1, y int16, c color.RGBA) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	d.FillRectangle(x0, y, x1-x0+1, 1, c)
}

// DrawLine draws a line between two points using integer Bresenham
// stepping.
func (d *Display) DrawLine(x0, y0, x1, y1 int16, c color.RGBA) {
	if x0 == x1 {
		d.DrawFastVLine(x0, y0, y1, c)
		return
	}
	if y0 == y1 {
		d.DrawFastHLine(x0, x1, y0, c)
		return
	}
	dx := abs16(x1 - x0)
	dy := -abs16(y1 - y0)
	sx := int16(1)
	if x0 > x1 {
		sx = -1
	}
	sy := int16(1)
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		d.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// DrawCircle draws the outline of a circle centered at (x0, y0) using the
// midpoint algorithm with 8-way symmetric pixel writes.
func (d *Display) DrawCircle(x0, y0, r int16, c color.RGBA) {
	if r < 0 {
		return
	}
	f := 1 - r
	ddfx := int16(1)
	ddfy := -2 * r
	x := int16(0)
	y := r

	d.SetPixel(x0, y0+r, c)
	d.SetPixel(x0, y0-r, c)
	d.SetPixel(x0+r, y0, c)
	d.SetPixel(x0-r, y0, c)
	for x < y {
		if f >= 0 {
			y--
			ddfy += 2
			f += ddfy
		}
		x++
		ddfx += 2
		f += ddfx

		d.SetPixel(x0+x, y0+y, c)
		d.SetPixel(x0-x, y0+y, c)
		d.SetPixel(x0+x, y0-y, c)
		d.SetPixel(x0-x, y0-y, c)
		d.SetPixel(x0+y, y0+x, c)
		d.SetPixel(x0-y, y0+x, c)
		d.SetPixel(x0+y, y0-x, c)
		d.SetPixel(x0-y, y0-x, c)
	}
}

// FillCircle fills a circle centered at (x0, y0) by drawing symmetric
// vertical spans from the same midpoint walk DrawCircle uses.
func (d *Display) FillCircle(x0, y0, r int16, c color.RGBA) {
	if r < 0 {
		return
	}
	d.DrawFastVLine(x0, y0-r, y0+r, c)

	f := 1 - r
	ddfx := int16(1)
	ddfy := -2 * r
	x := int16(0)
	y := r
	for x < y {
		if f >= 0 {
			y--
			ddfy += 2
			f += ddfy
		}
		x++
		ddfx += 2
		f += ddfx

		d.DrawFastVLine(x0+x, y0-y, y0+y, c)
		d.DrawFastVLine(x0-x, y0-y, y0+y, c)
		d.DrawFastVLine(x0+y, y0-x, y0+x, c)
		d.DrawFastVLine(x0-y, y0-x, y0+x, c)
	}
}

// Flush transfers the entire buffer to the panel in a single full-window
// write, regardless of how much changed since the last flush. This is the
// only operation in the package that touches the bus. Once started, the
// transfer runs to completion; there is no cancellation (an interrupted
// window write would desynchronize the controller).
func (d *Display) Flush() error {
	_, err := d.panel.Write(d.buf.Pix)
	return err
}

// Display flushes the buffer to the panel. It exists to satisfy the
// drivers.Displayer interface; it is equivalent to Flush.
func (d *Display) Display() error {
	return d.Flush()
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}
