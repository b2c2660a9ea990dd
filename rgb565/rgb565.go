// Package rgb565 provides the 16-bit RGB565 pixel format used by the ST7789
// panel controller.
//
// A pixel is a single 16-bit word with 5 bits red, 6 bits green and 5 bits
// blue. Pixels are stored most-significant-byte first, which is the order
// the controller expects on the wire, so an Image's Pix slice can be
// streamed to the panel without conversion.
package rgb565

import (
	"image"
	"image/color"
)

// Color is a 16-bit RGB565 color word: RRRRRGGG GGGBBBBB.
type Color uint16

// Panel colors, matching the classic ST77XX palette.
const (
	Black   Color = 0x0000
	White   Color = 0xFFFF
	Red     Color = 0xF800
	Green   Color = 0x07E0
	Blue    Color = 0x001F
	Cyan    Color = 0x07FF
	Magenta Color = 0xF81F
	Yellow  Color = 0xFFE0
	Orange  Color = 0xFD20
)

// New packs 8-bit color channels into a Color.
func New(r, g, b uint8) Color {
	return Color(uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b)>>3)
}

// RGBA converts the Color to standard 16-bit-per-channel RGBA. Channels are
// expanded by bit replication so that full-scale RGB565 values map back to
// full-scale RGBA.
func (c Color) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F
	r8 := r5<<3 | r5>>2
	g8 := g6<<2 | g6>>4
	b8 := b5<<3 | b5>>2
	return r8 * 0x101, g8 * 0x101, b8 * 0x101, 0xFFFF
}

// FromRGBA converts a color.RGBA to a Color without going through the
// color.Color interface.
func FromRGBA(c color.RGBA) Color {
	return New(c.R, c.G, c.B)
}

func toColor(c color.Color) color.Color {
	if _, ok := c.(Color); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return New(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Model converts colors to Color.
var Model = color.ModelFunc(toColor)

// Image is an in-memory RGB565 image. Pixels are stored row-major, two
// bytes per pixel, most significant byte first.
type Image struct {
	Pix    []byte          // Pixel data, 2 bytes per pixel
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewImage creates a new Image with the specified bounds.
func NewImage(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Image{Rect: r}
	}
	stride := w * 2
	return &Image{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *Image) ColorModel() color.Model {
	return Model
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y). It implements the
// image.Image interface.
func (p *Image) At(x, y int) color.Color {
	return p.RGB565At(x, y)
}

// RGB565At returns the Color of the pixel at (x, y). Out-of-bounds reads
// return zero (black).
func (p *Image) RGB565At(x, y int) Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0
	}
	offset := p.PixOffset(x, y)
	return Color(uint16(p.Pix[offset])<<8 | uint16(p.Pix[offset+1]))
}

// Set sets the color of the pixel at (x, y). Out-of-bounds writes are
// silently dropped.
func (p *Image) Set(x, y int, c color.Color) {
	p.SetRGB565(x, y, Model.Convert(c).(Color))
}

// SetRGB565 sets the Color of the pixel at (x, y). This is faster than
// Set() as it doesn't require color conversion. Out-of-bounds writes are
// silently dropped.
func (p *Image) SetRGB565(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	offset := p.PixOffset(x, y)
	p.Pix[offset] = byte(c >> 8)
	p.Pix[offset+1] = byte(c)
}

// PixOffset returns the byte offset of the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}
