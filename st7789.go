// Package st7789 controls an ST7789 TFT LCD panel via SPI.
//
// The ST7789 is a 16-bit color (RGB565) LCD controller with a 240x320 frame
// memory. Panels of various sizes exist; the driver defaults to the 172x320
// GMT147SPI module and centers smaller panels within the controller RAM.
//
// See the examples for how to use this package.
package st7789

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/bartola/st7789/rgb565"
)

// Rotation selects one of the four panel orientations, in 90° clockwise
// steps.
type Rotation uint8

const (
	Rotation0 Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// Opts is the configuration for the ST7789 panel.
type Opts struct {
	// Panel dimensions in pixels, before rotation.
	W int // Width (default: 172, must be ≤240)
	H int // Height (default: 320, must be ≤320)

	// Initial orientation.
	Rotation Rotation

	// Position of the panel within the 240x320 controller RAM, measured in
	// the rotation-0 orientation; rotations that mirror an axis derive the
	// far-edge offset automatically. When both are zero the panel is
	// centered, which is correct for the GMT147SPI and the other common
	// undersized ST7789 modules.
	ColOffset int
	RowOffset int

	// SPI clock frequency. Defaults to 32MHz. There is no software-enforced
	// upper bound; the usable maximum depends on trace length and wiring.
	Freq physic.Frequency

	// Optional hardware reset pin. When nil the driver relies on power-on
	// reset.
	RST gpio.PinIO

	// Optional chip select pin. When nil the SPI port is expected to manage
	// chip select on its own (the usual spireg case).
	CS gpio.PinOut

	// Optional backlight pin. The GMT147SPI ties the backlight to 3.3V on the
	// PCB, so this is usually nil.
	BL gpio.PinOut
}

// state tracks panel bring-up. Commands other than the initialization
// sequence are only valid in stateReady.
type state uint8

const (
	stateUnconfigured state = iota
	stateReset
	stateInitializing
	stateReady
)

// Dev is the device handle for the ST7789 panel.
type Dev struct {
	// Communication
	c   conn.Conn   // SPI connection
	dc  gpio.PinOut // Data/Command pin
	rst gpio.PinIO  // Reset pin (optional)
	cs  gpio.PinOut // Chip select pin (optional)
	bl  gpio.PinOut // Backlight pin (optional)

	// Panel geometry
	w, h         int // native panel size, before rotation
	colOffsetCfg int // RAM offsets for rotation 0
	rowOffsetCfg int
	colOffset    int // offsets applied to the current rotation
	rowOffset    int
	rotation     Rotation

	maxTxSize int

	// State
	state  state
	halted bool
}

// NewSPI creates a new ST7789 device connected via SPI.
//
// The SPI port is configured for Mode0 (CPOL=0, CPHA=0), 8-bit transfers.
// Mode0 is not negotiable: in Mode3 the controller stops responding partway
// through a large transfer. The dc (Data/Command) GPIO pin must be provided
// and configured as an output.
//
// opts can be nil to use defaults (172x320 GMT147SPI panel).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{W: 172, H: 320}
	}
	if dc == nil {
		return nil, errors.New("st7789: dc pin is required")
	}
	if opts.W <= 0 || opts.W > ramWidth {
		return nil, fmt.Errorf("st7789: width must be between 1 and %d", ramWidth)
	}
	if opts.H <= 0 || opts.H > ramHeight {
		return nil, fmt.Errorf("st7789: height must be between 1 and %d", ramHeight)
	}
	if opts.Rotation > Rotation270 {
		return nil, fmt.Errorf("st7789: invalid rotation %d", opts.Rotation)
	}

	freq := opts.Freq
	if freq == 0 {
		freq = 32 * physic.MegaHertz
	}
	c, err := p.Connect(freq, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}

	// Get the maxTxSize from the conn if it implements the conn.Limits
	// interface, otherwise use a conservative 4096 bytes.
	maxTxSize := 0
	if limits, ok := c.(conn.Limits); ok {
		maxTxSize = limits.MaxTxSize()
	}
	if maxTxSize == 0 {
		maxTxSize = 4096
	}

	colOffset, rowOffset := opts.ColOffset, opts.RowOffset
	if colOffset == 0 && rowOffset == 0 {
		colOffset = (ramWidth - opts.W) / 2
		rowOffset = (ramHeight - opts.H) / 2
	}

	d := &Dev{
		c:            c,
		dc:           dc,
		rst:          opts.RST,
		cs:           opts.CS,
		bl:           opts.BL,
		w:            opts.W,
		h:            opts.H,
		colOffsetCfg: colOffset,
		rowOffsetCfg: rowOffset,
		colOffset:    colOffset,
		rowOffset:    rowOffset,
		maxTxSize:    maxTxSize,
	}

	if err := d.init(opts); err != nil {
		return nil, err
	}
	return d, nil
}

// init resets the panel and sends the initialization sequence. The command
// order and delays are a hard contract of the part; reordering or shortening
// them yields a blank or corrupted panel with no software-visible error.
func (d *Dev) init(opts *Opts) error {
	if err := d.reset(); err != nil {
		return err
	}
	d.state = stateInitializing

	if err := d.sendCommand(swreset); err != nil {
		return err
	}
	time.Sleep(150 * time.Millisecond)

	if err := d.sendCommand(slpout); err != nil {
		return err
	}
	// The datasheet requires 120ms after sleep-out before further commands.
	time.Sleep(120 * time.Millisecond)

	if err := d.sendCommand(colmod, colmod16bpp); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)

	if err := d.setRotation(opts.Rotation); err != nil {
		return err
	}

	// This panel variant needs inversion on to produce correct colors.
	if err := d.sendCommand(invon); err != nil {
		return err
	}
	if err := d.sendCommand(noron); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)

	// Clear the frame memory so power-up garbage never reaches the glass.
	if err := d.clearRAM(); err != nil {
		return err
	}

	if err := d.sendCommand(dispon); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)

	d.state = stateReady

	if d.bl != nil {
		return d.bl.Out(gpio.High)
	}
	return nil
}

// reset performs the hardware reset sequence when a RST pin is bound. The
// low pulse and the post-reset settle time are datasheet minimums, not
// tunables.
func (d *Dev) reset() error {
	d.state = stateUnconfigured
	if d.rst == nil {
		d.state = stateReset
		return nil
	}
	if err := d.rst.Out(gpio.High); err != nil {
		return fmt.Errorf("st7789: failed to pull RST high: %w", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := d.rst.Out(gpio.Low); err != nil {
		return fmt.Errorf("st7789: failed to pull RST low: %w", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := d.rst.Out(gpio.High); err != nil {
		return fmt.Errorf("st7789: failed to pull RST high: %w", err)
	}
	time.Sleep(150 * time.Millisecond)
	d.state = stateReset
	return nil
}

// clearRAM zeroes the full panel window. The window is addressed in the
// current rotation's logical frame, the same way Write addresses it.
func (d *Dev) clearRAM() error {
	w, h := d.Size()
	if err := d.setWindow(0, 0, int(w)-1, int(h)-1); err != nil {
		return err
	}
	return d.sendData(make([]byte, int(w)*int(h)*2))
}

func (d *Dev) ready() error {
	if d.halted {
		return errors.New("st7789: halted")
	}
	if d.state != stateReady {
		return errors.New("st7789: not initialized")
	}
	return nil
}

// sendCommand sends a command byte followed by its parameter bytes, if any.
func (d *Dev) sendCommand(cmd byte, args ...byte) error {
	if d.cs != nil {
		if err := d.cs.Out(gpio.Low); err != nil {
			return err
		}
	}
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(args) != 0 {
		if err := d.dc.Out(gpio.High); err != nil {
			return err
		}
		if err := d.c.Tx(args, nil); err != nil {
			return err
		}
	}
	if d.cs != nil {
		return d.cs.Out(gpio.High)
	}
	return nil
}

// sendData streams data bytes, chunked to the connection's transfer limit.
func (d *Dev) sendData(data []byte) error {
	if d.cs != nil {
		if err := d.cs.Out(gpio.Low); err != nil {
			return err
		}
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(data) != 0 {
		chunk := data
		if len(chunk) > d.maxTxSize {
			chunk = data[:d.maxTxSize]
		}
		if err := d.c.Tx(chunk, nil); err != nil {
			return err
		}
		data = data[len(chunk):]
	}
	if d.cs != nil {
		return d.cs.Out(gpio.High)
	}
	return nil
}

// setWindow bounds the inclusive rectangle the controller will accept pixel
// data for and issues the memory-write command. The caller must stream
// exactly (x1-x0+1)*(y1-y0+1) RGB565 words next, in row-major order;
// otherwise the controller's internal write pointer desynchronizes from the
// logical buffer until the next window is set. There is no status channel on
// this interface, so a mismatch is silent visual corruption, not an error.
func (d *Dev) setWindow(x0, y0, x1, y1 int) error {
	x0 += d.colOffset
	x1 += d.colOffset
	y0 += d.rowOffset
	y1 += d.rowOffset
	if err := d.sendCommand(caset, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.sendCommand(raset, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	return d.sendCommand(ramwr)
}

// Size returns the panel dimensions for the current rotation.
func (d *Dev) Size() (w, h int16) {
	if d.rotation == Rotation90 || d.rotation == Rotation270 {
		return int16(d.h), int16(d.w)
	}
	return int16(d.w), int16(d.h)
}

// Bounds returns the image bounds of the panel for the current rotation.
func (d *Dev) Bounds() image.Rectangle {
	w, h := d.Size()
	return image.Rect(0, 0, int(w), int(h))
}

// ColorModel returns the color model of the panel.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Rotation returns the current orientation of the panel.
func (d *Dev) Rotation() Rotation {
	return d.rotation
}

// SetRotation changes the orientation of the panel (clockwise). A value
// outside {Rotation0..Rotation270} is rejected and leaves the active
// rotation and addressing offsets unchanged.
func (d *Dev) SetRotation(r Rotation) error {
	if r > Rotation270 {
		return fmt.Errorf("st7789: invalid rotation %d", r)
	}
	if err := d.ready(); err != nil {
		return err
	}
	return d.setRotation(r)
}

func (d *Dev) setRotation(r Rotation) error {
	// MX and MY mirror their axis, so orientations using them measure the
	// panel's offset from the far edge of the RAM.
	colMirror := ramWidth - d.w - d.colOffsetCfg
	rowMirror := ramHeight - d.h - d.rowOffsetCfg
	var remap byte
	switch r {
	case Rotation0:
		remap = 0
		d.colOffset, d.rowOffset = d.colOffsetCfg, d.rowOffsetCfg
	case Rotation90:
		remap = madctlMX | madctlMV
		d.colOffset, d.rowOffset = d.rowOffsetCfg, colMirror
	case Rotation180:
		remap = madctlMX | madctlMY
		d.colOffset, d.rowOffset = colMirror, rowMirror
	case Rotation270:
		remap = madctlMY | madctlMV
		d.colOffset, d.rowOffset = rowMirror, d.colOffsetCfg
	}
	if err := d.sendCommand(madctl, remap); err != nil {
		return err
	}
	d.rotation = r
	return nil
}

// Write writes a full frame of raw pixel data to the panel. The data must
// be exactly w*h*2 bytes of big-endian RGB565 words in row-major order for
// the current rotation. The window always covers the full panel, so a frame
// transfer can never leave the controller's write pointer mid-window.
func (d *Dev) Write(pix []byte) (int, error) {
	if err := d.ready(); err != nil {
		return 0, err
	}
	w, h := d.Size()
	if len(pix) != int(w)*int(h)*2 {
		return 0, errors.New("st7789: invalid frame size")
	}
	if err := d.setWindow(0, 0, int(w)-1, int(h)-1); err != nil {
		return 0, err
	}
	if err := d.sendData(pix); err != nil {
		return 0, err
	}
	return len(pix), nil
}

// Draw draws an image onto the panel. The dst rectangle specifies the
// destination region; the src image is read starting at sp. A full-frame
// *rgb565.Image is streamed as-is; anything else is converted through the
// RGB565 color model first.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if err := d.ready(); err != nil {
		return err
	}
	dst = dst.Intersect(d.Bounds())
	if dst.Empty() {
		return nil
	}

	if img, ok := src.(*rgb565.Image); ok {
		if dst == d.Bounds() && sp == (image.Point{}) && img.Rect == d.Bounds() {
			_, err := d.Write(img.Pix)
			return err
		}
	}

	buf := rgb565.NewImage(image.Rect(0, 0, dst.Dx(), dst.Dy()))
	draw.Draw(buf, buf.Rect, src, sp, draw.Src)
	if err := d.setWindow(dst.Min.X, dst.Min.Y, dst.Max.X-1, dst.Max.Y-1); err != nil {
		return err
	}
	return d.sendData(buf.Pix)
}

// Invert inverts the panel colors. Inversion is on after initialization;
// this variant needs it for a correct picture.
func (d *Dev) Invert(invert bool) error {
	if err := d.ready(); err != nil {
		return err
	}
	if invert {
		return d.sendCommand(invon)
	}
	return d.sendCommand(invoff)
}

// Sleep sets the panel's sleep mode. Frame memory is retained while
// sleeping.
func (d *Dev) Sleep(sleeping bool) error {
	if err := d.ready(); err != nil {
		return err
	}
	if sleeping {
		if err := d.sendCommand(slpin); err != nil {
			return err
		}
		time.Sleep(5 * time.Millisecond)
		return nil
	}
	if err := d.sendCommand(slpout); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)
	return nil
}

// EnableBacklight switches the backlight pin, when one is bound.
func (d *Dev) EnableBacklight(enable bool) error {
	if err := d.ready(); err != nil {
		return err
	}
	if d.bl == nil {
		return errors.New("st7789: no backlight pin")
	}
	return d.bl.Out(gpio.Level(enable))
}

// Halt turns the panel off. After calling Halt the device will not respond
// to further commands until it is re-initialized.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	err := d.sendCommand(dispoff)
	d.halted = true
	if d.bl != nil {
		if blErr := d.bl.Out(gpio.Low); err == nil {
			err = blErr
		}
	}
	return err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	w, h := d.Size()
	return fmt.Sprintf("st7789.Dev{%dx%d}", w, h)
}
