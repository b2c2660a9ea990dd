package st7789

// ST7789VW command set, as used by this driver. Names follow the datasheet
// mnemonics.
const (
	nop       = 0x00
	swreset   = 0x01 // Software reset
	slpin     = 0x10 // Sleep in
	slpout    = 0x11 // Sleep out
	noron     = 0x13 // Normal display mode on
	invoff    = 0x20 // Display inversion off
	invon     = 0x21 // Display inversion on
	dispoff   = 0x28 // Display off
	dispon    = 0x29 // Display on
	caset     = 0x2A // Column address set
	raset     = 0x2B // Row address set
	ramwr     = 0x2C // Memory write
	madctl    = 0x36 // Memory data access control
	colmod    = 0x3A // Interface pixel format
)

// MADCTL bits.
const (
	madctlMY  = 0x80 // Row address order
	madctlMX  = 0x40 // Column address order
	madctlMV  = 0x20 // Row/column exchange
	madctlML  = 0x10 // Vertical refresh order
	madctlBGR = 0x08 // BGR color filter panel
	madctlMH  = 0x04 // Horizontal refresh order
)

// colmod16bpp selects 65K colors, 16 bits per pixel over the serial interface.
const colmod16bpp = 0x55

// The ST7789 frame memory is 240x320 regardless of the attached panel size.
// Smaller panels such as the 172x320 GMT147SPI are centered within it.
const (
	ramWidth  = 240
	ramHeight = 320
)
